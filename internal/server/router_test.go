package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/loykin/deskvisor/internal/command"
	"github.com/loykin/deskvisor/internal/metrics"
	"github.com/loykin/deskvisor/internal/supervisor"
	"github.com/loykin/deskvisor/internal/sysinfo"
	"github.com/loykin/deskvisor/internal/window"
)

type fakeBackend struct{ healthy bool }

func (f fakeBackend) CheckHealth(context.Context) bool { return f.healthy }
func (f fakeBackend) SystemInfo() sysinfo.Descriptor   { return sysinfo.For("darwin", "arm64") }

type fakeLifecycle struct {
	mu     sync.Mutex
	events []window.Event
}

func (f *fakeLifecycle) HandleWindowEvent(ev window.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

type fakeStatus struct{}

func (fakeStatus) Status(context.Context) supervisor.Status {
	return supervisor.Status{State: "running", Name: "backend", PID: 42, Command: "python3"}
}

func setupRouter(t *testing.T, base string, healthy bool) (http.Handler, *fakeLifecycle) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	life := &fakeLifecycle{}
	r := NewRouter(command.NewBuiltin(fakeBackend{healthy: healthy}), life, fakeStatus{}, base)
	return r.Handler(), life
}

func doReq(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestInvokeHealth(t *testing.T) {
	for _, healthy := range []bool{true, false} {
		h, _ := setupRouter(t, "/api", healthy)
		for _, method := range []string{http.MethodPost, http.MethodGet} {
			rec := doReq(t, h, method, "/api/invoke/check_backend_health", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			var got bool
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			require.Equal(t, healthy, got)
		}
	}
}

func TestInvokeSystemInfo(t *testing.T) {
	h, _ := setupRouter(t, "/api", true)
	rec := doReq(t, h, http.MethodPost, "/api/invoke/get_system_info", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "darwin", got["os"])
	require.Equal(t, "arm64", got["arch"])
	require.Equal(t, true, got["is_macos"])
	require.Equal(t, false, got["is_windows"])
	require.Equal(t, false, got["is_linux"])
}

func TestInvokeUnknownCommand(t *testing.T) {
	h, _ := setupRouter(t, "", true)
	rec := doReq(t, h, http.MethodPost, "/invoke/launch_missiles", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "unknown command")
}

func TestInvokeRejectsUnsafeName(t *testing.T) {
	h, _ := setupRouter(t, "", true)
	rec := doReq(t, h, http.MethodPost, "/invoke/a..b", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWindowEvent(t *testing.T) {
	h, life := setupRouter(t, "/api", true)
	rec := doReq(t, h, http.MethodPost, "/api/window/event", map[string]string{"event": "close_requested"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":true}`, rec.Body.String())
	require.Equal(t, []window.Event{window.CloseRequested}, life.events)

	rec = doReq(t, h, http.MethodPost, "/api/window/event", map[string]string{"event": "exploded"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doReq(t, h, http.MethodPost, "/api/window/event", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, life.events, 1)
}

func TestStatus(t *testing.T) {
	h, _ := setupRouter(t, "/api/", true)
	rec := doReq(t, h, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st supervisor.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.Equal(t, "running", st.State)
	require.Equal(t, 42, st.PID)
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, metrics.Register(prometheus.DefaultRegisterer))

	off := NewRouter(command.NewRegistry(), &fakeLifecycle{}, fakeStatus{}, "/api").Handler()
	require.Equal(t, http.StatusNotFound, doReq(t, off, http.MethodGet, "/metrics", nil).Code)

	on := NewRouter(command.NewRegistry(), &fakeLifecycle{}, fakeStatus{}, "/api").WithMetrics(true).Handler()
	rec := doReq(t, on, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "deskvisor_worker_stops_total")
}
