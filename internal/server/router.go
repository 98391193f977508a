package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/deskvisor/internal/command"
	"github.com/loykin/deskvisor/internal/metrics"
	"github.com/loykin/deskvisor/internal/supervisor"
	"github.com/loykin/deskvisor/internal/window"
)

// Router provides embeddable HTTP handlers for the UI command surface.
// Endpoints:
//   POST|GET {basePath}/invoke/:command   runs a registered command
//   POST     {basePath}/window/event      body: {"event":"close_requested"}
//   GET      {basePath}/status            supervisor snapshot
//   GET      /metrics                     when metrics are enabled
// basePath may be empty or start with '/'; no trailing slash.

// Lifecycle receives window events.
type Lifecycle interface {
	HandleWindowEvent(ev window.Event)
}

// StatusSource reports the supervisor snapshot.
type StatusSource interface {
	Status(ctx context.Context) supervisor.Status
}

type Router struct {
	cmds     *command.Registry
	life     Lifecycle
	status   StatusSource
	basePath string
	metrics  bool
}

// NewRouter constructs a Router mounted at basePath.
// Example basePath: "/api" results in /api/invoke/..., /api/status.
func NewRouter(cmds *command.Registry, life Lifecycle, status StatusSource, basePath string) *Router {
	return &Router{cmds: cmds, life: life, status: status, basePath: sanitizeBase(basePath)}
}

// WithMetrics exposes GET /metrics on the returned handler.
func (r *Router) WithMetrics(on bool) *Router {
	r.metrics = on
	return r
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/invoke/:command", r.handleInvoke)
	group.GET("/invoke/:command", r.handleInvoke)
	group.POST("/window/event", r.handleWindowEvent)
	group.GET("/status", r.handleStatus)
	if r.metrics {
		g.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	return g
}

// NewServer builds the HTTP server for addr. The caller owns serving and shutdown.
func NewServer(addr string, r *Router) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

type windowEventReq struct {
	Event string `json:"event"`
}

func (r *Router) handleInvoke(c *gin.Context) {
	name := c.Param("command")
	if !isSafeName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid command name"})
		return
	}
	v, err := r.cmds.Invoke(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, command.ErrUnknownCommand) {
			writeJSON(c, http.StatusNotFound, errorResp{Error: err.Error()})
			return
		}
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, v)
}

func (r *Router) handleWindowEvent(c *gin.Context) {
	var req windowEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	ev, err := window.Parse(req.Event)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	r.life.HandleWindowEvent(ev)
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStatus(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.status.Status(c.Request.Context()))
}
