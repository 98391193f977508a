package deskvisor

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/deskvisor/internal/app"
	cfg "github.com/loykin/deskvisor/internal/config"
	"github.com/loykin/deskvisor/internal/health"
	"github.com/loykin/deskvisor/internal/metrics"
	"github.com/loykin/deskvisor/internal/server"
	"github.com/loykin/deskvisor/internal/supervisor"
	"github.com/loykin/deskvisor/internal/sysinfo"
	"github.com/loykin/deskvisor/internal/window"
	"github.com/loykin/deskvisor/internal/worker"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = cfg.Config

type Status = supervisor.Status

type State = supervisor.State

type SystemInfo = sysinfo.Descriptor

type WindowEvent = window.Event

type Launch = worker.Launch

type Detector = health.Detector

type Option = app.Option

const (
	CloseRequested = window.CloseRequested
	Focused        = window.Focused
	Resized        = window.Resized
	Moved          = window.Moved
)

var (
	ErrAlreadyStarted = supervisor.ErrAlreadyStarted
	ErrStopped        = supervisor.ErrStopped
)

var (
	WithLogger     = app.WithLogger
	WithProber     = app.WithProber
	WithLaunch     = app.WithLaunch
	WithoutSignals = app.WithoutSignals
)

// Host is a thin facade over internal/app.App.
// It provides a stable public API for embedding.
type Host struct{ inner *app.App }

// LoadConfig reads a TOML config; an empty path yields the defaults.
func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// New wires a host from c without spawning the worker.
func New(c *Config, opts ...Option) (*Host, error) {
	a, err := app.Setup(c, opts...)
	if err != nil {
		return nil, err
	}
	return &Host{inner: a}, nil
}

func (h *Host) Run(ctx context.Context) error        { return h.inner.Run(ctx) }
func (h *Host) Start(ctx context.Context) error      { return h.inner.Supervisor().Start(ctx) }
func (h *Host) Stop()                                { h.inner.Supervisor().Stop() }
func (h *Host) CheckHealth(ctx context.Context) bool { return h.inner.Supervisor().CheckHealth(ctx) }
func (h *Host) SystemInfo() SystemInfo               { return h.inner.Supervisor().SystemInfo() }
func (h *Host) Status(ctx context.Context) Status    { return h.inner.Supervisor().Status(ctx) }
func (h *Host) State() State                         { return h.inner.Supervisor().State() }
func (h *Host) HandleWindowEvent(ev WindowEvent)     { h.inner.HandleWindowEvent(ev) }
func (h *Host) Wait(ctx context.Context) error       { return h.inner.Supervisor().Wait(ctx) }
func (h *Host) Closed() <-chan struct{}              { return h.inner.Closed() }
func (h *Host) Ready() <-chan struct{}               { return h.inner.Ready() }
func (h *Host) Addr() string                         { return h.inner.Addr() }

// Invoke runs a registered UI command.
func (h *Host) Invoke(ctx context.Context, name string) (any, error) {
	return h.inner.Commands().Invoke(ctx, name)
}

// Handler returns the command surface as an http.Handler mounted at basePath,
// for embedding into an existing server.
func (h *Host) Handler(basePath string) http.Handler {
	return server.NewRouter(h.inner.Commands(), h.inner, h.inner.Supervisor(), basePath).Handler()
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }
