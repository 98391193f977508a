package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/loykin/deskvisor/internal/command"
	"github.com/loykin/deskvisor/internal/config"
	"github.com/loykin/deskvisor/internal/health"
	"github.com/loykin/deskvisor/internal/history"
	"github.com/loykin/deskvisor/internal/history/factory"
	"github.com/loykin/deskvisor/internal/metrics"
	"github.com/loykin/deskvisor/internal/server"
	"github.com/loykin/deskvisor/internal/supervisor"
	"github.com/loykin/deskvisor/internal/window"
	"github.com/loykin/deskvisor/internal/worker"
)

// App is the application-scoped owner of the supervisor. It lives from
// startup until the window closes and is shared by every command handler.
type App struct {
	cfg  *config.Config
	log  *slog.Logger
	sup  *supervisor.Supervisor
	cmds *command.Registry
	rec  *history.Recorder

	closeOnce sync.Once
	closed    chan struct{}

	noSig bool

	addrMu sync.Mutex
	addr   string
	ready  chan struct{}
}

// Option customises Setup.
type Option func(*options)

type options struct {
	logger *slog.Logger
	prober health.Detector
	launch *worker.Launch
	noSig  bool
}

// WithLogger replaces the logger built from the [log] section.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithProber replaces the fixed HTTP health probe.
func WithProber(d health.Detector) Option { return func(o *options) { o.prober = d } }

// WithLaunch replaces the launch resolved from the [worker] section.
func WithLaunch(l worker.Launch) Option { return func(o *options) { o.launch = &l } }

// WithoutSignals stops Run from treating SIGINT/SIGTERM as a close request.
func WithoutSignals() Option { return func(o *options) { o.noSig = true } }

// Setup wires the supervisor, the command registry and the optional
// metrics and history sinks. It does not spawn the worker.
func Setup(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	log := o.logger
	if log == nil {
		log = cfg.Log.NewSlogger()
	}
	log = log.With("app", cfg.App.Name)

	var l worker.Launch
	if o.launch != nil {
		l = *o.launch
	} else {
		resolved, err := cfg.Launch()
		if err != nil {
			return nil, fmt.Errorf("resolve worker launch: %w", err)
		}
		l = resolved
	}

	if cfg.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			log.Warn("failed to register metrics", "error", err)
		}
	}

	var rec *history.Recorder
	if cfg.History.Enabled {
		sink, err := factory.NewSinkFromDSN(cfg.History.DSN)
		if err != nil {
			log.Warn("history disabled: cannot open sink", "error", err)
		} else {
			rec = history.NewRecorder(sink, log)
		}
	}

	sup := supervisor.New(supervisor.Config{
		Launch:   l,
		Output:   cfg.Log,
		Prober:   o.prober,
		Recorder: rec,
		Logger:   log,
	})

	a := &App{
		cfg:    cfg,
		log:    log,
		sup:    sup,
		cmds:   command.NewBuiltin(sup),
		rec:    rec,
		closed: make(chan struct{}),
		noSig:  o.noSig,
		ready:  make(chan struct{}),
	}
	return a, nil
}

func (a *App) Supervisor() *supervisor.Supervisor { return a.sup }
func (a *App) Commands() *command.Registry        { return a.cmds }

// Closed is closed after the first close request was handled.
func (a *App) Closed() <-chan struct{} { return a.closed }

// Ready is closed once the command server listens.
func (a *App) Ready() <-chan struct{} { return a.ready }

// Addr is the bound command server address, empty before Ready.
func (a *App) Addr() string {
	a.addrMu.Lock()
	defer a.addrMu.Unlock()
	return a.addr
}

// HandleWindowEvent is the window lifecycle hook. CloseRequested stops
// the worker; other events are ignored.
func (a *App) HandleWindowEvent(ev window.Event) {
	if ev != window.CloseRequested {
		a.log.Debug("window event ignored", "event", string(ev))
		return
	}
	a.sup.Stop()
	a.closeOnce.Do(func() {
		a.log.Info("window close requested")
		close(a.closed)
	})
}

// Run starts the worker, serves the command surface and blocks until a
// close request, a termination signal or ctx cancellation. A worker that
// fails to start leaves the host running without a backend. Run must be
// called at most once.
func (a *App) Run(ctx context.Context) error {
	if err := a.sup.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.log.Warn("continuing without backend worker", "error", err)
	}

	ln, err := net.Listen("tcp", a.cfg.Server.Listen)
	if err != nil {
		a.HandleWindowEvent(window.CloseRequested)
		a.finish()
		return fmt.Errorf("listen %s: %w", a.cfg.Server.Listen, err)
	}
	router := server.NewRouter(a.cmds, a, a.sup, a.cfg.Server.BasePath).WithMetrics(a.cfg.Metrics.Enabled)
	srv := server.NewServer(ln.Addr().String(), router)

	a.addrMu.Lock()
	a.addr = ln.Addr().String()
	a.addrMu.Unlock()
	close(a.ready)
	a.log.Info("command server listening", "addr", ln.Addr().String(), "base_path", a.cfg.Server.BasePath)

	sigCtx := ctx
	if !a.noSig {
		var stop context.CancelFunc
		sigCtx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("command server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-a.closed:
		case <-sigCtx.Done():
			a.log.Info("shutdown signal received")
			a.HandleWindowEvent(window.CloseRequested)
		case <-gctx.Done():
			a.HandleWindowEvent(window.CloseRequested)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err = g.Wait()
	a.finish()
	return err
}

// finish waits a bounded grace period for the worker to be reaped and
// flushes history.
func (a *App) finish() {
	grace := a.cfg.App.ShutdownGrace
	if grace > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), grace)
		if err := a.sup.Wait(ctx); err != nil {
			a.log.Warn("backend worker did not exit within grace period", "grace", grace)
		}
		cancel()
	}
	if err := a.rec.Close(); err != nil {
		a.log.Warn("failed to close history sink", "error", err)
	}
}
