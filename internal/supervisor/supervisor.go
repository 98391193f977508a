package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/loykin/deskvisor/internal/health"
	"github.com/loykin/deskvisor/internal/history"
	"github.com/loykin/deskvisor/internal/logger"
	"github.com/loykin/deskvisor/internal/metrics"
	"github.com/loykin/deskvisor/internal/sysinfo"
	"github.com/loykin/deskvisor/internal/worker"
)

var (
	ErrAlreadyStarted = errors.New("worker already started")
	ErrStopped        = errors.New("supervisor stopped")
)

// State is the supervisor state machine: NotStarted -> Running -> Stopped.
type State int

const (
	NotStarted State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var allStates = []string{NotStarted.String(), Running.String(), Stopped.String()}

// Config wires a Supervisor. Zero values fall back to the fixed health
// probe, the host launcher table and slog.Default.
type Config struct {
	Launch   worker.Launch
	Output   logger.Config
	Prober   health.Detector
	Recorder *history.Recorder
	Logger   *slog.Logger
}

// Supervisor owns one backend worker from startup to window close.
// All reads and writes of the handle slot go through mu.
type Supervisor struct {
	mu        sync.Mutex
	proc      *worker.Process
	state     State
	attempted bool
	closed    bool
	last      *worker.Process
	spawnErr  error

	launch worker.Launch
	output logger.Config
	prober health.Detector
	rec    *history.Recorder
	log    *slog.Logger
}

func New(cfg Config) *Supervisor {
	l := cfg.Launch
	if l.Interpreter == "" {
		l = worker.ResolveHost(worker.Overrides{Name: l.Name, Script: l.Script, Args: l.Args, WorkDir: l.WorkDir, Env: l.Env})
	}
	prober := cfg.Prober
	if prober == nil {
		prober = health.NewHTTPProbe()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Supervisor{
		launch: l,
		output: cfg.Output,
		prober: prober,
		rec:    cfg.Recorder,
		log:    log.With("component", "supervisor", "worker", l.Name),
	}
	metrics.SetState(NotStarted.String(), allStates)
	return s
}

// Start spawns the worker exactly once. A failure is logged and returned;
// the host keeps running without a backend.
func (s *Supervisor) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStopped
	}
	if s.attempted {
		return ErrAlreadyStarted
	}
	s.attempted = true

	stdout, stderr, err := s.output.WorkerWriters(s.launch.Name)
	if err != nil {
		s.log.Warn("worker output files unavailable, inheriting host streams", "error", err)
		stdout, stderr = nil, nil
	}
	p, err := worker.Spawn(s.launch, worker.Options{
		Stdout: stdout,
		Stderr: stderr,
		OnExit: s.onExit,
	})
	if err != nil {
		s.spawnErr = err
		metrics.IncSpawn(false)
		s.log.Error("failed to start backend worker, make sure Python is installed",
			"command", s.launch.String(), "error", err)
		s.rec.Record(history.Event{
			Type:    history.EventSpawnFailed,
			Name:    s.launch.Name,
			Command: s.launch.String(),
			Error:   err.Error(),
		})
		return fmt.Errorf("spawn %s: %w", s.launch.Interpreter, err)
	}

	s.proc = p
	s.last = p
	s.state = Running
	metrics.IncSpawn(true)
	metrics.SetState(Running.String(), allStates)
	s.log.Info("backend worker started", "pid", p.PID(), "run_id", p.RunID(), "command", s.launch.String())
	s.rec.Record(history.Event{
		Type:    history.EventStarted,
		RunID:   p.RunID(),
		Name:    s.launch.Name,
		PID:     p.PID(),
		Command: s.launch.String(),
	})
	return nil
}

// onExit runs on the reaper goroutine and never takes mu.
func (s *Supervisor) onExit(p *worker.Process, err error) {
	metrics.IncExit()
	ev := history.Event{
		Type:    history.EventExited,
		RunID:   p.RunID(),
		Name:    p.Launch().Name,
		PID:     p.PID(),
		Command: p.Launch().String(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.rec.Record(ev)
	s.log.Info("backend worker exited", "pid", p.PID(), "run_id", p.RunID(), "error", err)
}

// CheckHealth probes the worker's health endpoint once. It never blocks
// on the handle slot and reports every failure as false.
func (s *Supervisor) CheckHealth(ctx context.Context) bool {
	start := time.Now()
	ok, err := s.prober.Alive(ctx)
	metrics.ObserveHealthCheck(health.Reason(err), time.Since(start).Seconds())
	if err != nil {
		s.log.Debug("health probe failed", "probe", s.prober.Describe(), "error", err)
	}
	return ok && err == nil
}

// SystemInfo describes the host platform.
func (s *Supervisor) SystemInfo() sysinfo.Descriptor { return sysinfo.Get() }

// Stop takes the handle out of the slot and signals it once. Calling it
// again, or without a running worker, does nothing. Signal failures are
// logged and never returned.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	p := s.proc
	s.proc = nil
	if p == nil {
		return
	}
	s.state = Stopped
	metrics.SetState(Stopped.String(), allStates)

	err := p.Terminate()
	switch {
	case err == nil:
		metrics.IncStop()
		s.log.Info("backend worker stopped", "pid", p.PID(), "run_id", p.RunID())
	case errors.Is(err, os.ErrProcessDone):
		s.log.Debug("backend worker already finished", "pid", p.PID(), "run_id", p.RunID())
	default:
		s.log.Warn("failed to stop backend worker", "pid", p.PID(), "run_id", p.RunID(), "error", err)
	}
	ev := history.Event{
		Type:    history.EventStopped,
		RunID:   p.RunID(),
		Name:    s.launch.Name,
		PID:     p.PID(),
		Command: s.launch.String(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.rec.Record(ev)
}

// Wait blocks until the most recently spawned worker has been reaped or
// ctx is done. It returns nil at once when no worker was ever spawned.
func (s *Supervisor) Wait(ctx context.Context) error {
	s.mu.Lock()
	p := s.last
	s.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Wait(ctx)
}

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Running reports whether a handle is currently held.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil
}
