package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	gopsproc "github.com/shirou/gopsutil/v4/process"

	"github.com/loykin/deskvisor/internal/env"
)

// Process is the handle of one spawned worker. The handle itself is
// immutable after Spawn; exit state is filled in by the reaper goroutine.
type Process struct {
	launch    Launch
	cmd       *exec.Cmd
	runID     string
	pid       int
	startedAt time.Time

	mu        sync.Mutex
	exited    bool
	exitErr   error
	stoppedAt time.Time
	closers   []io.Closer
	done      chan struct{}
}

// Stats is a best-effort resource snapshot of the worker.
type Stats struct {
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
}

// Options configures Spawn.
type Options struct {
	// Stdout and Stderr receive the worker output. Nil inherits the host's streams.
	Stdout io.WriteCloser
	Stderr io.WriteCloser
	// OnExit runs on the reaper goroutine after the worker exited, before
	// Wait and Done release their callers.
	OnExit func(p *Process, err error)
}

// Spawn starts the worker described by l. It makes exactly one attempt.
func Spawn(l Launch, opts Options) (*Process, error) {
	// #nosec G204 -- interpreter and script come from the launcher table/config
	cmd := exec.Command(l.Interpreter, l.Argv()...)
	if l.WorkDir != "" {
		cmd.Dir = l.WorkDir
	}
	if len(l.Env) > 0 {
		cmd.Env = env.Compose(l.Env)
	}
	configureSysProcAttr(cmd)

	var closers []io.Closer
	cmd.Stdout = os.Stdout
	if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
		closers = append(closers, opts.Stdout)
	}
	cmd.Stderr = os.Stderr
	if opts.Stderr != nil {
		cmd.Stderr = opts.Stderr
		closers = append(closers, opts.Stderr)
	}

	if err := cmd.Start(); err != nil {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}
	p := &Process{
		launch:    l,
		cmd:       cmd,
		runID:     uuid.NewString(),
		pid:       cmd.Process.Pid,
		startedAt: time.Now(),
		closers:   closers,
		done:      make(chan struct{}),
	}
	go p.reap(opts.OnExit)
	return p, nil
}

func (p *Process) reap(onExit func(*Process, error)) {
	err := p.cmd.Wait()
	p.mu.Lock()
	p.exited = true
	p.exitErr = err
	p.stoppedAt = time.Now()
	closers := p.closers
	p.closers = nil
	p.mu.Unlock()
	for _, c := range closers {
		_ = c.Close()
	}
	if onExit != nil {
		onExit(p, err)
	}
	close(p.done)
}

// Terminate sends the termination signal once per call. It returns
// os.ErrProcessDone when the worker had already exited.
func (p *Process) Terminate() error {
	if p.Exited() {
		return os.ErrProcessDone
	}
	return terminate(p.pid)
}

// Wait blocks until the worker exited or ctx is done.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the worker has been reaped.
func (p *Process) Done() <-chan struct{} { return p.done }

func (p *Process) PID() int             { return p.pid }
func (p *Process) RunID() string        { return p.runID }
func (p *Process) Launch() Launch       { return p.launch }
func (p *Process) StartedAt() time.Time { return p.startedAt }

// Exited reports whether the reaper observed the exit.
func (p *Process) Exited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited
}

// ExitErr returns the error from cmd.Wait, nil while running or on a clean exit.
func (p *Process) ExitErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitErr
}

// StoppedAt is zero while the worker runs.
func (p *Process) StoppedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stoppedAt
}

// Alive probes the OS for the pid, independent of the reaper.
func (p *Process) Alive() bool {
	return !p.Exited() && pidAlive(p.pid)
}

// Stats reads memory and CPU usage via gopsutil.
func (p *Process) Stats(ctx context.Context) (Stats, error) {
	if p.Exited() {
		return Stats{}, os.ErrProcessDone
	}
	gp, err := gopsproc.NewProcessWithContext(ctx, int32(p.pid))
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	var errs []error
	if mem, err := gp.MemoryInfoWithContext(ctx); err == nil {
		st.RSSBytes = mem.RSS
	} else {
		errs = append(errs, err)
	}
	if cpu, err := gp.CPUPercentWithContext(ctx); err == nil {
		st.CPUPercent = cpu
	} else {
		errs = append(errs, err)
	}
	return st, errors.Join(errs...)
}
