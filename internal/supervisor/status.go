package supervisor

import (
	"context"
	"time"

	"github.com/loykin/deskvisor/internal/worker"
)

// Status is a point-in-time view of the supervisor and its worker.
type Status struct {
	State     string        `json:"state"`
	Name      string        `json:"name"`
	PID       int           `json:"pid,omitempty"`
	RunID     string        `json:"run_id,omitempty"`
	Command   string        `json:"command"`
	Args      []string      `json:"args"`
	WorkDir   string        `json:"work_dir,omitempty"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	StoppedAt time.Time     `json:"stopped_at,omitempty"`
	Exited    bool          `json:"exited"`
	ExitError string        `json:"exit_error,omitempty"`
	SpawnErr  string        `json:"spawn_error,omitempty"`
	Stats     *worker.Stats `json:"stats,omitempty"`
}

// Status snapshots the supervisor. Resource stats are best effort and only
// present while the worker runs.
func (s *Supervisor) Status(ctx context.Context) Status {
	s.mu.Lock()
	st := Status{
		State:   s.state.String(),
		Name:    s.launch.Name,
		Command: s.launch.Interpreter,
		Args:    s.launch.Argv(),
		WorkDir: s.launch.WorkDir,
	}
	if s.spawnErr != nil {
		st.SpawnErr = s.spawnErr.Error()
	}
	p := s.last
	s.mu.Unlock()

	if p == nil {
		return st
	}
	st.PID = p.PID()
	st.RunID = p.RunID()
	st.StartedAt = p.StartedAt()
	st.StoppedAt = p.StoppedAt()
	st.Exited = p.Exited()
	if err := p.ExitErr(); err != nil {
		st.ExitError = err.Error()
	}
	if !st.Exited {
		if stats, err := p.Stats(ctx); err == nil {
			st.Stats = &stats
		}
	}
	return st
}
