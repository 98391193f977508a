package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/loykin/deskvisor/internal/sysinfo"
)

// Names of the built-in commands exposed to the UI layer.
const (
	CheckBackendHealth = "check_backend_health"
	GetSystemInfo      = "get_system_info"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrDuplicateCommand = errors.New("command already registered")
)

// Func handles one invocation. The result is serialised as JSON.
type Func func(ctx context.Context) (any, error)

// Backend is what the built-in commands need from the supervisor.
type Backend interface {
	CheckHealth(ctx context.Context) bool
	SystemInfo() sysinfo.Descriptor
}

// Registry maps command names to handlers. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	cmds map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]Func)}
}

// NewBuiltin returns a registry holding check_backend_health and
// get_system_info bound to b.
func NewBuiltin(b Backend) *Registry {
	r := NewRegistry()
	_ = r.Register(CheckBackendHealth, func(ctx context.Context) (any, error) {
		return b.CheckHealth(ctx), nil
	})
	_ = r.Register(GetSystemInfo, func(context.Context) (any, error) {
		return b.SystemInfo(), nil
	})
	return r
}

func (r *Registry) Register(name string, fn Func) error {
	if name == "" || fn == nil {
		return errors.New("command name and handler are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cmds[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}
	r.cmds[name] = fn
	return nil
}

// Invoke runs the named command.
func (r *Registry) Invoke(ctx context.Context, name string) (any, error) {
	r.mu.RLock()
	fn, ok := r.cmds[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return fn(ctx)
}

// Names lists registered commands in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.cmds))
	for n := range r.cmds {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
