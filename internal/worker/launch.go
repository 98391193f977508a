package worker

import (
	"fmt"
	"runtime"
	"strings"
)

// Script paths for the two build flavours. Development builds run the
// backend straight from the source tree; release builds run the copy that
// is bundled next to the executable.
const (
	DevScript     = "../web-app/backend/main.py"
	BundledScript = "python-backend/main.py"
)

// FallbackInterpreter is used for platforms missing from the launcher table.
const FallbackInterpreter = "python3"

// DefaultLaunchers maps a platform identifier (runtime.GOOS) to the
// interpreter that runs the worker script.
var DefaultLaunchers = map[string]string{
	"darwin":  "python3",
	"linux":   "python3",
	"windows": "python",
}

// Launch is the fully resolved worker invocation. It is computed once at
// startup and never mutated afterwards.
type Launch struct {
	Name        string   `json:"name"`
	Interpreter string   `json:"command"`
	Script      string   `json:"script"`
	Args        []string `json:"args,omitempty"`
	WorkDir     string   `json:"work_dir,omitempty"`
	Env         []string `json:"env,omitempty"`
}

// Overrides are optional configuration values layered over the defaults.
type Overrides struct {
	Name      string
	Launchers map[string]string
	Script    string
	Args      []string
	WorkDir   string
	Env       []string
}

// DefaultScript returns the script path selected by the build flag.
func DefaultScript() string {
	if Release {
		return BundledScript
	}
	return DevScript
}

// Resolve picks the interpreter for goos and the script for the current
// build flavour, then applies overrides.
func Resolve(goos string, o Overrides) Launch {
	launchers := make(map[string]string, len(DefaultLaunchers)+len(o.Launchers))
	for k, v := range DefaultLaunchers {
		launchers[k] = v
	}
	for k, v := range o.Launchers {
		if v = strings.TrimSpace(v); v != "" {
			launchers[strings.ToLower(k)] = v
		}
	}
	interp, ok := launchers[goos]
	if !ok {
		interp = FallbackInterpreter
	}
	script := o.Script
	if script == "" {
		script = DefaultScript()
	}
	name := o.Name
	if name == "" {
		name = "backend"
	}
	return Launch{
		Name:        name,
		Interpreter: interp,
		Script:      script,
		Args:        append([]string(nil), o.Args...),
		WorkDir:     o.WorkDir,
		Env:         append([]string(nil), o.Env...),
	}
}

// ResolveHost resolves for the running platform.
func ResolveHost(o Overrides) Launch { return Resolve(runtime.GOOS, o) }

// Argv returns the arguments passed to the interpreter: the script first.
func (l Launch) Argv() []string {
	return append([]string{l.Script}, l.Args...)
}

func (l Launch) String() string {
	return fmt.Sprintf("%s %s", l.Interpreter, strings.Join(l.Argv(), " "))
}
