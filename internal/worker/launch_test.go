package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePicksInterpreterPerPlatform(t *testing.T) {
	cases := map[string]string{
		"darwin":  "python3",
		"linux":   "python3",
		"windows": "python",
		"freebsd": FallbackInterpreter,
	}
	for goos, want := range cases {
		l := Resolve(goos, Overrides{})
		assert.Equal(t, want, l.Interpreter, goos)
		assert.Equal(t, DefaultScript(), l.Script)
		assert.Equal(t, "backend", l.Name)
	}
}

func TestResolveOverrides(t *testing.T) {
	o := Overrides{
		Name:      "zimage",
		Launchers: map[string]string{"Windows": "py", "linux": "  "},
		Script:    "/opt/app/main.py",
		Args:      []string{"--port", "8000"},
		WorkDir:   "/opt/app",
		Env:       []string{"A=1"},
	}
	l := Resolve("windows", o)
	assert.Equal(t, "py", l.Interpreter)
	assert.Equal(t, "/opt/app/main.py", l.Script)
	assert.Equal(t, []string{"/opt/app/main.py", "--port", "8000"}, l.Argv())
	assert.Equal(t, "py /opt/app/main.py --port 8000", l.String())

	// blank override leaves the default in place
	assert.Equal(t, "python3", Resolve("linux", o).Interpreter)

	// resolved launch does not alias the override slices
	o.Args[0] = "changed"
	assert.Equal(t, "--port", l.Args[0])
}

func TestDefaultScriptFollowsBuildFlag(t *testing.T) {
	if Release {
		assert.Equal(t, BundledScript, DefaultScript())
	} else {
		assert.Equal(t, DevScript, DefaultScript())
	}
}
