package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loykin/deskvisor/internal/sysinfo"
)

type fakeBackend struct{ healthy bool }

func (f fakeBackend) CheckHealth(context.Context) bool { return f.healthy }
func (f fakeBackend) SystemInfo() sysinfo.Descriptor   { return sysinfo.For("linux", "amd64") }

func TestBuiltinCommands(t *testing.T) {
	r := NewBuiltin(fakeBackend{healthy: true})
	require.Equal(t, []string{CheckBackendHealth, GetSystemInfo}, r.Names())

	v, err := r.Invoke(context.Background(), CheckBackendHealth)
	require.NoError(t, err)
	require.Equal(t, true, v)

	v, err = r.Invoke(context.Background(), GetSystemInfo)
	require.NoError(t, err)
	d, ok := v.(sysinfo.Descriptor)
	require.True(t, ok)
	require.True(t, d.IsLinux)
	require.Equal(t, "amd64", d.Arch)
}

func TestHealthCommandAlwaysBoolean(t *testing.T) {
	r := NewBuiltin(fakeBackend{healthy: false})
	v, err := r.Invoke(context.Background(), CheckBackendHealth)
	require.NoError(t, err)
	require.Equal(t, false, v)
}

func TestUnknownCommand(t *testing.T) {
	r := NewBuiltin(fakeBackend{})
	_, err := r.Invoke(context.Background(), "format_disk")
	require.ErrorIs(t, err, ErrUnknownCommand)
}

func TestRegisterDuplicateAndInvalid(t *testing.T) {
	r := NewRegistry()
	fn := func(context.Context) (any, error) { return "x", nil }
	require.NoError(t, r.Register("x", fn))
	require.ErrorIs(t, r.Register("x", fn), ErrDuplicateCommand)
	require.Error(t, r.Register("", fn))
	require.Error(t, r.Register("y", nil))
}

func TestInvokePropagatesHandlerError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	require.NoError(t, r.Register("fail", func(context.Context) (any, error) { return nil, boom }))
	_, err := r.Invoke(context.Background(), "fail")
	require.ErrorIs(t, err, boom)
}
