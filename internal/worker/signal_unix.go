//go:build !windows

package worker

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// terminate kills the worker's process group. A group that no longer
// exists is reported as os.ErrProcessDone.
func terminate(pid int) error {
	if pid <= 0 {
		return os.ErrProcessDone
	}
	err := unix.Kill(-pid, unix.SIGKILL)
	if errors.Is(err, unix.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

// pidAlive returns true if a process with given pid exists (or EPERM).
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
