//go:build !windows

package worker

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr places the worker in its own process group so a
// single signal reaches the interpreter and anything it forked.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
