//go:build !windows

package llm

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup puts the CLI in its own process group and replaces
// the default context cancel with a kill of the whole group. Killing only
// the direct child is not enough: children it spawned inherit the stdout
// and stderr pipes and would keep the call blocked past its deadline.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return terminateProcessGroup(cmd)
	}
}

func terminateProcessGroup(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid
	if pid <= 0 {
		return nil
	}
	if pgid, err := syscall.Getpgid(pid); err == nil && pgid > 0 {
		// Negative PGID targets the full process group (shell + spawned children).
		return syscall.Kill(-pgid, syscall.SIGKILL)
	}
	return cmd.Process.Kill()
}
