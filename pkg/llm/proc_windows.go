//go:build windows

package llm

import "os/exec"

// configureProcessGroup keeps the default cancel behavior on Windows, where
// process groups work differently; WaitDelay still bounds the wait for
// inherited pipes.
func configureProcessGroup(cmd *exec.Cmd) {}
