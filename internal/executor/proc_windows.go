//go:build windows

package executor

import "os/exec"

// setProcGroup is a no-op on Windows; the default context kill applies to
// the direct child only.
func setProcGroup(cmd *exec.Cmd) {}
