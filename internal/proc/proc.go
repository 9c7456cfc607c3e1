// Package proc wraps spawned collaborator processes (display servers,
// window managers, launched applications) with a uniform detach and stop
// discipline.
package proc

import (
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Handle is one spawned process.
type Handle struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

// Start launches cmd in its own process session so the child survives the
// invoking process, and reaps it in the background to avoid zombies.
func Start(cmd *exec.Cmd) (*Handle, error) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}
	h := &Handle{cmd: cmd, done: make(chan struct{})}
	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

// Pid returns the process id, or 0 when the process never started.
func (h *Handle) Pid() int {
	if h == nil || h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Running reports whether the process has not exited yet.
func (h *Handle) Running() bool {
	if h == nil || h.cmd == nil || h.cmd.Process == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the process exits and returns its exit error.
func (h *Handle) Wait() error {
	if h == nil || h.cmd == nil || h.cmd.Process == nil {
		return nil
	}
	<-h.done
	return h.waitErr
}

// Stop terminates the process. SIGTERM first so it can clean up, SIGKILL if
// it has not exited after two seconds.
func (h *Handle) Stop() error {
	if h == nil || h.cmd == nil || h.cmd.Process == nil {
		return nil
	}
	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Already gone.
		return nil
	}
	select {
	case <-h.done:
		return nil
	case <-time.After(2 * time.Second):
	}
	_ = h.cmd.Process.Kill()
	<-h.done
	return nil
}

// UpsertEnv replaces or appends a KEY=value entry in an environment list.
func UpsertEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
