// Package xserver starts and stops the display-server processes that back
// sessions. Two implementations exist: Xephyr renders each session as a
// window on the host desktop, Xvfb runs them headless.
package xserver

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Alex-deVis/xControl/internal/proc"
	"github.com/Alex-deVis/xControl/internal/x11"
)

// displayReadyTimeout bounds how long Start waits for a freshly spawned
// display server to accept connections.
const displayReadyTimeout = 5 * time.Second

// waitForDisplayFn is swappable for tests.
var waitForDisplayFn = x11.WaitForDisplay

// DisplayName returns the display string for an ordinal, ":2" form.
func DisplayName(identifier int) string {
	return fmt.Sprintf(":%d", identifier)
}

// startDetached launches a display-server command detached from the invoking
// process, then waits for the display to accept connections. The process is
// stopped again if the display never comes up.
func startDetached(cmd *exec.Cmd, display string) (*proc.Handle, error) {
	h, err := proc.Start(cmd)
	if err != nil {
		return nil, err
	}
	if err := waitForDisplayFn(display, displayReadyTimeout); err != nil {
		_ = h.Stop()
		return nil, err
	}
	return h, nil
}

// stopByPattern kills display-server processes whose command line matches
// the given pkill pattern. Used to tear down displays started by another
// process, where no handle is held.
func stopByPattern(pattern string) error {
	cmd := exec.Command("pkill", "-f", pattern)
	if out, err := cmd.CombinedOutput(); err != nil {
		var exitErr *exec.ExitError
		// Exit code 1 means no process matched, which is fine for teardown.
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil
		}
		return fmt.Errorf("pkill %s failed: %w (%s)", pattern, err, strings.TrimSpace(string(out)))
	}
	return nil
}
