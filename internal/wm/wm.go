// Package wm starts the window manager that runs inside each session
// display. Without one, launched applications get no focus handling and
// synthetic keystrokes have nowhere to land.
package wm

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/Alex-deVis/xControl/internal/proc"
)

// ErrWindowManagerNotAvailable is returned when the window manager binary is
// not installed.
var ErrWindowManagerNotAvailable = errors.New("window manager is not available in PATH")

// Manager launches a window manager bound to a display.
type Manager struct {
	binary string
}

// NewManager creates a window-manager adapter. An empty binary falls back to
// "spectrwm" resolved via PATH.
func NewManager(binary string) *Manager {
	if binary == "" {
		binary = "spectrwm"
	}
	return &Manager{binary: binary}
}

// Name returns the binary name of the window manager.
func (m *Manager) Name() string {
	return m.binary
}

// Available returns true if the window manager binary is installed.
func (m *Manager) Available() bool {
	_, err := exec.LookPath(m.binary)
	return err == nil
}

// Start launches the window manager on the given display and returns its
// process handle. The manager runs until the display goes away or the
// session is closed.
func (m *Manager) Start(display string) (*proc.Handle, error) {
	if !m.Available() {
		return nil, ErrWindowManagerNotAvailable
	}
	cmd := exec.Command(m.binary)
	cmd.Env = proc.UpsertEnv(os.Environ(), "DISPLAY", display)
	h, err := proc.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("%s start failed: %w", m.binary, err)
	}
	return h, nil
}
