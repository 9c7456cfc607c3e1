package xserver

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/Alex-deVis/xControl/internal/proc"
)

// ErrXephyrNotAvailable is returned when Xephyr is not installed.
var ErrXephyrNotAvailable = errors.New("Xephyr is not available in PATH")

// Xephyr runs nested displays as windows on the host desktop.
type Xephyr struct {
	binary string
}

// NewXephyr creates a Xephyr adapter. An empty binary falls back to
// "Xephyr" resolved via PATH.
func NewXephyr(binary string) *Xephyr {
	if binary == "" {
		binary = "Xephyr"
	}
	return &Xephyr{binary: binary}
}

// Name returns "xephyr".
func (x *Xephyr) Name() string {
	return "xephyr"
}

// Available returns true if the Xephyr binary is installed.
func (x *Xephyr) Available() bool {
	_, err := exec.LookPath(x.binary)
	return err == nil
}

// Start spawns a nested display of the given dimensions and waits for it to
// accept connections. Returns the process handle and the display string.
func (x *Xephyr) Start(identifier, width, height int) (*proc.Handle, string, error) {
	if !x.Available() {
		return nil, "", ErrXephyrNotAvailable
	}
	display := DisplayName(identifier)
	cmd := exec.Command(x.binary, xephyrArgs(identifier, width, height)...)
	srv, err := startDetached(cmd, display)
	if err != nil {
		return nil, "", fmt.Errorf("Xephyr start failed: %w", err)
	}
	return srv, display, nil
}

// xephyrArgs builds the Xephyr argument list. The host window title carries
// the identifier so input injection can find and activate it later.
func xephyrArgs(identifier, width, height int) []string {
	return []string{
		"-ac",
		"-br",
		"-noreset",
		"-softCursor",
		"-zaphod",
		"-no-host-grab",
		"-title", HostWindowTitle(identifier),
		"-screen", fmt.Sprintf("%dx%d", width, height),
		DisplayName(identifier),
	}
}

// HostWindowTitle returns the title Xephyr gives the host window for a
// session identifier.
func HostWindowTitle(identifier int) string {
	return fmt.Sprintf("Xephyr-Window-%d", identifier)
}

// HostWindowTitle implements the display-server contract; headless backends
// return "".
func (x *Xephyr) HostWindowTitle(identifier int) string {
	return HostWindowTitle(identifier)
}

// StopByIdentifier kills a Xephyr started for the identifier by any process,
// matching the command line rather than a held handle.
func (x *Xephyr) StopByIdentifier(identifier int) error {
	return stopByPattern(xephyrKillPattern(identifier))
}

func xephyrKillPattern(identifier int) string {
	return fmt.Sprintf("^Xephyr.*%s$", DisplayName(identifier))
}
