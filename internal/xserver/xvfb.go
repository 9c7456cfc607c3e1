package xserver

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/Alex-deVis/xControl/internal/proc"
)

// ErrXvfbNotAvailable is returned when Xvfb is not installed.
var ErrXvfbNotAvailable = errors.New("Xvfb is not available in PATH")

// Xvfb runs displays headless, backed by memory instead of a host window.
type Xvfb struct {
	binary string
}

// NewXvfb creates an Xvfb adapter. An empty binary falls back to "Xvfb"
// resolved via PATH.
func NewXvfb(binary string) *Xvfb {
	if binary == "" {
		binary = "Xvfb"
	}
	return &Xvfb{binary: binary}
}

// Name returns "xvfb".
func (x *Xvfb) Name() string {
	return "xvfb"
}

// Available returns true if the Xvfb binary is installed.
func (x *Xvfb) Available() bool {
	_, err := exec.LookPath(x.binary)
	return err == nil
}

// Start spawns a headless display of the given dimensions and waits for it
// to accept connections. Returns the process handle and the display string.
func (x *Xvfb) Start(identifier, width, height int) (*proc.Handle, string, error) {
	if !x.Available() {
		return nil, "", ErrXvfbNotAvailable
	}
	display := DisplayName(identifier)
	cmd := exec.Command(x.binary, xvfbArgs(identifier, width, height)...)
	srv, err := startDetached(cmd, display)
	if err != nil {
		return nil, "", fmt.Errorf("Xvfb start failed: %w", err)
	}
	return srv, display, nil
}

func xvfbArgs(identifier, width, height int) []string {
	return []string{
		DisplayName(identifier),
		"-screen", "0", fmt.Sprintf("%dx%dx24", width, height),
		"-nolisten", "tcp",
		"-noreset",
	}
}

// HostWindowTitle returns "" because headless displays have no host window
// to activate.
func (x *Xvfb) HostWindowTitle(identifier int) string {
	return ""
}

// StopByIdentifier kills an Xvfb started for the identifier by any process.
func (x *Xvfb) StopByIdentifier(identifier int) error {
	return stopByPattern(xvfbKillPattern(identifier))
}

// Xvfb takes the display as its first argument, so the pattern cannot anchor
// on end of line the way the Xephyr one does.
func xvfbKillPattern(identifier int) string {
	return fmt.Sprintf("^Xvfb.*%s([[:space:]]|$)", DisplayName(identifier))
}
