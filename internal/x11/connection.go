// Package x11 holds the X protocol plumbing shared by capture and window
// activation: per-display connections, a readiness probe for freshly started
// display servers, and root-window pixel grabs.
package x11

import (
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Connection manages an X11 connection to one display.
type Connection struct {
	XUtil   *xgbutil.XUtil
	Root    xproto.Window
	Display string
}

// Connect establishes a connection to the X server named by display (":2"
// form). An empty display falls back to the DISPLAY environment variable.
func Connect(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}
	return &Connection{
		XUtil:   xu,
		Root:    xu.RootWin(),
		Display: display,
	}, nil
}

// ScreenSize returns the root window dimensions in pixels.
func (c *Connection) ScreenSize() (width, height int) {
	screen := c.XUtil.Screen()
	return int(screen.WidthInPixels), int(screen.HeightInPixels)
}

// Close cleanly disconnects from the X server.
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

// WaitForDisplay polls the display until it accepts connections or the
// timeout passes. Display servers bind their listening socket asynchronously
// after fork, so a probe is needed before the first real request.
func WaitForDisplay(display string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		conn, err := Connect(display)
		if err == nil {
			conn.Close()
			return nil
		}
		lastErr = err
		if time.Now().After(deadline) {
			return fmt.Errorf("display %s not ready after %s: %w", display, timeout, lastErr)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
