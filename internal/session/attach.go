package session

import (
	"fmt"

	"github.com/Alex-deVis/xControl/internal/x11"
	"github.com/Alex-deVis/xControl/internal/xserver"
)

// probeDisplayFn reads the dimensions of a running display. Swapped in tests.
var probeDisplayFn = probeDisplay

func probeDisplay(display string) (width, height int, err error) {
	conn, err := x11.Connect(display)
	if err != nil {
		return 0, 0, err
	}
	defer conn.Close()
	width, height = conn.ScreenSize()
	return width, height, nil
}

// Attach binds to a display that is already running, identified by its
// ordinal, without taking ownership of its processes. The display is probed
// over the X protocol and its reported dimensions become the session bounds.
// Closing an attached session only marks it closed; the display keeps
// running.
func Attach(identifier int, deps Deps) (*Session, error) {
	if identifier < 0 {
		return nil, &SessionStartError{Identifier: identifier, Err: fmt.Errorf("identifier must not be negative")}
	}
	display := xserver.DisplayName(identifier)
	width, height, err := probeDisplayFn(display)
	if err != nil {
		return nil, &SessionStartError{Identifier: identifier, Err: fmt.Errorf("display %s is not reachable: %w", display, err)}
	}
	return &Session{
		identifier:      identifier,
		width:           width,
		height:          height,
		display:         display,
		deps:            deps,
		hostWindowTitle: deps.Display.HostWindowTitle(identifier),
	}, nil
}
