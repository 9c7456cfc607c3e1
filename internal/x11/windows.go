package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// FindWindowByTitle searches the EWMH client list for a window whose name
// contains the given substring. Checks _NET_WM_NAME first and falls back to
// the ICCCM WM_NAME, which is what bare display servers like Xephyr set on
// their host window. Returns the first match.
func (c *Connection) FindWindowByTitle(substring string) (xproto.Window, error) {
	if substring == "" {
		return 0, fmt.Errorf("window title substring must not be empty")
	}
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get client list: %w", err)
	}
	for _, win := range clients {
		name, err := ewmh.WmNameGet(c.XUtil, win)
		if err != nil || name == "" {
			name, err = icccm.WmNameGet(c.XUtil, win)
			if err != nil {
				continue
			}
		}
		if strings.Contains(name, substring) {
			return win, nil
		}
	}
	return 0, fmt.Errorf("no window found with title containing %q", substring)
}

// ActivateWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// Sends a client message to the root window per EWMH spec. The message is
// built manually because the xgbutil ewmh helper panics on this library
// version (uint vs int type assertion).
func (c *Connection) ActivateWindow(windowID xproto.Window) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false,
		uint16(len("_NET_ACTIVE_WINDOW")), "_NET_ACTIVE_WINDOW").Reply()
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	const sourceIndication = 2 // pager/direct action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// ActivateWindowByTitle looks up a window by title substring and activates
// it, using a temporary connection to the given display.
func ActivateWindowByTitle(display, substring string) error {
	conn, err := Connect(display)
	if err != nil {
		return fmt.Errorf("failed to connect to display %s: %w", display, err)
	}
	defer conn.Close()

	win, err := conn.FindWindowByTitle(substring)
	if err != nil {
		return err
	}
	return conn.ActivateWindow(win)
}
