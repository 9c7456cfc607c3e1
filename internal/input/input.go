// Package input injects synthetic keyboard and pointer events into session
// displays through xdotool.
package input

import (
	"fmt"
	"strings"
)

// Button identifies a pointer button using X11 numbering, which is also what
// xdotool expects on the command line.
type Button int

const (
	ButtonLeft       Button = 1
	ButtonMiddle     Button = 2
	ButtonRight      Button = 3
	ButtonScrollUp   Button = 4
	ButtonScrollDown Button = 5
)

// Valid reports whether b is one of the five supported buttons.
func (b Button) Valid() bool {
	return b >= ButtonLeft && b <= ButtonScrollDown
}

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	case ButtonScrollUp:
		return "scroll-up"
	case ButtonScrollDown:
		return "scroll-down"
	}
	return fmt.Sprintf("button(%d)", int(b))
}

// ParseButton maps a button name used on the command line to its X11 number.
// Numeric strings are accepted as well.
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "1":
		return ButtonLeft, nil
	case "middle", "2":
		return ButtonMiddle, nil
	case "right", "3":
		return ButtonRight, nil
	case "scroll-up", "scrollup", "4":
		return ButtonScrollUp, nil
	case "scroll-down", "scrolldown", "5":
		return ButtonScrollDown, nil
	}
	return 0, fmt.Errorf("unknown mouse button %q", s)
}

// modifierNames maps accepted modifier spellings to the names xdotool
// understands.
var modifierNames = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"shift":   "shift",
	"super":   "super",
	"win":     "super",
	"cmd":     "super",
	"meta":    "meta",
}

// keyAliases maps relaxed lowercase spellings of common keys to the X keysym
// names xdotool expects. Anything not listed passes through untouched, so
// exact keysyms like "F5" or "XF86AudioMute" keep working.
var keyAliases = map[string]string{
	"enter":     "Return",
	"return":    "Return",
	"esc":       "Escape",
	"escape":    "Escape",
	"backspace": "BackSpace",
	"tab":       "Tab",
	"space":     "space",
	"delete":    "Delete",
	"del":       "Delete",
	"home":      "Home",
	"end":       "End",
	"pageup":    "Page_Up",
	"pagedown":  "Page_Down",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"insert":    "Insert",
}

// NormalizeCombo validates a key combination like "ctrl+alt+t" and rewrites
// it in xdotool syntax. Every part before the last must be a known modifier;
// the final part is the key itself.
func NormalizeCombo(combo string) (string, error) {
	if strings.TrimSpace(combo) == "" {
		return "", fmt.Errorf("empty key combination")
	}
	parts := strings.Split(combo, "+")
	out := make([]string, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return "", fmt.Errorf("empty key in combination %q", combo)
		}
		if i < len(parts)-1 {
			mod, ok := modifierNames[strings.ToLower(part)]
			if !ok {
				return "", fmt.Errorf("unknown modifier %q in combination %q", part, combo)
			}
			out = append(out, mod)
			continue
		}
		if alias, ok := keyAliases[strings.ToLower(part)]; ok {
			part = alias
		}
		out = append(out, part)
	}
	return strings.Join(out, "+"), nil
}
