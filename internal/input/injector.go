package input

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Alex-deVis/xControl/internal/proc"
)

// ErrXdotoolNotAvailable is returned when xdotool is not installed.
var ErrXdotoolNotAvailable = errors.New("xdotool is not available in PATH")

// eventDelay paces synthetic events, in milliseconds. Some toolkits drop
// keystrokes that arrive faster than a human could produce them.
const eventDelay = "50"

// Injector drives xdotool against a specific display. Every method runs the
// binary synchronously; the target display is selected through the DISPLAY
// environment variable of the child process.
type Injector struct {
	binary string
}

// NewInjector creates an xdotool adapter. An empty binary falls back to
// "xdotool" resolved via PATH.
func NewInjector(binary string) *Injector {
	if binary == "" {
		binary = "xdotool"
	}
	return &Injector{binary: binary}
}

// Name returns the binary name of the injector tool.
func (in *Injector) Name() string {
	return in.binary
}

// Available reports whether the xdotool binary is installed.
func (in *Injector) Available() bool {
	_, err := exec.LookPath(in.binary)
	return err == nil
}

// runXdotoolFn is swapped out in tests.
var runXdotoolFn = runXdotool

func runXdotool(binary, display string, args ...string) (string, error) {
	cmd := exec.Command(binary, args...)
	cmd.Env = proc.UpsertEnv(os.Environ(), "DISPLAY", display)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("xdotool %s failed: %w (%s)", args[0], err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

func (in *Injector) run(display string, args ...string) (string, error) {
	return runXdotoolFn(in.binary, display, args...)
}

// TypeText types a string into the focused window, clearing any held
// modifiers first. An empty string is a no-op.
func (in *Injector) TypeText(display, text string) error {
	if text == "" {
		return nil
	}
	_, err := in.run(display, "type", "--delay", eventDelay, "--clearmodifiers", "--", text)
	return err
}

// PressKey sends a single key chord. The combo is validated and normalized
// before anything reaches the display, so a malformed combination fails
// without side effects.
func (in *Injector) PressKey(display, combo string) error {
	normalized, err := NormalizeCombo(combo)
	if err != nil {
		return err
	}
	_, err = in.run(display, "key", "--delay", eventDelay, normalized)
	return err
}

// ClearField deletes the content of the focused text field. Home jumps to
// the start, shift held across End selects to the end, Delete removes the
// selection. The whole chord runs as one xdotool invocation.
func (in *Injector) ClearField(display string) error {
	_, err := in.run(display, "key", "Home", "keydown", "Shift", "key", "End", "key", "Delete", "keyup", "Shift")
	return err
}

// Click moves the pointer to (x, y) and clicks the given button there. Both
// steps run in one xdotool invocation so no other motion can interleave.
func (in *Injector) Click(display string, x, y int, button Button) error {
	if !button.Valid() {
		return fmt.Errorf("invalid mouse button %d", button)
	}
	_, err := in.run(display,
		"mousemove", strconv.Itoa(x), strconv.Itoa(y),
		"click", "--delay", eventDelay, strconv.Itoa(int(button)))
	return err
}

// MoveMouse warps the pointer to (x, y) without pressing anything.
func (in *Injector) MoveMouse(display string, x, y int) error {
	_, err := in.run(display, "mousemove", strconv.Itoa(x), strconv.Itoa(y))
	return err
}

// ButtonDown presses and holds a pointer button. Paired with ButtonUp it
// implements dragging.
func (in *Injector) ButtonDown(display string, button Button) error {
	if !button.Valid() {
		return fmt.Errorf("invalid mouse button %d", button)
	}
	_, err := in.run(display, "mousedown", strconv.Itoa(int(button)))
	return err
}

// ButtonUp releases a held pointer button.
func (in *Injector) ButtonUp(display string, button Button) error {
	if !button.Valid() {
		return fmt.Errorf("invalid mouse button %d", button)
	}
	_, err := in.run(display, "mouseup", strconv.Itoa(int(button)))
	return err
}

// MouseLocation reports the current pointer position on the display.
func (in *Injector) MouseLocation(display string) (int, int, error) {
	out, err := in.run(display, "getmouselocation")
	if err != nil {
		return 0, 0, err
	}
	return parseMouseLocation(out)
}

// parseMouseLocation extracts x and y from getmouselocation output, which
// looks like "x:698 y:389 screen:0 window:16777250".
func parseMouseLocation(out string) (int, int, error) {
	var x, y int
	var haveX, haveY bool
	for _, field := range strings.Fields(out) {
		if v, ok := strings.CutPrefix(field, "x:"); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				break
			}
			x, haveX = n, true
		} else if v, ok := strings.CutPrefix(field, "y:"); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				break
			}
			y, haveY = n, true
		}
	}
	if !haveX || !haveY {
		return 0, 0, fmt.Errorf("bad mouse location output %q", strings.TrimSpace(out))
	}
	return x, y, nil
}
