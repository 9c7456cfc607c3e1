// Package session coordinates the lifecycle of isolated display sessions
// and the automation operations performed inside them. A session owns a
// nested display server, the window manager running on it, and the
// applications launched into it. The registry hands out sessions by
// numeric identifier and guarantees one display per identifier.
package session

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/Alex-deVis/xControl/internal/actionlog"
	"github.com/Alex-deVis/xControl/internal/geometry"
	"github.com/Alex-deVis/xControl/internal/input"
	"github.com/Alex-deVis/xControl/internal/match"
	"github.com/Alex-deVis/xControl/internal/ocr"
	"github.com/Alex-deVis/xControl/internal/x11"
)

// pollInterval paces the pointer-settle and image-wait loops.
const pollInterval = 100 * time.Millisecond

// settleTimeout bounds how long a pointer move may take to be observed.
// Swapped in tests.
var settleTimeout = time.Second

// activateWindowFn raises a session's host window. Swapped in tests.
var activateWindowFn = x11.ActivateWindowByTitle

// Session is one isolated display plus everything running inside it.
// Operations serialize on the session mutex; distinct sessions are
// independent. Dimensions are fixed at creation.
type Session struct {
	identifier int
	width      int
	height     int
	display    string

	deps            Deps
	hostWindowTitle string

	// onClose removes the session from its registry.
	onClose func()

	mu     sync.Mutex
	server Process
	wm     Process
	apps   []*LaunchedApp
	closed bool
}

// LaunchedApp is an application started inside a session. It lives and
// dies with the session's display.
type LaunchedApp struct {
	Command string
	Pid     int

	proc Process
}

// Running reports whether the application process is still alive.
func (a *LaunchedApp) Running() bool {
	return a.proc != nil && a.proc.Running()
}

// LaunchOptions adjust how an application is started.
type LaunchOptions struct {
	// Env adds variables to the child environment. DISPLAY is always the
	// session display and cannot be overridden here.
	Env map[string]string
	// Wait blocks Launch until the command exits.
	Wait bool
}

// AppInfo is a point-in-time snapshot of a launched application.
type AppInfo struct {
	Command string `json:"command"`
	Pid     int    `json:"pid"`
	Running bool   `json:"running"`
}

// Identifier returns the session's numeric identifier.
func (s *Session) Identifier() int { return s.identifier }

// Display returns the X display the session runs on, e.g. ":1".
func (s *Session) Display() string { return s.display }

// Width returns the session screen width in pixels.
func (s *Session) Width() int { return s.width }

// Height returns the session screen height in pixels.
func (s *Session) Height() int { return s.height }

// Alive reports whether the session is open and its display server is
// still running. Attached sessions hold no process handle and count as
// alive until closed.
func (s *Session) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if s.server == nil {
		return true
	}
	return s.server.Running()
}

// Apps snapshots the applications launched into this session.
func (s *Session) Apps() []AppInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]AppInfo, 0, len(s.apps))
	for _, a := range s.apps {
		infos = append(infos, AppInfo{Command: a.Command, Pid: a.Pid, Running: a.Running()})
	}
	return infos
}

// Launch starts command bound to the session's display. The session keeps
// a handle to the process but performs no readiness check; callers wait
// for the application to become interactive themselves.
func (s *Session) Launch(command string, opts LaunchOptions) (*LaunchedApp, error) {
	s.mu.Lock()
	if err := s.ensureOpen(); err != nil {
		s.mu.Unlock()
		return nil, &LaunchError{Command: command, Err: err}
	}
	p, err := s.deps.Launcher.Start(command, s.display, opts.Env)
	if err != nil {
		s.mu.Unlock()
		return nil, &LaunchError{Command: command, Err: err}
	}
	app := &LaunchedApp{Command: command, Pid: p.Pid(), proc: p}
	s.apps = append(s.apps, app)
	s.mu.Unlock()

	s.deps.Log.Log(actionlog.ActionLaunch, s.identifier, map[string]interface{}{
		"command": command,
		"pid":     app.Pid,
	})

	if opts.Wait {
		if err := p.Wait(); err != nil {
			return app, &LaunchError{Command: command, Err: err}
		}
	}
	return app, nil
}

// Run executes command with the session's display in its environment and
// returns its standard output. Unlike Launch it waits for completion,
// bounded by timeout (five seconds when zero).
func (s *Session) Run(command string, timeout time.Duration) (string, error) {
	s.mu.Lock()
	if err := s.ensureOpen(); err != nil {
		s.mu.Unlock()
		return "", &LaunchError{Command: command, Err: err}
	}
	display := s.display
	s.mu.Unlock()

	out, err := s.deps.Launcher.Run(command, display, timeout)
	if err != nil {
		return out, &LaunchError{Command: command, Err: err}
	}
	s.deps.Log.Log(actionlog.ActionRun, s.identifier, map[string]interface{}{
		"command": command,
	})
	return out, nil
}

// Type injects text into the focused application character by character,
// preserving order and case.
func (s *Session) Type(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return &InputError{Op: "type", Err: err}
	}
	s.activateHostWindow()
	if err := s.deps.Input.TypeText(s.display, text); err != nil {
		return &InputError{Op: "type", Err: err}
	}
	s.deps.Log.Log(actionlog.ActionTypeText, s.identifier, map[string]interface{}{
		"text": s.deps.Log.Content(text),
	})
	return nil
}

// TypeReplacing clears the focused field, then types text. The clear
// selects from Home to End and deletes, so it suits single-line fields.
func (s *Session) TypeReplacing(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return &InputError{Op: "type", Err: err}
	}
	s.activateHostWindow()
	if err := s.deps.Input.ClearField(s.display); err != nil {
		return &InputError{Op: "clear", Err: err}
	}
	if err := s.deps.Input.TypeText(s.display, text); err != nil {
		return &InputError{Op: "type", Err: err}
	}
	s.deps.Log.Log(actionlog.ActionTypeText, s.identifier, map[string]interface{}{
		"text":    s.deps.Log.Content(text),
		"replace": true,
	})
	return nil
}

// Key injects a single key or chorded combination, e.g. "Return" or
// "ctrl+alt+t".
func (s *Session) Key(combo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return &InputError{Op: "key", Err: err}
	}
	s.activateHostWindow()
	if err := s.deps.Input.PressKey(s.display, combo); err != nil {
		return &InputError{Op: "key", Err: err}
	}
	s.deps.Log.Log(actionlog.ActionKey, s.identifier, map[string]interface{}{
		"combo": combo,
	})
	return nil
}

// Click moves the pointer to p and clicks button there. The point must
// lie inside the session screen.
func (s *Session) Click(p geometry.Point, button input.Button) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return &InputError{Op: "click", Err: err}
	}
	if err := s.validatePoint(p); err != nil {
		return &InputError{Op: "click", Err: err}
	}
	s.activateHostWindow()
	if err := s.deps.Input.Click(s.display, p.X, p.Y, button); err != nil {
		return &InputError{Op: "click", Err: err}
	}
	if err := s.waitForPointer(p); err != nil {
		return &InputError{Op: "click", Err: err}
	}
	s.deps.Log.Log(actionlog.ActionClick, s.identifier, map[string]interface{}{
		"x":      p.X,
		"y":      p.Y,
		"button": button.String(),
	})
	return nil
}

// MoveMouse moves the pointer to p without clicking and confirms the
// pointer settled there.
func (s *Session) MoveMouse(p geometry.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return &InputError{Op: "move", Err: err}
	}
	if err := s.validatePoint(p); err != nil {
		return &InputError{Op: "move", Err: err}
	}
	s.activateHostWindow()
	if err := s.deps.Input.MoveMouse(s.display, p.X, p.Y); err != nil {
		return &InputError{Op: "move", Err: err}
	}
	if err := s.waitForPointer(p); err != nil {
		return &InputError{Op: "move", Err: err}
	}
	s.deps.Log.Log(actionlog.ActionMove, s.identifier, map[string]interface{}{
		"x": p.X,
		"y": p.Y,
	})
	return nil
}

// Drag presses button at start, moves the pointer to end, and releases.
// Both points must lie inside the session screen.
func (s *Session) Drag(start, end geometry.Point, button input.Button) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return &InputError{Op: "drag", Err: err}
	}
	if !button.Valid() {
		return &InputError{Op: "drag", Err: fmt.Errorf("invalid mouse button %d", button)}
	}
	if err := s.validatePoint(start); err != nil {
		return &InputError{Op: "drag", Err: err}
	}
	if err := s.validatePoint(end); err != nil {
		return &InputError{Op: "drag", Err: err}
	}
	s.activateHostWindow()
	if err := s.deps.Input.MoveMouse(s.display, start.X, start.Y); err != nil {
		return &InputError{Op: "drag", Err: err}
	}
	if err := s.waitForPointer(start); err != nil {
		return &InputError{Op: "drag", Err: err}
	}
	if err := s.deps.Input.ButtonDown(s.display, button); err != nil {
		return &InputError{Op: "drag", Err: err}
	}
	// The button is held from here on. Release it even when the move to
	// the end point fails, or the pointer grab outlives the drag.
	if err := s.dragTo(end); err != nil {
		if relErr := s.deps.Input.ButtonUp(s.display, button); relErr != nil {
			err = errors.Join(err, relErr)
		}
		return &InputError{Op: "drag", Err: err}
	}
	if err := s.deps.Input.ButtonUp(s.display, button); err != nil {
		return &InputError{Op: "drag", Err: err}
	}
	s.deps.Log.Log(actionlog.ActionDrag, s.identifier, map[string]interface{}{
		"from":   start.String(),
		"to":     end.String(),
		"button": button.String(),
	})
	return nil
}

func (s *Session) dragTo(end geometry.Point) error {
	if err := s.deps.Input.MoveMouse(s.display, end.X, end.Y); err != nil {
		return err
	}
	return s.waitForPointer(end)
}

// MouseLocation reports the pointer position on the session display.
func (s *Session) MouseLocation() (geometry.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return geometry.Point{}, &InputError{Op: "mouse-location", Err: err}
	}
	x, y, err := s.deps.Input.MouseLocation(s.display)
	if err != nil {
		return geometry.Point{}, &InputError{Op: "mouse-location", Err: err}
	}
	return geometry.Point{X: x, Y: y}, nil
}

// Capture grabs a screenshot of region. The zero-value region means the
// whole session screen.
func (s *Session) Capture(region geometry.Region) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return nil, &CaptureError{Region: region, Err: err}
	}
	return s.captureLocked(region)
}

func (s *Session) captureLocked(region geometry.Region) (*image.RGBA, error) {
	full, err := s.regionOrFull(region)
	if err != nil {
		return nil, &CaptureError{Region: region, Err: err}
	}
	img, err := s.deps.Screen.Capture(s.display, full)
	if err != nil {
		return nil, &CaptureError{Region: full, Err: err}
	}
	s.deps.Log.Log(actionlog.ActionCapture, s.identifier, map[string]interface{}{
		"region": full.String(),
	})
	return img, nil
}

// FindImage captures region (the whole screen for the zero value) and
// searches it for needle. The result location is the needle's top-left
// corner in screen coordinates, regardless of the search region. A
// confidence of zero falls back to the configured default.
func (s *Session) FindImage(needle image.Image, region geometry.Region, confidence float64) (match.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return match.Result{}, &CaptureError{Region: region, Err: err}
	}
	return s.findLocked(needle, region, confidence)
}

func (s *Session) findLocked(needle image.Image, region geometry.Region, confidence float64) (match.Result, error) {
	if confidence <= 0 {
		confidence = s.deps.MatchConfidence
	}
	full, err := s.regionOrFull(region)
	if err != nil {
		return match.Result{}, &CaptureError{Region: region, Err: err}
	}
	img, err := s.deps.Screen.Capture(s.display, full)
	if err != nil {
		return match.Result{}, &CaptureError{Region: full, Err: err}
	}
	res := match.FindTemplate(img, needle, confidence)
	res.Location = res.Location.Offset(full.Origin.X, full.Origin.Y)
	s.deps.Log.Log(actionlog.ActionFind, s.identifier, map[string]interface{}{
		"found":      res.Found,
		"confidence": fmt.Sprintf("%.3f", res.Confidence),
		"region":     full.String(),
	})
	return res, nil
}

// WaitForImage re-captures and searches every 100ms until needle is found
// or timeout elapses (one second when zero). Expiry is not an error; the
// returned result reports found=false.
func (s *Session) WaitForImage(needle image.Image, region geometry.Region, confidence float64, timeout time.Duration) (match.Result, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	deadline := time.Now().Add(timeout)
	for {
		res, err := s.FindImage(needle, region, confidence)
		if err != nil {
			return match.Result{}, err
		}
		if res.Found || time.Now().After(deadline) {
			return res, nil
		}
		time.Sleep(pollInterval)
	}
}

// WaitForImageGone is the inverse wait: it reports true once needle is no
// longer found, false when it is still visible at the deadline.
func (s *Session) WaitForImageGone(needle image.Image, region geometry.Region, confidence float64, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	deadline := time.Now().Add(timeout)
	for {
		res, err := s.FindImage(needle, region, confidence)
		if err != nil {
			return false, err
		}
		if !res.Found {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		time.Sleep(pollInterval)
	}
}

// ExtractText captures region and runs it through the text recognizer.
// The engine output is returned untouched, trailing newlines included.
// With preview set, the captured region and its preprocessed form are
// saved as artifacts so color ranges can be tuned against what the engine
// actually saw.
func (s *Session) ExtractText(region geometry.Region, spec ocr.Spec, preview bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return "", &OcrError{Err: err}
	}
	full, err := s.regionOrFull(region)
	if err != nil {
		return "", &OcrError{Err: err}
	}
	img, err := s.deps.Screen.Capture(s.display, full)
	if err != nil {
		return "", &CaptureError{Region: full, Err: err}
	}
	if preview {
		s.savePreview(img, spec)
	}
	text, err := s.deps.OCR.ExtractText(img, spec)
	if err != nil {
		return "", &OcrError{Err: err}
	}
	s.deps.Log.Log(actionlog.ActionOcr, s.identifier, map[string]interface{}{
		"region": full.String(),
		"mode":   string(spec.Mode),
		"text":   s.deps.Log.Content(text),
	})
	return text, nil
}

func (s *Session) savePreview(img image.Image, spec ocr.Spec) {
	if s.deps.Artifacts == nil {
		return
	}
	if _, err := s.deps.Artifacts.SaveImage(img, "ocr_input"); err != nil {
		log.Printf("Warning: could not save OCR input preview: %v", err)
	}
	if _, err := s.deps.Artifacts.SaveImage(ocr.Prepare(img, spec.Range), "ocr_prepared"); err != nil {
		log.Printf("Warning: could not save OCR prepared preview: %v", err)
	}
}

// Close stops the window manager, then the display server, and removes
// the session from its registry. Launched applications are not stopped
// individually; they exit when their display goes away. Close is
// idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.wm != nil {
		if err := s.wm.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop window manager: %w", err))
		}
	}
	if s.server != nil {
		if err := s.server.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop display server: %w", err))
		}
	}
	if s.onClose != nil {
		s.onClose()
	}
	s.deps.Log.Log(actionlog.ActionSessionClose, s.identifier, nil)
	return errors.Join(errs...)
}

func (s *Session) ensureOpen() error {
	if s.closed {
		return fmt.Errorf("session %d is closed", s.identifier)
	}
	return nil
}

func (s *Session) validatePoint(p geometry.Point) error {
	if p.X < 0 || p.X >= s.width || p.Y < 0 || p.Y >= s.height {
		return fmt.Errorf("point %s is outside the %dx%d screen", p, s.width, s.height)
	}
	return nil
}

// regionOrFull resolves the zero-value region to the whole screen and
// validates anything else against the session bounds.
func (s *Session) regionOrFull(region geometry.Region) (geometry.Region, error) {
	if region == (geometry.Region{}) {
		return geometry.Rect(0, 0, s.width, s.height), nil
	}
	if region.Width <= 0 || region.Height <= 0 {
		return geometry.Region{}, fmt.Errorf("region %s has no area", region)
	}
	if !region.FitsWithin(s.width, s.height) {
		return geometry.Region{}, fmt.Errorf("region %s exceeds the %dx%d screen", region, s.width, s.height)
	}
	return region, nil
}

// waitForPointer polls the pointer position until it reaches p. Events
// injected before the move lands would hit the wrong widget, so movement
// is confirmed rather than assumed.
func (s *Session) waitForPointer(p geometry.Point) error {
	deadline := time.Now().Add(settleTimeout)
	for {
		x, y, err := s.deps.Input.MouseLocation(s.display)
		if err == nil && x == p.X && y == p.Y {
			return nil
		}
		if time.Now().After(deadline) {
			if err != nil {
				return fmt.Errorf("pointer did not settle at %s: %w", p, err)
			}
			return fmt.Errorf("pointer settled at (%d,%d) instead of %s", x, y, p)
		}
		time.Sleep(pollInterval)
	}
}

// activateHostWindow raises the session's window on the host desktop so
// injected events land in the nested display. Headless sessions have no
// host window and skip this.
func (s *Session) activateHostWindow() {
	if s.hostWindowTitle == "" || s.deps.HostDisplay == "" {
		return
	}
	if err := activateWindowFn(s.deps.HostDisplay, s.hostWindowTitle); err != nil {
		log.Printf("Warning: could not activate window %q: %v", s.hostWindowTitle, err)
	}
}
