package session

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Alex-deVis/xControl/internal/artifacts"
	"github.com/Alex-deVis/xControl/internal/geometry"
	"github.com/Alex-deVis/xControl/internal/input"
	"github.com/Alex-deVis/xControl/internal/match"
	"github.com/Alex-deVis/xControl/internal/ocr"
)

type fakeProcess struct {
	pid     int
	label   string
	stops   *[]string
	waitErr error

	mu      sync.Mutex
	running bool
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *fakeProcess) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	if p.stops != nil {
		*p.stops = append(*p.stops, p.label)
	}
	return nil
}

func (p *fakeProcess) Wait() error { return p.waitErr }

type fakeDisplay struct {
	headless   bool
	startDelay time.Duration
	stopOrder  *[]string

	mu        sync.Mutex
	starts    int
	failStart error
}

func (d *fakeDisplay) Name() string    { return "fakeserver" }
func (d *fakeDisplay) Available() bool { return true }

func (d *fakeDisplay) Start(identifier, width, height int) (Process, string, error) {
	time.Sleep(d.startDelay)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.starts++
	if d.failStart != nil {
		return nil, "", d.failStart
	}
	p := &fakeProcess{pid: 1000 + identifier, label: "server", stops: d.stopOrder, running: true}
	return p, fmt.Sprintf(":%d", 100+identifier), nil
}

func (d *fakeDisplay) HostWindowTitle(identifier int) string {
	if d.headless {
		return ""
	}
	return fmt.Sprintf("Fake-Window-%d", identifier)
}

type fakeWM struct {
	stopOrder *[]string

	mu        sync.Mutex
	starts    int
	failStart error
}

func (w *fakeWM) Name() string    { return "fakewm" }
func (w *fakeWM) Available() bool { return true }

func (w *fakeWM) Start(display string) (Process, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.starts++
	if w.failStart != nil {
		return nil, w.failStart
	}
	return &fakeProcess{pid: 2000, label: "wm", stops: w.stopOrder, running: true}, nil
}

type fakeLauncher struct {
	failStart error
	waitErr   error
	runOut    string
	runErr    error

	mu      sync.Mutex
	started []string
	ran     []string
}

func (l *fakeLauncher) Start(command, display string, extraEnv map[string]string) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failStart != nil {
		return nil, l.failStart
	}
	l.started = append(l.started, command)
	return &fakeProcess{pid: 3000 + len(l.started), running: true, waitErr: l.waitErr}, nil
}

func (l *fakeLauncher) Run(command, display string, timeout time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ran = append(l.ran, command)
	return l.runOut, l.runErr
}

// fakeInput records injections and models the pointer. moveQuota limits
// how many pointer moves actually land; -1 lands them all.
type fakeInput struct {
	err error

	mu        sync.Mutex
	calls     []string
	x, y      int
	moveQuota int
}

func newFakeInput() *fakeInput { return &fakeInput{moveQuota: -1} }

func (f *fakeInput) record(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeInput) movePointer(x, y int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.moveQuota == 0 {
		return
	}
	if f.moveQuota > 0 {
		f.moveQuota--
	}
	f.x, f.y = x, y
}

func (f *fakeInput) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeInput) TypeText(display, text string) error {
	f.record("type %q", text)
	return f.err
}

func (f *fakeInput) ClearField(display string) error {
	f.record("clear")
	return f.err
}

func (f *fakeInput) PressKey(display, combo string) error {
	f.record("key %s", combo)
	return f.err
}

func (f *fakeInput) Click(display string, x, y int, button input.Button) error {
	f.record("click %d %d %d", x, y, button)
	if f.err == nil {
		f.movePointer(x, y)
	}
	return f.err
}

func (f *fakeInput) MoveMouse(display string, x, y int) error {
	f.record("move %d %d", x, y)
	if f.err == nil {
		f.movePointer(x, y)
	}
	return f.err
}

func (f *fakeInput) ButtonDown(display string, button input.Button) error {
	f.record("mousedown %d", button)
	return f.err
}

func (f *fakeInput) ButtonUp(display string, button input.Button) error {
	f.record("mouseup %d", button)
	return f.err
}

func (f *fakeInput) MouseLocation(display string) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.x, f.y, nil
}

// fakeScreen returns an opaque black frame of the requested region size.
// draw can paint on top of it before it is returned.
type fakeScreen struct {
	err  error
	draw func(img *image.RGBA)

	mu      sync.Mutex
	regions []geometry.Region
}

func (f *fakeScreen) Capture(display string, region geometry.Region) (*image.RGBA, error) {
	f.mu.Lock()
	f.regions = append(f.regions, region)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, region.Width, region.Height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	if f.draw != nil {
		f.draw(img)
	}
	return img, nil
}

func (f *fakeScreen) captured() []geometry.Region {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]geometry.Region(nil), f.regions...)
}

type fakeOCR struct {
	text string
	err  error

	mu    sync.Mutex
	specs []ocr.Spec
	sizes []image.Rectangle
}

func (f *fakeOCR) ExtractText(img image.Image, spec ocr.Spec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, spec)
	f.sizes = append(f.sizes, img.Bounds())
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type testEnv struct {
	display  *fakeDisplay
	wm       *fakeWM
	launcher *fakeLauncher
	input    *fakeInput
	screen   *fakeScreen
	ocr      *fakeOCR
	registry *Registry

	stops       []string
	activations [][2]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		display:  &fakeDisplay{},
		wm:       &fakeWM{},
		launcher: &fakeLauncher{runOut: "ok\n"},
		input:    newFakeInput(),
		screen:   &fakeScreen{},
		ocr:      &fakeOCR{text: "ok"},
	}
	env.display.stopOrder = &env.stops
	env.wm.stopOrder = &env.stops

	orig := activateWindowFn
	activateWindowFn = func(display, title string) error {
		env.activations = append(env.activations, [2]string{display, title})
		return nil
	}
	t.Cleanup(func() { activateWindowFn = orig })

	env.registry = NewRegistry(Deps{
		Display:         env.display,
		WM:              env.wm,
		Launcher:        env.launcher,
		Input:           env.input,
		Screen:          env.screen,
		OCR:             env.ocr,
		HostDisplay:     ":0",
		MatchConfidence: match.DefaultConfidence,
	})
	return env
}

// withDeps rebuilds the registry with modified collaborators.
func (e *testEnv) withDeps(mutate func(*Deps)) {
	deps := e.registry.deps
	mutate(&deps)
	e.registry = NewRegistry(deps)
}

func (e *testEnv) session(t *testing.T) *Session {
	t.Helper()
	s, err := e.registry.GetOrCreate(7, 1024, 768)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	return s
}

func shortSettle(t *testing.T) {
	t.Helper()
	orig := settleTimeout
	settleTimeout = 50 * time.Millisecond
	t.Cleanup(func() { settleTimeout = orig })
}

func solidImage(w, h int, r, g, b uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = r
			img.Pix[i+1] = g
			img.Pix[i+2] = b
			img.Pix[i+3] = 0xff
		}
	}
	return img
}

func paintPatch(img *image.RGBA, x, y, w, h int) {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			i := img.PixOffset(xx, yy)
			img.Pix[i+0] = 0xff
			img.Pix[i+1] = 0xff
			img.Pix[i+2] = 0xff
			img.Pix[i+3] = 0xff
		}
	}
}

func testOcrSpec() ocr.Spec {
	return ocr.Spec{
		Mode:  ocr.ModeSingleLine,
		Range: ocr.ColorRange{Low: [3]uint8{0, 0, 0}, High: [3]uint8{128, 128, 128}},
	}
}

func TestLaunchRecordsApp(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	app, err := s.Launch("xterm", LaunchOptions{})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if app.Pid == 0 {
		t.Error("expected a nonzero pid")
	}
	if got := env.launcher.started; len(got) != 1 || got[0] != "xterm" {
		t.Errorf("launcher saw %v, want [xterm]", got)
	}
	apps := s.Apps()
	if len(apps) != 1 {
		t.Fatalf("Apps() returned %d entries, want 1", len(apps))
	}
	if apps[0].Command != "xterm" || !apps[0].Running {
		t.Errorf("unexpected app snapshot: %+v", apps[0])
	}
}

func TestLaunchFailure(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	env.launcher.failStart = errors.New("no such binary")

	_, err := s.Launch("nonexistent", LaunchOptions{})
	var le *LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	if len(s.Apps()) != 0 {
		t.Error("failed launch must not be recorded")
	}
}

func TestLaunchWaitReportsExit(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	env.launcher.waitErr = errors.New("exit status 2")

	app, err := s.Launch("false", LaunchOptions{Wait: true})
	var le *LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	if app == nil {
		t.Error("the app handle should survive a nonzero exit")
	}
}

func TestRunDelegates(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	env.launcher.runOut = "hello\n"

	out, err := s.Run("echo hello", 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "hello\n" {
		t.Errorf("Run returned %q, want %q", out, "hello\n")
	}
	if got := env.launcher.ran; len(got) != 1 || got[0] != "echo hello" {
		t.Errorf("launcher ran %v, want [echo hello]", got)
	}

	env.launcher.runOut = "partial"
	env.launcher.runErr = errors.New("exit status 1")
	out, err = s.Run("false", 0)
	var le *LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	if out != "partial" {
		t.Errorf("output should pass through on failure, got %q", out)
	}
}

func TestTypeActivatesWindowFirst(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	if err := s.Type("hi"); err != nil {
		t.Fatalf("Type failed: %v", err)
	}
	if got := env.input.recorded(); len(got) != 1 || got[0] != `type "hi"` {
		t.Errorf("injector saw %v", got)
	}
	if len(env.activations) != 1 {
		t.Fatalf("expected one activation, got %d", len(env.activations))
	}
	if env.activations[0] != [2]string{":0", "Fake-Window-7"} {
		t.Errorf("activated %v, want [:0 Fake-Window-7]", env.activations[0])
	}
}

func TestTypeReplacingClearsFirst(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	if err := s.TypeReplacing("new"); err != nil {
		t.Fatalf("TypeReplacing failed: %v", err)
	}
	want := []string{"clear", `type "new"`}
	got := env.input.recorded()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("injector saw %v, want %v", got, want)
	}
}

func TestHeadlessSkipsActivation(t *testing.T) {
	env := newTestEnv(t)
	env.display.headless = true
	s := env.session(t)

	if err := s.Type("hi"); err != nil {
		t.Fatalf("Type failed: %v", err)
	}
	if len(env.activations) != 0 {
		t.Errorf("headless session activated a window: %v", env.activations)
	}
}

func TestKey(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	if err := s.Key("ctrl+s"); err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	if got := env.input.recorded(); len(got) != 1 || got[0] != "key ctrl+s" {
		t.Errorf("injector saw %v", got)
	}
}

func TestClickValidatesBounds(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	for _, p := range []geometry.Point{{X: 1024, Y: 10}, {X: 10, Y: 768}, {X: -1, Y: 5}} {
		err := s.Click(p, input.ButtonLeft)
		var ie *InputError
		if !errors.As(err, &ie) {
			t.Errorf("Click(%s) = %v, want InputError", p, err)
		}
	}
	if got := env.input.recorded(); len(got) != 0 {
		t.Errorf("out-of-bounds clicks reached the injector: %v", got)
	}

	if err := s.Click(geometry.Point{X: 10, Y: 20}, input.ButtonRight); err != nil {
		t.Fatalf("Click failed: %v", err)
	}
	if got := env.input.recorded(); len(got) != 1 || got[0] != "click 10 20 3" {
		t.Errorf("injector saw %v", got)
	}
}

func TestMoveMouseSettles(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	if err := s.MoveMouse(geometry.Point{X: 40, Y: 50}); err != nil {
		t.Fatalf("MoveMouse failed: %v", err)
	}
	if got := env.input.recorded(); len(got) != 1 || got[0] != "move 40 50" {
		t.Errorf("injector saw %v", got)
	}
}

func TestMoveMouseSettleFailure(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	env.input.moveQuota = 0
	shortSettle(t)

	err := s.MoveMouse(geometry.Point{X: 40, Y: 50})
	var ie *InputError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InputError, got %v", err)
	}
	if !strings.Contains(err.Error(), "settled") {
		t.Errorf("error should mention settling: %v", err)
	}
}

func TestDragSequence(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	err := s.Drag(geometry.Point{X: 10, Y: 20}, geometry.Point{X: 200, Y: 300}, input.ButtonLeft)
	if err != nil {
		t.Fatalf("Drag failed: %v", err)
	}
	want := []string{"move 10 20", "mousedown 1", "move 200 300", "mouseup 1"}
	got := env.input.recorded()
	if len(got) != len(want) {
		t.Fatalf("injector saw %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDragReleasesButtonOnFailure(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	env.input.moveQuota = 1
	shortSettle(t)

	err := s.Drag(geometry.Point{X: 10, Y: 20}, geometry.Point{X: 200, Y: 300}, input.ButtonLeft)
	if err == nil {
		t.Fatal("expected the second move to fail")
	}
	got := env.input.recorded()
	if len(got) == 0 || got[len(got)-1] != "mouseup 1" {
		t.Errorf("button was not released after the failure: %v", got)
	}
}

func TestDragValidatesPoints(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	err := s.Drag(geometry.Point{X: 10, Y: 20}, geometry.Point{X: 2000, Y: 300}, input.ButtonLeft)
	var ie *InputError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InputError, got %v", err)
	}
	if got := env.input.recorded(); len(got) != 0 {
		t.Errorf("invalid drag reached the injector: %v", got)
	}
}

func TestMouseLocation(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	env.input.x, env.input.y = 5, 6

	p, err := s.MouseLocation()
	if err != nil {
		t.Fatalf("MouseLocation failed: %v", err)
	}
	if p != (geometry.Point{X: 5, Y: 6}) {
		t.Errorf("MouseLocation = %s, want (5,6)", p)
	}
}

func TestCaptureDefaultsToFullScreen(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	img, err := s.Capture(geometry.Region{})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	regions := env.screen.captured()
	if len(regions) != 1 || regions[0] != geometry.Rect(0, 0, 1024, 768) {
		t.Errorf("captured %v, want full screen", regions)
	}
	if b := img.Bounds(); b.Dx() != 1024 || b.Dy() != 768 {
		t.Errorf("image is %dx%d, want 1024x768", b.Dx(), b.Dy())
	}
}

func TestCaptureRegionValidation(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	cases := []geometry.Region{
		geometry.Rect(10, 10, 0, 5),
		geometry.Rect(10, 10, 5, -1),
		geometry.Rect(1000, 700, 100, 100),
		geometry.Rect(-5, 0, 10, 10),
	}
	for _, region := range cases {
		_, err := s.Capture(region)
		var ce *CaptureError
		if !errors.As(err, &ce) {
			t.Errorf("Capture(%s) = %v, want CaptureError", region, err)
		}
	}
	if got := env.screen.captured(); len(got) != 0 {
		t.Errorf("invalid regions reached the capture tool: %v", got)
	}
}

func TestCaptureToolFailure(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	env.screen.err = errors.New("display gone")

	_, err := s.Capture(geometry.Region{})
	var ce *CaptureError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CaptureError, got %v", err)
	}
	if !errors.Is(err, env.screen.err) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestFindImageTranslatesRegionOrigin(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	env.screen.draw = func(img *image.RGBA) {
		paintPatch(img, 12, 8, 3, 3)
	}

	needle := solidImage(3, 3, 0xff, 0xff, 0xff)
	res, err := s.FindImage(needle, geometry.Rect(100, 200, 50, 40), 0.9)
	if err != nil {
		t.Fatalf("FindImage failed: %v", err)
	}
	if !res.Found {
		t.Fatalf("patch not found: %+v", res)
	}
	if res.Location != (geometry.Point{X: 112, Y: 208}) {
		t.Errorf("Location = %s, want (112,208)", res.Location)
	}
}

func TestFindImageDefaultConfidence(t *testing.T) {
	env := newTestEnv(t)
	env.withDeps(func(d *Deps) { d.MatchConfidence = 0.99 })
	s := env.session(t)

	// Similarity of an (8,8,8) needle on black is about 0.969: below the
	// configured 0.99 default, above an explicit 0.9.
	needle := solidImage(2, 2, 8, 8, 8)

	res, err := s.FindImage(needle, geometry.Region{}, 0)
	if err != nil {
		t.Fatalf("FindImage failed: %v", err)
	}
	if res.Found {
		t.Errorf("confidence 0 should fall back to the configured 0.99, got %+v", res)
	}

	res, err = s.FindImage(needle, geometry.Region{}, 0.9)
	if err != nil {
		t.Fatalf("FindImage failed: %v", err)
	}
	if !res.Found {
		t.Errorf("explicit 0.9 should accept the match, got %+v", res)
	}
}

func TestWaitForImageFindsImmediately(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	env.screen.draw = func(img *image.RGBA) {
		paintPatch(img, 30, 40, 4, 4)
	}

	res, err := s.WaitForImage(solidImage(4, 4, 0xff, 0xff, 0xff), geometry.Region{}, 0.9, 5*time.Second)
	if err != nil {
		t.Fatalf("WaitForImage failed: %v", err)
	}
	if !res.Found || res.Location != (geometry.Point{X: 30, Y: 40}) {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestWaitForImageTimesOutWithoutError(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	start := time.Now()
	res, err := s.WaitForImage(solidImage(4, 4, 0xff, 0xff, 0xff), geometry.Region{}, 0, 150*time.Millisecond)
	if err != nil {
		t.Fatalf("timeout must not be an error: %v", err)
	}
	if res.Found {
		t.Errorf("nothing to find on a black screen: %+v", res)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("returned after %s, before the deadline", elapsed)
	}
}

func TestWaitForImageGone(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	gone, err := s.WaitForImageGone(solidImage(4, 4, 0xff, 0xff, 0xff), geometry.Region{}, 0, time.Second)
	if err != nil {
		t.Fatalf("WaitForImageGone failed: %v", err)
	}
	if !gone {
		t.Error("a white needle is never on a black screen")
	}

	gone, err = s.WaitForImageGone(solidImage(4, 4, 0, 0, 0), geometry.Region{}, 0, 150*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForImageGone failed: %v", err)
	}
	if gone {
		t.Error("a black needle always matches a black screen")
	}
}

func TestExtractText(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	env.ocr.text = "42\n\n"

	text, err := s.ExtractText(geometry.Rect(10, 10, 40, 20), testOcrSpec(), false)
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if text != "42\n\n" {
		t.Errorf("engine output must pass through untouched, got %q", text)
	}
	if regions := env.screen.captured(); len(regions) != 1 || regions[0] != geometry.Rect(10, 10, 40, 20) {
		t.Errorf("captured %v", regions)
	}
	if sizes := env.ocr.sizes; len(sizes) != 1 || sizes[0].Dx() != 40 || sizes[0].Dy() != 20 {
		t.Errorf("recognizer saw %v", sizes)
	}
}

func TestExtractTextDegenerateRegion(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	_, err := s.ExtractText(geometry.Region{Origin: geometry.Point{X: 5, Y: 5}, Width: 0, Height: 3}, testOcrSpec(), false)
	var oe *OcrError
	if !errors.As(err, &oe) {
		t.Fatalf("expected OcrError, got %v", err)
	}
	if got := env.screen.captured(); len(got) != 0 {
		t.Errorf("degenerate region reached the capture tool: %v", got)
	}
}

func TestExtractTextCaptureFailure(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	env.screen.err = errors.New("display gone")

	_, err := s.ExtractText(geometry.Rect(0, 0, 10, 10), testOcrSpec(), false)
	var ce *CaptureError
	if !errors.As(err, &ce) {
		t.Fatalf("a capture failure stays a CaptureError, got %v", err)
	}
}

func TestExtractTextEngineFailure(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	env.ocr.err = errors.New("tesseract failed")

	_, err := s.ExtractText(geometry.Rect(0, 0, 10, 10), testOcrSpec(), false)
	var oe *OcrError
	if !errors.As(err, &oe) {
		t.Fatalf("expected OcrError, got %v", err)
	}
}

func TestExtractTextPreviewArtifacts(t *testing.T) {
	env := newTestEnv(t)
	store := artifacts.NewStore(t.TempDir())
	env.withDeps(func(d *Deps) { d.Artifacts = store })
	s := env.session(t)

	if _, err := s.ExtractText(geometry.Rect(0, 0, 20, 10), testOcrSpec(), true); err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	files, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("preview should save 2 artifacts, got %v", files)
	}

	if _, err := s.ExtractText(geometry.Rect(0, 0, 20, 10), testOcrSpec(), false); err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	files, err = store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("no preview requested, yet artifacts grew to %v", files)
	}
}

func TestClosedSessionRejectsOperations(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	var ie *InputError
	if err := s.Type("x"); !errors.As(err, &ie) {
		t.Errorf("Type on closed session = %v, want InputError", err)
	}
	var ce *CaptureError
	if _, err := s.Capture(geometry.Region{}); !errors.As(err, &ce) {
		t.Errorf("Capture on closed session = %v, want CaptureError", err)
	}
	var le *LaunchError
	if _, err := s.Launch("xterm", LaunchOptions{}); !errors.As(err, &le) {
		t.Errorf("Launch on closed session = %v, want LaunchError", err)
	}
	var oe *OcrError
	if _, err := s.ExtractText(geometry.Rect(0, 0, 5, 5), testOcrSpec(), false); !errors.As(err, &oe) {
		t.Errorf("ExtractText on closed session = %v, want OcrError", err)
	}
}

func TestCloseStopsProcessesInOrder(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(env.stops) != 2 || env.stops[0] != "wm" || env.stops[1] != "server" {
		t.Errorf("stop order %v, want [wm server]", env.stops)
	}
	if _, ok := env.registry.Get(7); ok {
		t.Error("closing a session directly should remove its registry entry")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if len(env.stops) != 2 {
		t.Errorf("second Close stopped processes again: %v", env.stops)
	}
}

func TestAliveTracksServerProcess(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)

	if !s.Alive() {
		t.Fatal("fresh session reported not alive")
	}

	s.mu.Lock()
	server := s.server.(*fakeProcess)
	s.mu.Unlock()
	server.mu.Lock()
	server.running = false
	server.mu.Unlock()
	if s.Alive() {
		t.Error("session with a dead display server reported alive")
	}

	server.mu.Lock()
	server.running = true
	server.mu.Unlock()
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if s.Alive() {
		t.Error("closed session reported alive")
	}
}

// TestDriveTerminalSequence walks the typical automation flow end to end:
// create a session, launch a terminal, type a command, press Return, and
// capture the whole screen.
func TestDriveTerminalSequence(t *testing.T) {
	env := newTestEnv(t)

	s, err := env.registry.GetOrCreate(15, 1024, 768)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	app, err := s.Launch("xterm", LaunchOptions{})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if !app.Running() {
		t.Error("launched app not running")
	}
	if err := s.Type("echo hi"); err != nil {
		t.Fatalf("Type failed: %v", err)
	}
	if err := s.Key("Return"); err != nil {
		t.Fatalf("Key failed: %v", err)
	}

	img, err := s.Capture(geometry.Region{})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1024 || b.Dy() != 768 {
		t.Errorf("captured %dx%d, want 1024x768", b.Dx(), b.Dy())
	}

	want := []string{`type "echo hi"`, "key Return"}
	got := env.input.recorded()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("injections = %v, want %v", got, want)
	}
	if len(env.launcher.started) != 1 || env.launcher.started[0] != "xterm" {
		t.Errorf("launched = %v, want [xterm]", env.launcher.started)
	}
}

func TestAttachProbesDisplay(t *testing.T) {
	env := newTestEnv(t)

	orig := probeDisplayFn
	var probed []string
	probeDisplayFn = func(display string) (int, int, error) {
		probed = append(probed, display)
		return 800, 600, nil
	}
	t.Cleanup(func() { probeDisplayFn = orig })

	s, err := Attach(4, env.registry.deps)
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if got := []string{":4"}; len(probed) != 1 || probed[0] != got[0] {
		t.Errorf("probed %v, want %v", probed, got)
	}
	if s.Display() != ":4" || s.Width() != 800 || s.Height() != 600 {
		t.Errorf("attached session = %s %dx%d, want :4 800x600", s.Display(), s.Width(), s.Height())
	}
	if !s.Alive() {
		t.Error("attached session reported not alive")
	}

	if err := s.Type("hi"); err != nil {
		t.Fatalf("Type on attached session failed: %v", err)
	}
	want := [2]string{":0", "Fake-Window-4"}
	if len(env.activations) != 1 || env.activations[0] != want {
		t.Errorf("activations = %v, want [%v]", env.activations, want)
	}

	// Closing an attached session stops nothing; there are no handles.
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(env.stops) != 0 {
		t.Errorf("attached Close stopped processes: %v", env.stops)
	}
}

func TestAttachUnreachableDisplay(t *testing.T) {
	env := newTestEnv(t)

	orig := probeDisplayFn
	probeDisplayFn = func(display string) (int, int, error) {
		return 0, 0, errors.New("connection refused")
	}
	t.Cleanup(func() { probeDisplayFn = orig })

	_, err := Attach(4, env.registry.deps)
	var se *SessionStartError
	if !errors.As(err, &se) {
		t.Fatalf("Attach = %v, want SessionStartError", err)
	}
	if se.Identifier != 4 {
		t.Errorf("Identifier = %d, want 4", se.Identifier)
	}

	if _, err := Attach(-1, env.registry.deps); !errors.As(err, &se) {
		t.Errorf("Attach(-1) = %v, want SessionStartError", err)
	}
}
