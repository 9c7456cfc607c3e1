package session

import (
	"image"
	"log"
	"time"

	"github.com/Alex-deVis/xControl/internal/actionlog"
	"github.com/Alex-deVis/xControl/internal/artifacts"
	"github.com/Alex-deVis/xControl/internal/capture"
	"github.com/Alex-deVis/xControl/internal/config"
	"github.com/Alex-deVis/xControl/internal/geometry"
	"github.com/Alex-deVis/xControl/internal/hostdisplay"
	"github.com/Alex-deVis/xControl/internal/input"
	"github.com/Alex-deVis/xControl/internal/launcher"
	"github.com/Alex-deVis/xControl/internal/ocr"
	"github.com/Alex-deVis/xControl/internal/wm"
	"github.com/Alex-deVis/xControl/internal/xserver"
)

// Process is a handle to a spawned collaborator process.
type Process interface {
	Pid() int
	Running() bool
	Stop() error
	Wait() error
}

// DisplayServer brings up nested display servers. Start returns the server
// process and the display it serves.
type DisplayServer interface {
	Name() string
	Available() bool
	Start(identifier, width, height int) (Process, string, error)
	// HostWindowTitle names the window the server occupies on the host
	// desktop. Headless servers return "".
	HostWindowTitle(identifier int) string
}

// WindowManager runs the window manager inside a session display.
type WindowManager interface {
	Name() string
	Available() bool
	Start(display string) (Process, error)
}

// AppLauncher starts and runs commands bound to a session display.
type AppLauncher interface {
	Start(command, display string, extraEnv map[string]string) (Process, error)
	Run(command, display string, timeout time.Duration) (string, error)
}

// InputInjector sends synthetic keyboard and pointer events to a display.
type InputInjector interface {
	TypeText(display, text string) error
	ClearField(display string) error
	PressKey(display, combo string) error
	Click(display string, x, y int, button input.Button) error
	MoveMouse(display string, x, y int) error
	ButtonDown(display string, button input.Button) error
	ButtonUp(display string, button input.Button) error
	MouseLocation(display string) (int, int, error)
}

// Screenshotter captures a region of a display.
type Screenshotter interface {
	Capture(display string, region geometry.Region) (*image.RGBA, error)
}

// TextRecognizer turns a captured image into text.
type TextRecognizer interface {
	ExtractText(img image.Image, spec ocr.Spec) (string, error)
}

// Deps bundles the collaborators a Registry hands to its sessions. Tests
// substitute fakes; DefaultDeps wires the real adapters.
type Deps struct {
	Display   DisplayServer
	WM        WindowManager
	Launcher  AppLauncher
	Input     InputInjector
	Screen    Screenshotter
	OCR       TextRecognizer
	Artifacts *artifacts.Store
	Log       *actionlog.Logger

	// HostDisplay is the host desktop display used to activate windowed
	// session windows before injecting input.
	HostDisplay string

	// MatchConfidence is the default image search threshold. Zero falls
	// back to the matcher default.
	MatchConfidence float64
}

// DefaultDeps wires the real collaborator adapters from configuration.
func DefaultDeps(cfg *config.Config) Deps {
	var display DisplayServer
	switch cfg.Backend {
	case config.BackendXvfb:
		display = xvfbServer{xserver.NewXvfb(cfg.Tools.Xvfb)}
	default:
		display = xephyrServer{xserver.NewXephyr(cfg.Tools.Xephyr)}
	}

	hostDisplay := hostdisplay.Resolve()

	logCfg := cfg.GetLoggingConfig()
	logger, err := actionlog.NewLogger(actionlog.Config{
		Enabled:        logCfg.Enabled,
		Level:          actionlog.ParseLogLevel(logCfg.Level),
		FilePath:       logCfg.File,
		MaxSizeMB:      logCfg.MaxSizeMB,
		MaxFiles:       logCfg.MaxFiles,
		IncludeContent: logCfg.IncludeContent,
		PreviewLength:  logCfg.PreviewLength,
	})
	if err != nil {
		log.Printf("Warning: action log unavailable: %v", err)
		logger = nil
	}

	return Deps{
		Display:         display,
		WM:              wmAdapter{wm.NewManager(cfg.Tools.WindowManager)},
		Launcher:        launcherAdapter{launcher.New(cfg.LaunchWrapper, hostDisplay)},
		Input:           input.NewInjector(cfg.Tools.Xdotool),
		Screen:          capture.Grabber{},
		OCR:             ocr.NewExtractor(cfg.Tools.Tesseract),
		Artifacts:       artifacts.NewStore(cfg.GetArtifactDir()),
		Log:             logger,
		HostDisplay:     hostDisplay,
		MatchConfidence: cfg.MatchConfidence,
	}
}

// The adapters below re-state concrete constructor signatures in terms of
// the Process interface.

type xephyrServer struct{ *xserver.Xephyr }

func (a xephyrServer) Start(identifier, width, height int) (Process, string, error) {
	h, display, err := a.Xephyr.Start(identifier, width, height)
	if err != nil {
		return nil, "", err
	}
	return h, display, nil
}

type xvfbServer struct{ *xserver.Xvfb }

func (a xvfbServer) Start(identifier, width, height int) (Process, string, error) {
	h, display, err := a.Xvfb.Start(identifier, width, height)
	if err != nil {
		return nil, "", err
	}
	return h, display, nil
}

type wmAdapter struct{ *wm.Manager }

func (a wmAdapter) Start(display string) (Process, error) {
	h, err := a.Manager.Start(display)
	if err != nil {
		return nil, err
	}
	return h, nil
}

type launcherAdapter struct{ *launcher.Launcher }

func (a launcherAdapter) Start(command, display string, extraEnv map[string]string) (Process, error) {
	h, err := a.Launcher.Start(command, display, extraEnv)
	if err != nil {
		return nil, err
	}
	return h, nil
}
