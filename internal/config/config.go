package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Backend selects the display-server implementation used for new sessions.
type Backend string

const (
	// BackendXephyr runs sessions as nested windows on the host desktop.
	BackendXephyr Backend = "xephyr"
	// BackendXvfb runs sessions headless, with no host window.
	BackendXvfb Backend = "xvfb"
)

// Screen holds default session dimensions.
type Screen struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Tools overrides the binaries invoked for each collaborator. Empty values
// fall back to the bare command name resolved via PATH.
type Tools struct {
	Xephyr        string `yaml:"xephyr,omitempty"`
	Xvfb          string `yaml:"xvfb,omitempty"`
	WindowManager string `yaml:"window_manager,omitempty"`
	Xdotool       string `yaml:"xdotool,omitempty"`
	Tesseract     string `yaml:"tesseract,omitempty"`
}

// LoggingConfig configures the on-disk action log.
type LoggingConfig struct {
	// Enabled turns action logging on/off
	Enabled bool `yaml:"enabled,omitempty"`
	// Level controls logging verbosity: debug, info, warning, error
	Level string `yaml:"level,omitempty"`
	// File is the log file path (default: ~/.local/share/xcontrol/actions.log)
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty"`
	// IncludeContent logs typed text verbatim. Off by default because typed
	// text can hold credentials.
	IncludeContent bool `yaml:"include_content,omitempty"`
	// PreviewLength caps logged text payloads (default: 80)
	PreviewLength int `yaml:"preview_length,omitempty"`
}

// Config holds the application configuration.
type Config struct {
	// Backend is the display server used for new sessions: xephyr or xvfb.
	Backend Backend `yaml:"backend"`
	// DefaultScreen is the session size used when a caller does not supply one.
	DefaultScreen Screen `yaml:"default_screen"`
	// LaunchWrapper wraps every launched command. Placeholders: {{cmd}} is the
	// command being launched, {{hostDisplay}} the host DISPLAY value at
	// startup. Example: "vglrun +wm -d {{hostDisplay}} {{cmd}}" for VirtualGL
	// pass-through. Empty means commands run unwrapped.
	LaunchWrapper string `yaml:"launch_wrapper,omitempty"`
	// MatchConfidence is the acceptance threshold for image search (0..1).
	MatchConfidence float64 `yaml:"match_confidence"`
	// ArtifactDir stores capture previews and screenshots
	// (default: ~/.local/share/xcontrol/artifacts).
	ArtifactDir string        `yaml:"artifact_dir,omitempty"`
	Tools       Tools         `yaml:"tools,omitempty"`
	Logging     LoggingConfig `yaml:"logging,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Backend: BackendXephyr,
		DefaultScreen: Screen{
			Width:  1024,
			Height: 768,
		},
		MatchConfidence: 0.7,
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}
}

// GetLoggingConfig returns the logging configuration with defaults applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	if c == nil {
		return LoggingConfig{}
	}
	cfg := c.Logging
	if cfg.File == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = os.Getenv("HOME")
		}
		if home == "" {
			// Last resort fallback - use current directory
			home = "."
		}
		cfg.File = filepath.Join(home, ".local/share/xcontrol/actions.log")
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.PreviewLength == 0 {
		cfg.PreviewLength = 80
	}
	return cfg
}

// GetArtifactDir returns the artifact directory with the default applied.
func (c *Config) GetArtifactDir() string {
	if c != nil && strings.TrimSpace(c.ArtifactDir) != "" {
		return c.ArtifactDir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.Getenv("HOME")
	}
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".local/share/xcontrol/artifacts")
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendXephyr, BackendXvfb:
	default:
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: xephyr, xvfb")}
	}
	if c.DefaultScreen.Width <= 0 || c.DefaultScreen.Height <= 0 {
		return &ValidationError{Path: "default_screen", Err: fmt.Errorf("width and height must be positive")}
	}
	if c.MatchConfidence < 0 || c.MatchConfidence > 1 {
		return &ValidationError{Path: "match_confidence", Err: fmt.Errorf("match_confidence must be between 0 and 1")}
	}
	if lvl := c.Logging.Level; lvl != "" {
		if lvl != "debug" && lvl != "info" && lvl != "warning" && lvl != "error" {
			return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warning, error")}
		}
	}
	if c.Logging.MaxSizeMB < 0 {
		return &ValidationError{Path: "logging.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}
	return nil
}

// ValidationError reports an invalid configuration value by YAML path.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }
