package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "xcontrol", "config.yaml"), nil
}

// Load reads the configuration from the standard location, applies
// environment overrides, and validates the result. A missing config file is
// not an error; defaults are used.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	if exists, err := pathExists(path); err != nil {
		return nil, err
	} else if exists {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read: %w", path, err)
		}
		if err := decodeStrictYAML(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	// A .env next to the config file supplies environment values without
	// clobbering variables already set in the process.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets XCONTROL_* variables override file values.
// Unparseable numeric values are ignored rather than fatal.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("XCONTROL_BACKEND")); v != "" {
		cfg.Backend = Backend(strings.ToLower(v))
	}
	if v := os.Getenv("XCONTROL_SCREEN_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultScreen.Width = n
		}
	}
	if v := os.Getenv("XCONTROL_SCREEN_HEIGHT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultScreen.Height = n
		}
	}
	if v := os.Getenv("XCONTROL_LAUNCH_WRAPPER"); v != "" {
		cfg.LaunchWrapper = v
	}
	if v := os.Getenv("XCONTROL_MATCH_CONFIDENCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			cfg.MatchConfidence = f
		}
	}
	if v := os.Getenv("XCONTROL_ARTIFACT_DIR"); v != "" {
		cfg.ArtifactDir = v
	}
	if v := os.Getenv("XCONTROL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("XCONTROL_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
