// Package actionlog records every automation action to a rotating log file,
// giving test runs an audit trail of what was injected into which session.
package actionlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel defines the logging verbosity.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ActionType represents the kind of automation action being logged.
type ActionType string

const (
	ActionSessionCreate ActionType = "SESSION-CREATE"
	ActionSessionClose  ActionType = "SESSION-CLOSE"
	ActionLaunch        ActionType = "LAUNCH"
	ActionTypeText      ActionType = "TYPE"
	ActionKey           ActionType = "KEY"
	ActionClick         ActionType = "CLICK"
	ActionMove          ActionType = "MOVE"
	ActionDrag          ActionType = "DRAG"
	ActionCapture       ActionType = "CAPTURE"
	ActionFind          ActionType = "FIND"
	ActionOcr           ActionType = "OCR"
	ActionRun           ActionType = "RUN"
)

// actionLevel returns the log level for an action type. Input and
// interrogation actions are high frequency and stay at debug.
func actionLevel(action ActionType) LogLevel {
	switch action {
	case ActionTypeText, ActionKey, ActionClick, ActionMove, ActionDrag,
		ActionCapture, ActionFind, ActionOcr, ActionRun:
		return LevelDebug
	case ActionSessionCreate, ActionSessionClose, ActionLaunch:
		return LevelInfo
	default:
		return LevelInfo
	}
}

// Config holds configuration for the action logger.
type Config struct {
	Enabled        bool
	Level          LogLevel
	FilePath       string
	MaxSizeMB      int
	MaxFiles       int
	IncludeContent bool
	PreviewLength  int
}

// Logger handles action logging with file rotation.
type Logger struct {
	mu          sync.Mutex
	file        *os.File
	config      Config
	currentSize int64
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg Config) (*Logger, error) {
	if !cfg.Enabled {
		return &Logger{config: cfg}, nil
	}

	dir := filepath.Dir(cfg.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", cfg.FilePath, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	return &Logger{
		file:        f,
		config:      cfg,
		currentSize: stat.Size(),
	}, nil
}

// Content formats a text payload for logging, honoring the include-content
// and preview-length settings. Typed text can hold credentials, so it is
// dropped unless the configuration opts in.
func (l *Logger) Content(s string) string {
	if l == nil || !l.config.IncludeContent {
		return fmt.Sprintf("<%d chars>", len(s))
	}
	return Truncate(s, l.config.PreviewLength)
}

// Log records an action against a session identifier. A negative identifier
// omits the session field.
func (l *Logger) Log(action ActionType, identifier int, details map[string]interface{}) {
	if l == nil || !l.config.Enabled {
		return
	}

	if actionLevel(action) < l.config.Level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}

	maxBytes := int64(l.config.MaxSizeMB) * 1024 * 1024
	if l.currentSize >= maxBytes {
		if err := l.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
		if l.file == nil {
			return
		}
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	var sb strings.Builder
	sb.WriteString(timestamp)
	sb.WriteString(" [")
	sb.WriteString(string(action))
	sb.WriteString("]")

	if identifier >= 0 {
		sb.WriteString(fmt.Sprintf(" session=%d", identifier))
	}

	// Add details in sorted order for consistent output
	if len(details) > 0 {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			v := details[k]
			switch val := v.(type) {
			case string:
				sb.WriteString(fmt.Sprintf(" %s=%q", k, val))
			default:
				sb.WriteString(fmt.Sprintf(" %s=%v", k, val))
			}
		}
	}

	sb.WriteString("\n")
	entry := sb.String()

	n, err := l.file.WriteString(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write log entry: %v\n", err)
		return
	}
	l.currentSize += int64(n)
}

// Close closes the logger and releases resources.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.file.Close()
	l.file = nil
	return err
}

// rotate performs log file rotation: actions.log becomes actions.log.1,
// existing numbered files shift up, and the oldest is dropped.
func (l *Logger) rotate() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	basePath := l.config.FilePath
	for i := l.config.MaxFiles; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", basePath, i)
		newPath := fmt.Sprintf("%s.%d", basePath, i+1)
		if i == l.config.MaxFiles {
			os.Remove(oldPath)
		} else {
			os.Rename(oldPath, newPath)
		}
	}

	if err := os.Rename(basePath, basePath+".1"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	f, err := os.OpenFile(basePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open new log file: %w", err)
	}

	l.file = f
	l.currentSize = 0
	return nil
}

// ParseLogLevel converts a string to LogLevel.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Truncate returns a preview of a string, truncating if necessary.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
