package session

import (
	"fmt"

	"github.com/Alex-deVis/xControl/internal/geometry"
)

// SessionStartError reports a failure to bring up the display server or
// window manager for a new session.
type SessionStartError struct {
	Identifier int
	Err        error
}

func (e *SessionStartError) Error() string {
	return fmt.Sprintf("failed to start session %d: %v", e.Identifier, e.Err)
}

func (e *SessionStartError) Unwrap() error { return e.Err }

// LaunchError reports a failure to start or run a command inside a session.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %q: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// InputError reports a failed input injection.
type InputError struct {
	Op  string
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s failed: %v", e.Op, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// CaptureError reports an invalid capture region or a failed screenshot.
type CaptureError struct {
	Region geometry.Region
	Err    error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture of %s failed: %v", e.Region, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// OcrError reports a failed text extraction.
type OcrError struct {
	Err error
}

func (e *OcrError) Error() string {
	return fmt.Sprintf("text extraction failed: %v", e.Err)
}

func (e *OcrError) Unwrap() error { return e.Err }
