// Package launcher starts applications inside session displays. Commands
// can be wrapped by a configured template, e.g. a VirtualGL pass-through
// that needs the host display.
package launcher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Alex-deVis/xControl/internal/hostdisplay"
	"github.com/Alex-deVis/xControl/internal/proc"
)

// Launcher starts commands bound to a session display.
type Launcher struct {
	wrapper     string
	hostDisplay string
}

// New creates a launcher. wrapper is the launch template from config; empty
// means commands run unwrapped. An empty hostDisplay is resolved from the
// environment.
func New(wrapper, hostDisplay string) *Launcher {
	if hostDisplay == "" {
		hostDisplay = hostdisplay.Resolve()
	}
	return &Launcher{wrapper: wrapper, hostDisplay: hostDisplay}
}

// Start launches command with DISPLAY pointing at the session display. The
// application runs detached and keeps running until the display goes away
// or the session is closed. Entries in extraEnv are added to the child
// environment; a DISPLAY entry there is ignored, the session display always
// wins.
func (l *Launcher) Start(command, display string, extraEnv map[string]string) (*proc.Handle, error) {
	argv, err := renderLaunchTemplate(l.wrapper, l.hostDisplay, command)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("launch command is empty")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = childEnv(display, extraEnv)
	return proc.Start(cmd)
}

// Run executes command synchronously against a session display and returns
// its stdout. The command is not wrapped by the launch template. A zero
// timeout falls back to five seconds; on expiry the process is killed and
// an error returned.
func (l *Launcher) Run(command, display string, timeout time.Duration) (string, error) {
	argv, err := splitCommand(strings.TrimSpace(command))
	if err != nil {
		return "", err
	}
	if len(argv) == 0 {
		return "", fmt.Errorf("command must not be empty")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = childEnv(display, nil)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return stdout.String(), fmt.Errorf("command %q timed out after %s", command, timeout)
	}
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		return stdout.String(), fmt.Errorf("command %q failed: %w (%s)", command, err, detail)
	}
	return stdout.String(), nil
}

// childEnv builds the environment for a process bound to a session display.
func childEnv(display string, extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		if k == "DISPLAY" {
			continue
		}
		env = proc.UpsertEnv(env, k, v)
	}
	return proc.UpsertEnv(env, "DISPLAY", display)
}

// renderLaunchTemplate fills {{hostDisplay}} and {{cmd}} placeholders in a
// launch wrapper template and returns an exec-ready argv. An empty template
// runs the command as-is; a template without {{cmd}} gets the command
// appended.
func renderLaunchTemplate(template, hostDisplay, command string) ([]string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, fmt.Errorf("command must not be empty")
	}
	if strings.TrimSpace(template) == "" {
		return splitCommand(command)
	}

	argv, err := splitCommand(template)
	if err != nil {
		return nil, err
	}

	sawCmd := false
	argvOut := make([]string, 0, len(argv))
	for _, arg := range argv {
		hadCmdPlaceholder := strings.Contains(arg, "{{cmd}}")
		if hadCmdPlaceholder {
			sawCmd = true
		}
		arg = strings.ReplaceAll(arg, "{{hostDisplay}}", hostDisplay)
		arg = strings.ReplaceAll(arg, "{{cmd}}", command)
		arg = strings.TrimSpace(arg)
		if arg == "" {
			// A placeholder expanded to nothing: also drop the flag that
			// introduced it (e.g., "-d" before an empty {{hostDisplay}}).
			if len(argvOut) > 0 && strings.HasPrefix(argvOut[len(argvOut)-1], "-") {
				argvOut = argvOut[:len(argvOut)-1]
			}
			continue
		}
		// {{cmd}} may expand to multiple words. Split them into separate
		// exec args.
		if hadCmdPlaceholder {
			parts, err := splitCommand(arg)
			if err == nil && len(parts) > 0 {
				argvOut = append(argvOut, parts...)
				continue
			}
		}
		argvOut = append(argvOut, arg)
	}

	if !sawCmd {
		parts, err := splitCommand(command)
		if err != nil {
			return nil, err
		}
		argvOut = append(argvOut, parts...)
	}

	return argvOut, nil
}

// splitCommand splits a shell-like command string into arguments,
// respecting single and double quotes and backslash escapes.
func splitCommand(s string) ([]string, error) {
	var out []string
	var buf strings.Builder
	inSingle := false
	inDouble := false
	escaped := false

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		out = append(out, buf.String())
		buf.Reset()
	}

	for _, r := range s {
		if escaped {
			buf.WriteRune(r)
			escaped = false
			continue
		}
		if !inSingle && r == '\\' {
			escaped = true
			continue
		}
		if !inDouble && r == '\'' {
			inSingle = !inSingle
			continue
		}
		if !inSingle && r == '"' {
			inDouble = !inDouble
			continue
		}
		if !inSingle && !inDouble {
			if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
				flush()
				continue
			}
		}
		buf.WriteRune(r)
	}

	if escaped {
		return nil, fmt.Errorf("unfinished escape in command")
	}
	if inSingle || inDouble {
		return nil, fmt.Errorf("unterminated quote in command")
	}

	flush()
	return out, nil
}
