// Package hostdisplay resolves the DISPLAY of the host desktop session.
// Nested display servers are themselves clients of the host X server, and
// the launch wrapper template can pass the host display through to tools
// like vglrun.
package hostdisplay

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var (
	runCommandOutputFn = runCommandOutput
	readFileFn         = os.ReadFile
	readDirFn          = os.ReadDir
	getenvFn           = os.Getenv
)

// Resolve returns the host display. Preference order: the DISPLAY
// environment variable, the graphical logind session, the X sockets in
// /tmp/.X11-unix. Returns "" when no host display exists (headless box).
func Resolve() string {
	if d := strings.TrimSpace(getenvFn("DISPLAY")); d != "" {
		return d
	}
	if d := fromLoginSession(); d != "" {
		return d
	}
	return fromSockets("/tmp/.X11-unix")
}

// fromLoginSession asks logind for the current user's graphical session and
// reads DISPLAY from the session leader's environment when possible.
func fromLoginSession() string {
	uid := strconv.Itoa(os.Getuid())
	out, err := runCommandOutputFn("loginctl", "list-sessions", "--no-legend")
	if err != nil {
		return ""
	}
	for _, sessionID := range parseSessionIDs(out, uid) {
		display := strings.TrimSpace(sessionProperty(sessionID, "Display"))
		if display == "" || strings.EqualFold(display, "n/a") {
			continue
		}
		leader := strings.TrimSpace(sessionProperty(sessionID, "Leader"))
		if leader != "" && leader != "0" {
			if d := displayFromProcEnviron(leader); d != "" {
				return d
			}
		}
		return display
	}
	return ""
}

// parseSessionIDs extracts the session ids belonging to uid from
// `loginctl list-sessions --no-legend` output.
func parseSessionIDs(output string, uid string) []string {
	var sessions []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		if fields[1] == uid {
			sessions = append(sessions, fields[0])
		}
	}
	return sessions
}

func sessionProperty(sessionID string, prop string) string {
	out, err := runCommandOutputFn("loginctl", "show-session", sessionID, "-p", prop, "--value")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func displayFromProcEnviron(pid string) string {
	data, err := readFileFn(filepath.Join("/proc", pid, "environ"))
	if err != nil {
		return ""
	}
	for _, part := range strings.Split(string(data), "\x00") {
		if v, ok := strings.CutPrefix(part, "DISPLAY="); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// fromSockets scans an X11 socket directory for X<N> entries. The lowest
// ordinal wins: host displays sit at :0 or :1 while nested session displays
// occupy higher numbers.
func fromSockets(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}

	var displays []int
	for _, entry := range entries {
		name := entry.Name()
		if len(name) < 2 || name[0] != 'X' {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		displays = append(displays, n)
	}

	if len(displays) == 0 {
		return ""
	}
	sort.Ints(displays)
	return fmt.Sprintf(":%d", displays[0])
}

func runCommandOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
