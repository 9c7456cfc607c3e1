package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir returns the runtime directory used for the IPC socket and daemon
// state, creating it when missing. Priority:
// 1) $XDG_RUNTIME_DIR/xcontrol (if XDG_RUNTIME_DIR is set)
// 2) /run/user/<uid>/xcontrol (if /run/user/<uid> is present)
// 3) /tmp/xcontrol-runtime-<uid>
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return ensureDir(filepath.Join(runtimeDir, "xcontrol"))
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return ensureDir(filepath.Join(runUserDir, "xcontrol"))
	}

	return ensureDir(fmt.Sprintf("/tmp/xcontrol-runtime-%d", uid))
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return dir, nil
}

// SocketPath returns the daemon IPC socket path.
func SocketPath() (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, "ipc.sock"), nil
}

// PidFilePath returns the daemon pid file path.
func PidFilePath() (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, "daemon.pid"), nil
}
