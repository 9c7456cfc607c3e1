// Package daemon hosts the process-wide session registry and serves it to
// CLI clients over the IPC socket. Sessions created through the daemon keep
// running across client invocations; the daemon is the one place that holds
// their process handles.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/Alex-deVis/xControl/internal/config"
	"github.com/Alex-deVis/xControl/internal/ipc"
	"github.com/Alex-deVis/xControl/internal/runtimepath"
	"github.com/Alex-deVis/xControl/internal/session"
)

// Options adjust daemon behavior.
type Options struct {
	// CloseOnExit stops every live session during shutdown. The default
	// leaves their displays running, since they are detached processes that
	// direct-mode clients can still reach.
	CloseOnExit bool
	// ReapInterval overrides how often dead sessions are swept.
	ReapInterval time.Duration
	Logger       *slog.Logger
}

// Daemon owns the session registry, the IPC server, and the reaper.
type Daemon struct {
	cfg      *config.Config
	registry *session.Registry
	server   *ipc.Server
	reaper   *Reaper
	opts     Options
	logger   *slog.Logger
	pidPath  string
}

// New builds a daemon around the given config. It refuses to start when
// another daemon already answers on the socket, and when the configured
// display server or window manager binary is missing.
func New(cfg *config.Config, opts Options) (*Daemon, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	// Listening would silently steal the socket from a live daemon.
	if err := ipc.NewClient().Ping(); err == nil {
		return nil, fmt.Errorf("daemon already running")
	}

	deps := session.DefaultDeps(cfg)
	if !deps.Display.Available() {
		return nil, fmt.Errorf("%s is required for the daemon but not found in PATH", deps.Display.Name())
	}
	if !deps.WM.Available() {
		return nil, fmt.Errorf("%s is required for the daemon but not found in PATH", deps.WM.Name())
	}

	registry := session.NewRegistry(deps)

	server, err := ipc.NewServer(cfg, registry)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:      cfg,
		registry: registry,
		server:   server,
		reaper:   NewReaper(ReaperConfig{Interval: opts.ReapInterval, Logger: logger}, registry),
		opts:     opts,
		logger:   logger,
	}, nil
}

// Run serves IPC requests until ctx is cancelled, then shuts down.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.server.Start(); err != nil {
		return err
	}
	d.writePidFile()

	go d.reaper.Run(ctx)

	d.logger.Info("daemon started",
		"backend", string(d.cfg.Backend),
		"pid", os.Getpid())

	<-ctx.Done()

	d.logger.Info("daemon shutting down")
	d.server.Stop()
	d.removePidFile()

	if d.opts.CloseOnExit {
		if err := d.registry.CloseAll(); err != nil {
			d.logger.Warn("failed to close sessions", "error", err)
		}
	} else if n := len(d.registry.List()); n > 0 {
		d.logger.Info("leaving sessions running", "count", n)
	}

	return nil
}

// writePidFile records the daemon pid next to the socket. The pid file is
// advisory, so failure only warns.
func (d *Daemon) writePidFile() {
	path, err := runtimepath.PidFilePath()
	if err != nil {
		d.logger.Warn("could not resolve pid file path", "error", err)
		return
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0600); err != nil {
		d.logger.Warn("could not write pid file", "error", err)
		return
	}
	d.pidPath = path
}

func (d *Daemon) removePidFile() {
	if d.pidPath != "" {
		os.Remove(d.pidPath)
	}
}
