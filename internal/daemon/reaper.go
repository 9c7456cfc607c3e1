package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/Alex-deVis/xControl/internal/session"
)

// ReaperConfig holds configuration for the reaper.
type ReaperConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reaper periodically sweeps the registry for sessions whose display server
// exited outside our control, typically because the user closed the Xephyr
// window, and closes them so their identifiers become usable again.
type Reaper struct {
	interval time.Duration
	registry *session.Registry
	logger   *slog.Logger
}

// NewReaper creates a new reaper sweeping the given registry.
func NewReaper(cfg ReaperConfig, registry *session.Registry) *Reaper {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &Reaper{
		interval: interval,
		registry: registry,
		logger:   cfg.Logger,
	}
}

// Run starts the sweep loop. Blocks until context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reaper started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reaper stopped")
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep performs a single pass.
func (r *Reaper) sweep() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reaper panic recovered", "error", err)
		}
	}()

	for _, sess := range r.registry.List() {
		if sess.Alive() {
			continue
		}

		r.logger.Info("reaper: dead session detected",
			"identifier", sess.Identifier(),
			"display", sess.Display())

		if err := sess.Close(); err != nil {
			r.logger.Warn("reaper: failed to close dead session",
				"identifier", sess.Identifier(),
				"error", err)
		}
	}
}

// SweepNow triggers an immediate sweep pass.
func (r *Reaper) SweepNow() {
	r.sweep()
}
