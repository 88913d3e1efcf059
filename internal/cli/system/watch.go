package system

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julianstephens/pills/internal/cli"
	"github.com/julianstephens/pills/internal/logger"
	"github.com/julianstephens/pills/internal/metrics"
)

// WatchCmd keeps running, firing due reminders and keeping the schedule and
// lock current. It stops when the context is cancelled.
type WatchCmd struct {
	Interval    time.Duration `help:"How often to check for due reminders." default:"1m"`
	MetricsAddr string        `help:"Serve Prometheus metrics on this address, e.g. :9090."`
}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}

	runCtx := ctx.Context()
	if c.MetricsAddr != "" {
		srv := c.serveMetrics()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to stop metrics server", "error", err)
			}
		}()
	}

	logger.Info("Watching for due reminders", "interval", c.Interval)
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		if err := c.pass(ctx); err != nil {
			logger.Error("Watch pass failed", "error", err)
		}
		select {
		case <-runCtx.Done():
			logger.Info("Watch stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (c *WatchCmd) pass(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	if settings.NotificationsEnabled {
		report, err := fireDue(ctx, false)
		if err != nil {
			return err
		}
		if len(report.Delivered) > 0 {
			logger.Info("Reminders sent", "identifiers", report.Delivered)
		}
	}

	// a fresh tracker picks up toggles and settings made by other processes
	ctx.Close()
	t, err := ctx.Tracker()
	if err != nil {
		return err
	}
	metrics.SetLocked(t.HistoryLocked())
	_, err = t.Streak()
	return err
}

func (c *WatchCmd) serveMetrics() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              c.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "addr", c.MetricsAddr, "error", err)
		}
	}()
	logger.Info("Serving metrics", "addr", c.MetricsAddr)
	return srv
}
