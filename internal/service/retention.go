package service

import (
	"context"
	"fmt"
	"time"

	"observo/internal/logger"
	"observo/internal/metrics"
	"observo/internal/repository"
)

// RetentionService deletes log records older than the configured window.
type RetentionService struct {
	logs     repository.LogStore
	settings SettingsReader
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

const defaultSweepInterval = time.Hour

func NewRetentionService(logs repository.LogStore, settings SettingsReader, log *logger.Logger, m *metrics.Metrics) *RetentionService {
	return &RetentionService{logs: logs, settings: settings, log: log, metrics: m, now: time.Now}
}

// Run sweeps on every tick while dataRetention is enabled with autoDelete.
func (r *RetentionService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = defaultSweepInterval
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.log.Errorw("retention_sweep_failed", "error", err)
			}
		}
	}
}

// Sweep applies the stored retention policy once.
func (r *RetentionService) Sweep(ctx context.Context) (int64, error) {
	st, err := r.settings.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	ret, err := st.Retention()
	if err != nil {
		return 0, err
	}
	if !ret.Enabled || !ret.AutoDelete {
		return 0, nil
	}
	return r.Cleanup(ctx, ret.Days)
}

// Cleanup deletes records with a timestamp older than days.
func (r *RetentionService) Cleanup(ctx context.Context, days int) (int64, error) {
	if days < 1 || days > 365 {
		return 0, fmt.Errorf("retention days must be between 1 and 365, got %d", days)
	}
	cutoff := r.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	n, err := r.logs.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	r.metrics.RetentionDeleted(n)
	r.log.Infow("retention_cleanup", "days", days, "cutoff", cutoff, "deleted", n)
	return n, nil
}
