package service

import (
	"context"
	"time"

	"observo/internal/logger"
	"observo/internal/metrics"
	"observo/internal/models"
	"observo/internal/repository"
)

// Settings is the global settings document with validated section updates.
type Settings interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	GetSection(ctx context.Context, name string) (map[string]any, error)
	UpdateSettings(ctx context.Context, partial map[string]any) (models.Settings, error)
	UpdateSection(ctx context.Context, name string, data map[string]any) (models.Settings, error)
	ResetToDefaults(ctx context.Context) (models.Settings, error)
	Export(ctx context.Context) (models.SettingsExport, error)
	Import(ctx context.Context, payload models.SettingsExport) (models.Settings, error)
}

// Alerts evaluates one ingested record against the alerting policy.
type Alerts interface {
	Evaluate(ctx context.Context, rec models.LogRecord) []models.DispatchResult
}

// Retention removes expired records. Stop Run via context cancellation.
type Retention interface {
	Run(ctx context.Context, tick time.Duration)
	Sweep(ctx context.Context) (int64, error)
	Cleanup(ctx context.Context, days int) (int64, error)
}

// Prober runs the endpoint health loop. Stop Run via context cancellation.
type Prober interface {
	Run(ctx context.Context)
	CheckOnce(ctx context.Context) []models.Endpoint
}

type Service struct {
	Settings  Settings
	Alerts    Alerts
	Retention Retention
	Prober    Prober
}

func NewService(repos *repository.Repository, notifier Notifier, log *logger.Logger, m *metrics.Metrics) *Service {
	settings := NewSettingsService(repos.Settings, log.Named("settings"))
	return &Service{
		Settings:  settings,
		Alerts:    NewAlertService(settings, notifier, log.Named("alerts")),
		Retention: NewRetentionService(repos.Logs, settings, log.Named("retention"), m),
		Prober:    NewHealthProber(settings, notifier, log.Named("prober"), m),
	}
}
