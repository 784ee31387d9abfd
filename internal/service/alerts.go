package service

import (
	"context"

	"observo/internal/logger"
	"observo/internal/models"
	"observo/internal/notify"
)

// Notifier fans an alert out to the enabled channels.
type Notifier interface {
	Dispatch(ctx context.Context, settings models.AlertSettings, alert notify.Alert) []models.DispatchResult
}

// SettingsReader is the read side of the settings store.
type SettingsReader interface {
	GetSettings(ctx context.Context) (models.Settings, error)
}

// AlertService decides per record whether to notify. Every error-level
// record alerts while alerting is enabled; errorRateThreshold and
// logVolumeThreshold are stored but not evaluated here.
type AlertService struct {
	settings SettingsReader
	notifier Notifier
	log      *logger.Logger
}

func NewAlertService(settings SettingsReader, notifier Notifier, log *logger.Logger) *AlertService {
	return &AlertService{settings: settings, notifier: notifier, log: log}
}

// Evaluate returns the dispatch results, or nil when no alert fired.
func (a *AlertService) Evaluate(ctx context.Context, rec models.LogRecord) []models.DispatchResult {
	if rec.Level != models.LevelError {
		return nil
	}

	st, err := a.settings.GetSettings(ctx)
	if err != nil {
		a.log.Warnw("alert_settings_unavailable", "error", err)
		return nil
	}
	alerts, err := st.Alerts()
	if err != nil {
		a.log.Warnw("alert_settings_invalid", "error", err)
		return nil
	}
	if !alerts.Enabled {
		return nil
	}

	return a.notifier.Dispatch(ctx, alerts, notify.LogErrorAlert(rec))
}
