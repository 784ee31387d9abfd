package service

import (
	"encoding/json"

	"observo/internal/models"
)

// defaultDocument builds a fresh copy of the default settings document in
// the same shape a JSON round-trip produces (numbers are float64).
func defaultDocument() map[string]any {
	defaults := map[string]any{
		models.SectionDashboard: models.DashboardSettings{
			RefreshInterval:  30,
			DefaultTimeRange: "24h",
			Widgets: []models.Widget{
				{ID: "log-stats", Enabled: true, Position: 0},
				{ID: "error-rate", Enabled: true, Position: 1},
				{ID: "service-performance", Enabled: true, Position: 2},
				{ID: "recent-logs", Enabled: true, Position: 3},
			},
		},
		models.SectionAlerts: models.AlertSettings{
			Enabled:            true,
			ErrorRateThreshold: 5.0,
			LogVolumeThreshold: 1000,
			Notifications: models.NotificationSettings{
				Emails: []string{},
			},
		},
		models.SectionDataRetention: models.RetentionSettings{
			Enabled:    true,
			Days:       30,
			AutoDelete: true,
		},
		models.SectionAPI: models.APISettings{
			RateLimit:  1000,
			MaxResults: 1000,
		},
		models.SectionUser: models.UserSettings{
			Theme:    "dark",
			Timezone: "UTC",
			Language: "en",
		},
		models.SectionSystemCheck: models.SystemCheckSettings{
			Enabled:         false,
			IntervalSeconds: 60,
			Endpoints:       []models.Endpoint{},
		},
	}

	b, err := json.Marshal(defaults)
	if err != nil {
		panic("marshal default settings: " + err.Error())
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		panic("unmarshal default settings: " + err.Error())
	}
	return doc
}
