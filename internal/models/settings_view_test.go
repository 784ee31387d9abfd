package models

import "testing"

func TestSettingsViews(t *testing.T) {
	s := Settings{Data: map[string]any{
		SectionAlerts: map[string]any{
			"enabled":            true,
			"errorRateThreshold": 5.5,
			"logVolumeThreshold": float64(1000),
			"notifications": map[string]any{
				"email":  true,
				"emails": []any{"ops@example.com"},
			},
		},
		SectionSystemCheck: map[string]any{
			"enabled":         true,
			"intervalSeconds": float64(30),
			"endpoints":       []any{map[string]any{"name": "api", "url": "http://api/health"}},
		},
	}}

	alerts, err := s.Alerts()
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}
	if !alerts.Enabled || alerts.LogVolumeThreshold != 1000 || alerts.ErrorRateThreshold != 5.5 {
		t.Fatalf("unexpected alerts view: %+v", alerts)
	}
	if !alerts.Notifications.Email || len(alerts.Notifications.Emails) != 1 {
		t.Fatalf("unexpected notifications view: %+v", alerts.Notifications)
	}

	sc, err := s.SystemCheck()
	if err != nil {
		t.Fatalf("SystemCheck: %v", err)
	}
	if sc.IntervalSeconds != 30 || len(sc.Endpoints) != 1 || sc.Endpoints[0].URL != "http://api/health" {
		t.Fatalf("unexpected system check view: %+v", sc)
	}

	ret, err := s.Retention()
	if err != nil {
		t.Fatalf("Retention: %v", err)
	}
	if ret != (RetentionSettings{}) {
		t.Fatalf("missing section should decode to zero value, got %+v", ret)
	}
}

func TestSettingsViews_WrongType(t *testing.T) {
	s := Settings{Data: map[string]any{SectionUser: map[string]any{"theme": []any{1}}}}
	if _, err := s.User(); err == nil {
		t.Fatal("expected decode error")
	}
}
