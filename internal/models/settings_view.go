package models

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// SettingsExport is the portable form produced by export and accepted by import.
type SettingsExport struct {
	Settings   map[string]any `json:"settings"`
	ExportedAt time.Time      `json:"exportedAt"`
	Version    int            `json:"version"`
}

func (s Settings) Dashboard() (DashboardSettings, error) {
	var out DashboardSettings
	return out, decodeSection(s.Data, SectionDashboard, &out)
}

func (s Settings) Alerts() (AlertSettings, error) {
	var out AlertSettings
	return out, decodeSection(s.Data, SectionAlerts, &out)
}

func (s Settings) Retention() (RetentionSettings, error) {
	var out RetentionSettings
	return out, decodeSection(s.Data, SectionDataRetention, &out)
}

func (s Settings) API() (APISettings, error) {
	var out APISettings
	return out, decodeSection(s.Data, SectionAPI, &out)
}

func (s Settings) User() (UserSettings, error) {
	var out UserSettings
	return out, decodeSection(s.Data, SectionUser, &out)
}

func (s Settings) SystemCheck() (SystemCheckSettings, error) {
	var out SystemCheckSettings
	return out, decodeSection(s.Data, SectionSystemCheck, &out)
}

// decodeSection leaves out untouched when the section is absent.
func decodeSection(data map[string]any, name string, out any) error {
	raw, ok := data[name]
	if !ok || raw == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("build %s decoder: %w", name, err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode %s settings: %w", name, err)
	}
	return nil
}
