package models

import "time"

// Section names of the settings document.
const (
	SectionDashboard     = "dashboard"
	SectionAlerts        = "alerts"
	SectionDataRetention = "dataRetention"
	SectionAPI           = "api"
	SectionUser          = "user"
	SectionSystemCheck   = "systemCheck"
)

// Settings is the single global configuration document.
// Data must be treated as read-only; updates produce a new document.
type Settings struct {
	Version   int            `json:"version"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type DashboardSettings struct {
	RefreshInterval  int      `json:"refreshInterval"`
	DefaultTimeRange string   `json:"defaultTimeRange"`
	Widgets          []Widget `json:"widgets"`
}

type Widget struct {
	ID       string `json:"id"`
	Enabled  bool   `json:"enabled"`
	Position int    `json:"position"`
}

type AlertSettings struct {
	Enabled            bool                 `json:"enabled"`
	ErrorRateThreshold float64              `json:"errorRateThreshold"`
	LogVolumeThreshold int                  `json:"logVolumeThreshold"`
	Notifications      NotificationSettings `json:"notifications"`
}

type NotificationSettings struct {
	Email           bool     `json:"email"`
	Emails          []string `json:"emails"`
	Slack           bool     `json:"slack"`
	SlackWebhookURL string   `json:"slackWebhookUrl"`
	Webhook         bool     `json:"webhook"`
	WebhookURL      string   `json:"webhookUrl"`
}

type RetentionSettings struct {
	Enabled    bool `json:"enabled"`
	Days       int  `json:"days"`
	AutoDelete bool `json:"autoDelete"`
}

type APISettings struct {
	RateLimit  int `json:"rateLimit"`
	MaxResults int `json:"maxResults"`
}

type UserSettings struct {
	Theme    string `json:"theme"`
	Timezone string `json:"timezone"`
	Language string `json:"language"`
}

type SystemCheckSettings struct {
	Enabled         bool       `json:"enabled"`
	IntervalSeconds int        `json:"intervalSeconds"`
	Endpoints       []Endpoint `json:"endpoints"`
}

// Endpoint is one externally monitored URL.
type Endpoint struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
