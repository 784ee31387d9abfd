package models

import "time"

// Real-time event types sent to dashboard subscribers.
const (
	EventNewLog    = "newLog"
	EventConnected = "connected"
)

// Event is the envelope written to every subscriber.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notification channels.
const (
	ChannelEmail   = "email"
	ChannelSlack   = "slack"
	ChannelWebhook = "webhook"
)

// AlertDispatch describes one notification attempt. It is never persisted.
type AlertDispatch struct {
	Channel     string `json:"channel"`
	Destination string `json:"destination"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// DispatchResult is the outcome of one AlertDispatch.
type DispatchResult struct {
	AlertDispatch
	Err error `json:"-"`
}
