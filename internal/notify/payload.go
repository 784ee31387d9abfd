package notify

import (
	"fmt"
	"html"

	"observo/internal/models"
)

type slackPayload struct {
	Text string `json:"text"`
}

type webhookPayload struct {
	Type     string            `json:"type"`
	Record   *models.LogRecord `json:"record,omitempty"`
	Endpoint *models.Endpoint  `json:"endpoint,omitempty"`
	Message  string            `json:"message"`
}

func buildWebhookPayload(a Alert) webhookPayload {
	return webhookPayload{
		Type:     a.Kind,
		Record:   a.Record,
		Endpoint: a.Endpoint,
		Message:  a.Text,
	}
}

// LogErrorAlert renders the alert for an error-level log record.
func LogErrorAlert(rec models.LogRecord) Alert {
	// service comes from the producer and ends up in mail headers
	subject := fmt.Sprintf("Error Alert: %s", headerValue(rec.Service))
	text := fmt.Sprintf("[%s] %s (topic %s, partition %d, offset %d)",
		rec.Service, rec.Message, rec.SourceMetadata.Topic, rec.SourceMetadata.Partition, rec.SourceMetadata.Offset)
	r := rec
	return Alert{
		Kind:    KindLogError,
		Subject: subject,
		Text:    text,
		HTML:    "<b>" + html.EscapeString(text) + "</b>",
		Record:  &r,
	}
}

// SystemCheckAlert renders the alert for an endpoint that failed
// consecutive health probes.
func SystemCheckAlert(ep models.Endpoint, failures int) Alert {
	text := fmt.Sprintf("Endpoint %s (%s) failed %d consecutive health checks.", ep.Name, ep.URL, failures)
	e := ep
	return Alert{
		Kind:     KindSystemCheck,
		Subject:  fmt.Sprintf("System Check Alert: %s is DOWN", ep.Name),
		Text:     text,
		HTML:     "<b>" + html.EscapeString(text) + "</b>",
		Endpoint: &e,
	}
}
