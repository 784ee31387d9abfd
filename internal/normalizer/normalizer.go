// Package normalizer turns raw broker payloads into canonical log records.
package normalizer

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"observo/internal/apperrors"
	"observo/internal/models"
)

var errNotObject = errors.New("payload is not a JSON object")

// Normalize decodes msg.Payload ({timestamp?, log, server_id?}) and builds a
// LogRecord. now is used as ingestion time. The returned record has no ID.
func Normalize(msg models.RawMessage, now time.Time) (models.LogRecord, error) {
	raw, err := decodePayload(msg.Payload)
	if err != nil {
		return models.LogRecord{}, &apperrors.MalformedMessageError{
			Topic:     msg.Topic,
			Partition: msg.Partition,
			Offset:    msg.Offset,
			Cause:     err,
		}
	}

	now = now.UTC()
	text := stringField(raw, "log")
	service := stringField(raw, "server_id")
	if service == "" {
		service = models.UnknownService
	}

	return models.LogRecord{
		Timestamp: parseTimestamp(raw["timestamp"], now),
		Level:     ClassifyLevel(text),
		Message:   text,
		Service:   service,
		Tag:       TagFromTopic(msg.Topic),
		Metadata: models.RecordMetadata{
			Host:      service,
			Topic:     msg.Topic,
			Partition: msg.Partition,
			Offset:    msg.Offset,
		},
		SourceMetadata: models.SourceMetadata{
			Topic:      msg.Topic,
			Partition:  msg.Partition,
			Offset:     msg.Offset,
			ReceivedAt: now,
		},
		Raw: raw,
	}, nil
}

// ClassifyLevel applies the substring heuristic in priority order.
// An explicit "info" and anything unmatched both yield info.
func ClassifyLevel(text string) models.Level {
	s := strings.ToLower(text)
	switch {
	case strings.Contains(s, "error") || strings.Contains(s, "err"):
		return models.LevelError
	case strings.Contains(s, "warn") || strings.Contains(s, "warning"):
		return models.LevelWarn
	case strings.Contains(s, "debug"):
		return models.LevelDebug
	default:
		return models.LevelInfo
	}
}

// TagFromTopic returns the final dot-separated segment of topic.
func TagFromTopic(topic string) string {
	if i := strings.LastIndexByte(topic, '.'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}

func decodePayload(b []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return m, nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
}

// parseTimestamp accepts ISO-8601 strings and epoch milliseconds; anything
// else falls back to now.
func parseTimestamp(v any, now time.Time) time.Time {
	switch ts := v.(type) {
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, ts); err == nil {
				return t.UTC()
			}
		}
	case float64:
		if ts > 0 {
			return time.UnixMilli(int64(ts)).UTC()
		}
	}
	return now
}
