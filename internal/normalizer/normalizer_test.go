package normalizer

import (
	"errors"
	"testing"
	"time"

	"observo/internal/apperrors"
	"observo/internal/models"
)

func TestClassifyLevel(t *testing.T) {
	cases := []struct {
		text string
		want models.Level
	}{
		{"ERROR: disk full", models.LevelError},
		{"connection err", models.LevelError},
		{"Warning and error together", models.LevelError},
		{"stderr redirected", models.LevelError},
		{"WARN low memory", models.LevelWarn},
		{"warning: deprecated flag", models.LevelWarn},
		{"debug: cache miss", models.LevelDebug},
		{"INFO started", models.LevelInfo},
		{"listening on :8080", models.LevelInfo},
		{"", models.LevelInfo},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			if got := ClassifyLevel(tc.text); got != tc.want {
				t.Fatalf("ClassifyLevel(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestTagFromTopic(t *testing.T) {
	cases := map[string]string{
		"logs.output":             "output",
		"testing-logs.app.errors": "errors",
		"plain":                   "plain",
		"trailing.":               "",
	}
	for topic, want := range cases {
		if got := TagFromTopic(topic); got != want {
			t.Errorf("TagFromTopic(%q) = %q, want %q", topic, got, want)
		}
	}
}

func TestNormalize_FullPayload(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	msg := models.RawMessage{
		Topic:     "logs.output",
		Partition: 2,
		Offset:    41,
		Payload:   []byte(`{"timestamp":"2024-01-01T00:00:00Z","log":"ERROR: disk full","server_id":"svc-a"}`),
	}

	rec, err := Normalize(msg, now)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.Level != models.LevelError || rec.Tag != "output" || rec.Service != "svc-a" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !rec.Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("timestamp = %v", rec.Timestamp)
	}
	if rec.ID != "" {
		t.Fatalf("normalizer must not assign an id, got %q", rec.ID)
	}
	if rec.Metadata.Host != "svc-a" || rec.Metadata.Partition != 2 || rec.Metadata.Offset != 41 {
		t.Fatalf("metadata = %+v", rec.Metadata)
	}
	if rec.SourceMetadata.Topic != "logs.output" || !rec.SourceMetadata.ReceivedAt.Equal(now) {
		t.Fatalf("source metadata = %+v", rec.SourceMetadata)
	}
	if rec.Raw["log"] != "ERROR: disk full" {
		t.Fatalf("raw payload not retained: %+v", rec.Raw)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rec, err := Normalize(models.RawMessage{Topic: "logs.app", Payload: []byte(`{"log":"hello"}`)}, now)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.Service != models.UnknownService || rec.Metadata.Host != models.UnknownService {
		t.Fatalf("service defaults: %+v", rec)
	}
	if !rec.Timestamp.Equal(now) {
		t.Fatalf("timestamp should fall back to ingestion time, got %v", rec.Timestamp)
	}
	if rec.Level != models.LevelInfo {
		t.Fatalf("level = %q", rec.Level)
	}
}

func TestNormalize_TimestampVariants(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		payload string
		want    time.Time
	}{
		{"epoch_millis", `{"log":"x","timestamp":1704067200000}`, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"garbage", `{"log":"x","timestamp":"yesterday"}`, now},
		{"null", `{"log":"x","timestamp":null}`, now},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Normalize(models.RawMessage{Topic: "a.b", Payload: []byte(tc.payload)}, now)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if !rec.Timestamp.Equal(tc.want) {
				t.Fatalf("timestamp = %v, want %v", rec.Timestamp, tc.want)
			}
		})
	}
}

func TestNormalize_Malformed(t *testing.T) {
	for _, payload := range []string{`not json`, `["array"]`, `"string"`} {
		_, err := Normalize(models.RawMessage{Topic: "logs.output", Offset: 7, Payload: []byte(payload)}, time.Now())
		var me *apperrors.MalformedMessageError
		if !errors.As(err, &me) {
			t.Fatalf("payload %q: expected MalformedMessageError, got %v", payload, err)
		}
		if me.Offset != 7 {
			t.Fatalf("offset not carried: %+v", me)
		}
	}
}
