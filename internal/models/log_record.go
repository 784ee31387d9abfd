package models

import "time"

// Level is the classified severity of a log line.
type Level string

const (
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
)

// Valid reports whether l is one of the four known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelError, LevelWarn, LevelDebug, LevelInfo:
		return true
	}
	return false
}

// UnknownService is stored when the producer did not send a server id.
const UnknownService = "unknown"

// RawMessage is a broker message as delivered to the consumer.
type RawMessage struct {
	Topic     string
	Partition int
	Offset    int64
	Payload   []byte
}

// LogRecord is the canonical persisted unit.
type LogRecord struct {
	ID             string         `json:"_id,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	Level          Level          `json:"level"`
	Message        string         `json:"message"`
	Service        string         `json:"service"`
	Tag            string         `json:"tag"`
	Metadata       RecordMetadata `json:"metadata"`
	SourceMetadata SourceMetadata `json:"kafkaMetadata"`
	Raw            map[string]any `json:"raw,omitempty"`
}

// RecordMetadata is the open metadata map of a record.
type RecordMetadata struct {
	Host      string `json:"host"`
	Topic     string `json:"topic"`
	Partition int    `json:"partition"`
	Offset    int64  `json:"offset"`
}

// SourceMetadata holds the broker coordinates of a record.
type SourceMetadata struct {
	Topic      string    `json:"topic"`
	Partition  int       `json:"partition"`
	Offset     int64     `json:"offset"`
	ReceivedAt time.Time `json:"receivedAt"`
}
