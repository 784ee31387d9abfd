// Package apperrors defines the error classes of the ingestion pipeline.
// Every wrapper implements Unwrap so callers can use errors.Is / errors.As.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSectionNotFound is returned when a settings section does not exist.
var ErrSectionNotFound = errors.New("settings section not found")

// TransientBrokerError wraps broker connection/timeout failures. The consumer
// loop keeps running when it sees one.
type TransientBrokerError struct {
	Op    string
	Cause error
}

func (e *TransientBrokerError) Error() string {
	return fmt.Sprintf("broker %s: %v", e.Op, e.Cause)
}

func (e *TransientBrokerError) Unwrap() error { return e.Cause }

// MalformedMessageError marks a payload that could not be decoded.
type MalformedMessageError struct {
	Topic     string
	Partition int
	Offset    int64
	Cause     error
}

func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("malformed message %s/%d@%d: %v", e.Topic, e.Partition, e.Offset, e.Cause)
}

func (e *MalformedMessageError) Unwrap() error { return e.Cause }

// PersistenceError wraps storage-layer failures.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// FieldError describes one rejected settings field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every failing field of a rejected settings update.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "settings validation failed: " + strings.Join(parts, ", ")
}

// NotificationDispatchError wraps a failure of one notification channel.
type NotificationDispatchError struct {
	Channel     string
	Destination string
	Cause       error
}

func (e *NotificationDispatchError) Error() string {
	return fmt.Sprintf("dispatch %s to %s: %v", e.Channel, e.Destination, e.Cause)
}

func (e *NotificationDispatchError) Unwrap() error { return e.Cause }

// ProbeError wraps a failed health probe (transport error or non-2xx status).
type ProbeError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *ProbeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("probe %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("probe %s: status %d", e.URL, e.StatusCode)
}

func (e *ProbeError) Unwrap() error { return e.Cause }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
