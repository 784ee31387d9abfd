package apperrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidationError_ListsEveryField(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Field: "dataRetention.days", Message: "must be an integer between 1 and 365"},
		{Field: "user.theme", Message: "must be one of light, dark, auto"},
	}}
	msg := err.Error()
	for _, want := range []string{"dataRetention.days", "user.theme"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q does not mention %q", msg, want)
		}
	}
	wrapped := fmt.Errorf("update: %w", err)
	if !IsValidation(wrapped) {
		t.Fatalf("IsValidation should see through wrapping")
	}
	if IsValidation(errors.New("other")) {
		t.Fatalf("IsValidation should be false for plain errors")
	}
}

func TestWrappers_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	cases := []error{
		&TransientBrokerError{Op: "fetch", Cause: cause},
		&MalformedMessageError{Topic: "logs.output", Cause: cause},
		&PersistenceError{Op: "insert", Cause: cause},
		&NotificationDispatchError{Channel: "email", Cause: cause},
		&ProbeError{URL: "http://x", Cause: cause},
	}
	for _, err := range cases {
		if !errors.Is(err, cause) {
			t.Errorf("%T does not unwrap to cause", err)
		}
	}
}

func TestProbeError_StatusMessage(t *testing.T) {
	err := &ProbeError{URL: "http://svc/health", StatusCode: 503}
	if !strings.Contains(err.Error(), "503") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
