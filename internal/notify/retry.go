package notify

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"strings"
	"time"
)

type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		BackoffFactor:  2.0,
	}
}

// IsRetryable reports whether err looks transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == 429 || se.StatusCode >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"invalid", "not verified", "malformed", "no email provider"} {
		if strings.Contains(msg, s) {
			return false
		}
	}
	for _, s := range []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
		"rate limit",
		"throttl",
		"too many requests",
		"try again",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// WithRetry runs fn, retrying transient failures with exponential backoff
// until the retries or ctx run out.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= cfg.MaxRetries || !IsRetryable(err) {
			return err
		}

		timer := time.NewTimer(backoff(cfg, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

func backoff(cfg RetryConfig, attempt int) time.Duration {
	b := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt))
	if b > float64(cfg.MaxBackoff) {
		b = float64(cfg.MaxBackoff)
	}
	// ±25% jitter
	b += b * 0.25 * (rand.Float64()*2 - 1)
	return time.Duration(b)
}
