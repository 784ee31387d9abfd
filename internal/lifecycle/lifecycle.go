// Package lifecycle runs shutdown steps in a fixed order.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"observo/internal/logger"
)

const defaultStepTimeout = 10 * time.Second

type step struct {
	name string
	fn   func(ctx context.Context) error
}

// Coordinator collects named shutdown steps. Shutdown runs them in the
// order they were added; a failing step does not stop the ones after it.
type Coordinator struct {
	mu          sync.Mutex
	steps       []step
	stepTimeout time.Duration
	log         *logger.Logger
	once        sync.Once
	err         error
}

func NewCoordinator(log *logger.Logger, stepTimeout time.Duration) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	if stepTimeout <= 0 {
		stepTimeout = defaultStepTimeout
	}
	return &Coordinator{log: log, stepTimeout: stepTimeout}
}

// Add appends a step.
func (c *Coordinator) Add(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, step{name: name, fn: fn})
}

// AddCloser appends a step for a plain Close method.
func (c *Coordinator) AddCloser(name string, closeFn func() error) {
	c.Add(name, func(context.Context) error { return closeFn() })
}

// Shutdown runs every step once, each under its own timeout derived from
// ctx. Later calls return the first call's result.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		c.mu.Lock()
		steps := append([]step(nil), c.steps...)
		c.mu.Unlock()

		var errs []error
		for _, s := range steps {
			start := time.Now()
			stepCtx, cancel := context.WithTimeout(ctx, c.stepTimeout)
			err := s.fn(stepCtx)
			cancel()
			if err != nil {
				c.log.Errorw("shutdown_step_failed", "step", s.name, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
				continue
			}
			c.log.Infow("shutdown_step_done", "step", s.name, "took", time.Since(start))
		}
		c.err = errors.Join(errs...)
	})
	return c.err
}

// WaitFunc adapts a done channel into a step that waits for it or the step
// deadline.
func WaitFunc(done <-chan struct{}) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
