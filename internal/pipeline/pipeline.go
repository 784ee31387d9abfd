// Package pipeline runs one broker message through
// normalize → persist → broadcast → evaluate alerts.
package pipeline

import (
	"context"
	"errors"
	"time"

	"observo/internal/apperrors"
	"observo/internal/dedup"
	"observo/internal/logger"
	"observo/internal/metrics"
	"observo/internal/models"
	"observo/internal/normalizer"
)

// ErrDuplicate is returned for a message whose coordinates were already
// processed.
var ErrDuplicate = errors.New("duplicate message")

type LogStore interface {
	Store(ctx context.Context, rec models.LogRecord) (string, error)
}

type Broadcaster interface {
	Broadcast(ev models.Event) int
}

type AlertEvaluator interface {
	Evaluate(ctx context.Context, rec models.LogRecord) []models.DispatchResult
}

type Deps struct {
	Store   LogStore
	Hub     Broadcaster
	Alerts  AlertEvaluator
	Dedup   dedup.Store // optional
	Log     *logger.Logger
	Metrics *metrics.Metrics
}

type Pipeline struct {
	store   LogStore
	hub     Broadcaster
	alerts  AlertEvaluator
	dedup   dedup.Store
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(d Deps) *Pipeline {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		store:   d.Store,
		hub:     d.Hub,
		alerts:  d.Alerts,
		dedup:   d.Dedup,
		log:     log,
		metrics: d.Metrics,
		now:     time.Now,
	}
}

// Process handles one message. Every stage failure is logged here; the
// returned error only tells the caller the message was skipped. Broadcast
// and alert failures never fail the message.
func (p *Pipeline) Process(ctx context.Context, msg models.RawMessage) error {
	key := dedup.Key(msg)
	if p.dedup != nil {
		seen, err := p.dedup.Seen(ctx, key)
		if err != nil {
			p.log.Warnw("dedup_check_failed", "key", key, "error", err)
		} else if seen {
			p.metrics.DuplicateSkipped()
			p.log.Debugw("duplicate_skipped", "key", key)
			return ErrDuplicate
		}
	}

	rec, err := normalizer.Normalize(msg, p.now())
	if err != nil {
		p.metrics.MessageMalformed()
		p.log.Warnw("message_malformed", "topic", msg.Topic, "partition", msg.Partition,
			"offset", msg.Offset, "error", err)
		return err
	}

	id, err := p.store.Store(ctx, rec)
	if err != nil {
		p.metrics.PersistFailed()
		var pe *apperrors.PersistenceError
		if !errors.As(err, &pe) {
			err = &apperrors.PersistenceError{Op: "store log", Cause: err}
		}
		p.log.Errorw("log_persist_failed", "topic", msg.Topic, "partition", msg.Partition,
			"offset", msg.Offset, "error", err)
		return err
	}
	rec.ID = id
	p.metrics.RecordPersisted()

	if p.dedup != nil {
		if err := p.dedup.Mark(ctx, key); err != nil {
			p.log.Warnw("dedup_mark_failed", "key", key, "error", err)
		}
	}

	delivered := p.hub.Broadcast(models.Event{
		Type:      models.EventNewLog,
		Data:      rec,
		Timestamp: p.now().UTC(),
	})

	results := p.alerts.Evaluate(ctx, rec)

	p.log.Debugw("log_processed", "id", id, "level", rec.Level, "service", rec.Service,
		"tag", rec.Tag, "delivered", delivered, "alerts", len(results))
	return nil
}
