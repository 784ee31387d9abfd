// Package consumer reads log messages from Kafka and drives each one
// through the pipeline with at-least-once delivery. Offsets are committed
// in count and time windows.
package consumer

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"observo/internal/apperrors"
	"observo/internal/config"
	"observo/internal/logger"
	"observo/internal/metrics"
	"observo/internal/models"

	"github.com/segmentio/kafka-go"
)

const (
	maxPollWait       = 500 * time.Millisecond
	fetchRetryBackoff = time.Second
	finalCommitWait   = 10 * time.Second
)

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Processor handles one message. Its error only marks the message as
// skipped; the message is committed either way.
type Processor interface {
	Process(ctx context.Context, msg models.RawMessage) error
}

type Options struct {
	CommitEvery    int
	CommitInterval time.Duration
	MessageTimeout time.Duration
}

type Consumer struct {
	reader  MessageReader
	proc    Processor
	opts    Options
	log     *logger.Logger
	metrics *metrics.Metrics

	retryBackoff time.Duration
	running      atomic.Bool

	pending    []kafka.Message
	lastCommit time.Time
}

// NewReader builds a consumer-group reader over topics. Offsets are
// committed explicitly by the Consumer.
func NewReader(cfg config.KafkaConfig, topics []string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     maxPollWait,
		StartOffset: startOffset(cfg.StartOffset),
	})
}

// startOffset maps kafka.start_offset onto the reader setting. It only
// applies to a group without committed offsets; "latest" skips history.
func startOffset(name string) int64 {
	if name == "earliest" {
		return kafka.FirstOffset
	}
	return kafka.LastOffset
}

func New(reader MessageReader, proc Processor, opts Options, log *logger.Logger, m *metrics.Metrics) *Consumer {
	if opts.CommitEvery <= 0 {
		opts.CommitEvery = 100
	}
	if opts.CommitInterval <= 0 {
		opts.CommitInterval = 5 * time.Second
	}
	if opts.MessageTimeout <= 0 {
		opts.MessageTimeout = 15 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Consumer{
		reader:       reader,
		proc:         proc,
		opts:         opts,
		log:          log,
		metrics:      m,
		retryBackoff: fetchRetryBackoff,
	}
}

// Running reports whether Run is active.
func (c *Consumer) Running() bool { return c.running.Load() }

// Run consumes until ctx is cancelled or the reader is closed. A message
// already handed to the processor is finished even after cancellation,
// and pending offsets are committed before Run returns.
func (c *Consumer) Run(ctx context.Context) error {
	c.running.Store(true)
	defer c.running.Store(false)
	c.lastCommit = time.Now()
	c.log.Infow("consumer_started", "commit_every", c.opts.CommitEvery, "commit_interval", c.opts.CommitInterval)

	for ctx.Err() == nil {
		fetchCtx, cancel := context.WithTimeout(ctx, c.untilCommitDue())
		msg, err := c.reader.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, context.DeadlineExceeded) {
				c.commit(ctx, false)
				continue
			}
			if errors.Is(err, io.EOF) {
				c.log.Infow("consumer_reader_closed")
				break
			}
			terr := &apperrors.TransientBrokerError{Op: "fetch", Cause: err}
			c.log.Warnw("kafka_fetch_failed", "error", terr)
			select {
			case <-ctx.Done():
			case <-time.After(c.retryBackoff):
			}
			continue
		}

		c.metrics.MessageConsumed()
		c.handle(ctx, msg)
		c.pending = append(c.pending, msg)
		c.commit(ctx, false)
	}

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalCommitWait)
	defer cancel()
	c.commit(commitCtx, true)
	c.log.Infow("consumer_stopped")
	return nil
}

// handle runs the pipeline under a deadline that shutdown does not cancel.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	msgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.MessageTimeout)
	defer cancel()

	// errors are logged inside the pipeline
	_ = c.proc.Process(msgCtx, models.RawMessage{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Payload:   msg.Value,
	})
}

func (c *Consumer) untilCommitDue() time.Duration {
	if len(c.pending) == 0 {
		return c.opts.CommitInterval
	}
	d := c.opts.CommitInterval - time.Since(c.lastCommit)
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	return d
}

// commit flushes pending offsets when a window is reached or force is set.
// On failure the offsets stay pending for the next attempt.
func (c *Consumer) commit(ctx context.Context, force bool) {
	if len(c.pending) == 0 {
		c.lastCommit = time.Now()
		return
	}
	due := len(c.pending) >= c.opts.CommitEvery || time.Since(c.lastCommit) >= c.opts.CommitInterval
	if !force && !due {
		return
	}

	latest := latestPerPartition(c.pending)
	if err := c.reader.CommitMessages(ctx, latest...); err != nil {
		c.log.Warnw("kafka_commit_failed", "pending", len(c.pending),
			"error", &apperrors.TransientBrokerError{Op: "commit", Cause: err})
		return
	}
	c.metrics.OffsetsCommitted()
	c.log.Debugw("offsets_committed", "messages", len(c.pending), "partitions", len(latest))
	c.pending = c.pending[:0]
	c.lastCommit = time.Now()
}

type partitionKey struct {
	topic     string
	partition int
}

// latestPerPartition keeps the highest offset per topic partition.
func latestPerPartition(msgs []kafka.Message) []kafka.Message {
	idx := make(map[partitionKey]int, len(msgs))
	out := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		k := partitionKey{m.Topic, m.Partition}
		if i, ok := idx[k]; ok {
			if m.Offset > out[i].Offset {
				out[i] = m
			}
			continue
		}
		idx[k] = len(out)
		out = append(out, m)
	}
	return out
}

// Close releases the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
