// Package dedup remembers which broker coordinates were already processed
// so redelivered messages are not persisted, broadcast or alerted twice.
package dedup

import (
	"context"
	"fmt"

	"observo/internal/models"
)

type Store interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
	Close() error
}

// Key identifies a message by topic, partition and offset.
func Key(msg models.RawMessage) string {
	return fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
}
