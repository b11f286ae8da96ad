package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// StreamKey is the Redis stream holding the audit trail.
const StreamKey = "aidgate:audit"

// RedisStore appends audit events to a Redis stream. Streams give us an
// ordered, consumer-group friendly trail without running a full broker.
type RedisStore struct {
	client redis.Cmdable
	maxLen int64
}

// NewRedisStore builds a Redis-backed sink. maxLen bounds the stream with
// approximate trimming; pass 0 to keep everything.
func NewRedisStore(client redis.Cmdable, maxLen int64) *RedisStore {
	return &RedisStore{client: client, maxLen: maxLen}
}

func (s *RedisStore) Append(ctx context.Context, event Event) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: StreamKey,
		Values: map[string]any{
			"sequence":  strconv.FormatUint(event.Sequence, 10),
			"actor":     event.Actor.String(),
			"action":    event.Action,
			"subject":   event.Subject,
			"timestamp": event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			"details":   string(details),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd audit event: %w", err)
	}
	return nil
}
