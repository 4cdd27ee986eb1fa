package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizguard-backend/internal/config"
	"github.com/stemsi/quizguard-backend/internal/model"
)

// Event is one entry of the quiz integrity trail as it travels through Redis.
// The same JSON document is broadcast to the monitor channel and queued for
// persistence.
type Event struct {
	ID         string             `json:"id"`
	Type       model.ActivityType `json:"type"`
	QuizID     int64              `json:"quizId"`
	StudentID  int64              `json:"studentId"`
	AttemptID  *int64             `json:"attemptId,omitempty"`
	RequestID  *int64             `json:"requestId,omitempty"`
	Data       map[string]any     `json:"data,omitempty"`
	OccurredAt time.Time          `json:"occurredAt"`
}

// RedisPublisher fans activity events out to the live monitor and the
// persistence queue in a single round trip.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a new RedisPublisher.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// Publish stamps the event with an ID and time if missing, then PUBLISHes it
// on the monitor channel and RPUSHes it onto the activity queue.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal activity event: %w", err)
	}

	pipe := p.rdb.Pipeline()
	pipe.Publish(ctx, config.CacheKey.MonitorChannel(), data)
	pipe.RPush(ctx, config.WorkerKey.PersistActivityQueue, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish activity event: %w", err)
	}
	return nil
}

// Int64 returns a pointer to v. Handy for the optional event IDs.
func Int64(v int64) *int64 {
	return &v
}
