package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/activity"
)

// ActivityPublisher broadcasts integrity events. Implemented by activity.RedisPublisher.
type ActivityPublisher interface {
	Publish(ctx context.Context, e activity.Event) error
}

// publish is best-effort: a failed broadcast is logged and never fails the caller.
func publish(ctx context.Context, pub ActivityPublisher, log zerolog.Logger, e activity.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, e); err != nil {
		log.Warn().Err(err).
			Str("event", string(e.Type)).
			Int64("quiz_id", e.QuizID).
			Int64("student_id", e.StudentID).
			Msg("Failed to publish activity event")
	}
}
