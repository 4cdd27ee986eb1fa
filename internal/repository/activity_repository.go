package repository

import (
	"context"
	"fmt"

	"github.com/stemsi/quizguard-backend/internal/database"
	"github.com/stemsi/quizguard-backend/internal/model"
)

// ActivityRepository reads the persisted activity trail.
// Writes go through worker.ActivityWorker.
type ActivityRepository struct {
	db database.DB
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ListRecent returns the newest entries, optionally filtered by quiz.
func (r *ActivityRepository) ListRecent(ctx context.Context, quizID *int64, limit int) ([]model.ActivityEntry, error) {
	query := `SELECT id, event_type, quiz_id, student_id, attempt_id, request_id, payload, recorded_at
		 FROM activity_log`
	args := []any{}

	if quizID != nil {
		args = append(args, *quizID)
		query += fmt.Sprintf(" WHERE quiz_id = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY recorded_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		if err := rows.Scan(
			&e.ID, &e.EventType, &e.QuizID, &e.StudentID,
			&e.AttemptID, &e.RequestID, &e.Payload, &e.RecordedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
