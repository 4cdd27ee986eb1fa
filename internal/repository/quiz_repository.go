package repository

import (
	"context"

	"github.com/stemsi/quizguard-backend/internal/database"
	"github.com/stemsi/quizguard-backend/internal/model"
)

// QuizRepository handles read access to quizzes.
type QuizRepository struct {
	db database.DB
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(db database.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// GetByID retrieves a quiz by ID.
func (r *QuizRepository) GetByID(ctx context.Context, id int64) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := r.db.QueryRow(ctx,
		`SELECT id, title, description, duration_minutes, created_at
		 FROM quizzes WHERE id = $1`, id,
	).Scan(&q.ID, &q.Title, &q.Description, &q.DurationMinutes, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Create inserts a quiz. Used by the seed command.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO quizzes (title, description, duration_minutes)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		q.Title, q.Description, q.DurationMinutes,
	).Scan(&q.ID, &q.CreatedAt)
}
