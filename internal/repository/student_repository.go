package repository

import (
	"context"

	"github.com/stemsi/quizguard-backend/internal/database"
	"github.com/stemsi/quizguard-backend/internal/model"
)

// StudentRepository handles student data access.
type StudentRepository struct {
	db database.DB
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(db database.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Upsert inserts a student or refreshes the name of an existing email.
func (r *StudentRepository) Upsert(ctx context.Context, s *model.Student) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO students (name, email)
		 VALUES ($1, $2)
		 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, created_at`,
		s.Name, s.Email,
	).Scan(&s.ID, &s.CreatedAt)
}
