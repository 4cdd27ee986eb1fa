package repository

import (
	"context"
	"fmt"

	"github.com/stemsi/quizguard-backend/internal/database"
	"github.com/stemsi/quizguard-backend/internal/model"
)

// TabSwitchOutcome is the state of an attempt right after a tab switch was logged.
type TabSwitchOutcome struct {
	AttemptID int64
	Count     int
	Submitted bool
}

// AttemptRepository handles quiz attempts and the tab-switch log.
type AttemptRepository struct {
	db database.DB
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(db database.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// GetLatest retrieves the most recently created attempt for a quiz-student pair.
func (r *AttemptRepository) GetLatest(ctx context.Context, quizID, studentID int64) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.db.QueryRow(ctx,
		`SELECT id, quiz_id, student_id, status, tab_switch_count, submitted_at, created_at, updated_at
		 FROM quiz_attempts
		 WHERE quiz_id = $1 AND student_id = $2
		 ORDER BY created_at DESC
		 LIMIT 1`, quizID, studentID,
	).Scan(&a.ID, &a.QuizID, &a.StudentID, &a.Status, &a.TabSwitchCount, &a.SubmittedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByStatus retrieves the pair's attempt if it is in the given status.
func (r *AttemptRepository) GetByStatus(ctx context.Context, quizID, studentID int64, status model.AttemptStatus) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.db.QueryRow(ctx,
		`SELECT id, quiz_id, student_id, status, tab_switch_count, submitted_at, created_at, updated_at
		 FROM quiz_attempts
		 WHERE quiz_id = $1 AND student_id = $2 AND status = $3
		 ORDER BY created_at DESC
		 LIMIT 1`, quizID, studentID, status,
	).Scan(&a.ID, &a.QuizID, &a.StudentID, &a.Status, &a.TabSwitchCount, &a.SubmittedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new in-progress attempt. Returns pgx.ErrNoRows when the pair
// already has an attempt (concurrent creation lost the race).
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	a.Status = model.AttemptStatusInProgress
	err := r.db.QueryRow(ctx,
		`INSERT INTO quiz_attempts (quiz_id, student_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (quiz_id, student_id) DO NOTHING
		 RETURNING id, tab_switch_count, created_at, updated_at`,
		a.QuizID, a.StudentID, a.Status,
	).Scan(&a.ID, &a.TabSwitchCount, &a.CreatedAt, &a.UpdatedAt)
	if database.IsForeignKeyViolation(err) {
		return ErrReferenceMissing
	}
	return err
}

// CountTabSwitches returns the authoritative tab-switch count for a pair.
func (r *AttemptRepository) CountTabSwitches(ctx context.Context, quizID, studentID int64) (int, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_tab_switches WHERE quiz_id = $1 AND student_id = $2`,
		quizID, studentID,
	).Scan(&count)
	return int(count), err
}

// RecordTabSwitch appends a tab switch for the pair's in-progress attempt and
// refreshes the attempt's cached count, all in one transaction. The attempt
// row stays locked for the duration, so concurrent reports for the same pair
// are counted one after another. submitAt decides, from the fresh count,
// whether the attempt is submitted in the same transaction.
//
// Returns pgx.ErrNoRows when the pair has no in-progress attempt.
func (r *AttemptRepository) RecordTabSwitch(ctx context.Context, quizID, studentID int64, submitAt func(count int) bool) (out *TabSwitchOutcome, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			out, err = nil, fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	out = &TabSwitchOutcome{}
	if err = tx.QueryRow(ctx,
		`SELECT id FROM quiz_attempts
		 WHERE quiz_id = $1 AND student_id = $2 AND status = 'in_progress'
		 FOR UPDATE`, quizID, studentID,
	).Scan(&out.AttemptID); err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx,
		`INSERT INTO quiz_tab_switches (quiz_id, student_id) VALUES ($1, $2)`,
		quizID, studentID,
	); err != nil {
		return nil, fmt.Errorf("insert tab switch: %w", err)
	}

	var count int64
	if err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_tab_switches WHERE quiz_id = $1 AND student_id = $2`,
		quizID, studentID,
	).Scan(&count); err != nil {
		return nil, fmt.Errorf("count tab switches: %w", err)
	}
	out.Count = int(count)
	out.Submitted = submitAt(out.Count)

	if out.Submitted {
		_, err = tx.Exec(ctx,
			`UPDATE quiz_attempts
			 SET tab_switch_count = $1, status = 'submitted', submitted_at = NOW(), updated_at = NOW()
			 WHERE id = $2`, out.Count, out.AttemptID)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE quiz_attempts
			 SET tab_switch_count = $1, updated_at = NOW()
			 WHERE id = $2`, out.Count, out.AttemptID)
	}
	if err != nil {
		return nil, fmt.Errorf("update attempt: %w", err)
	}

	return out, nil
}

// Submit moves the pair's in-progress attempt to submitted.
// Returns pgx.ErrNoRows when there is no in-progress attempt.
func (r *AttemptRepository) Submit(ctx context.Context, quizID, studentID int64) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.db.QueryRow(ctx,
		`UPDATE quiz_attempts
		 SET status = 'submitted', submitted_at = NOW(), updated_at = NOW()
		 WHERE quiz_id = $1 AND student_id = $2 AND status = 'in_progress'
		 RETURNING id, quiz_id, student_id, status, tab_switch_count, submitted_at, created_at, updated_at`,
		quizID, studentID,
	).Scan(&a.ID, &a.QuizID, &a.StudentID, &a.Status, &a.TabSwitchCount, &a.SubmittedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}
