package repository

import (
	"context"
	"fmt"

	"github.com/stemsi/quizguard-backend/internal/database"
	"github.com/stemsi/quizguard-backend/internal/model"
)

// ResolvedRequest identifies a resume request after a teacher resolved it.
type ResolvedRequest struct {
	ID        int64
	QuizID    int64
	StudentID int64
	AttemptID int64
}

// ResumeRequestRepository handles resume request data access.
type ResumeRequestRepository struct {
	db database.DB
}

// NewResumeRequestRepository creates a new ResumeRequestRepository.
func NewResumeRequestRepository(db database.DB) *ResumeRequestRepository {
	return &ResumeRequestRepository{db: db}
}

// HasPending reports whether the attempt already has a pending request.
func (r *ResumeRequestRepository) HasPending(ctx context.Context, attemptID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM resume_requests WHERE attempt_id = $1 AND status = 'pending'
		 )`, attemptID,
	).Scan(&exists)
	return exists, err
}

// Create inserts a pending resume request.
// The partial unique index on pending requests turns a lost race into ErrPendingRequestExists.
func (r *ResumeRequestRepository) Create(ctx context.Context, req *model.ResumeRequest) error {
	req.Status = model.ResumeRequestPending
	err := r.db.QueryRow(ctx,
		`INSERT INTO resume_requests (quiz_id, student_id, attempt_id, reason, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		req.QuizID, req.StudentID, req.AttemptID, req.Reason, req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrPendingRequestExists
	}
	return err
}

// ListDetailed retrieves all requests with student and quiz details, newest first.
func (r *ResumeRequestRepository) ListDetailed(ctx context.Context) ([]model.ResumeRequestDetail, error) {
	rows, err := r.db.Query(ctx,
		`SELECT rr.id, rr.quiz_id, rr.student_id, rr.attempt_id, rr.reason, rr.status,
		        rr.rejection_reason, rr.created_at, rr.updated_at,
		        s.name, s.email, q.title
		 FROM resume_requests rr
		 JOIN students s ON rr.student_id = s.id
		 JOIN quizzes q ON rr.quiz_id = q.id
		 ORDER BY rr.created_at DESC, rr.id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []model.ResumeRequestDetail
	for rows.Next() {
		var d model.ResumeRequestDetail
		if err := rows.Scan(
			&d.ID, &d.QuizID, &d.StudentID, &d.AttemptID, &d.Reason, &d.Status,
			&d.RejectionReason, &d.CreatedAt, &d.UpdatedAt,
			&d.StudentName, &d.StudentEmail, &d.QuizTitle,
		); err != nil {
			return nil, err
		}
		requests = append(requests, d)
	}
	return requests, rows.Err()
}

// CountByStatus returns the number of requests per status. Statuses without
// rows are absent from the map.
func (r *ResumeRequestRepository) CountByStatus(ctx context.Context) (map[model.ResumeRequestStatus]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT status, COUNT(*) FROM resume_requests GROUP BY status`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.ResumeRequestStatus]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[model.ResumeRequestStatus(status)] = count
	}
	return counts, rows.Err()
}

// Approve marks a pending request approved and resumes its attempt in one
// transaction. Neither write survives without the other.
//
// Returns pgx.ErrNoRows if the request does not exist, ErrRequestNotPending if
// it was already resolved, ErrAttemptNotSubmitted if the attempt cannot be resumed.
func (r *ResumeRequestRepository) Approve(ctx context.Context, id int64) (res *ResolvedRequest, err error) {
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
			res, err = nil, fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	res = &ResolvedRequest{ID: id}
	var status string
	if err = tx.QueryRow(ctx,
		`SELECT quiz_id, student_id, attempt_id, status
		 FROM resume_requests WHERE id = $1
		 FOR UPDATE`, id,
	).Scan(&res.QuizID, &res.StudentID, &res.AttemptID, &status); err != nil {
		return nil, err
	}
	if model.ResumeRequestStatus(status) != model.ResumeRequestPending {
		return nil, ErrRequestNotPending
	}

	if _, err = tx.Exec(ctx,
		`UPDATE resume_requests
		 SET status = 'approved', updated_at = NOW()
		 WHERE id = $1`, id,
	); err != nil {
		return nil, fmt.Errorf("approve request: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE quiz_attempts
		 SET status = 'resumed', updated_at = NOW()
		 WHERE id = $1 AND status = 'submitted'`, res.AttemptID,
	)
	if err != nil {
		return nil, fmt.Errorf("resume attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAttemptNotSubmitted
	}

	return res, nil
}

// Reject marks a pending request rejected, storing the optional teacher reason.
// The attempt is left untouched.
//
// Returns pgx.ErrNoRows if the request does not exist, ErrRequestNotPending if
// it was already resolved.
func (r *ResumeRequestRepository) Reject(ctx context.Context, id int64, reason *string) (res *ResolvedRequest, err error) {
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
			res, err = nil, fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	res = &ResolvedRequest{ID: id}
	var status string
	if err = tx.QueryRow(ctx,
		`SELECT quiz_id, student_id, attempt_id, status
		 FROM resume_requests WHERE id = $1
		 FOR UPDATE`, id,
	).Scan(&res.QuizID, &res.StudentID, &res.AttemptID, &status); err != nil {
		return nil, err
	}
	if model.ResumeRequestStatus(status) != model.ResumeRequestPending {
		return nil, ErrRequestNotPending
	}

	if _, err = tx.Exec(ctx,
		`UPDATE resume_requests
		 SET status = 'rejected', rejection_reason = $2, updated_at = NOW()
		 WHERE id = $1`, id, reason,
	); err != nil {
		return nil, fmt.Errorf("reject request: %w", err)
	}

	return res, nil
}
