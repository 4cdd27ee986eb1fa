package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/activity"
	"github.com/stemsi/quizguard-backend/internal/model"
	"github.com/stemsi/quizguard-backend/internal/repository"
)

// ResumeStore is implemented by repository.ResumeRequestRepository.
type ResumeStore interface {
	HasPending(ctx context.Context, attemptID int64) (bool, error)
	Create(ctx context.Context, req *model.ResumeRequest) error
	ListDetailed(ctx context.Context) ([]model.ResumeRequestDetail, error)
	CountByStatus(ctx context.Context) (map[model.ResumeRequestStatus]int64, error)
	Approve(ctx context.Context, id int64) (*repository.ResolvedRequest, error)
	Reject(ctx context.Context, id int64, reason *string) (*repository.ResolvedRequest, error)
}

// SubmittedAttemptFinder is implemented by repository.AttemptRepository.
type SubmittedAttemptFinder interface {
	GetByStatus(ctx context.Context, quizID, studentID int64, status model.AttemptStatus) (*model.Attempt, error)
}

// ResumeService handles student resume requests and their moderation.
type ResumeService struct {
	requestRepo ResumeStore
	attemptRepo SubmittedAttemptFinder
	publisher   ActivityPublisher
	log         zerolog.Logger
}

// NewResumeService creates a new ResumeService.
func NewResumeService(
	requestRepo ResumeStore,
	attemptRepo SubmittedAttemptFinder,
	publisher ActivityPublisher,
	log zerolog.Logger,
) *ResumeService {
	return &ResumeService{
		requestRepo: requestRepo,
		attemptRepo: attemptRepo,
		publisher:   publisher,
		log:         log.With().Str("component", "resume_service").Logger(),
	}
}

// CreateResumeRequest files a pending request against the pair's submitted attempt.
func (s *ResumeService) CreateResumeRequest(ctx context.Context, quizID, studentID int64, reason string) (int64, error) {
	attempt, err := s.attemptRepo.GetByStatus(ctx, quizID, studentID, model.AttemptStatusSubmitted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNoSubmittedAttempt
		}
		return 0, fmt.Errorf("get submitted attempt: %w", err)
	}

	pending, err := s.requestRepo.HasPending(ctx, attempt.ID)
	if err != nil {
		return 0, fmt.Errorf("check pending request: %w", err)
	}
	if pending {
		return 0, ErrResumeRequestPending
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = model.DefaultResumeReason
	}

	req := &model.ResumeRequest{
		QuizID:    quizID,
		StudentID: studentID,
		AttemptID: attempt.ID,
		Reason:    reason,
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrPendingRequestExists) {
			return 0, ErrResumeRequestPending
		}
		return 0, fmt.Errorf("create resume request: %w", err)
	}

	publish(ctx, s.publisher, s.log, activity.Event{
		Type:      model.ActivityResumeRequested,
		QuizID:    quizID,
		StudentID: studentID,
		AttemptID: activity.Int64(attempt.ID),
		RequestID: activity.Int64(req.ID),
		Data:      map[string]any{"reason": reason},
	})
	return req.ID, nil
}

// ListResumeRequests returns every request with student and quiz details, newest first.
func (s *ResumeService) ListResumeRequests(ctx context.Context) ([]model.ResumeRequestDetail, error) {
	requests, err := s.requestRepo.ListDetailed(ctx)
	if err != nil {
		return nil, fmt.Errorf("list resume requests: %w", err)
	}
	if requests == nil {
		requests = []model.ResumeRequestDetail{}
	}
	return requests, nil
}

// SummarizeRequests counts requests per status. Statuses with no rows report zero.
func (s *ResumeService) SummarizeRequests(ctx context.Context) (*model.RequestSummary, error) {
	counts, err := s.requestRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count resume requests: %w", err)
	}
	return &model.RequestSummary{
		Pending:  counts[model.ResumeRequestPending],
		Approved: counts[model.ResumeRequestApproved],
		Rejected: counts[model.ResumeRequestRejected],
	}, nil
}

// Approve approves a pending request and resumes its attempt atomically.
func (s *ResumeService) Approve(ctx context.Context, requestID int64) error {
	res, err := s.requestRepo.Approve(ctx, requestID)
	if err != nil {
		return s.mapResolveErr(err, "approve")
	}

	s.log.Info().
		Int64("request_id", requestID).
		Int64("attempt_id", res.AttemptID).
		Msg("Resume request approved")

	publish(ctx, s.publisher, s.log, activity.Event{
		Type:      model.ActivityRequestApproved,
		QuizID:    res.QuizID,
		StudentID: res.StudentID,
		AttemptID: activity.Int64(res.AttemptID),
		RequestID: activity.Int64(res.ID),
	})
	return nil
}

// Reject rejects a pending request. The attempt stays submitted.
// A blank reason is stored as NULL.
func (s *ResumeService) Reject(ctx context.Context, requestID int64, reason string) error {
	var stored *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		stored = &trimmed
	}

	res, err := s.requestRepo.Reject(ctx, requestID, stored)
	if err != nil {
		return s.mapResolveErr(err, "reject")
	}

	s.log.Info().Int64("request_id", requestID).Msg("Resume request rejected")

	data := map[string]any{}
	if stored != nil {
		data["reason"] = *stored
	}
	publish(ctx, s.publisher, s.log, activity.Event{
		Type:      model.ActivityRequestRejected,
		QuizID:    res.QuizID,
		StudentID: res.StudentID,
		AttemptID: activity.Int64(res.AttemptID),
		RequestID: activity.Int64(res.ID),
		Data:      data,
	})
	return nil
}

func (s *ResumeService) mapResolveErr(err error, op string) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrResumeRequestNotFound
	case errors.Is(err, repository.ErrRequestNotPending):
		return ErrResumeRequestResolved
	case errors.Is(err, repository.ErrAttemptNotSubmitted):
		return ErrAttemptNotResumable
	default:
		return fmt.Errorf("%s resume request: %w", op, err)
	}
}
