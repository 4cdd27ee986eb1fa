package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/activity"
	"github.com/stemsi/quizguard-backend/internal/model"
	"github.com/stemsi/quizguard-backend/internal/repository"
)

// Tab-switch policy thresholds.
const (
	WarningThreshold    = 2
	AutoSubmitThreshold = 4
)

const (
	msgTabSwitchLogged  = "Tab switch logged"
	msgTabSwitchWarning = "Warning: Switching tabs is not allowed. Next switch will auto-submit your quiz."
	msgAutoSubmitted    = "Quiz auto-submitted due to multiple tab switches"
)

// AttemptStore is the persistence AttemptService needs. Implemented by repository.AttemptRepository.
type AttemptStore interface {
	GetLatest(ctx context.Context, quizID, studentID int64) (*model.Attempt, error)
	Create(ctx context.Context, a *model.Attempt) error
	CountTabSwitches(ctx context.Context, quizID, studentID int64) (int, error)
	RecordTabSwitch(ctx context.Context, quizID, studentID int64, submitAt func(count int) bool) (*repository.TabSwitchOutcome, error)
	Submit(ctx context.Context, quizID, studentID int64) (*model.Attempt, error)
}

// QuizStore is implemented by repository.QuizRepository.
type QuizStore interface {
	GetByID(ctx context.Context, id int64) (*model.Quiz, error)
}

// AttemptService owns the attempt lifecycle and the tab-switch policy.
type AttemptService struct {
	attemptRepo AttemptStore
	quizRepo    QuizStore
	publisher   ActivityPublisher
	log         zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	attemptRepo AttemptStore,
	quizRepo QuizStore,
	publisher ActivityPublisher,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attemptRepo: attemptRepo,
		quizRepo:    quizRepo,
		publisher:   publisher,
		log:         log.With().Str("component", "attempt_service").Logger(),
	}
}

// ShouldAutoSubmit reports whether the given tab-switch count ends the attempt.
func ShouldAutoSubmit(count int) bool {
	return count >= AutoSubmitThreshold
}

// RecordTabSwitch logs one tab switch for the pair's in-progress attempt and
// applies the policy to the fresh count. The count, the append and the
// possible auto-submit are committed together.
func (s *AttemptService) RecordTabSwitch(ctx context.Context, quizID, studentID int64) (*model.TabSwitchResult, error) {
	out, err := s.attemptRepo.RecordTabSwitch(ctx, quizID, studentID, ShouldAutoSubmit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveAttempt
		}
		return nil, fmt.Errorf("record tab switch: %w", err)
	}

	result := &model.TabSwitchResult{TabSwitchCount: out.Count}
	switch {
	case out.Submitted:
		result.Action = model.TabSwitchActionAutoSubmit
		result.Message = msgAutoSubmitted
		result.AttemptID = activity.Int64(out.AttemptID)
	case out.Count == WarningThreshold:
		result.Action = model.TabSwitchActionWarning
		result.Message = msgTabSwitchWarning
	default:
		result.Action = model.TabSwitchActionLogged
		result.Message = msgTabSwitchLogged
	}

	publish(ctx, s.publisher, s.log, activity.Event{
		Type:      model.ActivityTabSwitch,
		QuizID:    quizID,
		StudentID: studentID,
		AttemptID: activity.Int64(out.AttemptID),
		Data: map[string]any{
			"action":         result.Action,
			"tabSwitchCount": out.Count,
		},
	})

	if out.Submitted {
		s.log.Info().
			Int64("quiz_id", quizID).
			Int64("student_id", studentID).
			Int64("attempt_id", out.AttemptID).
			Int("tab_switch_count", out.Count).
			Msg("Attempt auto-submitted")

		publish(ctx, s.publisher, s.log, activity.Event{
			Type:      model.ActivityAutoSubmit,
			QuizID:    quizID,
			StudentID: studentID,
			AttemptID: activity.Int64(out.AttemptID),
			Data:      map[string]any{"tabSwitchCount": out.Count},
		})
	}

	return result, nil
}

// GetOrCreateAttempt returns the pair's attempt, creating an in-progress one on
// first access. The reported count is recomputed from the tab-switch log.
func (s *AttemptService) GetOrCreateAttempt(ctx context.Context, quizID, studentID int64) (*model.AttemptState, error) {
	state, err := s.existingState(ctx, quizID, studentID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	a := &model.Attempt{QuizID: quizID, StudentID: studentID}
	err = s.attemptRepo.Create(ctx, a)
	switch {
	case err == nil:
		s.log.Debug().Int64("quiz_id", quizID).Int64("student_id", studentID).Int64("attempt_id", a.ID).Msg("Attempt created")
		return stateOf(a, 0), nil
	case errors.Is(err, repository.ErrReferenceMissing):
		return nil, ErrQuizOrStudentNotFound
	case errors.Is(err, pgx.ErrNoRows):
		// Another request created it first; read it once more.
		state, err := s.existingState(ctx, quizID, studentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("attempt for quiz %d student %d missing after create conflict", quizID, studentID)
		}
		return state, err
	default:
		return nil, fmt.Errorf("create attempt: %w", err)
	}
}

// existingState returns pgx.ErrNoRows unwrapped when the pair has no attempt.
func (s *AttemptService) existingState(ctx context.Context, quizID, studentID int64) (*model.AttemptState, error) {
	a, err := s.attemptRepo.GetLatest(ctx, quizID, studentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pgx.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	count, err := s.attemptRepo.CountTabSwitches(ctx, quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("count tab switches: %w", err)
	}
	return stateOf(a, count), nil
}

// SubmitAttempt ends the pair's in-progress attempt at the student's request.
func (s *AttemptService) SubmitAttempt(ctx context.Context, quizID, studentID int64) (*model.Attempt, error) {
	a, err := s.attemptRepo.Submit(ctx, quizID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveAttempt
		}
		return nil, fmt.Errorf("submit attempt: %w", err)
	}

	s.log.Info().Int64("quiz_id", quizID).Int64("student_id", studentID).Int64("attempt_id", a.ID).Msg("Attempt submitted")
	publish(ctx, s.publisher, s.log, activity.Event{
		Type:      model.ActivityManualSubmit,
		QuizID:    quizID,
		StudentID: studentID,
		AttemptID: activity.Int64(a.ID),
	})
	return a, nil
}

// GetQuiz returns quiz details.
func (s *AttemptService) GetQuiz(ctx context.Context, quizID int64) (*model.Quiz, error) {
	q, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return q, nil
}

func stateOf(a *model.Attempt, count int) *model.AttemptState {
	return &model.AttemptState{
		AttemptID:      a.ID,
		Status:         a.Status,
		TabSwitchCount: count,
		SubmittedAt:    a.SubmittedAt,
	}
}
