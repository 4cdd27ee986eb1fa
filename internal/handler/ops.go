package handler

import (
	"context"

	"github.com/stemsi/quizguard-backend/internal/model"
)

// AttemptOperator is the attempt lifecycle as seen by handlers. Implemented by service.AttemptService.
type AttemptOperator interface {
	RecordTabSwitch(ctx context.Context, quizID, studentID int64) (*model.TabSwitchResult, error)
	GetOrCreateAttempt(ctx context.Context, quizID, studentID int64) (*model.AttemptState, error)
	SubmitAttempt(ctx context.Context, quizID, studentID int64) (*model.Attempt, error)
	GetQuiz(ctx context.Context, quizID int64) (*model.Quiz, error)
}

// ResumeOperator is implemented by service.ResumeService.
type ResumeOperator interface {
	CreateResumeRequest(ctx context.Context, quizID, studentID int64, reason string) (int64, error)
	ListResumeRequests(ctx context.Context) ([]model.ResumeRequestDetail, error)
	SummarizeRequests(ctx context.Context) (*model.RequestSummary, error)
	Approve(ctx context.Context, requestID int64) error
	Reject(ctx context.Context, requestID int64, reason string) error
}

// ActivityReader is implemented by service.ActivityService.
type ActivityReader interface {
	ListRecent(ctx context.Context, quizID *int64, limit int) ([]model.ActivityEntry, error)
}

// MonitorReader is implemented by service.MonitorService.
type MonitorReader interface {
	Snapshot(ctx context.Context) (*model.MonitorSnapshot, error)
	Summary(ctx context.Context) (*model.RequestSummary, error)
}
