package service

import (
	"context"
	"fmt"

	"github.com/stemsi/quizguard-backend/internal/model"
)

const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 200
)

// ActivityStore is implemented by repository.ActivityRepository.
type ActivityStore interface {
	ListRecent(ctx context.Context, quizID *int64, limit int) ([]model.ActivityEntry, error)
}

// ActivityService serves the persisted integrity trail to teachers.
type ActivityService struct {
	activityRepo ActivityStore
}

// NewActivityService creates a new ActivityService.
func NewActivityService(activityRepo ActivityStore) *ActivityService {
	return &ActivityService{activityRepo: activityRepo}
}

// ListRecent returns up to limit entries, newest first. Out-of-range limits
// fall back to the default or are capped.
func (s *ActivityService) ListRecent(ctx context.Context, quizID *int64, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}

	entries, err := s.activityRepo.ListRecent(ctx, quizID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	if entries == nil {
		entries = []model.ActivityEntry{}
	}
	return entries, nil
}
