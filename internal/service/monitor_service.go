package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/model"
)

// SnapshotActivityLimit is how many recent events a fresh monitor sees.
const SnapshotActivityLimit = 20

// RequestSummarizer is implemented by ResumeService.
type RequestSummarizer interface {
	SummarizeRequests(ctx context.Context) (*model.RequestSummary, error)
}

// ActivityLister is implemented by ActivityService.
type ActivityLister interface {
	ListRecent(ctx context.Context, quizID *int64, limit int) ([]model.ActivityEntry, error)
}

// MonitorService assembles what the teacher's live monitor shows on connect.
type MonitorService struct {
	requests RequestSummarizer
	activity ActivityLister
	log      zerolog.Logger
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(requests RequestSummarizer, activity ActivityLister, log zerolog.Logger) *MonitorService {
	return &MonitorService{
		requests: requests,
		activity: activity,
		log:      log.With().Str("component", "monitor_service").Logger(),
	}
}

// Snapshot loads the request summary and the recent activity concurrently.
// The summary is required; the activity list is best-effort and comes back
// empty when it cannot be loaded.
func (s *MonitorService) Snapshot(ctx context.Context) (*model.MonitorSnapshot, error) {
	var (
		summary     *model.RequestSummary
		entries     []model.ActivityEntry
		summaryErr  error
		activityErr error
		wg          sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		summary, summaryErr = s.requests.SummarizeRequests(ctx)
	}()
	go func() {
		defer wg.Done()
		entries, activityErr = s.activity.ListRecent(ctx, nil, SnapshotActivityLimit)
	}()
	wg.Wait()

	if summaryErr != nil {
		return nil, summaryErr
	}

	snapshot := &model.MonitorSnapshot{Summary: summary, Activity: []model.ActivityEntry{}}
	if activityErr != nil {
		s.log.Warn().Err(activityErr).Msg("Failed to load recent activity for snapshot")
	} else if entries != nil {
		snapshot.Activity = entries
	}
	return snapshot, nil
}

// Summary returns the current request counts.
func (s *MonitorService) Summary(ctx context.Context) (*model.RequestSummary, error) {
	return s.requests.SummarizeRequests(ctx)
}
