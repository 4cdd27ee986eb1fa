package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stemsi/quizguard-backend/internal/activity"
	"github.com/stemsi/quizguard-backend/internal/model"
	"github.com/stemsi/quizguard-backend/internal/repository"
)

// memDB is an in-memory stand-in for the quiz tables. Every method holds the
// mutex for its whole body, which gives the same per-call atomicity the
// repositories get from their transactions.
type memDB struct {
	mu       sync.Mutex
	nextID   int64
	quizzes  map[int64]*model.Quiz
	students map[int64]bool
	attempts []*model.Attempt
	switches map[[2]int64]int
	requests []*model.ResumeRequest

	// approveErr makes Approve fail after the request checks, leaving state untouched.
	approveErr error
}

func newMemDB() *memDB {
	return &memDB{
		quizzes: map[int64]*model.Quiz{
			1: {ID: 1, Title: "Algebra", Description: "Linear equations", DurationMinutes: 30},
		},
		students: map[int64]bool{10: true, 11: true, 12: true},
		switches: map[[2]int64]int{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) attempt(quizID, studentID int64) *model.Attempt {
	for _, a := range db.attempts {
		if a.QuizID == quizID && a.StudentID == studentID {
			return a
		}
	}
	return nil
}

type memAttempts struct{ db *memDB }

func (m memAttempts) GetLatest(_ context.Context, quizID, studentID int64) (*model.Attempt, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	a := m.db.attempt(quizID, studentID)
	if a == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m memAttempts) GetByStatus(_ context.Context, quizID, studentID int64, status model.AttemptStatus) (*model.Attempt, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	a := m.db.attempt(quizID, studentID)
	if a == nil || a.Status != status {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m memAttempts) Create(_ context.Context, a *model.Attempt) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.quizzes[a.QuizID] == nil || !m.db.students[a.StudentID] {
		return repository.ErrReferenceMissing
	}
	if m.db.attempt(a.QuizID, a.StudentID) != nil {
		return pgx.ErrNoRows
	}
	a.ID = m.db.id()
	a.Status = model.AttemptStatusInProgress
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.db.attempts = append(m.db.attempts, &cp)
	return nil
}

func (m memAttempts) CountTabSwitches(_ context.Context, quizID, studentID int64) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return m.db.switches[[2]int64{quizID, studentID}], nil
}

func (m memAttempts) RecordTabSwitch(_ context.Context, quizID, studentID int64, submitAt func(int) bool) (*repository.TabSwitchOutcome, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	a := m.db.attempt(quizID, studentID)
	if a == nil || a.Status != model.AttemptStatusInProgress {
		return nil, pgx.ErrNoRows
	}
	key := [2]int64{quizID, studentID}
	m.db.switches[key]++
	out := &repository.TabSwitchOutcome{AttemptID: a.ID, Count: m.db.switches[key]}
	out.Submitted = submitAt(out.Count)
	a.TabSwitchCount = out.Count
	if out.Submitted {
		now := time.Now()
		a.Status = model.AttemptStatusSubmitted
		a.SubmittedAt = &now
	}
	return out, nil
}

func (m memAttempts) Submit(_ context.Context, quizID, studentID int64) (*model.Attempt, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	a := m.db.attempt(quizID, studentID)
	if a == nil || a.Status != model.AttemptStatusInProgress {
		return nil, pgx.ErrNoRows
	}
	now := time.Now()
	a.Status = model.AttemptStatusSubmitted
	a.SubmittedAt = &now
	cp := *a
	return &cp, nil
}

type memQuizzes struct{ db *memDB }

func (m memQuizzes) GetByID(_ context.Context, id int64) (*model.Quiz, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	q := m.db.quizzes[id]
	if q == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *q
	return &cp, nil
}

type memRequests struct{ db *memDB }

func (m memRequests) HasPending(_ context.Context, attemptID int64) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, r := range m.db.requests {
		if r.AttemptID == attemptID && r.Status == model.ResumeRequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (m memRequests) Create(_ context.Context, req *model.ResumeRequest) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, r := range m.db.requests {
		if r.AttemptID == req.AttemptID && r.Status == model.ResumeRequestPending {
			return repository.ErrPendingRequestExists
		}
	}
	req.ID = m.db.id()
	req.Status = model.ResumeRequestPending
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	cp := *req
	m.db.requests = append(m.db.requests, &cp)
	return nil
}

func (m memRequests) ListDetailed(_ context.Context) ([]model.ResumeRequestDetail, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.ResumeRequestDetail
	for i := len(m.db.requests) - 1; i >= 0; i-- {
		r := m.db.requests[i]
		out = append(out, model.ResumeRequestDetail{
			ResumeRequest: *r,
			QuizTitle:     m.db.quizzes[r.QuizID].Title,
		})
	}
	return out, nil
}

func (m memRequests) CountByStatus(_ context.Context) (map[model.ResumeRequestStatus]int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	counts := map[model.ResumeRequestStatus]int64{}
	for _, r := range m.db.requests {
		counts[r.Status]++
	}
	return counts, nil
}

func (m memRequests) find(id int64) (*model.ResumeRequest, error) {
	for _, r := range m.db.requests {
		if r.ID == id {
			if r.Status != model.ResumeRequestPending {
				return nil, repository.ErrRequestNotPending
			}
			return r, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m memRequests) Approve(_ context.Context, id int64) (*repository.ResolvedRequest, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, err := m.find(id)
	if err != nil {
		return nil, err
	}
	if m.db.approveErr != nil {
		return nil, m.db.approveErr
	}
	a := m.db.attempt(r.QuizID, r.StudentID)
	if a == nil || a.Status != model.AttemptStatusSubmitted {
		return nil, repository.ErrAttemptNotSubmitted
	}
	r.Status = model.ResumeRequestApproved
	a.Status = model.AttemptStatusResumed
	return &repository.ResolvedRequest{ID: r.ID, QuizID: r.QuizID, StudentID: r.StudentID, AttemptID: r.AttemptID}, nil
}

func (m memRequests) Reject(_ context.Context, id int64, reason *string) (*repository.ResolvedRequest, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, err := m.find(id)
	if err != nil {
		return nil, err
	}
	r.Status = model.ResumeRequestRejected
	r.RejectionReason = reason
	return &repository.ResolvedRequest{ID: r.ID, QuizID: r.QuizID, StudentID: r.StudentID, AttemptID: r.AttemptID}, nil
}

func (db *memDB) request(id int64) model.ResumeRequest {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, r := range db.requests {
		if r.ID == id {
			return *r
		}
	}
	return model.ResumeRequest{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []activity.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e activity.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []model.ActivityType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.ActivityType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
