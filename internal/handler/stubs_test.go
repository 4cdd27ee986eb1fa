package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/model"
	"github.com/stemsi/quizguard-backend/internal/response"
	"github.com/stemsi/quizguard-backend/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type stubAttempts struct {
	tabSwitch func(quizID, studentID int64) (*model.TabSwitchResult, error)
	state     func(quizID, studentID int64) (*model.AttemptState, error)
	submit    func(quizID, studentID int64) (*model.Attempt, error)
	quiz      func(quizID int64) (*model.Quiz, error)
}

func (s *stubAttempts) RecordTabSwitch(_ context.Context, quizID, studentID int64) (*model.TabSwitchResult, error) {
	return s.tabSwitch(quizID, studentID)
}

func (s *stubAttempts) GetOrCreateAttempt(_ context.Context, quizID, studentID int64) (*model.AttemptState, error) {
	return s.state(quizID, studentID)
}

func (s *stubAttempts) SubmitAttempt(_ context.Context, quizID, studentID int64) (*model.Attempt, error) {
	return s.submit(quizID, studentID)
}

func (s *stubAttempts) GetQuiz(_ context.Context, quizID int64) (*model.Quiz, error) {
	return s.quiz(quizID)
}

type stubResumes struct {
	create  func(quizID, studentID int64, reason string) (int64, error)
	list    func() ([]model.ResumeRequestDetail, error)
	summary func() (*model.RequestSummary, error)
	approve func(id int64) error
	reject  func(id int64, reason string) error
}

func (s *stubResumes) CreateResumeRequest(_ context.Context, quizID, studentID int64, reason string) (int64, error) {
	return s.create(quizID, studentID, reason)
}

func (s *stubResumes) ListResumeRequests(context.Context) ([]model.ResumeRequestDetail, error) {
	return s.list()
}

func (s *stubResumes) SummarizeRequests(context.Context) (*model.RequestSummary, error) {
	return s.summary()
}

func (s *stubResumes) Approve(_ context.Context, id int64) error {
	return s.approve(id)
}

func (s *stubResumes) Reject(_ context.Context, id int64, reason string) error {
	return s.reject(id, reason)
}

type stubActivity struct {
	list func(quizID *int64, limit int) ([]model.ActivityEntry, error)
}

func (s *stubActivity) ListRecent(_ context.Context, quizID *int64, limit int) ([]model.ActivityEntry, error) {
	return s.list(quizID, limit)
}

func newTestEngine(attempts *stubAttempts, resumes *stubResumes, activity *stubActivity) *gin.Engine {
	qh := NewQuizHandler(attempts, resumes, zerolog.Nop())
	th := NewTeacherHandler(resumes, activity, zerolog.Nop())

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	r.POST("/api/quiz/:quizId/tab-switch", qh.RecordTabSwitch)
	r.POST("/api/quiz/:quizId/resume-request", qh.CreateResumeRequest)
	r.POST("/api/quiz/:quizId/submit", qh.SubmitAttempt)
	r.GET("/api/quiz/:quizId", qh.GetQuiz)
	r.GET("/api/quiz/:quizId/student/:studentId/status", qh.GetAttemptStatus)
	r.GET("/api/teacher/resume-requests", th.ListResumeRequests)
	r.GET("/api/teacher/resume-requests/export", th.ExportResumeRequests)
	r.GET("/api/teacher/requests-summary", th.RequestsSummary)
	r.POST("/api/teacher/resume-requests/:id/approve", th.ApproveResumeRequest)
	r.POST("/api/teacher/resume-requests/:id/reject", th.RejectResumeRequest)
	r.GET("/api/teacher/activity", th.ListActivity)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}
