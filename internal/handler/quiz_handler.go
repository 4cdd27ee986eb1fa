package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/model"
	"github.com/stemsi/quizguard-backend/internal/response"
	"github.com/stemsi/quizguard-backend/internal/validator"
)

// QuizHandler serves the student-facing quiz endpoints.
type QuizHandler struct {
	attempts AttemptOperator
	resumes  ResumeOperator
	log      zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(attempts AttemptOperator, resumes ResumeOperator, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		attempts: attempts,
		resumes:  resumes,
		log:      log.With().Str("component", "quiz_handler").Logger(),
	}
}

// RecordTabSwitch godoc
// POST /api/quiz/:quizId/tab-switch
// Logs a tab switch and returns the policy action for the client to enforce.
func (h *QuizHandler) RecordTabSwitch(c *gin.Context) {
	quizID, ok := parseID(c, "quizId")
	if !ok {
		return
	}

	var req model.StudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.attempts.RecordTabSwitch(c.Request.Context(), quizID, req.StudentID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// CreateResumeRequest godoc
// POST /api/quiz/:quizId/resume-request
// Files a resume request against the student's submitted attempt.
func (h *QuizHandler) CreateResumeRequest(c *gin.Context) {
	quizID, ok := parseID(c, "quizId")
	if !ok {
		return
	}

	var req model.CreateResumeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	requestID, err := h.resumes.CreateResumeRequest(c.Request.Context(), quizID, req.StudentID, req.Reason)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, model.ResumeRequestCreated{
		Success:   true,
		Message:   "Resume request submitted successfully",
		RequestID: requestID,
	})
}

// SubmitAttempt godoc
// POST /api/quiz/:quizId/submit
func (h *QuizHandler) SubmitAttempt(c *gin.Context) {
	quizID, ok := parseID(c, "quizId")
	if !ok {
		return
	}

	var req model.StudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attempts.SubmitAttempt(c.Request.Context(), quizID, req.StudentID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, model.SubmitResult{
		Success:   true,
		Message:   "Quiz submitted successfully",
		AttemptID: attempt.ID,
	})
}

// GetQuiz godoc
// GET /api/quiz/:quizId
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID, ok := parseID(c, "quizId")
	if !ok {
		return
	}

	quiz, err := h.attempts.GetQuiz(c.Request.Context(), quizID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, quiz)
}

// GetAttemptStatus godoc
// GET /api/quiz/:quizId/student/:studentId/status
// Returns the student's attempt, creating it on first access.
func (h *QuizHandler) GetAttemptStatus(c *gin.Context) {
	quizID, ok := parseID(c, "quizId")
	if !ok {
		return
	}
	studentID, ok := parseID(c, "studentId")
	if !ok {
		return
	}

	state, err := h.attempts.GetOrCreateAttempt(c.Request.Context(), quizID, studentID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}
