package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/model"
	"github.com/stemsi/quizguard-backend/internal/response"
	"github.com/stemsi/quizguard-backend/internal/service"
	"github.com/stemsi/quizguard-backend/internal/validator"
)

// TeacherHandler serves resume moderation and the activity trail.
type TeacherHandler struct {
	resumes  ResumeOperator
	activity ActivityReader
	log      zerolog.Logger
}

// NewTeacherHandler creates a new TeacherHandler.
func NewTeacherHandler(resumes ResumeOperator, activity ActivityReader, log zerolog.Logger) *TeacherHandler {
	return &TeacherHandler{
		resumes:  resumes,
		activity: activity,
		log:      log.With().Str("component", "teacher_handler").Logger(),
	}
}

// ListResumeRequests godoc
// GET /api/teacher/resume-requests
func (h *TeacherHandler) ListResumeRequests(c *gin.Context) {
	requests, err := h.resumes.ListResumeRequests(c.Request.Context())
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, requests)
}

// ExportResumeRequests godoc
// GET /api/teacher/resume-requests/export
func (h *TeacherHandler) ExportResumeRequests(c *gin.Context) {
	requests, err := h.resumes.ListResumeRequests(c.Request.Context())
	if err != nil {
		failService(c, h.log, err)
		return
	}

	data, err := service.ExportResumeRequests(requests)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	filename := fmt.Sprintf("resume-requests-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// RequestsSummary godoc
// GET /api/teacher/requests-summary
func (h *TeacherHandler) RequestsSummary(c *gin.Context) {
	summary, err := h.resumes.SummarizeRequests(c.Request.Context())
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// ApproveResumeRequest godoc
// POST /api/teacher/resume-requests/:id/approve
// Approves the request and reopens the student's attempt.
func (h *TeacherHandler) ApproveResumeRequest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.resumes.Approve(c.Request.Context(), id); err != nil {
		failService(c, h.log, err)
		return
	}
	response.OK(c, http.StatusOK, "Resume request approved successfully")
}

// RejectResumeRequest godoc
// POST /api/teacher/resume-requests/:id/reject
// The body is optional; a reason is stored when given.
func (h *TeacherHandler) RejectResumeRequest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.RejectResumeRequest
	if fields := validator.BindOptional(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.resumes.Reject(c.Request.Context(), id, req.Reason); err != nil {
		failService(c, h.log, err)
		return
	}
	response.OK(c, http.StatusOK, "Resume request rejected successfully")
}

// ListActivity godoc
// GET /api/teacher/activity?quizId=&limit=
func (h *TeacherHandler) ListActivity(c *gin.Context) {
	var quizID *int64
	if raw := c.Query("quizId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		quizID = &id
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"limit": "limit must be a number"})
		return
	}

	entries, err := h.activity.ListRecent(c.Request.Context(), quizID, limit)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, entries)
}
