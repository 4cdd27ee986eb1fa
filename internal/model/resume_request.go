package model

import "time"

// ResumeRequestStatus enumerates moderation states of a resume request.
type ResumeRequestStatus string

const (
	ResumeRequestPending  ResumeRequestStatus = "pending"
	ResumeRequestApproved ResumeRequestStatus = "approved"
	ResumeRequestRejected ResumeRequestStatus = "rejected"
)

// DefaultResumeReason is stored when the student gives no reason.
const DefaultResumeReason = "No reason provided"

// ResumeRequest is a student's appeal to reopen a submitted attempt.
type ResumeRequest struct {
	ID              int64               `json:"id"`
	QuizID          int64               `json:"quiz_id"`
	StudentID       int64               `json:"student_id"`
	AttemptID       int64               `json:"attempt_id"`
	Reason          string              `json:"reason"`
	Status          ResumeRequestStatus `json:"status"`
	RejectionReason *string             `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ResumeRequestDetail is a request joined with student and quiz info for teachers.
type ResumeRequestDetail struct {
	ResumeRequest
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
	QuizTitle    string `json:"quiz_title"`
}

// RequestSummary counts resume requests by status.
type RequestSummary struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// CreateResumeRequest is the student payload for a resume request.
type CreateResumeRequest struct {
	StudentID int64  `json:"studentId" binding:"required,min=1"`
	Reason    string `json:"reason" binding:"omitempty,max=1000"`
}

// RejectResumeRequest is the optional teacher payload when rejecting.
type RejectResumeRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=1000"`
}

// ResumeRequestCreated is returned when a student files a request.
type ResumeRequestCreated struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID int64  `json:"requestId"`
}
