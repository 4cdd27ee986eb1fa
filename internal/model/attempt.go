package model

import "time"

// AttemptStatus enumerates quiz attempt states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
	AttemptStatusResumed    AttemptStatus = "resumed"
)

// Attempt is one student's session for one quiz.
// TabSwitchCount is a snapshot; quiz_tab_switches is authoritative.
type Attempt struct {
	ID             int64         `json:"id"`
	QuizID         int64         `json:"quiz_id"`
	StudentID      int64         `json:"student_id"`
	Status         AttemptStatus `json:"status"`
	TabSwitchCount int           `json:"tab_switch_count"`
	SubmittedAt    *time.Time    `json:"submitted_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// TabSwitchAction is the client-facing outcome of a tab-switch report.
type TabSwitchAction string

const (
	TabSwitchActionLogged     TabSwitchAction = "logged"
	TabSwitchActionWarning    TabSwitchAction = "warning"
	TabSwitchActionAutoSubmit TabSwitchAction = "auto_submit"
)

// TabSwitchResult is returned by the tab-switch endpoint.
type TabSwitchResult struct {
	Action         TabSwitchAction `json:"action"`
	Message        string          `json:"message"`
	TabSwitchCount int             `json:"tabSwitchCount"`
	AttemptID      *int64          `json:"attemptId,omitempty"`
}

// AttemptState is returned by the attempt status endpoint.
type AttemptState struct {
	AttemptID      int64         `json:"attemptId"`
	Status         AttemptStatus `json:"status"`
	TabSwitchCount int           `json:"tabSwitchCount"`
	SubmittedAt    *time.Time    `json:"submittedAt,omitempty"`
}

// StudentRequest carries the client-supplied student identifier.
type StudentRequest struct {
	StudentID int64 `json:"studentId" binding:"required,min=1"`
}

// SubmitResult is returned by the manual submit endpoint.
type SubmitResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	AttemptID int64  `json:"attemptId"`
}
