package model

import (
	"encoding/json"
	"time"
)

// ActivityType names an event in the quiz integrity trail.
type ActivityType string

const (
	ActivityTabSwitch       ActivityType = "tab_switch"
	ActivityAutoSubmit      ActivityType = "auto_submit"
	ActivityManualSubmit    ActivityType = "manual_submit"
	ActivityResumeRequested ActivityType = "resume_requested"
	ActivityRequestApproved ActivityType = "request_approved"
	ActivityRequestRejected ActivityType = "request_rejected"
)

// ActivityEntry is a persisted row of activity_log.
type ActivityEntry struct {
	ID         int64           `json:"id"`
	EventType  ActivityType    `json:"event_type"`
	QuizID     int64           `json:"quiz_id"`
	StudentID  int64           `json:"student_id"`
	AttemptID  *int64          `json:"attempt_id,omitempty"`
	RequestID  *int64          `json:"request_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// MonitorSnapshot is the first message a teacher's live monitor receives.
type MonitorSnapshot struct {
	Summary  *RequestSummary `json:"summary"`
	Activity []ActivityEntry `json:"activity"`
}
