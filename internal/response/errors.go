package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Quiz & attempts ───────────────────────────────────────────────
	ErrQuizNotFound          ErrCode = "QUIZ_NOT_FOUND"
	ErrQuizOrStudentNotFound ErrCode = "QUIZ_OR_STUDENT_NOT_FOUND"
	ErrNoActiveAttempt       ErrCode = "NO_ACTIVE_ATTEMPT"
	ErrNoSubmittedAttempt    ErrCode = "NO_SUBMITTED_ATTEMPT"

	// ─── Resume requests ───────────────────────────────────────────────
	ErrResumeRequestNotFound ErrCode = "RESUME_REQUEST_NOT_FOUND"
	ErrResumeRequestPending  ErrCode = "RESUME_REQUEST_PENDING"
	ErrAlreadyResolved       ErrCode = "ALREADY_RESOLVED"
	ErrAttemptNotResumable   ErrCode = "ATTEMPT_NOT_RESUMABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Quiz & attempts ───────────────────────────────────────────────
	case ErrQuizNotFound:
		return "Quiz not found"
	case ErrQuizOrStudentNotFound:
		return "Quiz or student not found"
	case ErrNoActiveAttempt:
		return "No active quiz attempt found"
	case ErrNoSubmittedAttempt:
		return "No submitted quiz attempt found"

	// ─── Resume requests ───────────────────────────────────────────────
	case ErrResumeRequestNotFound:
		return "Resume request not found"
	case ErrResumeRequestPending:
		return "Resume request already pending"
	case ErrAlreadyResolved:
		return "Resume request has already been resolved"
	case ErrAttemptNotResumable:
		return "Quiz attempt can no longer be resumed"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please slow down."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error"

	default:
		return "An unknown error occurred."
	}
}
