package repository

import "errors"

var (
	// ErrReferenceMissing means the quiz or student referenced by a write does not exist.
	ErrReferenceMissing = errors.New("referenced quiz or student does not exist")
	// ErrPendingRequestExists means the attempt already has a pending resume request.
	ErrPendingRequestExists = errors.New("attempt already has a pending resume request")
	// ErrRequestNotPending means the resume request was already resolved.
	ErrRequestNotPending = errors.New("resume request is not pending")
	// ErrAttemptNotSubmitted means the attempt behind a resume request is not in submitted state.
	ErrAttemptNotSubmitted = errors.New("attempt is not submitted")
)
