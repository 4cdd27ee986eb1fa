package service

import "errors"

// Domain Errors
var (
	ErrQuizNotFound          = errors.New("quiz not found")
	ErrQuizOrStudentNotFound = errors.New("quiz or student not found")
	ErrNoActiveAttempt       = errors.New("no active quiz attempt found")
	ErrNoSubmittedAttempt    = errors.New("no submitted quiz attempt found")
	ErrResumeRequestNotFound = errors.New("resume request not found")
	ErrResumeRequestPending  = errors.New("resume request already pending")
	ErrResumeRequestResolved = errors.New("resume request already resolved")
	ErrAttemptNotResumable   = errors.New("attempt is no longer submitted")
)
