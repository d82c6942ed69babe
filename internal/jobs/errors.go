package jobs

import (
	"errors"
	"fmt"
)

// Error codes recorded on failed jobs and returned to pollers
const (
	CodeSourceUnavailable  = "source_unavailable"
	CodeNoMatchingLanguage = "no_matching_language"
	CodeCaptionMissing     = "caption_missing"
	CodeWriteFailed        = "write_failed"
	CodeInternal           = "internal"
)

var (
	ErrSourceUnavailable  = errors.New("source unavailable")
	ErrNoMatchingLanguage = errors.New("no matching subtitle language")
	ErrCaptionMissing     = errors.New("caption file missing")
	ErrWriteFailed        = errors.New("artifact write failed")
)

// Error is a job failure carrying a stable code
type Error struct {
	Code      string
	Err       error
	retryable bool
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode returns the code persisted on the failed job
func (e *Error) ErrorCode() string { return e.Code }

// Retryable reports whether running the job again may succeed
func (e *Error) Retryable() bool { return e.retryable }

func newError(code string, retryable bool, sentinel error, format string, args ...any) *Error {
	return &Error{
		Code:      code,
		Err:       fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)),
		retryable: retryable,
	}
}

// CodeOf returns the code of err, or CodeInternal when it carries none
func CodeOf(err error) string {
	var jobErr *Error
	if errors.As(err, &jobErr) {
		return jobErr.Code
	}
	return CodeInternal
}
