package service

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorCollaboratorUnreachable ErrorCode = "COLLABORATOR_UNREACHABLE"
	ErrorCollaboratorRejected    ErrorCode = "COLLABORATOR_REJECTED"
	ErrorEmptySubmission         ErrorCode = "EMPTY_SUBMISSION"
	ErrorBusy                    ErrorCode = "BUSY"
	ErrorSuperseded              ErrorCode = "SUPERSEDED"
	ErrorNotFound                ErrorCode = "NOT_FOUND"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("service: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("service: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// collaboratorError classifies a failed collaborator call. A response with a
// status code is a rejection; anything else means the call never completed.
func collaboratorError(reason string, err error) *Error {
	var statusErr httpStatusCoder
	if errors.As(err, &statusErr) {
		return newError(ErrorCollaboratorRejected, reason, err)
	}
	return newError(ErrorCollaboratorUnreachable, reason, err)
}

// CodeOf extracts the error code, or "" for errors that did not originate here.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
