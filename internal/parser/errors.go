package parser

import (
	"errors"
	"fmt"
)

var (
	ErrNeedMore = errors.New("parser: need more input")
	ErrRejected = errors.New("parser: rejected")
)

// RejectError describes why a parse was abandoned.
type RejectError struct {
	Field  string
	Reason string
	Err    error
}

func (e *RejectError) Error() string {
	msg := fmt.Sprintf("parser: %s rejected: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RejectError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRejected}
	}
	return []error{ErrRejected, e.Err}
}

// Reject builds a RejectError for field.
func Reject(field, reason string) error {
	return &RejectError{Field: field, Reason: reason}
}

// AsReject wraps err as a rejection unless it already is one.
func AsReject(field string, err error) error {
	if err == nil || errors.Is(err, ErrRejected) {
		return err
	}
	return &RejectError{Field: field, Reason: "failed", Err: err}
}
