package kpiimport

import "errors"

var ErrRejected = errors.New("kpi upload rejected")

// RejectionError refuses a whole upload before any row is created.
type RejectionError struct {
	Outcome Outcome
	Err     error
}

func (e *RejectionError) Error() string {
	switch e.Outcome {
	case OutcomeEmpty:
		return MessageEmpty
	case OutcomeOverLimit:
		return MessageOverLimit
	}
	return MessageMalformed
}

func (e *RejectionError) Unwrap() error { return e.Err }

func (e *RejectionError) Is(target error) bool { return target == ErrRejected }
