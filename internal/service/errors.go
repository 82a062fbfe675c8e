package service

import (
	"errors"
	"fmt"
)

// ErrValidationNoop marks conditions under which an operation is
// silently ignored rather than failed: the caller gets an "ignored"
// answer, nothing is surfaced as an error and nothing is logged above
// debug. Concrete reasons wrap this sentinel so tests and controllers
// can match with errors.Is.
var ErrValidationNoop = errors.New("ignored")

var (
	ErrEmptyMessage      = fmt.Errorf("empty message: %w", ErrValidationNoop)
	ErrNoSessionSelected = fmt.Errorf("no session selected: %w", ErrValidationNoop)
	ErrNoModelSelected   = fmt.Errorf("no model selected: %w", ErrValidationNoop)
	ErrSendInFlight      = fmt.Errorf("send already in flight: %w", ErrValidationNoop)
)
