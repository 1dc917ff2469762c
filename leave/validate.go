/*
validate.go - Staged validation over raw start/end input

PURPOSE:
  User input arrives as two strings. Three ordered stages run over
  them, and ONLY the first failing stage's errors ever come back -
  tests and API clients depend on that ordering:

  1. required: both values present, else one error per missing field
  2. format:   both values pass ValidTimeValue, else one per bad field
  3. range:    the calculator accepts the span, else a single
               range-level error on the end field

  A "25:00" start therefore surfaces as a format error, never as a
  range error, and an empty start stops everything else.
*/
package leave

import (
	"strings"
	"time"
)

// Error kinds carried by FieldError, one per validation stage.
const (
	ErrKindRequired = "required"
	ErrKindFormat   = "format"
	ErrKindRange    = "range"
)

// Field names used when tagging validation errors.
const (
	FieldStartTime = "start_time"
	FieldEndTime   = "end_time"
)

// FieldError tags a validation failure with the offending field and
// the failing stage.
type FieldError struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of ValidateSpan.
type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// ValidateSpan runs the staged checks over a raw start/end pair.
func (c *Calculator) ValidateSpan(startValue, endValue string) ValidationResult {
	startValue = strings.TrimSpace(startValue)
	endValue = strings.TrimSpace(endValue)

	// Stage 1: required.
	var errs []FieldError
	if startValue == "" {
		errs = append(errs, FieldError{FieldStartTime, ErrKindRequired, "start time is required"})
	}
	if endValue == "" {
		errs = append(errs, FieldError{FieldEndTime, ErrKindRequired, "end time is required"})
	}
	if len(errs) > 0 {
		return ValidationResult{Errors: errs}
	}

	// Stage 2: format.
	if !ValidTimeValue(startValue) {
		errs = append(errs, FieldError{FieldStartTime, ErrKindFormat, "start time must be HH:MM on a 15-minute boundary"})
	}
	if !ValidTimeValue(endValue) {
		errs = append(errs, FieldError{FieldEndTime, ErrKindFormat, "end time must be HH:MM on a 15-minute boundary"})
	}
	if len(errs) > 0 {
		return ValidationResult{Errors: errs}
	}

	// Stage 3: range. The elapsed total is independent of the actual
	// reference date, so any anchor works here.
	ref := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	if _, _, err := c.Minutes(ref, ParseTimeValue(startValue), ParseTimeValue(endValue)); err != nil {
		return ValidationResult{Errors: []FieldError{{FieldEndTime, ErrKindRange, err.Error()}}}
	}

	return ValidationResult{Valid: true}
}
