/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  One place for the failure taxonomy. Three classes exist:
  1. Validation failures - bad caller input, field-tagged, recoverable
  2. Not-found failures  - stale record references
  3. Storage failures    - file/database trouble; the only class that
     escalates to a generic top-level handler

USAGE:
  Callers classify with errors.Is:

    if errors.Is(err, leave.ErrNotFound) { ... 404 ... }
    if errors.Is(err, leave.ErrInvalidRecord) { ... 400 ... }

  Anything else out of a store is treated as a storage failure: logged
  in full, surfaced generically.
*/
package leave

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced record id does not
	// exist in the store.
	ErrNotFound = errors.New("record not found")

	// ErrEndNotAfterStart is returned by the calculator when the
	// resolved end instant is not strictly after the start instant.
	ErrEndNotAfterStart = errors.New("end time not after start time")

	// ErrInvalidRecord is returned by store creation when a record is
	// missing required fields or carries out-of-set values.
	ErrInvalidRecord = errors.New("invalid record")
)

// NotFoundError carries the missing id alongside ErrNotFound.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("leave record %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IsNotFound reports whether err is a stale-reference failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is a bad-input failure the caller
// can fix by resubmitting corrected data.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEndNotAfterStart) || errors.Is(err, ErrInvalidRecord)
}
