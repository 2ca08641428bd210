package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNullArgument  = errors.New("required argument missing")
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("duplicate hotel")
	ErrStore         = errors.New("store failure")
	ErrAlreadyExists = errors.New("hotel id already exists")
)

// ValidationError reports a field whose value breaks an invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NullArgumentError struct{ Arg string }

func (e *NullArgumentError) Error() string { return e.Arg + " is required" }

func (e *NullArgumentError) Is(target error) bool { return target == ErrNullArgument }

type NotFoundError struct{ ID uuid.UUID }

func (e *NotFoundError) Error() string { return fmt.Sprintf("hotel %s not found", e.ID) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateError is returned when another hotel already has the same name
// (case-insensitive) at the same location.
type DuplicateError struct {
	Name      string
	Latitude  float64
	Longitude float64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("hotel %q already exists at (%.6f, %.6f)", e.Name, e.Latitude, e.Longitude)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// StoreError wraps a persistence failure. Op names the repository call.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }
