// Package common defines shared constants and errors used across the
// uCredit server layers. Callers should use errors.Is / errors.As to match
// these values.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Input errors. They abort an operation before anything is written.
	ErrInvalidReference = errors.New("invalid reference")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrValidation       = errors.New("validation error")

	// ErrPropagation marks a secondary (denormalized) update that failed
	// after the primary write succeeded. It is never fatal to the caller.
	ErrPropagation = errors.New("propagation failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Entity kinds used in NotFoundError.
const (
	KindUser         = "user"
	KindDistribution = "distribution"
	KindCourse       = "course"
)

// NotFoundError reports a missing entity of a given kind.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrorNotFound }

// NewNotFound returns a NotFoundError for kind/id.
func NewNotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// InvalidReferenceError lists distribution ids that are not owned by the user.
type InvalidReferenceError struct {
	UserID string
	IDs    []string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid combination of user_id %q and distribution_ids [%s]",
		e.UserID, strings.Join(e.IDs, ", "))
}

func (e *InvalidReferenceError) Unwrap() error { return ErrInvalidReference }

// PropagationError describes one failed secondary update.
//
// Step names the update ("distribution.link", "user.year.push", ...),
// TargetID is the distribution or user that was not updated.
type PropagationError struct {
	Step     string
	CourseID string
	TargetID string
	Err      error
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("%s for course %s on %s: %v", e.Step, e.CourseID, e.TargetID, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *PropagationError) Unwrap() []error {
	return []error{ErrPropagation, e.Err}
}

// InvalidArgument wraps msg as an ErrInvalidArgument.
func InvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}
