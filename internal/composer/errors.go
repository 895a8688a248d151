package composer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/maheshrc27/storepost/internal/models"
)

var (
	ErrSubmissionInFlight = errors.New("a submission is already in flight for this session")
	ErrParameterLocked    = errors.New("generation parameter is locked")
	ErrUnknownParameter   = errors.New("unknown generation parameter")
	ErrPostNotFound       = errors.New("post not found")
	ErrSessionNotFound    = errors.New("composition session not found")
)

// ValidationError is a local precondition failure. Nothing was sent anywhere.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UploadError means the media could not be stored, so no post was created or changed.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("media upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ConnectionWarning lists selected platforms that are not connected. The caller
// may resubmit with the warning acknowledged.
type ConnectionWarning struct {
	Platforms []models.Platform
}

func (e *ConnectionWarning) Error() string {
	names := make([]string, len(e.Platforms))
	for i, p := range e.Platforms {
		names[i] = string(p)
	}
	return fmt.Sprintf("platforms not connected: %s", strings.Join(names, ", "))
}

// UnknownOutcomeError means the backend call did not return a usable answer.
// The post may or may not exist; the post list is the source of truth.
type UnknownOutcomeError struct {
	Err error
}

func (e *UnknownOutcomeError) Error() string {
	return fmt.Sprintf("submission outcome unknown, check the post list: %v", e.Err)
}

func (e *UnknownOutcomeError) Unwrap() error {
	return e.Err
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
