package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDraftNotFound        = errors.New("draft not found")
	ErrImageNotFound        = errors.New("staged image not found")
	ErrSubmissionInProgress = errors.New("submission already in progress")
)

// ValidationError rejects input before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UploadFailure aborts an upload sequence. Index is 1-based.
type UploadFailure struct {
	Index   int
	Message string
	Err     error
}

func (e *UploadFailure) Error() string {
	return fmt.Sprintf("Error en imagen %d: %s", e.Index, e.Message)
}

func (e *UploadFailure) Unwrap() error { return e.Err }

// SubmissionFailure is returned when the workflow webhook rejects a payload
// or cannot be reached. Status is zero for network failures.
type SubmissionFailure struct {
	Status  int
	Message string
	Err     error
}

func (e *SubmissionFailure) Error() string {
	return e.Message
}

func (e *SubmissionFailure) Unwrap() error { return e.Err }

// ConfigurationError signals missing server-side credentials.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// UserMessage converts any pipeline error into the text shown next to the form.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		ve *ValidationError
		uf *UploadFailure
		sf *SubmissionFailure
		ce *ConfigurationError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &uf):
		return uf.Error()
	case errors.As(err, &sf):
		return sf.Error()
	case errors.As(err, &ce):
		return ce.Error()
	}
	return "Error inesperado. Intenta nuevamente."
}
