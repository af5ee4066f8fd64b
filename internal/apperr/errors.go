// Package apperr defines the error taxonomy shared by the pipeline stages
// and the HTTP layer. Stages raise a typed Kind; the HTTP layer maps the
// Kind to a status code without looking at message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindUnknown            Kind = ""
	KindValidation         Kind = "validation"
	KindInvalidInput       Kind = "invalid_input"
	KindFormat             Kind = "format"
	KindRateLimit          Kind = "rate_limit"
	KindQuota              Kind = "quota"
	KindDevice             Kind = "device"
	KindVoiceNotConfigured Kind = "voice_not_configured"
	KindNoSpeech           Kind = "no_speech"
	KindTranscription      Kind = "transcription"
	KindTranslation        Kind = "translation"
	KindSynthesis          Kind = "synthesis"
)

// Error carries a Kind, the operation that failed, a user-facing message
// and the underlying cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// New creates an Error without an underlying cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap creates an Error around cause.
func Wrap(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindUnknown when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message for err. Errors outside the
// taxonomy fall back to err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// StatusCode maps a Kind to an HTTP status code.
func StatusCode(kind Kind) int {
	switch kind {
	case KindValidation, KindInvalidInput, KindFormat:
		return http.StatusBadRequest
	case KindRateLimit, KindQuota:
		return http.StatusTooManyRequests
	case KindNoSpeech:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// KindFromStatus is the inverse used by HTTP clients when the response body
// carries no kind. It is lossy: 429 is reported as rate limiting and 400 as
// a validation failure.
func KindFromStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusUnprocessableEntity:
		return KindNoSpeech
	default:
		return KindUnknown
	}
}
