// Package stt defines the transcription stage and the interface its
// speech-to-text providers implement.
package stt

import (
	"context"
	"errors"

	"voice-translate-service/internal/audio"
)

// Provider failures the stage knows how to classify. Adapters wrap one of
// these when the provider reports the matching condition.
var (
	// ErrInvalidFormat is returned when the provider rejects the audio encoding.
	ErrInvalidFormat = errors.New("unsupported audio format")

	// ErrRateLimited is returned when the provider rate limits requests.
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrQuotaExceeded is returned when the account quota is exhausted.
	ErrQuotaExceeded = errors.New("provider quota exceeded")
)

// Request is one batch transcription call.
type Request struct {
	Audio    []byte
	Format   audio.Format
	MimeType string
	// Filename carries the format to providers that infer the encoding from
	// the upload name, e.g. "audio.webm".
	Filename    string
	Language    string
	Prompt      string
	Temperature float32
}

// Provider defines the interface for STT providers (OpenAI, Google, mock).
type Provider interface {
	// Name returns the provider identifier used in logs and metrics.
	Name() string

	// Transcribe returns the raw transcript for one recording.
	Transcribe(ctx context.Context, req Request) (string, error)
}
