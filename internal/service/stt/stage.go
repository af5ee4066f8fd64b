package stt

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voice-translate-service/internal/apperr"
	"voice-translate-service/internal/audio"
	"voice-translate-service/internal/observability/logging"
	"voice-translate-service/internal/observability/metrics"
)

// User-facing messages for transcription failures.
const (
	MsgNoAudio           = "No audio data received"
	MsgTooLarge          = "Audio file too large. Maximum size is 25MB"
	MsgUnsupportedFormat = "Unsupported audio format. Please use mp3, mp4, mpeg, mpga, m4a, wav, or webm"
	MsgRateLimited       = "Rate limit exceeded. Please try again later"
	MsgQuotaExceeded     = "OpenAI API quota exceeded. Please check your billing"
	MsgFailed            = "Speech-to-text conversion failed"
)

const op = "stt.Transcribe"

// Options tunes a single transcription.
type Options struct {
	// Language is an ISO-639-1 hint, e.g. "en".
	Language string
	// Prompt biases the recognizer towards expected vocabulary.
	Prompt string
	// Temperature defaults to 0 for reproducible decoding.
	Temperature float32
}

// Stage validates recordings and hands them to a Provider.
type Stage struct {
	provider Provider
	maxBytes int
	log      zerolog.Logger
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithMaxBytes lowers the upload ceiling. Values above
// audio.MaxUploadBytes are capped.
func WithMaxBytes(n int) StageOption {
	return func(s *Stage) {
		if n > 0 {
			s.maxBytes = min(n, audio.MaxUploadBytes)
		}
	}
}

// NewStage creates a transcription stage over provider.
func NewStage(provider Provider, opts ...StageOption) *Stage {
	s := &Stage{
		provider: provider,
		maxBytes: audio.MaxUploadBytes,
		log:      logging.WithStage("stt", provider.Name()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the provider name.
func (s *Stage) Provider() string { return s.provider.Name() }

// Transcribe converts blob to trimmed text. Empty and oversized blobs fail
// with apperr.KindInvalidInput before the provider is called. Provider
// failures map to exactly one of format, rate_limit, quota or
// transcription.
func (s *Stage) Transcribe(ctx context.Context, blob audio.Blob, opts Options) (string, error) {
	if blob.Empty() {
		return "", apperr.New(apperr.KindInvalidInput, op, MsgNoAudio)
	}
	if blob.Len() > s.maxBytes {
		return "", apperr.New(apperr.KindInvalidInput, op, MsgTooLarge)
	}

	format := blob.ResolvedFormat()
	req := Request{
		Audio:       blob.Bytes(),
		Format:      format,
		MimeType:    audio.MimeType(format),
		Filename:    "audio." + format.Extension(),
		Language:    opts.Language,
		Prompt:      opts.Prompt,
		Temperature: opts.Temperature,
	}

	metrics.DefaultMetrics.RecordAudioReceived(blob.Len())
	start := time.Now()
	text, err := s.provider.Transcribe(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		err = classify(err)
		metrics.DefaultMetrics.RecordStage("stt", s.provider.Name(), err, elapsed.Seconds())
		s.log.Warn().
			Err(err).
			Str("format", string(format)).
			Int("audioSize", blob.Len()).
			Dur("latency", elapsed).
			Msg("Transcription failed")
		return "", err
	}

	metrics.DefaultMetrics.RecordStage("stt", s.provider.Name(), nil, elapsed.Seconds())
	text = strings.TrimSpace(text)
	s.log.Debug().
		Str("format", string(format)).
		Int("audioSize", blob.Len()).
		Int("chars", len(text)).
		Dur("latency", elapsed).
		Msg("Transcription complete")
	return text, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		return apperr.Wrap(apperr.KindFormat, op, MsgUnsupportedFormat, err)
	case errors.Is(err, ErrRateLimited):
		return apperr.Wrap(apperr.KindRateLimit, op, MsgRateLimited, err)
	case errors.Is(err, ErrQuotaExceeded):
		return apperr.Wrap(apperr.KindQuota, op, MsgQuotaExceeded, err)
	default:
		return apperr.Wrap(apperr.KindTranscription, op, MsgFailed, err)
	}
}
