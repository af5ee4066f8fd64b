// Package tts defines the speech synthesis stage and the interface its
// text-to-speech providers implement.
package tts

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voice-translate-service/internal/apperr"
	"voice-translate-service/internal/lang"
	"voice-translate-service/internal/observability/logging"
	"voice-translate-service/internal/observability/metrics"
)

// Fixed synthesis settings. Every response is mp3 at 44.1 kHz / 128 kbps so
// it can be cached and played back uniformly.
const (
	OutputFormat = "mp3_44100_128"
	ModelID      = "eleven_multilingual_v2"
	ContentType  = "audio/mpeg"
)

// MsgFailed is the user-facing message for provider failures.
const MsgFailed = "Text-to-speech conversion failed"

const op = "tts.Synthesize"

// DefaultVoices returns the built-in voice identities per language. English
// has no default and must be configured explicitly.
func DefaultVoices() map[string]string {
	return map[string]string{
		string(lang.French):      "Xb7hH8MSUJpSbSDYk0k2",
		string(lang.Spanish):     "GBv7mTt0atIp3Br8iCZE",
		string(lang.Yoruba):      "pNInz6obpgDQGcFmaJgB",
		string(lang.Kinyarwanda): "nPczCjzI2devNBz1zQrb",
	}
}

// Request is one provider synthesis call.
type Request struct {
	Text         string
	VoiceID      string
	ModelID      string
	OutputFormat string
}

// Provider defines the interface for TTS providers.
type Provider interface {
	// Name returns the provider identifier used in logs and metrics.
	Name() string

	// Synthesize opens the provider's audio stream. The caller closes it.
	Synthesize(ctx context.Context, req Request) (io.ReadCloser, error)
}

// Stage resolves voices and collects synthesized audio.
type Stage struct {
	provider Provider
	voices   map[string]string
	log      zerolog.Logger
}

// NewStage creates a synthesis stage. voices maps language codes to voice
// identities; nil uses DefaultVoices.
func NewStage(provider Provider, voices map[string]string) *Stage {
	if voices == nil {
		voices = DefaultVoices()
	}
	normalized := make(map[string]string, len(voices))
	for code, id := range voices {
		if id != "" {
			normalized[lang.Normalize(code)] = id
		}
	}
	return &Stage{
		provider: provider,
		voices:   normalized,
		log:      logging.WithStage("tts", provider.Name()),
	}
}

// Voice returns the voice identity configured for a language.
func (s *Stage) Voice(code string) (string, bool) {
	id, ok := s.voices[lang.Normalize(code)]
	return id, ok
}

// Synthesize renders text in the voice for target and returns the complete
// mp3. The provider stream is read to the end before returning; a stream
// that fails midway yields no audio.
func (s *Stage) Synthesize(ctx context.Context, text, target string) ([]byte, error) {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(target) == "" {
		return nil, apperr.New(apperr.KindValidation, op, "Missing required fields: text and language")
	}
	voice, ok := s.Voice(target)
	if !ok {
		return nil, apperr.New(apperr.KindVoiceNotConfigured, op,
			fmt.Sprintf("No voice ID configured for language: %s", target))
	}

	start := time.Now()
	data, err := s.collect(ctx, Request{
		Text:         text,
		VoiceID:      voice,
		ModelID:      ModelID,
		OutputFormat: OutputFormat,
	})
	elapsed := time.Since(start)

	if err != nil {
		err = apperr.Wrap(apperr.KindSynthesis, op, MsgFailed, err)
		metrics.DefaultMetrics.RecordStage("tts", s.provider.Name(), err, elapsed.Seconds())
		s.log.Warn().
			Err(err).
			Str("target", target).
			Str("voiceId", voice).
			Dur("latency", elapsed).
			Msg("Synthesis failed")
		return nil, err
	}

	metrics.DefaultMetrics.RecordStage("tts", s.provider.Name(), nil, elapsed.Seconds())
	metrics.DefaultMetrics.RecordAudioSynthesized(len(data))
	s.log.Debug().
		Str("target", target).
		Str("voiceId", voice).
		Int("bytes", len(data)).
		Dur("latency", elapsed).
		Msg("Synthesis complete")
	return data, nil
}

func (s *Stage) collect(ctx context.Context, req Request) ([]byte, error) {
	stream, err := s.provider.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read audio stream: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("provider returned no audio")
	}
	return data, nil
}
