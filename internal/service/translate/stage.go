// Package translate defines the translation stage and the interface its
// language-model providers implement.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voice-translate-service/internal/apperr"
	"voice-translate-service/internal/lang"
	"voice-translate-service/internal/observability/logging"
	"voice-translate-service/internal/observability/metrics"
)

// Temperature bounds output variance while allowing natural phrasing.
const Temperature float32 = 0.3

// MsgFailed is the user-facing message for provider failures.
const MsgFailed = "Translation failed"

const op = "translate.Translate"

// Style selects the register of the translation.
type Style string

const (
	StyleFormal   Style = "formal"
	StyleInformal Style = "informal"
)

// ParseStyle parses a request style. Empty selects formal; "casual" is
// accepted as an alias for informal.
func ParseStyle(s string) (Style, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(StyleFormal):
		return StyleFormal, true
	case string(StyleInformal), "casual":
		return StyleInformal, true
	default:
		return "", false
	}
}

func (s Style) tone() string {
	if s == StyleInformal {
		return "casual and conversational"
	}
	return "formal and professional"
}

// Request is one translation.
type Request struct {
	Text   string
	Target string
	// Source is optional. When it names the same language as Target the
	// text is returned unchanged.
	Source string
	Style  Style
}

// Result is a completed translation.
type Result struct {
	TranslatedText string
	LatencyMs      int64
	Provider       string
}

// Completion is the provider-level call: a system instruction plus the text.
type Completion struct {
	System      string
	Text        string
	Temperature float32
}

// Provider defines the interface for translation providers.
type Provider interface {
	// Name returns the provider identifier used in logs and metrics.
	Name() string

	// Complete returns the model output for one completion.
	Complete(ctx context.Context, c Completion) (string, error)
}

var providerLabels = map[string]string{
	"openai": "OpenAI",
	"mock":   "Mock",
}

// Stage turns text into the target language through a Provider.
type Stage struct {
	provider Provider
	log      zerolog.Logger
}

// NewStage creates a translation stage over provider.
func NewStage(provider Provider) *Stage {
	return &Stage{
		provider: provider,
		log:      logging.WithStage("translate", provider.Name()),
	}
}

// Provider returns the display label of the provider, e.g. "OpenAI".
func (s *Stage) Provider() string {
	if label, ok := providerLabels[s.provider.Name()]; ok {
		return label
	}
	return s.provider.Name()
}

// Translate issues a single completion and returns the trimmed output with
// the wall-clock latency of the call. Failures are not retried.
func (s *Stage) Translate(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.Target) == "" {
		return Result{}, apperr.New(apperr.KindValidation, op, "Missing required fields: text and target")
	}
	if req.Source != "" && lang.Same(req.Source, req.Target) {
		return Result{TranslatedText: req.Text, Provider: s.Provider()}, nil
	}

	start := time.Now()
	out, err := s.provider.Complete(ctx, Completion{
		System:      SystemPrompt(req.Source, req.Target, req.Style),
		Text:        req.Text,
		Temperature: Temperature,
	})
	elapsed := time.Since(start)

	if err != nil {
		err = apperr.Wrap(apperr.KindTranslation, op, MsgFailed, err)
		metrics.DefaultMetrics.RecordStage("translate", s.provider.Name(), err, elapsed.Seconds())
		s.log.Warn().
			Err(err).
			Str("target", req.Target).
			Dur("latency", elapsed).
			Msg("Translation failed")
		return Result{}, err
	}
	metrics.DefaultMetrics.RecordStage("translate", s.provider.Name(), nil, elapsed.Seconds())

	s.log.Debug().
		Str("source", req.Source).
		Str("target", req.Target).
		Str("style", string(req.Style)).
		Dur("latency", elapsed).
		Msg("Translation complete")

	return Result{
		TranslatedText: strings.TrimSpace(out),
		LatencyMs:      elapsed.Milliseconds(),
		Provider:       s.Provider(),
	}, nil
}

// SystemPrompt builds the translator instruction. Unknown language codes
// are used verbatim.
func SystemPrompt(source, target string, style Style) string {
	from := "the given text"
	if source != "" {
		from = "the given " + lang.DisplayName(source) + " text"
	}
	return fmt.Sprintf(
		"You are a professional translator. Translate %s to %s. "+
			"Use a %s tone. Maintain the original meaning and context. "+
			"Return ONLY the translated text, without any explanations or additional commentary.",
		from, lang.DisplayName(target), style.tone(),
	)
}
