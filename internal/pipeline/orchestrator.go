// Package pipeline runs one translation request through the stages:
//
//	Validate → Transcribe → Translate → Synthesize (best-effort) → Done
//
// Stages run strictly in sequence, each under its own deadline derived from
// the caller's context. Nothing is retried.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voice-translate-service/internal/apperr"
	"voice-translate-service/internal/audio"
	"voice-translate-service/internal/lang"
	"voice-translate-service/internal/models"
	"voice-translate-service/internal/observability/logging"
	"voice-translate-service/internal/observability/metrics"
	"voice-translate-service/internal/service/stt"
	"voice-translate-service/internal/service/translate"
)

// User-facing validation messages.
const (
	MsgMissingAudioFields = "Missing required fields: audio and target"
	MsgMissingTextFields  = "Missing required fields: text and target"
	MsgSameLanguage       = "Source and target languages must differ"
	MsgNoSpeech           = "No speech detected in the recording"
)

const op = "pipeline.Run"

// Transcriber is the transcription stage.
type Transcriber interface {
	Transcribe(ctx context.Context, blob audio.Blob, opts stt.Options) (string, error)
}

// Translator is the translation stage.
type Translator interface {
	Translate(ctx context.Context, req translate.Request) (translate.Result, error)
}

// Synthesizer is the speech synthesis stage.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, target string) ([]byte, error)
}

// EventSink receives completion events. Failures are logged, never
// returned to the caller.
type EventSink interface {
	PublishTranslationCompleted(ctx context.Context, event models.TranslationCompleted) error
}

// Input is one pipeline run. Audio selects the voice flow; otherwise Text
// enters the pipeline at Translate.
type Input struct {
	Audio  audio.Blob
	Text   string
	Source string
	Target string
	Style  translate.Style
	// Prompt biases transcription. Voice flow only.
	Prompt string
	// RequireAudio makes synthesis failure fail the run.
	RequireAudio bool
}

// Flow reports which entry point the input uses.
func (in Input) Flow() models.Flow {
	if !in.Audio.Empty() || in.Text == "" {
		return models.FlowVoice
	}
	return models.FlowText
}

// Result is the outcome of a run. On a translation failure SourceText is
// still populated.
type Result struct {
	RunID          string
	SourceText     string
	TranslatedText string
	// Audio is nil when synthesis failed and RequireAudio was false.
	Audio        []byte
	SynthesisErr error
	Timings      models.StageTimings
	Entry        models.HistoryEntry
}

// Orchestrator drives the stages.
type Orchestrator struct {
	stt          Transcriber
	translator   Translator
	tts          Synthesizer
	events       EventSink
	stageTimeout time.Duration
	sttLanguage  string
	now          func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStageTimeout bounds each stage. Zero leaves only the caller's deadline.
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.stageTimeout = d }
}

// WithEventSink publishes a translation.completed event after every
// successful run.
func WithEventSink(sink EventSink) Option {
	return func(o *Orchestrator) { o.events = sink }
}

// WithTranscriptionLanguage sets the transcription hint used when a voice
// run names no source language.
func WithTranscriptionLanguage(code string) Option {
	return func(o *Orchestrator) { o.sttLanguage = code }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator over the three stages.
func New(transcriber Transcriber, translator Translator, synthesizer Synthesizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		stt:        transcriber,
		translator: translator,
		tts:        synthesizer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one pipeline run.
func (o *Orchestrator) Run(ctx context.Context, in Input) (Result, error) {
	start := time.Now()
	flow := in.Flow()
	res := Result{RunID: uuid.NewString()}
	log := logging.WithRun(res.RunID, string(flow), in.Source, in.Target)

	err := o.run(ctx, in, flow, &res, log)

	outcome := "success"
	switch {
	case err != nil:
		outcome = string(apperr.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	case res.Audio == nil:
		outcome = "success_no_audio"
	}
	metrics.DefaultMetrics.RecordPipelineRun(string(flow), outcome, time.Since(start).Seconds())

	if err != nil {
		log.Warn().Err(err).Str("outcome", outcome).Dur("elapsed", time.Since(start)).Msg("Pipeline run failed")
		return res, err
	}
	log.Info().
		Str("outcome", outcome).
		Int("audioBytes", len(res.Audio)).
		Int64("transcribeMs", res.Timings.TranscribeMs).
		Int64("translateMs", res.Timings.TranslateMs).
		Int64("synthesizeMs", res.Timings.SynthesizeMs).
		Msg("Pipeline run complete")
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, in Input, flow models.Flow, res *Result, log zerolog.Logger) error {
	if err := validate(in, flow); err != nil {
		return err
	}
	style := in.Style
	if style == "" {
		style = translate.StyleFormal
	}

	// Transcribe
	if flow == models.FlowVoice {
		hint := in.Source
		if hint == "" {
			hint = o.sttLanguage
		}
		var text string
		var err error
		res.Timings.TranscribeMs = o.stage(ctx, func(ctx context.Context) {
			text, err = o.stt.Transcribe(ctx, in.Audio, stt.Options{Language: hint, Prompt: in.Prompt})
		})
		if err != nil {
			return err
		}
		if text = strings.TrimSpace(text); text == "" {
			return apperr.New(apperr.KindNoSpeech, op, MsgNoSpeech)
		}
		res.SourceText = text
	} else {
		res.SourceText = strings.TrimSpace(in.Text)
	}

	// Translate
	var tr translate.Result
	var err error
	res.Timings.TranslateMs = o.stage(ctx, func(ctx context.Context) {
		tr, err = o.translator.Translate(ctx, translate.Request{
			Text:   res.SourceText,
			Target: in.Target,
			Source: in.Source,
			Style:  style,
		})
	})
	if err != nil {
		return err
	}
	res.TranslatedText = tr.TranslatedText

	// Synthesize
	var data []byte
	res.Timings.SynthesizeMs = o.stage(ctx, func(ctx context.Context) {
		data, err = o.tts.Synthesize(ctx, res.TranslatedText, in.Target)
	})
	if err != nil {
		if in.RequireAudio {
			return err
		}
		res.SynthesisErr = err
		metrics.DefaultMetrics.RecordSynthesisSkipped(err)
		log.Warn().Err(err).Msg("Synthesis failed, returning text only")
	} else {
		res.Audio = data
	}

	res.Entry = models.NewHistoryEntry(res.SourceText, res.TranslatedText, in.Source, in.Target, o.now())
	o.publish(ctx, flow, string(style), res, log)
	return nil
}

// stage runs fn under the per-stage deadline and returns its duration in
// milliseconds.
func (o *Orchestrator) stage(ctx context.Context, fn func(ctx context.Context)) int64 {
	var cancel context.CancelFunc
	if o.stageTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, o.stageTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	start := time.Now()
	fn(ctx)
	return time.Since(start).Milliseconds()
}

func (o *Orchestrator) publish(ctx context.Context, flow models.Flow, style string, res *Result, log zerolog.Logger) {
	if o.events == nil {
		return
	}
	event := models.NewTranslationCompleted(flow, res.Entry, style, len(res.Audio), res.Timings)

	var err error
	o.stage(ctx, func(ctx context.Context) {
		err = o.events.PublishTranslationCompleted(ctx, event)
	})
	if err != nil {
		log.Error().Err(err).Str("eventId", event.EventID).Msg("Failed to publish translation event")
	}
}

func validate(in Input, flow models.Flow) error {
	target := strings.TrimSpace(in.Target)
	switch flow {
	case models.FlowVoice:
		if in.Audio.Empty() || target == "" {
			return apperr.New(apperr.KindValidation, op, MsgMissingAudioFields)
		}
	default:
		if strings.TrimSpace(in.Text) == "" || target == "" {
			return apperr.New(apperr.KindValidation, op, MsgMissingTextFields)
		}
	}
	if in.Source != "" && lang.Same(in.Source, in.Target) {
		return apperr.New(apperr.KindValidation, op, MsgSameLanguage)
	}
	return nil
}
