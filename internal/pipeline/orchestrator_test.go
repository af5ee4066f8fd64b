package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-translate-service/internal/apperr"
	"voice-translate-service/internal/audio"
	"voice-translate-service/internal/models"
	"voice-translate-service/internal/service/stt"
	"voice-translate-service/internal/service/translate"
)

type fakeSTT struct {
	text  string
	err   error
	calls int
	opts  stt.Options
	block bool
}

func (f *fakeSTT) Transcribe(ctx context.Context, blob audio.Blob, opts stt.Options) (string, error) {
	f.calls++
	f.opts = opts
	if f.block {
		<-ctx.Done()
		return "", apperr.Wrap(apperr.KindTranscription, "stt", "Speech-to-text conversion failed", ctx.Err())
	}
	return f.text, f.err
}

type fakeTranslator struct {
	out   string
	err   error
	calls int
	req   translate.Request
}

func (f *fakeTranslator) Translate(ctx context.Context, req translate.Request) (translate.Result, error) {
	f.calls++
	f.req = req
	if f.err != nil {
		return translate.Result{}, f.err
	}
	return translate.Result{TranslatedText: f.out, LatencyMs: 1, Provider: "OpenAI"}, nil
}

type fakeTTS struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeTTS) Synthesize(ctx context.Context, text, target string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

type fakeSink struct {
	mu     sync.Mutex
	events []models.TranslationCompleted
	err    error
}

func (f *fakeSink) PublishTranslationCompleted(ctx context.Context, ev models.TranslationCompleted) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

var recording = audio.NewBlob([]byte{0x1A, 0x45, 0xDF, 0xA3, 1, 2, 3, 4, 5, 6, 7, 8}, audio.FormatWebM)

func TestRun_VoiceFlowSuccess(t *testing.T) {
	s := &fakeSTT{text: " Hello "}
	tr := &fakeTranslator{out: "Bonjour"}
	sy := &fakeTTS{data: []byte{0xFF, 0xFB}}
	sink := &fakeSink{}
	o := New(s, tr, sy, WithEventSink(sink))

	res, err := o.Run(context.Background(), Input{Audio: recording, Source: "en", Target: "fr", Prompt: "greeting"})
	require.NoError(t, err)

	assert.Equal(t, "Hello", res.SourceText)
	assert.Equal(t, "Bonjour", res.TranslatedText)
	assert.Equal(t, []byte{0xFF, 0xFB}, res.Audio)
	assert.NoError(t, res.SynthesisErr)
	assert.Equal(t, "en", s.opts.Language)
	assert.Equal(t, "greeting", s.opts.Prompt)
	assert.Equal(t, translate.StyleFormal, tr.req.Style, "style defaults to formal")
	assert.Equal(t, "Hello", tr.req.Text)

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, models.FlowVoice, ev.Flow)
	assert.True(t, ev.AudioAvailable)
	assert.Equal(t, res.Entry.ID, ev.Entry.ID)
}

func TestRun_VoiceFlowTranscriptionLanguage(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"default when source omitted", "", "en"},
		{"explicit source wins", "fr", "fr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSTT{text: "Hola"}
			tr := &fakeTranslator{out: "Hi"}
			o := New(s, tr, &fakeTTS{data: []byte{0xFF}}, WithTranscriptionLanguage("en"))

			_, err := o.Run(context.Background(), Input{Audio: recording, Source: tt.source, Target: "es"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.opts.Language)
			assert.Equal(t, tt.source, tr.req.Source)
		})
	}
}

func TestRun_TextFlowSkipsTranscription(t *testing.T) {
	s := &fakeSTT{text: "unused"}
	tr := &fakeTranslator{out: "Hola"}
	o := New(s, tr, &fakeTTS{data: []byte{1}})

	res, err := o.Run(context.Background(), Input{Text: "  Hello ", Target: "es", Style: translate.StyleInformal})
	require.NoError(t, err)

	assert.Zero(t, s.calls)
	assert.Equal(t, "Hello", res.SourceText)
	assert.Equal(t, "Hola", res.TranslatedText)
	assert.Equal(t, translate.StyleInformal, tr.req.Style)
	assert.Zero(t, res.Timings.TranscribeMs)
}

func TestRun_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   Input
		message string
	}{
		{"no audio or text", Input{Target: "fr"}, MsgMissingAudioFields},
		{"voice without target", Input{Audio: recording}, MsgMissingAudioFields},
		{"blank text", Input{Text: "   ", Target: "fr"}, MsgMissingTextFields},
		{"text without target", Input{Text: "Hello"}, MsgMissingTextFields},
		{"same language", Input{Text: "Hello", Source: "en", Target: "en"}, MsgSameLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, tr, sy := &fakeSTT{text: "x"}, &fakeTranslator{out: "y"}, &fakeTTS{data: []byte{1}}
			_, err := New(s, tr, sy).Run(context.Background(), tt.input)

			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, tt.message, apperr.Message(err))
			assert.Zero(t, s.calls+tr.calls+sy.calls, "no stage may run")
		})
	}
}

func TestRun_TranscriptionFailureAborts(t *testing.T) {
	cause := apperr.New(apperr.KindQuota, "stt", "OpenAI API quota exceeded. Please check your billing")
	tr := &fakeTranslator{out: "x"}
	_, err := New(&fakeSTT{err: cause}, tr, &fakeTTS{}).Run(context.Background(), Input{Audio: recording, Target: "fr"})

	require.Error(t, err)
	assert.Equal(t, apperr.KindQuota, apperr.KindOf(err))
	assert.Zero(t, tr.calls)
}

func TestRun_EmptyTranscriptIsNoSpeech(t *testing.T) {
	tr := &fakeTranslator{out: "x"}
	_, err := New(&fakeSTT{text: "  \n"}, tr, &fakeTTS{}).Run(context.Background(), Input{Audio: recording, Target: "fr"})

	require.Error(t, err)
	assert.Equal(t, apperr.KindNoSpeech, apperr.KindOf(err))
	assert.Equal(t, MsgNoSpeech, apperr.Message(err))
	assert.Zero(t, tr.calls, "translate must not run without speech")
}

func TestRun_TranslationFailureKeepsTranscript(t *testing.T) {
	sink := &fakeSink{}
	sy := &fakeTTS{data: []byte{1}}
	tr := &fakeTranslator{err: apperr.New(apperr.KindTranslation, "translate", "Translation failed")}

	res, err := New(&fakeSTT{text: "Good morning"}, tr, sy, WithEventSink(sink)).
		Run(context.Background(), Input{Audio: recording, Target: "yo"})

	require.Error(t, err)
	assert.Equal(t, apperr.KindTranslation, apperr.KindOf(err))
	assert.Equal(t, "Good morning", res.SourceText, "transcript survives a translation failure")
	assert.Empty(t, res.TranslatedText)
	assert.Zero(t, sy.calls)
	assert.Empty(t, sink.events)
}

func TestRun_SynthesisFailureIsSwallowed(t *testing.T) {
	synthErr := apperr.New(apperr.KindVoiceNotConfigured, "tts", "No voice ID configured for language: en")
	sink := &fakeSink{}

	res, err := New(&fakeSTT{}, &fakeTranslator{out: "Hello"}, &fakeTTS{err: synthErr}, WithEventSink(sink)).
		Run(context.Background(), Input{Text: "Bonjour", Source: "fr", Target: "en"})

	require.NoError(t, err)
	assert.Equal(t, "Hello", res.TranslatedText)
	assert.Nil(t, res.Audio)
	assert.ErrorIs(t, res.SynthesisErr, synthErr)
	require.Len(t, sink.events, 1)
	assert.False(t, sink.events[0].AudioAvailable)
}

func TestRun_RequireAudioFailsOnSynthesisError(t *testing.T) {
	synthErr := apperr.New(apperr.KindSynthesis, "tts", "Text-to-speech conversion failed")
	sink := &fakeSink{}

	res, err := New(&fakeSTT{text: "Hello"}, &fakeTranslator{out: "Bonjour"}, &fakeTTS{err: synthErr}, WithEventSink(sink)).
		Run(context.Background(), Input{Audio: recording, Target: "fr", RequireAudio: true})

	require.Error(t, err)
	assert.Equal(t, apperr.KindSynthesis, apperr.KindOf(err))
	assert.Equal(t, "Hello", res.SourceText)
	assert.Equal(t, "Bonjour", res.TranslatedText)
	assert.Empty(t, sink.events)
}

func TestRun_PublishFailureDoesNotFailRun(t *testing.T) {
	sink := &fakeSink{err: errors.New("broker down")}
	_, err := New(&fakeSTT{}, &fakeTranslator{out: "Hola"}, &fakeTTS{data: []byte{1}}, WithEventSink(sink)).
		Run(context.Background(), Input{Text: "Hello", Target: "es"})

	require.NoError(t, err)
	assert.Len(t, sink.events, 1)
}

func TestRun_StageTimeoutCancelsInFlightStage(t *testing.T) {
	s := &fakeSTT{block: true}
	tr := &fakeTranslator{out: "x"}
	o := New(s, tr, &fakeTTS{}, WithStageTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := o.Run(context.Background(), Input{Audio: recording, Target: "fr"})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Zero(t, tr.calls)
}

func TestRun_CallerCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&fakeSTT{block: true}, &fakeTranslator{}, &fakeTTS{}).
		Run(ctx, Input{Audio: recording, Target: "fr"})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_EntryUsesClock(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	res, err := New(&fakeSTT{}, &fakeTranslator{out: "Hola"}, &fakeTTS{data: []byte{1}}, WithClock(func() time.Time { return fixed })).
		Run(context.Background(), Input{Text: "Hello", Source: "en", Target: "es"})

	require.NoError(t, err)
	assert.Equal(t, fixed.UnixMilli(), res.Entry.Timestamp)
	assert.Equal(t, "en", res.Entry.SourceLanguage)
	assert.Equal(t, "es", res.Entry.TargetLanguage)
	assert.NotEmpty(t, res.RunID)
}

func TestInput_Flow(t *testing.T) {
	assert.Equal(t, models.FlowVoice, Input{Audio: recording}.Flow())
	assert.Equal(t, models.FlowVoice, Input{Audio: recording, Text: "ignored"}.Flow())
	assert.Equal(t, models.FlowText, Input{Text: "Hello"}.Flow())
	assert.Equal(t, models.FlowVoice, Input{}.Flow())
}
