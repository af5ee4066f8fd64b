package tts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"voice-translate-service/internal/apperr"
)

type fakeProvider struct {
	stream io.ReadCloser
	err    error
	calls  int
	last   Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Synthesize(ctx context.Context, req Request) (io.ReadCloser, error) {
	f.calls++
	f.last = req
	return f.stream, f.err
}

// chunkedReader delivers its payload in pieces and optionally fails at the end.
type chunkedReader struct {
	chunks [][]byte
	err    error
	closed bool
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if len(r.chunks[0]) == 0 {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func (r *chunkedReader) Close() error {
	r.closed = true
	return nil
}

func TestDefaultVoices(t *testing.T) {
	voices := DefaultVoices()
	tests := []struct {
		code     string
		expected string
	}{
		{"fr", "Xb7hH8MSUJpSbSDYk0k2"},
		{"es", "GBv7mTt0atIp3Br8iCZE"},
		{"yo", "pNInz6obpgDQGcFmaJgB"},
		{"rw", "nPczCjzI2devNBz1zQrb"},
	}
	for _, tt := range tests {
		if voices[tt.code] != tt.expected {
			t.Errorf("voice for %s = %q, want %q", tt.code, voices[tt.code], tt.expected)
		}
	}
	if _, ok := voices["en"]; ok {
		t.Error("english must not have a default voice")
	}
}

func TestSynthesize_AccumulatesStream(t *testing.T) {
	stream := &chunkedReader{chunks: [][]byte{{0xFF, 0xFB}, {0x90, 0x64}, {0x00}}}
	p := &fakeProvider{stream: stream}
	s := NewStage(p, nil)

	data, err := s.Synthesize(context.Background(), "Bonjour", "fr")
	if err != nil {
		t.Fatalf("Synthesize() failed: %v", err)
	}
	if !bytes.Equal(data, []byte{0xFF, 0xFB, 0x90, 0x64, 0x00}) {
		t.Errorf("data = %x", data)
	}
	if !stream.closed {
		t.Error("expected the stream to be closed")
	}
	if p.last.VoiceID != "Xb7hH8MSUJpSbSDYk0k2" || p.last.OutputFormat != OutputFormat || p.last.ModelID != ModelID {
		t.Errorf("request = %+v", p.last)
	}
}

func TestSynthesize_PartialStreamYieldsNoAudio(t *testing.T) {
	stream := &chunkedReader{chunks: [][]byte{{0xFF, 0xFB}}, err: errors.New("connection reset")}
	s := NewStage(&fakeProvider{stream: stream}, nil)

	data, err := s.Synthesize(context.Background(), "Bonjour", "fr")
	if !apperr.Is(err, apperr.KindSynthesis) {
		t.Fatalf("expected synthesis error, got %v", err)
	}
	if data != nil {
		t.Error("a failed stream must not return partial audio")
	}
}

func TestSynthesize_VoiceNotConfigured(t *testing.T) {
	p := &fakeProvider{}
	s := NewStage(p, nil)

	for _, code := range []string{"xx", "en"} {
		_, err := s.Synthesize(context.Background(), "Bonjour", code)
		if !apperr.Is(err, apperr.KindVoiceNotConfigured) {
			t.Fatalf("%s: expected voice_not_configured, got %v", code, err)
		}
		if want := "No voice ID configured for language: " + code; apperr.Message(err) != want {
			t.Errorf("message = %q, want %q", apperr.Message(err), want)
		}
	}
	if p.calls != 0 {
		t.Error("provider must not be called without a voice")
	}
}

func TestSynthesize_ConfiguredVoicesOverride(t *testing.T) {
	p := &fakeProvider{stream: io.NopCloser(bytes.NewReader([]byte{1}))}
	s := NewStage(p, map[string]string{"EN": "english-voice", "fr": ""})

	if _, err := s.Synthesize(context.Background(), "Hello", "en"); err != nil {
		t.Fatalf("Synthesize() failed: %v", err)
	}
	if p.last.VoiceID != "english-voice" {
		t.Errorf("voice = %q", p.last.VoiceID)
	}
	if _, ok := s.Voice("fr"); ok {
		t.Error("empty voice IDs must be ignored")
	}
}

func TestSynthesize_ProviderFailure(t *testing.T) {
	cause := errors.New("401 unauthorized")
	_, err := NewStage(&fakeProvider{err: cause}, nil).Synthesize(context.Background(), "Hola", "es")
	if !apperr.Is(err, apperr.KindSynthesis) || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped synthesis error, got %v", err)
	}
}

func TestSynthesize_EmptyStreamFails(t *testing.T) {
	p := &fakeProvider{stream: io.NopCloser(bytes.NewReader(nil))}
	if _, err := NewStage(p, nil).Synthesize(context.Background(), "Hola", "es"); !apperr.Is(err, apperr.KindSynthesis) {
		t.Fatalf("expected synthesis error for empty audio, got %v", err)
	}
}

func TestSynthesize_MissingText(t *testing.T) {
	p := &fakeProvider{}
	if _, err := NewStage(p, nil).Synthesize(context.Background(), " ", "fr"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
