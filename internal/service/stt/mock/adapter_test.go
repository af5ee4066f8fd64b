package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"voice-translate-service/internal/service/stt"
)

func TestAdapter_New(t *testing.T) {
	adapter := New()
	if adapter == nil {
		t.Fatal("expected non-nil adapter")
	}
	if adapter.Name() != "mock" {
		t.Errorf("expected name 'mock', got %s", adapter.Name())
	}
	if len(adapter.Requests()) != 0 {
		t.Error("expected no requests initially")
	}
}

func TestAdapter_CyclesUtterances(t *testing.T) {
	adapter := NewWithUtterances("one", "two")
	adapter.Delay = 0

	var got []string
	for i := 0; i < 3; i++ {
		text, err := adapter.Transcribe(context.Background(), stt.Request{Audio: []byte("audio")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, text)
	}

	want := []string{"one", "two", "one"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("utterance %d = %q, want %q", i, got[i], want[i])
		}
	}
	if n := len(adapter.Requests()); n != 3 {
		t.Errorf("expected 3 recorded requests, got %d", n)
	}
}

func TestAdapter_ReturnsConfiguredError(t *testing.T) {
	adapter := New()
	adapter.Delay = 0
	adapter.Err = stt.ErrQuotaExceeded

	_, err := adapter.Transcribe(context.Background(), stt.Request{Audio: []byte("audio")})
	if !errors.Is(err, stt.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestAdapter_HonoursCancellation(t *testing.T) {
	adapter := New()
	adapter.Delay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := adapter.Transcribe(ctx, stt.Request{Audio: []byte("audio")})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
