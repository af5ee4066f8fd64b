package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindInvalidInput, http.StatusBadRequest},
		{KindFormat, http.StatusBadRequest},
		{KindRateLimit, http.StatusTooManyRequests},
		{KindQuota, http.StatusTooManyRequests},
		{KindNoSpeech, http.StatusUnprocessableEntity},
		{KindTranscription, http.StatusInternalServerError},
		{KindTranslation, http.StatusInternalServerError},
		{KindSynthesis, http.StatusInternalServerError},
		{KindVoiceNotConfigured, http.StatusInternalServerError},
		{KindDevice, http.StatusInternalServerError},
		{KindUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := StatusCode(tt.kind); got != tt.expected {
				t.Errorf("StatusCode(%q) = %d, want %d", tt.kind, got, tt.expected)
			}
		})
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	base := New(KindQuota, "transcribe", "quota exceeded")
	wrapped := fmt.Errorf("stage: %w", base)

	if got := KindOf(wrapped); got != KindQuota {
		t.Errorf("KindOf = %q, want %q", got, KindQuota)
	}
	if !Is(wrapped, KindQuota) {
		t.Error("expected Is(wrapped, KindQuota)")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("expected KindUnknown for a plain error")
	}
	if Is(nil, KindUnknown) {
		t.Error("nil error must not match any kind")
	}
}

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindSynthesis, "synthesize", "TTS failed", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if Message(err) != "TTS failed" {
		t.Errorf("Message = %q", Message(err))
	}
	if err.Error() != "synthesize: TTS failed: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if Message(errors.New("raw")) != "raw" {
		t.Error("expected fallback to err.Error()")
	}
}

func TestKindFromStatus(t *testing.T) {
	if KindFromStatus(http.StatusTooManyRequests) != KindRateLimit {
		t.Error("429 should map to rate limit")
	}
	if KindFromStatus(http.StatusBadGateway) != KindUnknown {
		t.Error("502 should map to unknown")
	}
}
