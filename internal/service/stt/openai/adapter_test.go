package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voice-translate-service/internal/audio"
	"voice-translate-service/internal/service/stt"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
}

func writeAPIError(w http.ResponseWriter, status int, typ, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": "provider error",
			"type":    typ,
			"code":    code,
		},
	})
}

func TestTranscribe_Success(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("language"); got != "fr" {
			t.Errorf("language = %q", got)
		}
		if got := r.FormValue("prompt"); got != "greetings" {
			t.Errorf("prompt = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "audio.webm" {
			t.Errorf("filename = %q", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if len(data) != 4 {
			t.Errorf("uploaded %d bytes, want 4", len(data))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": " Bonjour "})
	})

	text, err := a.Transcribe(context.Background(), stt.Request{
		Audio:    []byte{0x1A, 0x45, 0xDF, 0xA3},
		Format:   audio.FormatWebM,
		Filename: "audio.webm",
		Language: "fr",
		Prompt:   "greetings",
	})
	if err != nil {
		t.Fatalf("Transcribe() failed: %v", err)
	}
	if text != " Bonjour " {
		t.Errorf("text = %q, adapter must not trim", text)
	}
}

func TestTranscribe_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		typ      string
		code     string
		expected error
	}{
		{"quota", http.StatusTooManyRequests, "insufficient_quota", "insufficient_quota", stt.ErrQuotaExceeded},
		{"rate limit", http.StatusTooManyRequests, "requests", "rate_limit_exceeded", stt.ErrRateLimited},
		{"bad format", http.StatusBadRequest, "invalid_request_error", "", stt.ErrInvalidFormat},
		{"unsupported media", http.StatusUnsupportedMediaType, "invalid_request_error", "", stt.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				writeAPIError(w, tt.status, tt.typ, tt.code)
			})

			_, err := a.Transcribe(context.Background(), stt.Request{Audio: []byte{1}, Format: audio.FormatWAV})
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestTranscribe_ServerErrorIsUnclassified(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusInternalServerError, "server_error", "")
	})

	_, err := a.Transcribe(context.Background(), stt.Request{Audio: []byte{1}, Format: audio.FormatWAV})
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, sentinel := range []error{stt.ErrQuotaExceeded, stt.ErrRateLimited, stt.ErrInvalidFormat} {
		if errors.Is(err, sentinel) {
			t.Errorf("500 must not classify as %v", sentinel)
		}
	}
}

func TestTranscribe_DefaultsFilenameFromFormat(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		if header.Filename != "audio.mp3" {
			t.Errorf("filename = %q, want audio.mp3", header.Filename)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "ok"})
	})

	if _, err := a.Transcribe(context.Background(), stt.Request{Audio: []byte{1}, Format: audio.FormatMP3}); err != nil {
		t.Fatalf("Transcribe() failed: %v", err)
	}
}

func TestName(t *testing.T) {
	if New(DefaultConfig()).Name() != "openai" {
		t.Error("unexpected provider name")
	}
}
