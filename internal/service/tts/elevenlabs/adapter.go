// Package elevenlabs provides an ElevenLabs text-to-speech adapter.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voice-translate-service/internal/service/tts"
)

// DefaultBaseURL is the public ElevenLabs API root.
const DefaultBaseURL = "https://api.elevenlabs.io"

// Config holds ElevenLabs configuration.
type Config struct {
	APIKey  string
	BaseURL string
	// Timeout bounds a whole synthesis including the body transfer.
	Timeout time.Duration
}

// APIError is a non-2xx response from ElevenLabs.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("elevenlabs error %d [%s]: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("elevenlabs error %d: %s", e.StatusCode, e.Message)
}

// Adapter implements tts.Provider over the ElevenLabs REST API.
type Adapter struct {
	apiKey  string
	baseURL string
	httpCli *http.Client
}

// New creates an ElevenLabs adapter.
func New(cfg Config) *Adapter {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Adapter{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(base, "/"),
		httpCli: &http.Client{Timeout: timeout},
	}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string { return "elevenlabs" }

type synthesisBody struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize posts the text and returns the audio response body.
func (a *Adapter) Synthesize(ctx context.Context, req tts.Request) (io.ReadCloser, error) {
	payload, err := json.Marshal(synthesisBody{Text: req.Text, ModelID: req.ModelID})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		a.baseURL, url.PathEscape(req.VoiceID), url.QueryEscape(req.OutputFormat))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("xi-api-key", a.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", tts.ContentType)

	resp, err := a.httpCli.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, parseError(resp.StatusCode, b)
	}
	return resp.Body, nil
}

// parseError reads the {"detail":{"status","message"}} envelope ElevenLabs
// uses for errors. Bodies in other shapes are reported verbatim.
func parseError(statusCode int, body []byte) error {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	apiErr := &APIError{StatusCode: statusCode, Message: strings.TrimSpace(string(body))}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return apiErr
	}

	var detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		apiErr.Status = detail.Status
		if detail.Message != "" {
			apiErr.Message = detail.Message
		}
		return apiErr
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil && text != "" {
		apiErr.Message = text
	}
	return apiErr
}
