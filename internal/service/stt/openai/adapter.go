// Package openai provides an OpenAI Whisper speech-to-text adapter.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-translate-service/internal/service/stt"
)

// Config holds Whisper adapter configuration.
type Config struct {
	APIKey string
	// BaseURL overrides the API root, e.g. for a proxy or tests.
	BaseURL string
	Model   string
}

// DefaultConfig returns the whisper-1 configuration without credentials.
func DefaultConfig() Config {
	return Config{Model: goopenai.Whisper1}
}

// Adapter implements stt.Provider using the OpenAI transcription endpoint.
type Adapter struct {
	client *goopenai.Client
	model  string
}

// New creates a Whisper adapter.
func New(cfg Config) *Adapter {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = goopenai.Whisper1
	}
	return &Adapter{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string { return "openai" }

// Transcribe uploads the recording and returns the transcript text. The
// encoding travels as the upload filename extension.
func (a *Adapter) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	filename := req.Filename
	if filename == "" {
		filename = "audio." + req.Format.Extension()
	}

	resp, err := a.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:       a.model,
		FilePath:    filename,
		Reader:      bytes.NewReader(req.Audio),
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		Language:    req.Language,
		Format:      goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", classify(err)
	}
	return resp.Text, nil
}

// classify wraps provider errors with the stt sentinel matching the HTTP
// status and error code OpenAI reported.
func classify(err error) error {
	status, code := 0, ""

	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		code = apiErr.Type
		if c, ok := apiErr.Code.(string); ok && c != "" {
			code = c
		}
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return err
	}

	switch {
	case status == http.StatusTooManyRequests && code == "insufficient_quota":
		return fmt.Errorf("%w: %w", stt.ErrQuotaExceeded, err)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", stt.ErrRateLimited, err)
	case status == http.StatusBadRequest, status == http.StatusUnsupportedMediaType:
		return fmt.Errorf("%w: %w", stt.ErrInvalidFormat, err)
	default:
		return err
	}
}
