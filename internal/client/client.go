// Package client calls the translation HTTP API. Client satisfies the
// pipeline stage interfaces, so a local Orchestrator can drive a remote
// service stage by stage.
package client

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

	"voice-translate-service/internal/apperr"
	"voice-translate-service/internal/audio"
	"voice-translate-service/internal/lang"
	"voice-translate-service/internal/service/stt"
	"voice-translate-service/internal/service/translate"
)

// Client talks to one service instance.
type Client struct {
	baseURL string
	httpCli *http.Client
}

// New creates a client. A zero timeout uses 2 minutes, long enough for a
// full voice-translate run.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCli: &http.Client{Timeout: timeout},
	}
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Transcribe posts blob to /stt.
func (c *Client) Transcribe(ctx context.Context, blob audio.Blob, opts stt.Options) (string, error) {
	q := url.Values{}
	if opts.Language != "" {
		q.Set("language", opts.Language)
	}
	if opts.Prompt != "" {
		q.Set("prompt", opts.Prompt)
	}
	endpoint := c.baseURL + "/stt"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(blob.Bytes()))
	if err != nil {
		return "", fmt.Errorf("build stt request: %w", err)
	}
	req.Header.Set("Content-Type", audio.MimeType(blob.ResolvedFormat()))

	var out struct {
		Text string `json:"text"`
	}
	if err := c.do(req, "client.Transcribe", &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// Translate posts to /translate. LatencyMs is the server-measured provider
// latency.
func (c *Client) Translate(ctx context.Context, r translate.Request) (translate.Result, error) {
	body := map[string]string{"text": r.Text, "target": r.Target}
	if r.Source != "" {
		body["source"] = r.Source
	}
	if r.Style != "" {
		body["style"] = string(r.Style)
	}

	req, err := c.jsonRequest(ctx, "/translate", body)
	if err != nil {
		return translate.Result{}, err
	}
	var out struct {
		Translated string `json:"translated"`
		Provider   string `json:"provider"`
		LatencyMs  int64  `json:"latencyMs"`
	}
	if err := c.do(req, "client.Translate", &out); err != nil {
		return translate.Result{}, err
	}
	return translate.Result{
		TranslatedText: out.Translated,
		LatencyMs:      out.LatencyMs,
		Provider:       out.Provider,
	}, nil
}

// Synthesize posts to /tts and returns the mp3 bytes.
func (c *Client) Synthesize(ctx context.Context, text, target string) ([]byte, error) {
	req, err := c.jsonRequest(ctx, "/tts", map[string]string{"text": text, "language": target})
	if err != nil {
		return nil, err
	}
	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindSynthesis, "client.Synthesize", "Text-to-speech request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp, "client.Synthesize")
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindSynthesis, "client.Synthesize", "Failed to read audio", err)
	}
	return data, nil
}

// VoiceResult is the /voice-translate response.
type VoiceResult struct {
	SourceText     string `json:"sourceText"`
	TranslatedText string `json:"translatedText"`
	AudioURL       string `json:"audioUrl"`
}

// VoiceTranslate uploads blob to /voice-translate in one request.
func (c *Client) VoiceTranslate(ctx context.Context, blob audio.Blob, source, target string, style translate.Style) (VoiceResult, error) {
	body, contentType, err := voiceForm(blob, source, target, style)
	if err != nil {
		return VoiceResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/voice-translate", body)
	if err != nil {
		return VoiceResult{}, fmt.Errorf("build voice-translate request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	var out VoiceResult
	if err := c.do(req, "client.VoiceTranslate", &out); err != nil {
		return VoiceResult{}, err
	}
	return out, nil
}

// Language is one /languages entry.
type Language struct {
	lang.Info
	VoiceConfigured bool `json:"voiceConfigured"`
}

// Languages fetches the supported language catalogue.
func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/languages", nil)
	if err != nil {
		return nil, fmt.Errorf("build languages request: %w", err)
	}
	var out []Language
	if err := c.do(req, "client.Languages", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) jsonRequest(ctx context.Context, path string, body any) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s body: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends req and decodes a 200 JSON body into out. Error bodies become
// *apperr.Error carrying the server's kind.
func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpCli.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp, op)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func decodeError(resp *http.Response, op string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
		if body.Error == "" {
			body.Error = resp.Status
		}
	}
	kind := apperr.Kind(body.Kind)
	if kind == apperr.KindUnknown {
		kind = apperr.KindFromStatus(resp.StatusCode)
	}
	return apperr.Wrap(kind, op, body.Error, fmt.Errorf("status %d", resp.StatusCode))
}
