// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"voice-translate-service/internal/audio"
	"voice-translate-service/internal/lang"
	"voice-translate-service/internal/service/stt"
)

// Config holds Google STT configuration.
type Config struct {
	// CredentialsFile is a service account key. Empty uses Application
	// Default Credentials (GOOGLE_APPLICATION_CREDENTIALS).
	CredentialsFile string
	// Endpoint overrides the API endpoint.
	Endpoint string
	// LanguageCode is used when the request carries no language hint.
	LanguageCode string
	// SampleRateHz is sent for Opus input; WAV headers carry their own rate.
	SampleRateHz int
	// AudioEncoding forces an encoding name (e.g. "WEBM_OPUS"). Empty derives
	// it from the sniffed format.
	AudioEncoding string
	// Model selects a recognition model such as "latest_short". Optional.
	Model string
}

// DefaultConfig returns sensible defaults for Google STT.
func DefaultConfig() Config {
	return Config{
		LanguageCode: "en-US",
		SampleRateHz: 16000,
	}
}

// recognizer is the slice of the Speech client the adapter uses.
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	Close() error
}

type clientRecognizer struct {
	client *speech.Client
}

func (c clientRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return c.client.Recognize(ctx, req)
}

func (c clientRecognizer) Close() error { return c.client.Close() }

// Adapter implements stt.Provider using synchronous recognition.
type Adapter struct {
	client recognizer
	cfg    Config
}

// New creates a new Google STT adapter.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return newWithRecognizer(clientRecognizer{client: c}, cfg), nil
}

func newWithRecognizer(r recognizer, cfg Config) *Adapter {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = DefaultConfig().LanguageCode
	}
	return &Adapter{client: r, cfg: cfg}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string { return "google" }

// Transcribe sends the whole recording in one Recognize call and joins the
// top alternative of every result.
func (a *Adapter) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	config, err := a.recognitionConfig(req)
	if err != nil {
		return "", err
	}

	resp, err := a.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: config,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: req.Audio},
		},
	})
	if err != nil {
		return "", classify(err)
	}

	parts := make([]string, 0, len(resp.GetResults()))
	for _, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		if t := strings.TrimSpace(r.GetAlternatives()[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

func (a *Adapter) recognitionConfig(req stt.Request) (*speechpb.RecognitionConfig, error) {
	encoding := parseAudioEncoding(a.cfg.AudioEncoding)
	if a.cfg.AudioEncoding == "" {
		var ok bool
		encoding, ok = encodingFor(req.Format)
		if !ok {
			return nil, fmt.Errorf("%w: google recognizer cannot decode %s", stt.ErrInvalidFormat, req.Format)
		}
	}

	languageCode := a.cfg.LanguageCode
	if req.Language != "" {
		languageCode = lang.Locale(req.Language)
	}

	config := &speechpb.RecognitionConfig{
		Encoding:                   encoding,
		LanguageCode:               languageCode,
		EnableAutomaticPunctuation: true,
		Model:                      a.cfg.Model,
	}
	if encoding == speechpb.RecognitionConfig_WEBM_OPUS || encoding == speechpb.RecognitionConfig_OGG_OPUS {
		config.SampleRateHertz = int32(a.cfg.SampleRateHz)
	}
	if req.Prompt != "" {
		config.SpeechContexts = []*speechpb.SpeechContext{{Phrases: []string{req.Prompt}}}
	}
	return config, nil
}

// encodingFor maps a sniffed container to a recognizer encoding. MP3 and
// M4A are not accepted by the v1 synchronous API.
func encodingFor(f audio.Format) (speechpb.RecognitionConfig_AudioEncoding, bool) {
	switch f {
	case audio.FormatWebM, "":
		return speechpb.RecognitionConfig_WEBM_OPUS, true
	case audio.FormatWAV:
		return speechpb.RecognitionConfig_LINEAR16, true
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, false
	}
}

// parseAudioEncoding converts an encoding name to the protobuf enum.
// Unknown names fall back to LINEAR16.
func parseAudioEncoding(name string) speechpb.RecognitionConfig_AudioEncoding {
	if v, ok := speechpb.RecognitionConfig_AudioEncoding_value[name]; ok && name != "ENCODING_UNSPECIFIED" {
		return speechpb.RecognitionConfig_AudioEncoding(v)
	}
	return speechpb.RecognitionConfig_LINEAR16
}

func classify(err error) error {
	switch status.Code(err) {
	case codes.ResourceExhausted:
		return fmt.Errorf("%w: %w", stt.ErrRateLimited, err)
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %w", stt.ErrInvalidFormat, err)
	default:
		return err
	}
}
