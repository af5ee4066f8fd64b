// Command testclient runs smoke checks against a running service.
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"voice-translate-service/internal/apperr"
	"voice-translate-service/internal/audio"
	"voice-translate-service/internal/client"
	"voice-translate-service/internal/observability/logging"
	"voice-translate-service/internal/service/stt"
	"voice-translate-service/internal/service/translate"
)

type check struct {
	name string
	run  func(ctx context.Context, c *client.Client) error
}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "Service base URL")
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Format: "console"})

	c := client.New(*serverURL, 30*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	checks := []check{
		{"stt accepts a webm upload", func(ctx context.Context, c *client.Client) error {
			payload := make([]byte, 600)
			copy(payload, []byte{0x1A, 0x45, 0xDF, 0xA3})
			text, err := c.Transcribe(ctx, audio.NewBlob(payload, ""), stt.Options{Language: "en"})
			if err != nil {
				return err
			}
			log.Info().Str("text", text).Msg("Transcript")
			return nil
		}},
		{"translate returns text", func(ctx context.Context, c *client.Client) error {
			res, err := c.Translate(ctx, translate.Request{Text: "Hello", Target: "fr"})
			if err != nil {
				return err
			}
			if res.TranslatedText == "" {
				return apperr.New(apperr.KindTranslation, "testclient", "empty translation")
			}
			log.Info().Str("translated", res.TranslatedText).Str("provider", res.Provider).Msg("Translation")
			return nil
		}},
		{"translate rejects missing text", func(ctx context.Context, c *client.Client) error {
			_, err := c.Translate(ctx, translate.Request{Target: "fr"})
			return expectKind(err, apperr.KindValidation, "Missing required fields")
		}},
		{"tts rejects unconfigured voice", func(ctx context.Context, c *client.Client) error {
			_, err := c.Synthesize(ctx, "Bonjour", "xx")
			return expectKind(err, apperr.KindVoiceNotConfigured, "No voice ID configured")
		}},
	}

	failed := 0
	for _, chk := range checks {
		if err := chk.run(ctx, c); err != nil {
			failed++
			log.Error().Err(err).Str("check", chk.name).Msg("FAIL")
			continue
		}
		log.Info().Str("check", chk.name).Msg("PASS")
	}

	if failed > 0 {
		log.Error().Int("failed", failed).Int("total", len(checks)).Msg("Smoke checks failed")
		os.Exit(1)
	}
	log.Info().Int("total", len(checks)).Msg("All smoke checks passed")
}

// expectKind succeeds when err carries kind and a message containing want.
func expectKind(err error, kind apperr.Kind, want string) error {
	if err == nil {
		return apperr.New(kind, "testclient", "expected an error, got success")
	}
	if !apperr.Is(err, kind) || !strings.Contains(apperr.Message(err), want) {
		return err
	}
	return nil
}
