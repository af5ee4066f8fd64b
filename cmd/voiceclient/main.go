// Command voiceclient replays an audio file through a recording session and
// translates the finished take against a running service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"voice-translate-service/internal/audio"
	"voice-translate-service/internal/client"
	"voice-translate-service/internal/models"
	"voice-translate-service/internal/observability/logging"
	"voice-translate-service/internal/pipeline"
	"voice-translate-service/internal/recording"
	"voice-translate-service/internal/service/translate"
)

// Replay at 16 KiB per 250ms, roughly real time for 64 kbps Opus.
const (
	chunkSize = 16 * 1024
	timeslice = 250 * time.Millisecond
)

func main() {
	audioFile := flag.String("audio", "testdata/sample.webm", "Path to an audio file (webm, wav, mp3, m4a)")
	serverURL := flag.String("server", "http://localhost:8080", "Service base URL")
	source := flag.String("source", "", "Source language code (optional)")
	target := flag.String("target", "fr", "Target language code")
	styleFlag := flag.String("style", "formal", "Translation style: formal or informal")
	out := flag.String("out", "translation.mp3", "Where to write the synthesized audio")
	maxDuration := flag.Duration("max-duration", recording.DefaultMaxDuration, "Maximum recording length")
	bookmark := flag.String("bookmark", "", "Bookmark the result under this category")
	direct := flag.Bool("direct", false, "Use the single-call /voice-translate endpoint")
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Format: "console"})

	style, ok := translate.ParseStyle(*styleFlag)
	if !ok {
		log.Fatal().Str("style", *styleFlag).Msg("Unknown style")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blob, session, err := record(ctx, *audioFile, *maxDuration)
	if err != nil {
		log.Fatal().Err(err).Msg("Recording failed")
	}
	// The take is handed off; release the session whatever happens next.
	defer func() { _ = session.Acknowledge() }()

	log.Info().
		Str("take", blob.ID()).
		Str("format", string(blob.ResolvedFormat())).
		Int("bytes", blob.Len()).
		Msg("Recording complete")

	c := client.New(*serverURL, 0)

	if *direct {
		res, err := c.VoiceTranslate(ctx, blob, *source, *target, style)
		if err != nil {
			log.Fatal().Err(err).Msg("Voice translation failed")
		}
		fmt.Printf("%s\n→ %s\n", res.SourceText, res.TranslatedText)
		return
	}

	res, err := pipeline.New(c, c, c).Run(ctx, pipeline.Input{
		Audio:  blob,
		Source: *source,
		Target: *target,
		Style:  style,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Translation failed")
	}

	if res.Audio != nil {
		if err := os.WriteFile(*out, res.Audio, 0o644); err != nil {
			log.Fatal().Err(err).Str("path", *out).Msg("Failed to write audio")
		}
		log.Info().Str("path", *out).Int("bytes", len(res.Audio)).Msg("Wrote synthesized audio")
	} else {
		log.Warn().Err(res.SynthesisErr).Msg("No audio produced")
	}

	now := time.Now()
	speaker := models.SpeakerA
	printJSON("history", res.Entry)
	printJSON("conversation", []models.ConversationMessage{
		models.NewConversationMessage(speaker, res.SourceText, res.TranslatedText, *source, now),
		models.NewConversationMessage(speaker.Other(), res.TranslatedText, res.SourceText, *target, now),
	})
	if *bookmark != "" {
		printJSON("bookmark", res.Entry.Bookmark(*bookmark, "", now))
	}
	printJSON("timings", res.Timings)
}

// record replays path through a Session and waits for the finished take.
// The session stops itself when the file is drained or maxDuration elapses.
func record(ctx context.Context, path string, maxDuration time.Duration) (audio.Blob, *recording.Session, error) {
	device, err := recording.NewFileDevice(path)
	if err != nil {
		return audio.Blob{}, nil, err
	}
	device.ChunkSize = chunkSize

	done := make(chan audio.Blob, 1)
	session := recording.NewSession(device, recording.Options{
		ID:          "voiceclient",
		MaxDuration: maxDuration,
		Timeslice:   timeslice,
		OnDuration: func(d time.Duration) {
			log.Debug().Dur("elapsed", d).Msg("Recording")
		},
		OnComplete: func(b audio.Blob) { done <- b },
	})
	device.OnDrained = func() { _ = session.Stop() }

	if err := session.Start(ctx); err != nil {
		return audio.Blob{}, nil, err
	}
	log.Info().Str("session", session.ID()).Str("file", path).Msg("Recording started")

	select {
	case b := <-done:
		return b, session, nil
	case <-ctx.Done():
		session.Reset()
		return audio.Blob{}, nil, ctx.Err()
	}
}

func printJSON(label string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Str("label", label).Msg("Failed to encode")
		return
	}
	fmt.Printf("%s:\n%s\n", label, data)
}
