package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	grpcapi "voice-translate-service/internal/api/grpc"
	"voice-translate-service/internal/app"
	"voice-translate-service/internal/config"
	"voice-translate-service/internal/events"
	httpapi "voice-translate-service/internal/http"
	"voice-translate-service/internal/observability"
	"voice-translate-service/internal/pipeline"
	"voice-translate-service/internal/service/stt"
	"voice-translate-service/internal/service/translate"
	"voice-translate-service/internal/service/tts"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg := config.Load()
	application := app.New(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sttProvider, closeSTT, err := newSTTProvider(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create STT provider")
	}
	translateProvider, err := newTranslateProvider(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create translation provider")
	}
	ttsProvider, err := newTTSProvider(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create TTS provider")
	}

	publisher := events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		Principal: cfg.Kafka.Principal,
	})
	defer publisher.Close()

	sttStage := stt.NewStage(sttProvider, stt.WithMaxBytes(cfg.STT.MaxAudioBytes))
	translateStage := translate.NewStage(translateProvider)
	ttsStage := tts.NewStage(ttsProvider, cfg.ElevenLabs.Voices)

	orchestrator := pipeline.New(sttStage, translateStage, ttsStage,
		pipeline.WithStageTimeout(cfg.Pipeline.StageTimeout),
		pipeline.WithTranscriptionLanguage(cfg.STT.DefaultLanguage),
		pipeline.WithEventSink(publisher),
	)

	handler := httpapi.NewHandler(sttStage, translateStage, ttsStage, orchestrator, httpapi.Options{
		DefaultLanguage: cfg.STT.DefaultLanguage,
		MaxAudioBytes:   cfg.STT.MaxAudioBytes,
		RequireAudio:    cfg.Pipeline.RequireAudioForVoiceTranslate,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           otelhttp.NewHandler(httpapi.NewRouter(handler, application, cfg.HTTP), "voice-translate-http"),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	metricsServer := observability.NewServer(":"+cfg.Observability.MetricsPort, application.Ready)
	metricsServer.Start()

	grpcServer := grpcapi.New()
	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.Service.GRPCPort).Msg("Failed to listen for gRPC")
	}
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("gRPC health server error")
		}
	}()

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("Voice translate HTTP API listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Application start failed")
	}
	grpcServer.SetServing(true)

	<-ctx.Done()

	application.Shutdown()
	grpcServer.SetServing(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown error")
	}
	grpcServer.Stop()
	if err := closeSTT(); err != nil {
		log.Error().Err(err).Msg("STT provider close error")
	}

	log.Info().Msg("Shutdown complete")
}
