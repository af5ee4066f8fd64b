package main

import (
	"context"
	"fmt"

	"voice-translate-service/internal/config"
	"voice-translate-service/internal/lang"
	"voice-translate-service/internal/service/stt"
	sttgoogle "voice-translate-service/internal/service/stt/google"
	sttmock "voice-translate-service/internal/service/stt/mock"
	sttopenai "voice-translate-service/internal/service/stt/openai"
	"voice-translate-service/internal/service/translate"
	translatemock "voice-translate-service/internal/service/translate/mock"
	translateopenai "voice-translate-service/internal/service/translate/openai"
	"voice-translate-service/internal/service/tts"
	"voice-translate-service/internal/service/tts/elevenlabs"
	ttsmock "voice-translate-service/internal/service/tts/mock"
)

// newSTTProvider builds the configured transcription provider. The returned
// close func releases provider connections.
func newSTTProvider(ctx context.Context, cfg *config.Config) (stt.Provider, func() error, error) {
	noop := func() error { return nil }

	switch cfg.STT.Provider {
	case config.ProviderOpenAI:
		return sttopenai.New(sttopenai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.TranscriptionModel,
		}), noop, nil
	case config.ProviderGoogle:
		gcfg := sttgoogle.DefaultConfig()
		gcfg.CredentialsFile = cfg.STT.CredentialsFile
		gcfg.LanguageCode = lang.Locale(cfg.STT.DefaultLanguage)
		gcfg.SampleRateHz = cfg.STT.SampleRateHz
		gcfg.AudioEncoding = cfg.STT.AudioEncoding
		gcfg.Model = cfg.STT.GoogleModel
		adapter, err := sttgoogle.New(ctx, gcfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create google stt: %w", err)
		}
		return adapter, adapter.Close, nil
	case config.ProviderMock:
		return sttmock.New(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown STT provider %q", cfg.STT.Provider)
	}
}

func newTranslateProvider(cfg *config.Config) (translate.Provider, error) {
	switch cfg.Translation.Provider {
	case config.ProviderOpenAI:
		return translateopenai.New(translateopenai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.TranslationModel,
		}), nil
	case config.ProviderMock:
		return translatemock.New(), nil
	default:
		return nil, fmt.Errorf("unknown translation provider %q", cfg.Translation.Provider)
	}
}

func newTTSProvider(cfg *config.Config) (tts.Provider, error) {
	switch cfg.TTS.Provider {
	case config.ProviderElevenLabs:
		return elevenlabs.New(elevenlabs.Config{
			APIKey:  cfg.ElevenLabs.APIKey,
			BaseURL: cfg.ElevenLabs.BaseURL,
			Timeout: cfg.TTS.Timeout,
		}), nil
	case config.ProviderMock:
		return ttsmock.New(), nil
	default:
		return nil, fmt.Errorf("unknown TTS provider %q", cfg.TTS.Provider)
	}
}
