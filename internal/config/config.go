// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"voice-translate-service/internal/lang"
	"voice-translate-service/internal/service/tts"
)

// Provider names.
const (
	ProviderOpenAI     = "openai"
	ProviderGoogle     = "google"
	ProviderElevenLabs = "elevenlabs"
	ProviderMock       = "mock"
)

// Config holds all service configuration.
type Config struct {
	Service       ServiceConfig
	OpenAI        OpenAIConfig
	ElevenLabs    ElevenLabsConfig
	STT           STTConfig
	Translation   TranslationConfig
	TTS           TTSConfig
	Pipeline      PipelineConfig
	Recording     RecordingConfig
	HTTP          HTTPConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the service and its listeners.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
	GRPCPort  string
	Env       string
}

// OpenAIConfig holds the credentials shared by Whisper and chat completion.
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	TranscriptionModel string
	TranslationModel   string
}

// ElevenLabsConfig holds synthesis credentials and voice identities.
type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string
	// Voices maps language codes to voice IDs: the built-in defaults
	// overlaid with ELEVENLABS_VOICE_ID_<CODE>.
	Voices map[string]string
}

// STTConfig selects and tunes the transcription provider.
type STTConfig struct {
	Provider        string
	DefaultLanguage string
	MaxAudioBytes   int
	SampleRateHz    int
	// AudioEncoding forces a Google encoding name; empty derives it.
	AudioEncoding   string
	CredentialsFile string
	GoogleModel     string
}

// TranslationConfig selects the translation provider.
type TranslationConfig struct {
	Provider string
}

// TTSConfig selects the synthesis provider.
type TTSConfig struct {
	Provider string
	Timeout  time.Duration
}

// PipelineConfig bounds pipeline runs.
type PipelineConfig struct {
	StageTimeout time.Duration
	// RequireAudioForVoiceTranslate makes /voice-translate fail when
	// synthesis fails.
	RequireAudioForVoiceTranslate bool
}

// RecordingConfig holds capture timings for the recording client.
type RecordingConfig struct {
	MaxDuration  time.Duration
	Timeslice    time.Duration
	TickInterval time.Duration
}

// HTTPConfig configures the public HTTP API.
type HTTPConfig struct {
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	ShutdownTimeout   time.Duration
}

// KafkaConfig holds Kafka publisher configuration.
type KafkaConfig struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	Principal string
}

// ObservabilityConfig holds logging and metrics configuration.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsPort string
}

// Load reads configuration from environment variables. Unparseable values
// fall back to their defaults.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-voice-translate")

	return &Config{
		Service: ServiceConfig{
			Principal: principal,
			HTTPPort:  envOrDefault("HTTP_PORT", envOrDefault("PORT", "8080")),
			GRPCPort:  envOrDefault("GRPC_PORT", "50051"),
			Env:       envOrDefault("APP_ENV", "development"),
		},
		OpenAI: OpenAIConfig{
			APIKey:             os.Getenv("OPENAI_API_KEY"),
			BaseURL:            os.Getenv("OPENAI_BASE_URL"),
			TranscriptionModel: envOrDefault("OPENAI_TRANSCRIPTION_MODEL", "whisper-1"),
			TranslationModel:   envOrDefault("OPENAI_TRANSLATION_MODEL", "gpt-4o"),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:  os.Getenv("ELEVENLABS_API_KEY"),
			BaseURL: os.Getenv("ELEVENLABS_BASE_URL"),
			Voices:  loadVoices(),
		},
		STT: STTConfig{
			Provider:        strings.ToLower(envOrDefault("STT_PROVIDER", ProviderOpenAI)),
			DefaultLanguage: envOrDefault("STT_DEFAULT_LANGUAGE", string(lang.English)),
			MaxAudioBytes:   envOrDefaultInt("STT_MAX_AUDIO_BYTES", 25*1024*1024),
			SampleRateHz:    envOrDefaultInt("STT_SAMPLE_RATE_HZ", 16000),
			AudioEncoding:   os.Getenv("STT_AUDIO_ENCODING"),
			CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			GoogleModel:     os.Getenv("STT_GOOGLE_MODEL"),
		},
		Translation: TranslationConfig{
			Provider: strings.ToLower(envOrDefault("TRANSLATION_PROVIDER", ProviderOpenAI)),
		},
		TTS: TTSConfig{
			Provider: strings.ToLower(envOrDefault("TTS_PROVIDER", ProviderElevenLabs)),
			Timeout:  envOrDefaultDuration("TTS_TIMEOUT", 60*time.Second),
		},
		Pipeline: PipelineConfig{
			StageTimeout:                  envOrDefaultDuration("PIPELINE_STAGE_TIMEOUT", 60*time.Second),
			RequireAudioForVoiceTranslate: envOrDefaultBool("VOICE_TRANSLATE_REQUIRE_AUDIO", true),
		},
		Recording: RecordingConfig{
			MaxDuration:  envOrDefaultDuration("RECORDING_MAX_DURATION", 60*time.Second),
			Timeslice:    envOrDefaultDuration("RECORDING_TIMESLICE", time.Second),
			TickInterval: envOrDefaultDuration("RECORDING_TICK_INTERVAL", 100*time.Millisecond),
		},
		HTTP: HTTPConfig{
			AllowedOrigins:    envOrDefaultList("HTTP_ALLOWED_ORIGINS", []string{"*"}),
			RateLimitRequests: envOrDefaultInt("HTTP_RATE_LIMIT_REQUESTS", 60),
			RateLimitWindow:   envOrDefaultDuration("HTTP_RATE_LIMIT_WINDOW", time.Minute),
			ShutdownTimeout:   envOrDefaultDuration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:   envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:   envOrDefaultList("KAFKA_BROKERS", nil),
			Topic:     envOrDefault("KAFKA_TOPIC", "translation.completed"),
			Principal: envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
	}
}

// Validate reports missing credentials for the selected providers and
// inconsistent settings. A non-nil error is fatal at startup.
func (c *Config) Validate() error {
	var errs []error

	switch c.STT.Provider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for STT_PROVIDER=openai"))
		}
	case ProviderGoogle, ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown STT_PROVIDER %q", c.STT.Provider))
	}

	switch c.Translation.Provider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for TRANSLATION_PROVIDER=openai"))
		}
	case ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown TRANSLATION_PROVIDER %q", c.Translation.Provider))
	}

	switch c.TTS.Provider {
	case ProviderElevenLabs:
		if c.ElevenLabs.APIKey == "" {
			errs = append(errs, errors.New("ELEVENLABS_API_KEY is required for TTS_PROVIDER=elevenlabs"))
		}
	case ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown TTS_PROVIDER %q", c.TTS.Provider))
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED=true"))
	}
	if c.STT.MaxAudioBytes <= 0 {
		errs = append(errs, errors.New("STT_MAX_AUDIO_BYTES must be positive"))
	}
	if c.HTTP.RateLimitRequests < 0 {
		errs = append(errs, errors.New("HTTP_RATE_LIMIT_REQUESTS must not be negative"))
	}

	return errors.Join(errs...)
}

// loadVoices overlays ELEVENLABS_VOICE_ID_<CODE> on the built-in voices for
// every supported language.
func loadVoices() map[string]string {
	voices := tts.DefaultVoices()
	for _, info := range lang.All() {
		key := "ELEVENLABS_VOICE_ID_" + strings.ToUpper(string(info.Code))
		if v := os.Getenv(key); v != "" {
			voices[string(info.Code)] = v
		}
	}
	return voices
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
