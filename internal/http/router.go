// Package http serves the translation API.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/hlog"

	"voice-translate-service/internal/apperr"
	"voice-translate-service/internal/config"
	"voice-translate-service/internal/observability"
	"voice-translate-service/internal/observability/logging"
	"voice-translate-service/internal/observability/metrics"
	"voice-translate-service/internal/service/stt"
)

// Readiness reports whether the service accepts traffic.
type Readiness interface {
	Ready() bool
}

// NewRouter constructs the HTTP router for the service. ready may be nil.
func NewRouter(h *Handler, ready Readiness, cfg config.HTTPConfig) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(logging.WithComponent("http")))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("requestId", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("HTTP request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(observability.HTTPMetrics(metrics.DefaultMetrics))

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Get("/languages", h.Languages)

	// Provider-backed routes
	r.Group(func(r chi.Router) {
		if cfg.RateLimitRequests > 0 {
			r.Use(rateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}
		r.Post("/stt", h.SpeechToText)
		r.Post("/translate", h.Translate)
		r.Post("/tts", h.TextToSpeech)
		r.Post("/voice-translate", h.VoiceTranslate)
		r.Post("/text-translate", h.TextTranslate)
	})

	return r
}

// rateLimiter limits provider-backed requests per client IP.
func rateLimiter(requests int, window time.Duration) func(http.Handler) http.Handler {
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.DefaultMetrics.RecordRateLimited(r.URL.Path)
			writeError(w, r, apperr.New(apperr.KindRateLimit, "http.rateLimit", stt.MsgRateLimited))
		}),
	)
}
