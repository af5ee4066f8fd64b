package http

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"voice-translate-service/internal/apperr"
	"voice-translate-service/internal/audio"
	"voice-translate-service/internal/lang"
	"voice-translate-service/internal/models"
	"voice-translate-service/internal/pipeline"
	"voice-translate-service/internal/service/stt"
	"voice-translate-service/internal/service/translate"
	"voice-translate-service/internal/service/tts"
)

// User-facing request validation messages.
const (
	MsgMissingTTSFields = "Missing required fields: text and language"
	MsgInvalidStyle     = "Invalid style: use formal or informal"
	MsgInvalidForm      = "Invalid multipart form"
	MsgReadAudio        = "Failed to read audio data"
)

// CacheControl marks synthesized audio as immutable.
const CacheControl = "public, max-age=31536000, immutable"

// Options tunes request handling.
type Options struct {
	// DefaultLanguage is the /stt language when the query omits one.
	DefaultLanguage string
	// MaxAudioBytes bounds uploads. Larger bodies are cut one byte past the
	// limit so the transcription stage reports them as too large.
	MaxAudioBytes int
	// RequireAudio makes /voice-translate fail when synthesis fails.
	RequireAudio bool
}

// Handler serves the translation API over the three stages and the
// orchestrator that composes them.
type Handler struct {
	stt        *stt.Stage
	translator *translate.Stage
	tts        *tts.Stage
	pipeline   *pipeline.Orchestrator
	opts       Options
}

// NewHandler creates a Handler.
func NewHandler(sttStage *stt.Stage, translator *translate.Stage, ttsStage *tts.Stage, orchestrator *pipeline.Orchestrator, opts Options) *Handler {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = string(lang.English)
	}
	if opts.MaxAudioBytes <= 0 || opts.MaxAudioBytes > audio.MaxUploadBytes {
		opts.MaxAudioBytes = audio.MaxUploadBytes
	}
	return &Handler{
		stt:        sttStage,
		translator: translator,
		tts:        ttsStage,
		pipeline:   orchestrator,
		opts:       opts,
	}
}

// STTResponse is the /stt body.
type STTResponse struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	LatencyMs int64  `json:"latencyMs"`
	Language  string `json:"language"`
	AudioSize int    `json:"audioSize"`
}

// SpeechToText transcribes the raw request body.
func (h *Handler) SpeechToText(w http.ResponseWriter, r *http.Request) {
	data, err := h.readAudio(r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	format, _ := audio.FormatFromMimeType(r.Header.Get("Content-Type"))

	q := r.URL.Query()
	language := q.Get("language")
	if language == "" {
		language = h.opts.DefaultLanguage
	}

	start := time.Now()
	text, err := h.stt.Transcribe(r.Context(), audio.NewBlob(data, format), stt.Options{
		Language: language,
		Prompt:   q.Get("prompt"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, STTResponse{
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
		LatencyMs: time.Since(start).Milliseconds(),
		Language:  language,
		AudioSize: len(data),
	})
}

// TranslateRequest is the /translate and /text-translate body.
type TranslateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Style  string `json:"style,omitempty"`
}

// TranslateResponse is the /translate body.
type TranslateResponse struct {
	Translated string `json:"translated"`
	Provider   string `json:"provider"`
	LatencyMs  int64  `json:"latencyMs"`
}

// Translate translates a single text.
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.Target) == "" {
		writeError(w, r, apperr.New(apperr.KindValidation, "http.translate", pipeline.MsgMissingTextFields))
		return
	}
	style, ok := translate.ParseStyle(req.Style)
	if !ok {
		writeError(w, r, apperr.New(apperr.KindValidation, "http.translate", MsgInvalidStyle))
		return
	}

	res, err := h.translator.Translate(r.Context(), translate.Request{
		Text:   req.Text,
		Target: req.Target,
		Source: req.Source,
		Style:  style,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TranslateResponse{
		Translated: res.TranslatedText,
		Provider:   res.Provider,
		LatencyMs:  res.LatencyMs,
	})
}

// TTSRequest is the /tts body.
type TTSRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// TextToSpeech returns mp3 bytes for the text in the language's voice.
func (h *Handler) TextToSpeech(w http.ResponseWriter, r *http.Request) {
	var req TTSRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.Language) == "" {
		writeError(w, r, apperr.New(apperr.KindValidation, "http.tts", MsgMissingTTSFields))
		return
	}

	data, err := h.tts.Synthesize(r.Context(), req.Text, req.Language)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", tts.ContentType)
	w.Header().Set("Cache-Control", CacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// VoiceTranslateResponse is the /voice-translate body.
type VoiceTranslateResponse struct {
	SourceText     string `json:"sourceText"`
	TranslatedText string `json:"translatedText"`
	// AudioURL is a base64 data URI. Empty only when audio is optional and
	// synthesis failed.
	AudioURL string `json:"audioUrl,omitempty"`
}

// VoiceTranslate runs the full pipeline over an uploaded recording.
func (h *Handler) VoiceTranslate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.opts.MaxAudioBytes)+maxJSONBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, apperr.Wrap(apperr.KindInvalidInput, "http.voiceTranslate", stt.MsgTooLarge, err))
			return
		}
		writeError(w, r, apperr.Wrap(apperr.KindValidation, "http.voiceTranslate", MsgInvalidForm, err))
		return
	}

	target := r.FormValue("target")
	file, header, err := r.FormFile("audio")
	if err != nil || strings.TrimSpace(target) == "" {
		writeError(w, r, apperr.New(apperr.KindValidation, "http.voiceTranslate", pipeline.MsgMissingAudioFields))
		return
	}
	defer file.Close()

	data, err := h.readAudio(file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	style, ok := translate.ParseStyle(r.FormValue("style"))
	if !ok {
		writeError(w, r, apperr.New(apperr.KindValidation, "http.voiceTranslate", MsgInvalidStyle))
		return
	}
	format, _ := audio.FormatFromMimeType(header.Header.Get("Content-Type"))

	res, err := h.pipeline.Run(r.Context(), pipeline.Input{
		Audio:        audio.NewBlob(data, format),
		Source:       r.FormValue("source"),
		Target:       target,
		Style:        style,
		Prompt:       r.FormValue("prompt"),
		RequireAudio: h.opts.RequireAudio,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, VoiceTranslateResponse{
		SourceText:     res.SourceText,
		TranslatedText: res.TranslatedText,
		AudioURL:       dataURI(res.Audio),
	})
}

// TextTranslateResponse is the /text-translate body.
type TextTranslateResponse struct {
	SourceText     string              `json:"sourceText"`
	TranslatedText string              `json:"translatedText"`
	AudioURL       string              `json:"audioUrl,omitempty"`
	Timings        models.StageTimings `json:"timings"`
	Entry          models.HistoryEntry `json:"entry"`
}

// TextTranslate runs typed text through Translate and best-effort
// Synthesize.
func (h *Handler) TextTranslate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		// An empty text would select the voice flow.
		writeError(w, r, apperr.New(apperr.KindValidation, "http.textTranslate", pipeline.MsgMissingTextFields))
		return
	}
	style, ok := translate.ParseStyle(req.Style)
	if !ok {
		writeError(w, r, apperr.New(apperr.KindValidation, "http.textTranslate", MsgInvalidStyle))
		return
	}

	res, err := h.pipeline.Run(r.Context(), pipeline.Input{
		Text:   req.Text,
		Source: req.Source,
		Target: req.Target,
		Style:  style,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TextTranslateResponse{
		SourceText:     res.SourceText,
		TranslatedText: res.TranslatedText,
		AudioURL:       dataURI(res.Audio),
		Timings:        res.Timings,
		Entry:          res.Entry,
	})
}

// LanguageResponse describes one supported language.
type LanguageResponse struct {
	lang.Info
	VoiceConfigured bool `json:"voiceConfigured"`
}

// Languages lists the supported languages and whether each has a voice.
func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	all := lang.All()
	out := make([]LanguageResponse, 0, len(all))
	for _, info := range all {
		_, ok := h.tts.Voice(string(info.Code))
		out = append(out, LanguageResponse{Info: info, VoiceConfigured: ok})
	}
	writeJSON(w, http.StatusOK, out)
}

// readAudio reads at most MaxAudioBytes+1 bytes.
func (h *Handler) readAudio(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(h.opts.MaxAudioBytes)+1))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "http.readAudio", MsgReadAudio, err)
	}
	return data, nil
}

func dataURI(mp3 []byte) string {
	if len(mp3) == 0 {
		return ""
	}
	return "data:" + tts.ContentType + ";base64," + base64.StdEncoding.EncodeToString(mp3)
}
