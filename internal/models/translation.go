// Package models defines the records produced by a translation run and the
// event published when a run completes.
package models

import (
	"time"

	"github.com/google/uuid"
)

// EventTranslationCompleted is the eventType of TranslationCompleted.
const EventTranslationCompleted = "translation.completed"

// Flow identifies how a pipeline run was entered.
type Flow string

const (
	FlowVoice Flow = "voice"
	FlowText  Flow = "text"
)

// HistoryEntry records one completed translation.
type HistoryEntry struct {
	ID             string `json:"id"`
	SourceText     string `json:"sourceText"`
	TranslatedText string `json:"translatedText"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	Timestamp      int64  `json:"timestamp"`
}

// NewHistoryEntry creates an entry stamped with now in Unix milliseconds.
func NewHistoryEntry(sourceText, translatedText, sourceLanguage, targetLanguage string, now time.Time) HistoryEntry {
	return HistoryEntry{
		ID:             uuid.NewString(),
		SourceText:     sourceText,
		TranslatedText: translatedText,
		SourceLanguage: sourceLanguage,
		TargetLanguage: targetLanguage,
		Timestamp:      now.UnixMilli(),
	}
}

// BookmarkEntry is a history entry the user chose to keep.
type BookmarkEntry struct {
	ID             string `json:"id"`
	SourceText     string `json:"sourceText"`
	TranslatedText string `json:"translatedText"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	Category       string `json:"category,omitempty"`
	Note           string `json:"note,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}

// Bookmark copies h into a new bookmark.
func (h HistoryEntry) Bookmark(category, note string, now time.Time) BookmarkEntry {
	return BookmarkEntry{
		ID:             uuid.NewString(),
		SourceText:     h.SourceText,
		TranslatedText: h.TranslatedText,
		SourceLanguage: h.SourceLanguage,
		TargetLanguage: h.TargetLanguage,
		Category:       category,
		Note:           note,
		Timestamp:      now.UnixMilli(),
	}
}

// Speaker is one side of a two-person conversation.
type Speaker string

const (
	SpeakerA Speaker = "A"
	SpeakerB Speaker = "B"
)

// Other returns the opposite speaker.
func (s Speaker) Other() Speaker {
	if s == SpeakerA {
		return SpeakerB
	}
	return SpeakerA
}

// ConversationMessage is one turn in conversation mode.
type ConversationMessage struct {
	ID          string  `json:"id"`
	Speaker     Speaker `json:"speaker"`
	Text        string  `json:"text"`
	Translation string  `json:"translation"`
	Language    string  `json:"language"`
	Timestamp   int64   `json:"timestamp"`
}

// NewConversationMessage creates a message for speaker.
func NewConversationMessage(speaker Speaker, text, translation, language string, now time.Time) ConversationMessage {
	return ConversationMessage{
		ID:          uuid.NewString(),
		Speaker:     speaker,
		Text:        text,
		Translation: translation,
		Language:    language,
		Timestamp:   now.UnixMilli(),
	}
}

// StageTimings holds per-stage wall-clock durations in milliseconds. A zero
// value means the stage did not run.
type StageTimings struct {
	TranscribeMs int64 `json:"transcribeMs"`
	TranslateMs  int64 `json:"translateMs"`
	SynthesizeMs int64 `json:"synthesizeMs"`
}

// TranslationCompleted is published after every successful pipeline run.
type TranslationCompleted struct {
	EventType      string       `json:"eventType"`
	EventID        string       `json:"eventId"`
	Principal      string       `json:"principal"`
	Flow           Flow         `json:"flow"`
	Timestamp      int64        `json:"timestamp"`
	Entry          HistoryEntry `json:"entry"`
	Style          string       `json:"style"`
	AudioAvailable bool         `json:"audioAvailable"`
	AudioBytes     int          `json:"audioBytes"`
	Timings        StageTimings `json:"timings"`
}

// NewTranslationCompleted wraps entry in a completion event.
func NewTranslationCompleted(flow Flow, entry HistoryEntry, style string, audioBytes int, timings StageTimings) TranslationCompleted {
	return TranslationCompleted{
		EventType:      EventTranslationCompleted,
		EventID:        uuid.NewString(),
		Flow:           flow,
		Timestamp:      entry.Timestamp,
		Entry:          entry,
		Style:          style,
		AudioAvailable: audioBytes > 0,
		AudioBytes:     audioBytes,
		Timings:        timings,
	}
}
