// Package mock provides a mock STT adapter for running without cloud
// credentials. It returns canned transcripts, cycling through a fixed set
// of utterances, after a short simulated processing delay.
package mock

import (
	"context"
	"sync"
	"time"

	"voice-translate-service/internal/service/stt"
)

// DefaultUtterances provides sample transcripts for simulation.
var DefaultUtterances = []string{
	"Hello, how are you today?",
	"Where is the nearest train station?",
	"I would like to order a coffee, please.",
	"Thank you very much for your help.",
	"What time does the market open?",
}

// Adapter implements stt.Provider with canned responses.
type Adapter struct {
	// Delay simulates provider latency. Cancelled contexts cut it short.
	Delay time.Duration
	// Err, when set, is returned instead of a transcript.
	Err error

	mu         sync.Mutex
	utterances []string
	next       int
	requests   []stt.Request
}

// New creates a mock adapter cycling through DefaultUtterances.
func New() *Adapter {
	return NewWithUtterances(DefaultUtterances...)
}

// NewWithUtterances creates a mock adapter cycling through utterances.
func NewWithUtterances(utterances ...string) *Adapter {
	if len(utterances) == 0 {
		utterances = DefaultUtterances
	}
	return &Adapter{
		Delay:      50 * time.Millisecond,
		utterances: utterances,
	}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string { return "mock" }

// Transcribe returns the next canned utterance.
func (a *Adapter) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	text := a.utterances[a.next%len(a.utterances)]
	a.next++
	delay, err := a.Delay, a.Err
	a.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// Requests returns a copy of every request received.
func (a *Adapter) Requests() []stt.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]stt.Request(nil), a.requests...)
}
