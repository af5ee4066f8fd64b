// Package mock provides a TTS provider that returns a short silent mp3
// without network access.
package mock

import (
	"bytes"
	"context"
	"io"
	"sync"

	"voice-translate-service/internal/service/tts"
)

// silentFrame is one MPEG-1 Layer III frame header followed by padding.
var silentFrame = append([]byte{0xFF, 0xFB, 0x90, 0x64}, make([]byte, 413)...)

// Adapter implements tts.Provider with canned audio.
type Adapter struct {
	// Err, when set, is returned instead of audio.
	Err error
	// Frames is the number of silent frames per request.
	Frames int

	mu       sync.Mutex
	requests []tts.Request
}

// New creates a mock TTS provider.
func New() *Adapter {
	return &Adapter{Frames: 8}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string { return "mock" }

// Synthesize returns a stream of silent mp3 frames.
func (a *Adapter) Synthesize(ctx context.Context, req tts.Request) (io.ReadCloser, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	err, frames := a.Err, a.Frames
	a.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(bytes.Repeat(silentFrame, frames))), nil
}

// Requests returns a copy of every request received.
func (a *Adapter) Requests() []tts.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]tts.Request(nil), a.requests...)
}
