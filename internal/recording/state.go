// Package recording provides the microphone capture lifecycle: a state
// machine that acquires an input device, accumulates encoded chunks,
// enforces a maximum duration and hands one audio blob to the caller.
package recording

import (
	"errors"
	"fmt"
)

// State represents the lifecycle state of a recording session.
type State int

const (
	// StateIdle - no capture in progress, ready to start.
	StateIdle State = iota
	// StateRecording - device open, chunks accumulating.
	StateRecording
	// StateProcessing - blob handed off, waiting for the caller to acknowledge.
	StateProcessing
	// StatePlaying - playback of synthesized audio. Driven by the UI, never
	// entered by Session.
	StatePlaying
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	case StatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Errors for invalid state transitions.
var (
	ErrNotIdle       = errors.New("recording session is not idle")
	ErrNotProcessing = errors.New("recording session is not processing")
)
