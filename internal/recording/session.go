package recording

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"voice-translate-service/internal/apperr"
	"voice-translate-service/internal/audio"
)

// Default capture timings.
const (
	DefaultMaxDuration  = 60 * time.Second
	DefaultTimeslice    = time.Second
	DefaultTickInterval = 100 * time.Millisecond
)

// ErrAborted is returned by Start when Reset is called while the device is
// still being opened.
var ErrAborted = errors.New("recording aborted by reset")

// Options configures a Session.
type Options struct {
	// ID prefixes take identifiers. Defaults to a random UUID.
	ID string

	MaxDuration  time.Duration
	Timeslice    time.Duration
	TickInterval time.Duration
	Constraints  Constraints

	// OnChunk receives every non-empty chunk as it arrives.
	OnChunk func([]byte)
	// OnDuration receives the elapsed recording time every TickInterval.
	OnDuration func(time.Duration)
	// OnComplete receives the finalized blob. The session stays in
	// StateProcessing until Acknowledge is called.
	OnComplete func(audio.Blob)
}

// Session manages the capture lifecycle for one input device.
// Thread-safe for concurrent access; callbacks run outside the lock.
//
// State transitions:
//
//	idle ──Start()──→ recording ──Stop()/timeout──→ processing ──Acknowledge()──→ idle
//	  ↑                                                                         │
//	  └──────────────────────────── Reset() from any state ─────────────────────┘
//
// Rules:
//   - Start is valid only from idle with no open capture handle
//   - Stop outside recording is a no-op
//   - processing persists until the caller acknowledges the blob
type Session struct {
	device Device
	opts   Options
	takes  *TakeGenerator

	mu       sync.Mutex
	state    State
	opening  bool
	capture  Capture
	epoch    uint64
	chunks   [][]byte
	started  time.Time
	duration time.Duration
	timer    *time.Timer
	tickStop chan struct{}
	err      error
}

// NewSession creates an idle session over device. Zero-valued options take
// the package defaults.
func NewSession(device Device, opts Options) *Session {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultMaxDuration
	}
	if opts.Timeslice <= 0 {
		opts.Timeslice = DefaultTimeslice
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Constraints == (Constraints{}) {
		opts.Constraints = DefaultConstraints()
	}
	return &Session{
		device: device,
		opts:   opts,
		takes:  NewTakeGenerator(),
		state:  StateIdle,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.opts.ID }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Duration returns the last sampled recording duration.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// Err returns the error from the last failed Start, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Start opens the device and begins recording.
// Returns ErrNotIdle when a capture is already open or the session has not
// been acknowledged, and an apperr.KindDevice error when the device cannot
// be acquired. On failure the session stays idle.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle || s.capture != nil || s.opening {
		s.mu.Unlock()
		return ErrNotIdle
	}
	s.opening = true
	s.chunks = nil
	s.duration = 0
	s.err = nil
	openEpoch := s.epoch
	s.mu.Unlock()

	capture, err := s.device.Open(ctx, s.opts.Constraints)

	s.mu.Lock()
	s.opening = false
	if err != nil {
		s.state = StateIdle
		s.err = apperr.Wrap(apperr.KindDevice, "recording.Start", "Failed to start recording", err)
		derr := s.err
		s.mu.Unlock()
		return derr
	}
	if s.epoch != openEpoch {
		s.mu.Unlock()
		_ = capture.Close()
		return ErrAborted
	}
	s.epoch++
	epoch := s.epoch
	s.capture = capture
	s.state = StateRecording
	s.started = time.Now()
	s.mu.Unlock()

	if err := capture.Start(s.opts.Timeslice, func(b []byte) { s.appendChunk(epoch, b) }); err != nil {
		s.mu.Lock()
		if s.epoch == epoch {
			s.epoch++
			s.capture = nil
			s.chunks = nil
			s.state = StateIdle
		}
		s.err = apperr.Wrap(apperr.KindDevice, "recording.Start", "Failed to start recording", err)
		derr := s.err
		s.mu.Unlock()
		_ = capture.Close()
		return derr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.state != StateRecording {
		return nil
	}
	s.timer = time.AfterFunc(s.opts.MaxDuration, func() { _ = s.stop(epoch) })
	tickStop := make(chan struct{})
	s.tickStop = tickStop
	go s.tick(epoch, s.started, tickStop)
	return nil
}

// Stop finalizes the recording: timers are cancelled, the capture is
// flushed and released, and OnComplete receives the blob. Calling Stop in
// any state other than recording is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()
	return s.stop(epoch)
}

func (s *Session) stop(epoch uint64) error {
	s.mu.Lock()
	if s.epoch != epoch || s.state != StateRecording {
		s.mu.Unlock()
		return nil
	}
	s.disarm()
	s.state = StateProcessing
	s.duration = time.Since(s.started)
	capture := s.capture
	s.mu.Unlock()

	stopErr := capture.Stop()
	closeErr := capture.Close()

	s.mu.Lock()
	if s.epoch != epoch {
		// Reset while the capture was flushing.
		s.mu.Unlock()
		return nil
	}
	s.capture = nil
	format, _ := audio.FormatFromMimeType(capture.MimeType())
	blob := audio.NewBlob(concat(s.chunks), format).WithID(s.takes.Next(s.opts.ID))
	s.chunks = nil
	onComplete := s.opts.OnComplete
	s.mu.Unlock()

	if onComplete != nil {
		onComplete(blob)
	}
	return errors.Join(stopErr, closeErr)
}

// Acknowledge returns a processing session to idle once the caller has
// consumed the blob, successfully or not.
func (s *Session) Acknowledge() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateProcessing || s.capture != nil {
		return ErrNotProcessing
	}
	s.state = StateIdle
	s.duration = 0
	return nil
}

// Reset stops any active capture, releases the device, discards buffered
// data and forces the session to idle. Safe to call from any state.
func (s *Session) Reset() {
	s.mu.Lock()
	s.disarm()
	capture := s.capture
	s.capture = nil
	s.epoch++
	s.chunks = nil
	s.duration = 0
	s.err = nil
	s.state = StateIdle
	s.mu.Unlock()

	if capture != nil {
		_ = capture.Stop()
		_ = capture.Close()
	}
}

func (s *Session) appendChunk(epoch uint64, b []byte) {
	if len(b) == 0 {
		return
	}
	chunk := append([]byte(nil), b...)

	s.mu.Lock()
	if s.epoch != epoch || s.capture == nil {
		s.mu.Unlock()
		return
	}
	s.chunks = append(s.chunks, chunk)
	onChunk := s.opts.OnChunk
	s.mu.Unlock()

	if onChunk != nil {
		onChunk(chunk)
	}
}

func (s *Session) tick(epoch uint64, started time.Time, stop <-chan struct{}) {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			elapsed := now.Sub(started)

			s.mu.Lock()
			if s.epoch != epoch || s.state != StateRecording {
				s.mu.Unlock()
				return
			}
			s.duration = elapsed
			onDuration := s.opts.OnDuration
			s.mu.Unlock()

			if onDuration != nil {
				onDuration(elapsed)
			}
		}
	}
}

// disarm cancels the auto-stop timer and the duration ticker. Caller holds mu.
func (s *Session) disarm() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.tickStop != nil {
		close(s.tickStop)
		s.tickStop = nil
	}
}

func concat(chunks [][]byte) []byte {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
