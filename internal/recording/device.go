package recording

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"voice-translate-service/internal/audio"
)

// Constraints is the capture profile requested from the input device.
type Constraints struct {
	ChannelCount     int
	SampleRateHz     int
	EchoCancellation bool
	NoiseSuppression bool
	MimeType         string
}

// DefaultConstraints matches the transcription service's expected input:
// mono 16 kHz with echo cancellation and noise suppression.
func DefaultConstraints() Constraints {
	return Constraints{
		ChannelCount:     1,
		SampleRateHz:     16000,
		EchoCancellation: true,
		NoiseSuppression: true,
		MimeType:         "audio/webm;codecs=opus",
	}
}

// Device acquires capture handles. Open fails when access is denied or no
// input device exists.
type Device interface {
	Open(ctx context.Context, c Constraints) (Capture, error)
}

// Capture is an open device handle producing encoded chunks.
type Capture interface {
	// Start begins delivering chunks to sink roughly every timeslice. sink
	// is called from the capture's own goroutine.
	Start(timeslice time.Duration, sink func([]byte)) error
	// Stop ends delivery. Buffered data is flushed to sink before Stop
	// returns.
	Stop() error
	// Close releases the device.
	Close() error
	// MimeType is the container type of the produced chunks.
	MimeType() string
}

// FileDevice replays an audio payload as if it were captured live. Each
// timeslice delivers ChunkSize bytes. Stop flushes the chunk in progress and
// drops the rest of the payload, which was never "captured".
type FileDevice struct {
	Data      []byte
	ChunkSize int
	// OnDrained, when set, is called once after the last chunk is delivered.
	OnDrained func()
}

// NewFileDevice reads path into a FileDevice.
func NewFileDevice(path string) (*FileDevice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	return &FileDevice{Data: data, ChunkSize: 16 * 1024}, nil
}

// Open returns a capture over the device payload.
func (d *FileDevice) Open(ctx context.Context, c Constraints) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(d.Data) == 0 {
		return nil, fmt.Errorf("no audio input available")
	}
	size := d.ChunkSize
	if size <= 0 {
		size = len(d.Data)
	}
	return &fileCapture{
		data:      d.Data,
		chunkSize: size,
		mimeType:  audio.MimeType(audio.DetectFormat(d.Data)),
		onDrained: d.OnDrained,
		done:      make(chan struct{}),
	}, nil
}

type fileCapture struct {
	data      []byte
	chunkSize int
	mimeType  string
	onDrained func()

	mu        sync.Mutex
	offset    int
	sink      func([]byte)
	started   bool
	stopped   bool
	closed    bool
	done      chan struct{}
	wg        sync.WaitGroup
	drainOnce sync.Once
}

func (c *fileCapture) Start(timeslice time.Duration, sink func([]byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("capture closed")
	}
	if c.started {
		return fmt.Errorf("capture already started")
	}
	c.started = true
	c.sink = sink

	c.wg.Add(1)
	go c.run(timeslice)
	return nil
}

func (c *fileCapture) run(timeslice time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(timeslice)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			chunk, drained := c.next()
			if len(chunk) > 0 {
				c.sink(chunk)
			}
			if drained {
				c.drained()
				return
			}
		}
	}
}

func (c *fileCapture) next() ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	end := c.offset + c.chunkSize
	if end > len(c.data) {
		end = len(c.data)
	}
	chunk := c.data[c.offset:end]
	c.offset = end
	return chunk, c.offset >= len(c.data)
}

func (c *fileCapture) drained() {
	if c.onDrained == nil {
		return
	}
	c.drainOnce.Do(func() { go c.onDrained() })
}

func (c *fileCapture) Stop() error {
	c.mu.Lock()
	if c.stopped || !c.started {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	close(c.done)
	c.mu.Unlock()

	c.wg.Wait()

	chunk, _ := c.next()
	c.mu.Lock()
	c.offset = len(c.data)
	sink := c.sink
	c.mu.Unlock()

	if len(chunk) > 0 {
		sink(chunk)
	}
	return nil
}

func (c *fileCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fileCapture) MimeType() string { return c.mimeType }
