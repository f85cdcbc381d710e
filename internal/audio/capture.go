package audio

import (
	"errors"
	"io"
	"sync"
)

// Errors
var (
	ErrAlreadyCapturing = errors.New("audio capture already started")
	ErrNotCapturing     = errors.New("audio capture not started")
	ErrNoDevice         = errors.New("no audio input device available")
)

// Default frame geometry
const (
	DefaultBufferSize = 8192
	DefaultSampleRate = 48000
)

// AudioBuffer represents a buffer of audio samples
type AudioBuffer struct {
	Samples    []float32
	SampleRate int
}

// Capturer defines the interface for audio capture
type Capturer interface {
	// Start begins audio capture
	Start() error

	// Stop ends audio capture
	Stop() error

	// GetBuffer returns the current audio buffer
	GetBuffer() (*AudioBuffer, error)

	// IsCapturing returns true if currently capturing audio
	IsCapturing() bool
}

// SliceCapturer replays a fixed list of buffers, one per GetBuffer call.
// It is used for offline analysis and tests.
type SliceCapturer struct {
	mu          sync.Mutex
	buffers     []*AudioBuffer
	pos         int
	loop        bool
	isCapturing bool

	// StartErr, when set, is returned by Start to simulate a missing device
	StartErr error
}

// NewSliceCapturer creates a capturer over buffers. When loop is true the
// sequence restarts after the last buffer, otherwise GetBuffer returns io.EOF.
func NewSliceCapturer(buffers []*AudioBuffer, loop bool) *SliceCapturer {
	return &SliceCapturer{buffers: buffers, loop: loop}
}

// Start begins audio capture
func (c *SliceCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.StartErr != nil {
		return c.StartErr
	}
	if c.isCapturing {
		return ErrAlreadyCapturing
	}
	c.isCapturing = true
	c.pos = 0
	return nil
}

// Stop ends audio capture
func (c *SliceCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isCapturing {
		return ErrNotCapturing
	}
	c.isCapturing = false
	return nil
}

// GetBuffer returns the next buffer in the sequence
func (c *SliceCapturer) GetBuffer() (*AudioBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isCapturing {
		return nil, ErrNotCapturing
	}
	if c.pos >= len(c.buffers) {
		if !c.loop || len(c.buffers) == 0 {
			return nil, io.EOF
		}
		c.pos = 0
	}
	b := c.buffers[c.pos]
	c.pos++
	return b, nil
}

// IsCapturing returns true if currently capturing audio
func (c *SliceCapturer) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isCapturing
}
