package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// framesPerCallback is the PortAudio callback chunk. The analysis window is
// much longer, so consecutive ticks see a sliding window over the input.
const framesPerCallback = 1024

// PortAudioCapturer implements audio capture using PortAudio. The callback
// keeps the most recent bufferSize mono samples in a ring.
type PortAudioCapturer struct {
	isCapturing bool
	stream      *portaudio.Stream
	bufferSize  int
	sampleRate  int
	channels    int
	filter      *Lowpass
	ring        []float32
	head        int // next write position
	bufferMutex sync.Mutex
	gain        float32 // applied to the downmix before filtering
}

// minGain keeps a misconfigured gain from silencing the input
const minGain = 0.1

// NewPortAudioCapturer creates a new audio capturer using PortAudio. Input is
// low-passed at lowpassHz before it reaches the ring; 0 disables filtering.
func NewPortAudioCapturer(bufferSize, sampleRate, channels int, lowpassHz float64) (*PortAudioCapturer, error) {
	if bufferSize <= 0 || sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid capture geometry: buffer=%d rate=%d channels=%d", bufferSize, sampleRate, channels)
	}

	return &PortAudioCapturer{
		bufferSize: bufferSize,
		sampleRate: sampleRate,
		channels:   channels,
		filter:     NewLowpass(lowpassHz, sampleRate),
		ring:       make([]float32, bufferSize),
		gain:       1,
	}, nil
}

// Start initialises PortAudio and opens the default input stream
func (c *PortAudioCapturer) Start() error {
	if c.isCapturing {
		return ErrAlreadyCapturing
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}

	if _, err := portaudio.DefaultInputDevice(); err != nil {
		portaudio.Terminate()
		return fmt.Errorf("%w: %v", ErrNoDevice, err)
	}

	c.bufferMutex.Lock()
	c.filter.Reset()
	c.head = 0
	for i := range c.ring {
		c.ring[i] = 0
	}
	c.bufferMutex.Unlock()

	stream, err := portaudio.OpenDefaultStream(
		c.channels, // input channels
		0,          // output channels (we don't need output)
		float64(c.sampleRate),
		framesPerCallback,
		c.processAudio,
	)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("start input stream: %w", err)
	}

	c.stream = stream
	c.isCapturing = true
	return nil
}

// Stop closes the stream and releases PortAudio. Every step runs even if an
// earlier one fails; the capturer is left stopped either way.
func (c *PortAudioCapturer) Stop() error {
	if !c.isCapturing {
		return ErrNotCapturing
	}
	c.isCapturing = false

	errStop := c.stream.Stop()
	errClose := c.stream.Close()
	errTerm := portaudio.Terminate()
	c.stream = nil

	return errors.Join(errStop, errClose, errTerm)
}

// processAudio is the PortAudio callback
func (c *PortAudioCapturer) processAudio(in []float32) {
	c.bufferMutex.Lock()
	defer c.bufferMutex.Unlock()

	frames := len(in) / c.channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		sum := float32(0)
		for ch := 0; ch < c.channels; ch++ {
			sum += in[i*c.channels+ch]
		}
		mono[i] = sum / float32(c.channels) * c.gain
	}
	c.filter.Process(mono)

	for _, s := range mono {
		c.ring[c.head] = s
		c.head = (c.head + 1) % c.bufferSize
	}
}

// GetBuffer returns a copy of the latest bufferSize samples, oldest first.
// Until the ring has filled once the missing head is zero.
func (c *PortAudioCapturer) GetBuffer() (*AudioBuffer, error) {
	if !c.isCapturing {
		return nil, ErrNotCapturing
	}

	c.bufferMutex.Lock()
	defer c.bufferMutex.Unlock()

	out := &AudioBuffer{
		Samples:    make([]float32, c.bufferSize),
		SampleRate: c.sampleRate,
	}
	n := copy(out.Samples, c.ring[c.head:])
	copy(out.Samples[n:], c.ring[:c.head])

	return out, nil
}

// IsCapturing returns true if currently capturing audio
func (c *PortAudioCapturer) IsCapturing() bool {
	return c.isCapturing
}

// SetGain scales the input before it is filtered; values below 0.1 are
// raised to 0.1. Safe to call while capturing.
func (c *PortAudioCapturer) SetGain(gain float64) {
	c.bufferMutex.Lock()
	defer c.bufferMutex.Unlock()
	c.gain = float32(max(gain, minGain))
}

// Gain returns the current input gain
func (c *PortAudioCapturer) Gain() float64 {
	c.bufferMutex.Lock()
	defer c.bufferMutex.Unlock()
	return float64(c.gain)
}
