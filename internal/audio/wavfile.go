package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/transforms"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned for input that is not a PCM WAV file
var ErrInvalidWAV = errors.New("invalid WAV file")

// WAVCapturer serves analysis windows from a decoded WAV file. Each
// GetBuffer call returns the next bufferSize samples and advances by hop.
type WAVCapturer struct {
	samples     []float32
	sampleRate  int
	bufferSize  int
	hop         int
	pos         int
	isCapturing bool
}

// NewWAVCapturer decodes r fully, downmixes it to mono and scales it to -1..1
func NewWAVCapturer(r io.ReadSeeker, bufferSize, hop int) (*WAVCapturer, error) {
	if bufferSize <= 0 || hop <= 0 {
		return nil, fmt.Errorf("invalid window: buffer=%d hop=%d", bufferSize, hop)
	}

	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode WAV: %w", err)
	}

	fb := pcm.AsFloatBuffer()
	if err := transforms.MonoDownmix(fb); err != nil {
		return nil, fmt.Errorf("downmix WAV: %w", err)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 {
		return nil, fmt.Errorf("%w: bit depth %d", ErrInvalidWAV, bitDepth)
	}
	scale := 1 / float64(int64(1)<<(bitDepth-1))

	samples := make([]float32, len(fb.Data))
	for i, v := range fb.Data {
		samples[i] = float32(v * scale)
	}

	return &WAVCapturer{
		samples:    samples,
		sampleRate: int(decoder.SampleRate),
		bufferSize: bufferSize,
		hop:        hop,
	}, nil
}

// OpenWAV loads a WAV file from disk
func OpenWAV(path string, bufferSize, hop int) (*WAVCapturer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return NewWAVCapturer(f, bufferSize, hop)
}

// SampleRate reports the file's sample rate
func (c *WAVCapturer) SampleRate() int {
	return c.sampleRate
}

// Len reports the number of mono samples in the file
func (c *WAVCapturer) Len() int {
	return len(c.samples)
}

// Start rewinds to the beginning of the file
func (c *WAVCapturer) Start() error {
	if c.isCapturing {
		return ErrAlreadyCapturing
	}
	c.isCapturing = true
	c.pos = 0
	return nil
}

// Stop ends audio capture
func (c *WAVCapturer) Stop() error {
	if !c.isCapturing {
		return ErrNotCapturing
	}
	c.isCapturing = false
	return nil
}

// GetBuffer returns the next window. A short tail is zero-padded; once the
// window start passes the end of the file it returns io.EOF.
func (c *WAVCapturer) GetBuffer() (*AudioBuffer, error) {
	if !c.isCapturing {
		return nil, ErrNotCapturing
	}
	if c.pos >= len(c.samples) {
		return nil, io.EOF
	}

	out := &AudioBuffer{
		Samples:    make([]float32, c.bufferSize),
		SampleRate: c.sampleRate,
	}
	copy(out.Samples, c.samples[c.pos:])
	c.pos += c.hop

	return out, nil
}

// IsCapturing returns true if currently capturing audio
func (c *WAVCapturer) IsCapturing() bool {
	return c.isCapturing
}
