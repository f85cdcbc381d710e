package audio

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Reference tone envelope
const (
	toneGain      = 0.3
	toneFloorGain = 0.001
)

// TonePlayer plays a reference tone. Implementations must return immediately;
// playback happens in the background.
type TonePlayer interface {
	PlayTone(frequency float64, duration time.Duration)
}

// ToneFunc adapts a function to TonePlayer
type ToneFunc func(frequency float64, duration time.Duration)

// PlayTone calls f
func (f ToneFunc) PlayTone(frequency float64, duration time.Duration) {
	f(frequency, duration)
}

// SineTone renders a pure tone whose gain decays exponentially from 0.3 to
// 0.001 across the duration.
func SineTone(frequency float64, sampleRate int, duration time.Duration) []float32 {
	n := int(duration.Seconds() * float64(sampleRate))
	if n <= 0 || frequency <= 0 {
		return nil
	}

	out := make([]float32, n)
	decay := math.Log(toneFloorGain/toneGain) / float64(n)
	step := 2 * math.Pi * frequency / float64(sampleRate)
	for i := range out {
		gain := toneGain * math.Exp(decay*float64(i))
		out[i] = float32(gain * math.Sin(step*float64(i)))
	}
	return out
}

// PortAudioTonePlayer plays tones on the default output device. Only one tone
// sounds at a time; a new request cuts the previous one short.
type PortAudioTonePlayer struct {
	sampleRate int
	onError    func(error)

	mu     sync.Mutex
	cancel chan struct{}
}

// NewPortAudioTonePlayer creates a tone player. onError, if non-nil, receives
// playback failures from the background goroutine.
func NewPortAudioTonePlayer(sampleRate int, onError func(error)) *PortAudioTonePlayer {
	return &PortAudioTonePlayer{sampleRate: sampleRate, onError: onError}
}

// PlayTone starts playback and returns immediately
func (p *PortAudioTonePlayer) PlayTone(frequency float64, duration time.Duration) {
	samples := SineTone(frequency, p.sampleRate, duration)
	if len(samples) == 0 {
		return
	}

	p.mu.Lock()
	if p.cancel != nil {
		close(p.cancel)
	}
	cancel := make(chan struct{})
	p.cancel = cancel
	p.mu.Unlock()

	go func() {
		if err := p.play(samples, duration, cancel); err != nil && p.onError != nil {
			p.onError(err)
		}
	}()
}

func (p *PortAudioTonePlayer) play(samples []float32, duration time.Duration, cancel <-chan struct{}) error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()

	var mu sync.Mutex
	pos := 0
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(p.sampleRate), 0, func(out []float32) {
		mu.Lock()
		defer mu.Unlock()
		n := copy(out, samples[min(pos, len(samples)):])
		for i := n; i < len(out); i++ {
			out[i] = 0
		}
		pos += len(out)
	})
	if err != nil {
		return err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}

	select {
	case <-time.After(duration + 100*time.Millisecond):
	case <-cancel:
	}

	return errors.Join(stream.Stop(), stream.Close())
}
