package audio

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

const butterworthQ = 1 / math.Sqrt2

// Lowpass is a second-order Butterworth low-pass over float32 frames.
// The capture path runs it so the pitch core receives band-limited frames.
type Lowpass struct {
	chain   *biquad.Chain
	scratch []float64
}

// NewLowpass builds a filter with the given cutoff. A non-positive cutoff or
// one at or above Nyquist yields a pass-through filter.
func NewLowpass(cutoffHz float64, sampleRate int) *Lowpass {
	coeffs := biquad.Identity()
	if cutoffHz > 0 && cutoffHz < float64(sampleRate)/2 {
		coeffs = design.Lowpass(cutoffHz, butterworthQ, float64(sampleRate))
	}
	return &Lowpass{chain: biquad.NewChain([]biquad.Coefficients{coeffs})}
}

// Process filters samples in place
func (f *Lowpass) Process(samples []float32) {
	if cap(f.scratch) < len(samples) {
		f.scratch = make([]float64, len(samples))
	}
	buf := f.scratch[:len(samples)]
	for i, s := range samples {
		buf[i] = float64(s)
	}

	f.chain.ProcessBlock(buf)

	for i, v := range buf {
		samples[i] = float32(v)
	}
}

// Reset clears the filter history
func (f *Lowpass) Reset() {
	f.chain.Reset()
}
