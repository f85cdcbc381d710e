package pitch

import (
	"errors"
	"fmt"
	"math"

	"github.com/0xlemi/fretune/internal/audio"
	"gonum.org/v1/gonum/floats"
)

// Errors. Every estimator failure wraps ErrNoPitch, which callers treat as a
// normal "nothing this frame" outcome.
var (
	ErrNoPitch         = errors.New("no pitch detected")
	ErrEmptyBuffer     = fmt.Errorf("%w: empty audio buffer", ErrNoPitch)
	ErrVolumeThreshold = fmt.Errorf("%w: volume below threshold", ErrNoPitch)
	ErrLowConfidence   = fmt.Errorf("%w: periodicity below confidence threshold", ErrNoPitch)
)

const (
	// minFrequency bounds the lag search: the longest period examined
	minFrequency = 50.0

	// minConfidence is the required C[T0]/C[0] ratio
	minConfidence = 0.85
)

// Detector defines the interface for pitch estimation
type Detector interface {
	// Estimate returns the fundamental frequency of buffer in Hz
	Estimate(buffer *audio.AudioBuffer) (float64, error)
}

// Estimator is a bounded-lag autocorrelation pitch estimator with parabolic
// sub-sample refinement. It reuses its scratch buffers and must not be shared
// between goroutines.
type Estimator struct {
	correlator Correlator
	samples    []float64
	corr       []float64
}

// NewEstimator creates an estimator. A nil correlator selects DirectCorrelator.
func NewEstimator(correlator Correlator) *Estimator {
	if correlator == nil {
		correlator = DirectCorrelator{}
	}
	return &Estimator{correlator: correlator}
}

// Estimate analyzes an audio buffer and returns its fundamental frequency
func (e *Estimator) Estimate(buffer *audio.AudioBuffer) (float64, error) {
	if buffer == nil || len(buffer.Samples) == 0 || buffer.SampleRate <= 0 {
		return 0, ErrEmptyBuffer
	}

	x := e.load(buffer.Samples)
	if rms64(x) < MinRMS {
		return 0, ErrVolumeThreshold
	}

	sampleRate := float64(buffer.SampleRate)
	maxLag := int(math.Floor(sampleRate / minFrequency))
	if maxLag > len(x) {
		maxLag = len(x)
	}
	if maxLag < 3 {
		return 0, ErrLowConfidence
	}

	if cap(e.corr) < maxLag {
		e.corr = make([]float64, maxLag)
	}
	c := e.corr[:maxLag]
	e.correlator.Correlate(x, c)

	// Walk down the zero-lag peak to the first dip
	d := 0
	for d < maxLag-1 && c[d] > c[d+1] {
		d++
	}
	if d >= maxLag-1 {
		return 0, ErrLowConfidence
	}

	t0 := d + floats.MaxIdx(c[d:])
	if c[0] <= 0 || c[t0]/c[0] < minConfidence {
		return 0, ErrLowConfidence
	}

	period := float64(t0) + refine(c, t0)
	if period <= 0 {
		return 0, ErrLowConfidence
	}

	return sampleRate / period, nil
}

// refine returns the parabolic vertex offset around c[t0], or 0 when t0 sits
// on either edge of c or the three points are collinear.
func refine(c []float64, t0 int) float64 {
	if t0 <= 0 || t0 >= len(c)-1 {
		return 0
	}
	prev, cur, next := c[t0-1], c[t0], c[t0+1]
	denom := prev - 2*cur + next
	if denom == 0 {
		return 0
	}
	return -(next - prev) / (2 * denom)
}

func (e *Estimator) load(samples []float32) []float64 {
	if cap(e.samples) < len(samples) {
		e.samples = make([]float64, len(samples))
	}
	x := e.samples[:len(samples)]
	for i, s := range samples {
		x[i] = float64(s)
	}
	return x
}
