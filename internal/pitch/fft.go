package pitch

import (
	"math/bits"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// Correlator fills out[lag] = Σ x[i]·x[i+lag] for every lag in [0, len(out)).
// len(out) must not exceed len(x).
type Correlator interface {
	Correlate(x []float64, out []float64)
}

// DirectCorrelator computes each lag as a dot product, O(N·maxLag)
type DirectCorrelator struct{}

// Correlate implements Correlator
func (DirectCorrelator) Correlate(x []float64, out []float64) {
	n := len(x)
	for lag := range out {
		out[lag] = floats.Dot(x[:n-lag], x[lag:])
	}
}

// FFTCorrelator computes the same sums through the power spectrum
// (Wiener–Khinchin). The input is zero-padded to a power of two at least
// len(x)+len(out) long so no circular wrap reaches the requested lags.
type FFTCorrelator struct {
	padded []float64
}

// Correlate implements Correlator
func (f *FFTCorrelator) Correlate(x []float64, out []float64) {
	size := nextPow2(len(x) + len(out))
	if cap(f.padded) < size {
		f.padded = make([]float64, size)
	}
	p := f.padded[:size]
	copy(p, x)
	for i := len(x); i < size; i++ {
		p[i] = 0
	}

	spectrum := fft.FFTReal(p)
	for i, v := range spectrum {
		spectrum[i] = complex(real(v)*real(v)+imag(v)*imag(v), 0)
	}
	r := fft.IFFT(spectrum)
	for lag := range out {
		out[lag] = real(r[lag])
	}
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
