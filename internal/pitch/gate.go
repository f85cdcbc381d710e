package pitch

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Gate thresholds
const (
	// volumeScale boosts raw RMS into the 0..1 meter range
	volumeScale = 8.0

	// VolumeGate is the outer gate on the scaled meter value
	VolumeGate = 0.05

	// MinRMS is the estimator's own gate on unscaled RMS
	MinRMS = 0.03
)

// RMS returns the root mean square of samples, 0 for an empty slice
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	x := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = float64(s)
	}
	return rms64(x)
}

func rms64(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}

// Volume maps RMS onto the 0..1 meter scale
func Volume(rms float64) float64 {
	return math.Min(rms*volumeScale, 1)
}

// PassesGate reports whether a frame at this meter level should be analysed
func PassesGate(volume float64) bool {
	return volume > VolumeGate
}
