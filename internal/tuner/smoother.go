package tuner

import "math"

// SmoothingFactor picks the filter coefficient for an offset magnitude: slow
// near zero so the needle settles, fast for large errors.
func SmoothingFactor(absCents float64) float64 {
	switch {
	case absCents < 1:
		return 0.02
	case absCents < 5:
		return 0.05
	case absCents > 20:
		return 0.3
	default:
		return 0.1
	}
}

// Smoother is a single-pole exponential filter over the cents offset
type Smoother struct {
	value float64
}

// Update advances the filter toward raw and returns the new value
func (s *Smoother) Update(raw float64) float64 {
	s.value += (raw - s.value) * SmoothingFactor(math.Abs(raw))
	return s.value
}

// Value returns the current accumulator
func (s *Smoother) Value() float64 {
	return s.value
}

// Reset zeroes the accumulator
func (s *Smoother) Reset() {
	s.value = 0
}
