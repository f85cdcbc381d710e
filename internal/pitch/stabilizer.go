package pitch

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultWindow is the number of raw estimates kept for the median
	DefaultWindow = 8

	// decayThreshold: a silent frame evicts the oldest entry when the random
	// draw exceeds it, roughly one silent frame in ten
	decayThreshold = 0.9
)

// Stabilizer is a fixed-size median filter over raw frequency estimates
type Stabilizer struct {
	size   int
	window []float64
	sorted []float64
	random func() float64
}

// StabilizerOption configures a Stabilizer
type StabilizerOption func(*Stabilizer)

// WithRandom replaces the random source used by Decay. f must return values
// in [0, 1).
func WithRandom(f func() float64) StabilizerOption {
	return func(s *Stabilizer) {
		if f != nil {
			s.random = f
		}
	}
}

// NewStabilizer creates a median window of the given size (DefaultWindow if
// size is not positive).
func NewStabilizer(size int, opts ...StabilizerOption) *Stabilizer {
	if size <= 0 {
		size = DefaultWindow
	}
	s := &Stabilizer{
		size:   size,
		window: make([]float64, 0, size+1),
		sorted: make([]float64, 0, size),
		random: rand.Float64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Push appends an estimate, dropping the oldest when the window is full, and
// returns the new median.
func (s *Stabilizer) Push(frequency float64) float64 {
	s.window = append(s.window, frequency)
	if len(s.window) > s.size {
		s.dropOldest()
	}
	m, _ := s.Median()
	return m
}

// Median returns window[floor(len/2)] of the sorted window. ok is false when
// the window is empty.
func (s *Stabilizer) Median() (median float64, ok bool) {
	if len(s.window) == 0 {
		return 0, false
	}
	s.sorted = append(s.sorted[:0], s.window...)
	sort.Float64s(s.sorted)
	return s.sorted[len(s.sorted)/2], true
}

// Decay is called on silent frames. With probability ~10% it evicts the
// oldest estimate and reports true.
func (s *Stabilizer) Decay() bool {
	if len(s.window) == 0 || s.random() <= decayThreshold {
		return false
	}
	s.dropOldest()
	return true
}

func (s *Stabilizer) dropOldest() {
	n := copy(s.window, s.window[1:])
	s.window = s.window[:n]
}

// Reset empties the window
func (s *Stabilizer) Reset() {
	s.window = s.window[:0]
}

// Len returns the number of estimates held
func (s *Stabilizer) Len() int {
	return len(s.window)
}

// Spread is the standard deviation of the window in cents around the median;
// 0 with fewer than two estimates.
func (s *Stabilizer) Spread() float64 {
	if len(s.window) < 2 {
		return 0
	}
	median, _ := s.Median()
	cents := make([]float64, len(s.window))
	for i, f := range s.window {
		cents[i] = 1200 * math.Log2(f/median)
	}
	return stat.StdDev(cents, nil)
}
