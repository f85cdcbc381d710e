// Package tuner holds the tuning decision logic: the reference table, the
// Auto/Manual mode machine, target matching with hysteresis, deviation
// smoothing and the Session that ties them to a frame source.
package tuner

import "math"

// None marks an absent string index
const None = -1

// MaxDisplayCents bounds every cents value handed to the gauge
const MaxDisplayCents = 50.0

// GuitarString is one entry of the reference table
type GuitarString struct {
	Note      string
	Octave    int
	Frequency float64
	Label     string
}

// StandardTuning is E standard, lowest string first
var StandardTuning = [6]GuitarString{
	{Note: "E", Octave: 2, Frequency: 82.41, Label: "E2"}, // 6th string
	{Note: "A", Octave: 2, Frequency: 110.00, Label: "A2"},
	{Note: "D", Octave: 3, Frequency: 146.83, Label: "D3"},
	{Note: "G", Octave: 3, Frequency: 196.00, Label: "G3"},
	{Note: "B", Octave: 3, Frequency: 246.94, Label: "B3"},
	{Note: "E", Octave: 4, Frequency: 329.63, Label: "E4"}, // 1st string
}

// ValidIndex reports whether i addresses StandardTuning
func ValidIndex(i int) bool {
	return i >= 0 && i < len(StandardTuning)
}

// StringNumber converts a table index to the physical string number (6..1)
func StringNumber(index int) int {
	return len(StandardTuning) - index
}

// IndexForString converts a physical string number (1..6) to a table index,
// None if out of range.
func IndexForString(number int) int {
	i := len(StandardTuning) - number
	if !ValidIndex(i) {
		return None
	}
	return i
}

// Cents is the signed distance from ref to f, 1200·log2(f/ref)
func Cents(f, ref float64) float64 {
	return 1200 * math.Log2(f/ref)
}

// ClampCents limits c to ±MaxDisplayCents
func ClampCents(c float64) float64 {
	return math.Max(-MaxDisplayCents, math.Min(MaxDisplayCents, c))
}

// Nearest returns the reference closest to f in absolute cents, and the signed
// offset to it. Ties go to the lower string.
func Nearest(f float64) (index int, cents float64) {
	index = None
	cents = math.Inf(1)
	for i, s := range StandardTuning {
		diff := Cents(f, s.Frequency)
		if math.Abs(diff) < math.Abs(cents) {
			index, cents = i, diff
		}
	}
	return index, cents
}
