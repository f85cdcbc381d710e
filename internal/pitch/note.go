package pitch

import (
	"fmt"
	"math"
)

// A4 is the tuning reference for note naming
const A4 = 440.0

// Note represents a musical note
type Note struct {
	Name             string  // e.g., "A", "A#", "B"
	Octave           int     // e.g., 4 for middle C (C4)
	Frequency        float64 // Measured frequency in Hz
	Cents            int     // Deviation from PerfectFrequency, floored
	PerfectFrequency float64 // Equal-tempered frequency of the named note
}

// String renders the scientific pitch name, e.g. "E2"
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// All note names in chromatic order
var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// FrequencyToNote names the nearest equal-tempered note. frequency must be
// positive. Cents is floored, so a tone a hair flat of the note reads -1.
func FrequencyToNote(frequency float64) Note {
	noteNumber := 12*math.Log2(frequency/A4) + 69
	rounded := int(math.Round(noteNumber))
	perfect := A4 * math.Pow(2, float64(rounded-69)/12)
	cents := int(math.Floor(1200 * math.Log2(frequency/perfect)))

	index := rounded % 12
	if index < 0 {
		index += 12
	}

	return Note{
		Name:             noteNames[index],
		Octave:           floorDiv(rounded, 12) - 1,
		Frequency:        frequency,
		Cents:            cents,
		PerfectFrequency: perfect,
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
