package pitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyToNote(t *testing.T) {
	tests := []struct {
		freq   float64
		name   string
		octave int
		cents  int
	}{
		{440, "A", 4, 0},
		{82.41, "E", 2, 0},
		{110, "A", 2, 0},
		{261.63, "C", 4, 0},
		{329.63, "E", 4, 0},
		{466.17, "A#", 4, 0},
		{439.9, "A", 4, -1}, // floor, not round
		{446, "A", 4, 23},
		{16.36, "C", 0, 0},
	}
	for _, tt := range tests {
		n := FrequencyToNote(tt.freq)
		assert.Equal(t, tt.name, n.Name, "f=%.2f", tt.freq)
		assert.Equal(t, tt.octave, n.Octave, "f=%.2f", tt.freq)
		assert.Equal(t, tt.cents, n.Cents, "f=%.2f", tt.freq)
		assert.Equal(t, tt.freq, n.Frequency)
	}
}

func TestFrequencyToNotePerfectFrequency(t *testing.T) {
	n := FrequencyToNote(83)
	assert.Equal(t, "E2", n.String())
	assert.InDelta(t, 82.4069, n.PerfectFrequency, 1e-3)

	a := FrequencyToNote(440)
	assert.Equal(t, 440.0, a.PerfectFrequency)
}

func TestFrequencyToNoteBelowMIDIRange(t *testing.T) {
	// note number is negative here; index and octave must still be sane
	n := FrequencyToNote(7.7)
	assert.Equal(t, "B", n.Name)
	assert.Equal(t, -2, n.Octave)
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 5, floorDiv(69, 12))
	assert.Equal(t, 0, floorDiv(0, 12))
	assert.Equal(t, -1, floorDiv(-1, 12))
	assert.Equal(t, -1, floorDiv(-12, 12))
	assert.Equal(t, -2, floorDiv(-13, 12))
}
