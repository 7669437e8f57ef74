package theme

import "math"

// NoteFrequencies contains precomputed frequencies for MIDI notes 0-127
// A4 (note 69) = 440Hz, equal temperament
var NoteFrequencies = noteTable()

func noteTable() (t [128]float64) {
	for i := range t {
		t[i] = 440.0 * math.Pow(2, (float64(i)-69.0)/12.0)
	}
	return t
}

// NoteFreq returns frequency in Hz for MIDI note number, 0 when out of range
func NoteFreq(midi int) float64 {
	if midi < 0 || midi >= len(NoteFrequencies) {
		return 0
	}
	return NoteFrequencies[midi]
}

// Scale converts MIDI note numbers to a frequency scale
func Scale(notes ...int) []float64 {
	out := make([]float64, len(notes))
	for i, n := range notes {
		out[i] = NoteFreq(n)
	}
	return out
}
