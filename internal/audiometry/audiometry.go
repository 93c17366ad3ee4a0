// Package audiometry holds the fixed audiometric constants and the small
// value types shared by case generation, response evaluation, the trainee
// session and scoring.
package audiometry

import (
	"fmt"
	"math"
	"slices"
)

// Ear identifies the right or left ear.
type Ear string

const (
	Right Ear = "R"
	Left  Ear = "L"
)

// Ears lists both ears in display order.
var Ears = []Ear{Right, Left}

// Opposite returns the contralateral ear.
func (e Ear) Opposite() Ear {
	if e == Left {
		return Right
	}
	return Left
}

// Valid reports whether e is R or L.
func (e Ear) Valid() bool {
	return e == Right || e == Left
}

// String returns a human-readable ear name.
func (e Ear) String() string {
	switch e {
	case Right:
		return "Right"
	case Left:
		return "Left"
	}
	return string(e)
}

// ParseEar accepts "R", "L", "right" or "left" in any case.
func ParseEar(s string) (Ear, error) {
	switch s {
	case "R", "r", "right", "Right", "RIGHT":
		return Right, nil
	case "L", "l", "left", "Left", "LEFT":
		return Left, nil
	}
	return "", fmt.Errorf("unknown ear %q", s)
}

// Transducer is air conduction (headphones) or bone conduction (vibrator).
type Transducer string

const (
	AC Transducer = "AC"
	BC Transducer = "BC"
)

// Transducers lists both transducers.
var Transducers = []Transducer{AC, BC}

// Valid reports whether t is AC or BC.
func (t Transducer) Valid() bool {
	return t == AC || t == BC
}

// ParseTransducer accepts "AC"/"BC" in any case.
func ParseTransducer(s string) (Transducer, error) {
	switch s {
	case "AC", "ac", "air":
		return AC, nil
	case "BC", "bc", "bone":
		return BC, nil
	}
	return "", fmt.Errorf("unknown transducer %q", s)
}

// Frequencies is the audiometric frequency list in Hz, in octave order.
var Frequencies = []int{125, 250, 500, 1000, 2000, 4000, 8000}

// NumFrequencies is len(Frequencies).
const NumFrequencies = 7

// Level bounds in dB HL.
const (
	DisplayMin = -10
	DisplayMax = 120
	InputMin   = -15
	InputMax   = 120

	// NoMasking is the masker level sentinel meaning no masker is applied.
	NoMasking = -15
)

var acMax = map[int]int{125: 70, 250: 90, 500: 110, 1000: 110, 2000: 110, 4000: 110, 8000: 100}

var bcMax = map[int]int{250: 55, 500: 65, 1000: 70, 2000: 70, 4000: 60}

// FrequencyIndex returns the index of f in Frequencies, or -1.
func FrequencyIndex(f int) int {
	return slices.Index(Frequencies, f)
}

// IsFrequency reports whether f is an audiometric frequency.
func IsFrequency(f int) bool {
	return FrequencyIndex(f) >= 0
}

// IsBCFrequency reports whether bone conduction is measured at f.
func IsBCFrequency(f int) bool {
	_, ok := bcMax[f]
	return ok
}

// BCFrequencies returns the bone-conduction subset of Frequencies.
func BCFrequencies() []int {
	out := make([]int, 0, len(bcMax))
	for _, f := range Frequencies {
		if IsBCFrequency(f) {
			out = append(out, f)
		}
	}
	return out
}

// Measurable reports whether (t, f) is a valid plot position.
func Measurable(t Transducer, f int) bool {
	switch t {
	case AC:
		return IsFrequency(f)
	case BC:
		return IsBCFrequency(f)
	}
	return false
}

// MaxLevel returns the presentation limit for (t, f).
func MaxLevel(t Transducer, f int) (int, bool) {
	var v int
	var ok bool
	switch t {
	case AC:
		v, ok = acMax[f]
	case BC:
		v, ok = bcMax[f]
	}
	return v, ok
}

// MinLevel returns the lowest level a generated threshold may take at f.
// 125 and 250 Hz carry a clinical floor of 5 dB HL.
func MinLevel(f int) int {
	if f == 125 || f == 250 {
		return 5
	}
	return DisplayMin
}

// NoResponseBC returns the BC level recorded as "no response" at f for
// sensorineural ears. It coincides with the BC presentation limit.
func NoResponseBC(f int) (int, bool) {
	v, ok := bcMax[f]
	return v, ok
}

// Quantize5 rounds v to the nearest multiple of 5 dB.
func Quantize5(v float64) int {
	return int(math.Round(v/5) * 5)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInput quantizes and limits a level or masker to the input range.
func ClampInput(v int) int {
	return Clamp(Quantize5(float64(v)), InputMin, InputMax)
}

// ClampDisplay limits a plotted level to the display range.
func ClampDisplay(v int) int {
	return Clamp(v, DisplayMin, DisplayMax)
}

// OctaveIndex returns the octave distance of f above 125 Hz. Renderers
// use it for x positions; one octave spans the same width as 20 dB.
func OctaveIndex(f int) float64 {
	return math.Log2(float64(f) / 125)
}

// MaskerBand returns the narrow-band masker edges around center f.
func MaskerBand(f int) (lo, hi float64) {
	return float64(f) / math.Sqrt2, float64(f) * math.Sqrt2
}
