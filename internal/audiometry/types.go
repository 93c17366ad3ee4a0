package audiometry

import "fmt"

// Stimulus is the audiometer state the trainee presents to the patient.
type Stimulus struct {
	Ear        Ear        `json:"ear" yaml:"ear"`
	Transducer Transducer `json:"transducer" yaml:"transducer"`
	Masked     bool       `json:"masked" yaml:"masked"`
	Frequency  int        `json:"frequency" yaml:"frequency"`
	Level      int        `json:"level" yaml:"level"`
	// Masker is the narrow-band noise level in the non-test ear.
	// NoMasking when the masker is off.
	Masker int `json:"masker" yaml:"masker"`
}

// DefaultStimulus is the audiometer state after a case is loaded.
func DefaultStimulus() Stimulus {
	return Stimulus{
		Ear:        Right,
		Transducer: AC,
		Frequency:  1000,
		Level:      30,
		Masker:     NoMasking,
	}
}

// Normalize quantizes and clamps level and masker to the input range.
func (s Stimulus) Normalize() Stimulus {
	s.Level = ClampInput(s.Level)
	s.Masker = ClampInput(s.Masker)
	return s
}

// Slot returns the plot slot the stimulus addresses.
func (s Stimulus) Slot() SlotKey {
	return SlotKey{Ear: s.Ear, Transducer: s.Transducer, Frequency: s.Frequency}
}

// Key returns the point identity the stimulus would commit to.
func (s Stimulus) Key() PointKey {
	return PointKey{Ear: s.Ear, Transducer: s.Transducer, Masked: s.Masked, Frequency: s.Frequency}
}

// SlotKey addresses a plot position regardless of masking mode.
type SlotKey struct {
	Ear        Ear
	Transducer Transducer
	Frequency  int
}

// ID renders the slot as "R-AC-1000".
func (k SlotKey) ID() string {
	return fmt.Sprintf("%s-%s-%d", string(k.Ear), k.Transducer, k.Frequency)
}

// PointKey is the identity of a plotted point. At most one point exists
// per key.
type PointKey struct {
	Ear        Ear
	Transducer Transducer
	Masked     bool
	Frequency  int
}

// Slot drops the masking mode.
func (k PointKey) Slot() SlotKey {
	return SlotKey{Ear: k.Ear, Transducer: k.Transducer, Frequency: k.Frequency}
}

// Point is a threshold plotted by the trainee.
type Point struct {
	Ear        Ear        `json:"ear"`
	Transducer Transducer `json:"transducer"`
	Masked     bool       `json:"masked"`
	Frequency  int        `json:"frequency"`
	Level      int        `json:"level"`
	ScaleOut   bool       `json:"scale_out"`
}

// Key returns the identity key.
func (p Point) Key() PointKey {
	return PointKey{Ear: p.Ear, Transducer: p.Transducer, Masked: p.Masked, Frequency: p.Frequency}
}

// Slot returns the plot position.
func (p Point) Slot() SlotKey {
	return p.Key().Slot()
}

// Target is a hidden reference threshold derived from a case.
type Target struct {
	Ear        Ear        `json:"ear"`
	Transducer Transducer `json:"transducer"`
	Frequency  int        `json:"frequency"`
	Level      int        `json:"level"`
	ScaleOut   bool       `json:"scale_out"`
	// NeedsMasking is true when a clinician would have to mask the
	// non-test ear to obtain this threshold.
	NeedsMasking bool `json:"needs_masking"`
}

// Slot returns the plot position.
func (t Target) Slot() SlotKey {
	return SlotKey{Ear: t.Ear, Transducer: t.Transducer, Frequency: t.Frequency}
}

// Attenuation is the interaural attenuation table.
type Attenuation struct {
	AC int `json:"ac" mapstructure:"ac"`
	BC int `json:"bc" mapstructure:"bc"`
	// Per-frequency overrides.
	ACByFreq map[int]int `json:"ac_by_freq,omitempty" mapstructure:"ac_by_freq"`
	BCByFreq map[int]int `json:"bc_by_freq,omitempty" mapstructure:"bc_by_freq"`
}

// DefaultAttenuation returns AC 50 dB and BC 0 dB at every frequency.
func DefaultAttenuation() Attenuation {
	return Attenuation{AC: 50, BC: 0}
}

// For returns the attenuation for (t, f).
func (a Attenuation) For(t Transducer, f int) int {
	if t == BC {
		if v, ok := a.BCByFreq[f]; ok {
			return v
		}
		return a.BC
	}
	if v, ok := a.ACByFreq[f]; ok {
		return v
	}
	return a.AC
}
