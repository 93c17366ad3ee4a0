// Package casegen synthesizes complete, internally consistent patient
// cases: audiogram, tympanogram, acoustic reflexes and DPOAE.
package casegen

import (
	"math"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/disorder"
	"github.com/abhisek/audiotrainer/internal/norms"
)

// Case is a generated patient. It is never mutated after Generate returns.
type Case struct {
	ID          string      `json:"id" yaml:"id"`
	Meta        Meta        `json:"meta" yaml:"meta"`
	Right       []EarRow    `json:"right" yaml:"right"`
	Left        []EarRow    `json:"left" yaml:"left"`
	Tympanogram Tympanogram `json:"tympanogram" yaml:"tympanogram"`
	ART         ARTConfig   `json:"art" yaml:"art"`
	DPOAE       DPOAEConfig `json:"dpoae" yaml:"dpoae"`
	Narrative   Narrative   `json:"narrative" yaml:"narrative"`
}

// Meta describes how the case was drawn.
type Meta struct {
	Seed         int64           `json:"seed" yaml:"seed"`
	Sex          norms.Sex       `json:"sex" yaml:"sex"`
	AgeGroup     norms.AgeGroup  `json:"age_group" yaml:"age_group"`
	Profile      disorder.Name   `json:"profile" yaml:"profile"`
	Severity     int             `json:"severity" yaml:"severity"`
	AffectedSide *audiometry.Ear `json:"affected_side,omitempty" yaml:"affected_side,omitempty"`
	RightProfile disorder.Name   `json:"right_profile" yaml:"right_profile"`
	LeftProfile  disorder.Name   `json:"left_profile" yaml:"left_profile"`
	Flags        []string        `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// HasFlag reports whether flag was raised during generation.
func (m Meta) HasFlag(flag string) bool {
	for _, f := range m.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// EarRow holds the thresholds at one frequency.
type EarRow struct {
	Freq int  `json:"freq" yaml:"freq"`
	AC   int  `json:"ac" yaml:"ac"`
	BC   *int `json:"bc" yaml:"bc"`
	SOAC bool `json:"so_ac" yaml:"so_ac"`
	SOBC bool `json:"so_bc" yaml:"so_bc"`
	// BCInternal is the cochlear estimate at 125 and 8000 Hz where BC is
	// not measured. It only feeds the crossover logic.
	BCInternal *int `json:"bc_internal,omitempty" yaml:"bc_internal,omitempty"`
}

// Narrative is the case history and a findings summary.
type Narrative struct {
	History  string `json:"history" yaml:"history"`
	Findings string `json:"findings" yaml:"findings"`
}

// Rows returns the rows for ear.
func (c *Case) Rows(ear audiometry.Ear) []EarRow {
	if ear == audiometry.Left {
		return c.Left
	}
	return c.Right
}

// Row returns the row for (ear, f).
func (c *Case) Row(ear audiometry.Ear, f int) (EarRow, bool) {
	if !ear.Valid() {
		return EarRow{}, false
	}
	i := audiometry.FrequencyIndex(f)
	rows := c.Rows(ear)
	if i < 0 || i >= len(rows) {
		return EarRow{}, false
	}
	return rows[i], true
}

// EarProfile returns the profile assigned to ear.
func (c *Case) EarProfile(ear audiometry.Ear) disorder.Name {
	if ear == audiometry.Left {
		return c.Meta.LeftProfile
	}
	return c.Meta.RightProfile
}

// Threshold returns the measurable threshold at (ear, t, f). Scale-out
// thresholds are +Inf. ok is false where nothing can be measured.
func (c *Case) Threshold(ear audiometry.Ear, t audiometry.Transducer, f int) (float64, bool) {
	row, ok := c.Row(ear, f)
	if !ok {
		return 0, false
	}
	switch t {
	case audiometry.AC:
		if row.SOAC {
			return math.Inf(1), true
		}
		return float64(row.AC), true
	case audiometry.BC:
		if row.BC == nil {
			return 0, false
		}
		if row.SOBC {
			return math.Inf(1), true
		}
		return float64(*row.BC), true
	}
	return 0, false
}

// BoneThreshold returns the cochlear threshold of ear at f, falling back
// to BCInternal where BC is not measured.
func (c *Case) BoneThreshold(ear audiometry.Ear, f int) (float64, bool) {
	row, ok := c.Row(ear, f)
	if !ok {
		return 0, false
	}
	if row.BC != nil {
		if row.SOBC {
			return math.Inf(1), true
		}
		return float64(*row.BC), true
	}
	if row.BCInternal == nil {
		return 0, false
	}
	p, _ := disorder.Lookup(string(c.EarProfile(ear)))
	if row.SOAC && p.Class != disorder.ClassCHL {
		return math.Inf(1), true
	}
	return float64(*row.BCInternal), true
}

// Targets derives the hidden reference thresholds for scoring. att
// decides whether masking would be needed to obtain each threshold.
func (c *Case) Targets(att audiometry.Attenuation) []audiometry.Target {
	var out []audiometry.Target
	for _, ear := range audiometry.Ears {
		for _, row := range c.Rows(ear) {
			nte, _ := c.BoneThreshold(ear.Opposite(), row.Freq)
			out = append(out, audiometry.Target{
				Ear:          ear,
				Transducer:   audiometry.AC,
				Frequency:    row.Freq,
				Level:        row.AC,
				ScaleOut:     row.SOAC,
				NeedsMasking: float64(row.AC-att.For(audiometry.AC, row.Freq)) >= nte,
			})
			if row.BC == nil {
				continue
			}
			bc := *row.BC
			out = append(out, audiometry.Target{
				Ear:          ear,
				Transducer:   audiometry.BC,
				Frequency:    row.Freq,
				Level:        bc,
				ScaleOut:     row.SOBC,
				NeedsMasking: row.AC-bc > 10 || float64(bc-att.For(audiometry.BC, row.Freq)) > nte,
			})
		}
	}
	return out
}

func toRows(a disorder.Audiogram, class disorder.Class) []EarRow {
	rows := make([]EarRow, audiometry.NumFrequencies)
	for i, f := range audiometry.Frequencies {
		row := EarRow{Freq: f, AC: a.AC[i], SOAC: a.SOAC[i]}
		if audiometry.IsBCFrequency(f) {
			bc := a.BC[i]
			row.BC = &bc
			row.SOBC = a.SOBC[i]
		} else {
			internal := internalBC(a, class, f)
			row.BCInternal = &internal
		}
		rows[i] = row
	}
	return rows
}

// internalBC estimates cochlear sensitivity at 125/8000 Hz. Cochlear ears
// mirror AC; conductive ears borrow the nearest measured BC.
func internalBC(a disorder.Audiogram, class disorder.Class, f int) int {
	if class != disorder.ClassCHL {
		return a.ACAt(f)
	}
	if f == 125 {
		return a.BCAt(250)
	}
	return a.BCAt(4000)
}
