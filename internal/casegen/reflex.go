package casegen

import (
	"math"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/disorder"
)

// ReflexAbsent marks an absent acoustic reflex.
const ReflexAbsent = 999

// Reflex test parameters in dB HL.
const (
	reflexIpsiBase   = 85
	reflexContraBase = 90
	reflexMaxLevel   = 125
	reflexOssicular  = 15
)

// ReflexFrequencies are the ART activator frequencies.
var ReflexFrequencies = []int{500, 1000, 2000}

// ARTConfig holds reflex inputs for both probe ears.
type ARTConfig struct {
	Right ARTEar `json:"right" yaml:"right"`
	Left  ARTEar `json:"left" yaml:"left"`
}

// Ear returns the configuration with the probe in ear.
func (c ARTConfig) Ear(ear audiometry.Ear) ARTEar {
	if ear == audiometry.Left {
		return c.Left
	}
	return c.Right
}

// ARTEar is the reflex configuration with the probe in one ear.
type ARTEar struct {
	ACThresholds map[int]int `json:"ac_thresholds" yaml:"ac_thresholds"`
	BCThresholds map[int]int `json:"bc_thresholds" yaml:"bc_thresholds"`
	// NoResponseBC marks BC thresholds recorded as no response.
	NoResponseBC    map[int]bool      `json:"no_response_bc,omitempty" yaml:"no_response_bc,omitempty"`
	TympanogramType disorder.TympType `json:"tympanogram_type" yaml:"tympanogram_type"`
	PeakPressure    float64           `json:"peak_pressure" yaml:"peak_pressure"`
	// Overrides replace the computed threshold at a frequency.
	IpsilateralOverride   map[int]int `json:"ipsilateral_override,omitempty" yaml:"ipsilateral_override,omitempty"`
	ContralateralOverride map[int]int `json:"contralateral_override,omitempty" yaml:"contralateral_override,omitempty"`
}

// conductive reports whether the probe ear cannot register a reflex.
func (a ARTEar) conductive() bool {
	return a.TympanogramType == disorder.TympB || a.TympanogramType == disorder.TympAs
}

func buildART(right, left disorder.Audiogram, tymp Tympanogram, meta Meta) ARTConfig {
	cfg := ARTConfig{
		Right: artEar(right, tymp.Right),
		Left:  artEar(left, tymp.Left),
	}
	if meta.Profile == disorder.Ossicular && meta.AffectedSide != nil {
		affected, other := &cfg.Right, &cfg.Left
		affAud := right
		if *meta.AffectedSide == audiometry.Left {
			affected, other = &cfg.Left, &cfg.Right
			affAud = left
		}
		affected.IpsilateralOverride = map[int]int{}
		affected.ContralateralOverride = map[int]int{}
		other.ContralateralOverride = map[int]int{}
		for _, f := range ReflexFrequencies {
			affected.IpsilateralOverride[f] = ReflexAbsent
			affected.ContralateralOverride[f] = ReflexAbsent
			other.ContralateralOverride[f] = reflexLevel(reflexContraBase+reflexOssicular, affAud.BCAt(f), false)
		}
	}
	return cfg
}

func artEar(a disorder.Audiogram, t TympanogramEar) ARTEar {
	e := ARTEar{
		ACThresholds: map[int]int{},
		BCThresholds: map[int]int{},
		PeakPressure: t.PeakPressure,
	}
	for _, f := range ReflexFrequencies {
		e.ACThresholds[f] = a.ACAt(f)
		e.BCThresholds[f] = a.BCAt(f)
		if a.SOBC[audiometry.FrequencyIndex(f)] {
			if e.NoResponseBC == nil {
				e.NoResponseBC = map[int]bool{}
			}
			e.NoResponseBC[f] = true
		}
	}
	e.TympanogramType = t.Type
	if t.BEquivalent() && t.Type != disorder.TympAs {
		e.TympanogramType = disorder.TympB
	}
	return e
}

// reflexLevel adds a quarter of the cochlear loss above 20 dB HL to base.
func reflexLevel(base, bc int, noResponse bool) int {
	if noResponse {
		return ReflexAbsent
	}
	v := float64(base) + 0.25*math.Max(0, float64(bc-20))
	q := audiometry.Quantize5(v)
	if q > reflexMaxLevel {
		return ReflexAbsent
	}
	return q
}

// Reflex is an acoustic reflex threshold pair for one probe ear and
// activator frequency. ReflexAbsent marks absence.
type Reflex struct {
	ProbeEar      audiometry.Ear `json:"probe_ear"`
	Frequency     int            `json:"frequency"`
	Ipsilateral   int            `json:"ipsilateral"`
	Contralateral int            `json:"contralateral"`
}

// Reflexes evaluates the ART configuration. Ipsilateral stimulates the
// probe ear; contralateral stimulates the opposite ear.
func Reflexes(cfg ARTConfig) []Reflex {
	var out []Reflex
	for _, probe := range audiometry.Ears {
		p := cfg.Ear(probe)
		s := cfg.Ear(probe.Opposite())
		for _, f := range ReflexFrequencies {
			rf := Reflex{ProbeEar: probe, Frequency: f}

			switch {
			case hasOverride(p.IpsilateralOverride, f):
				rf.Ipsilateral = p.IpsilateralOverride[f]
			case p.conductive():
				rf.Ipsilateral = ReflexAbsent
			default:
				rf.Ipsilateral = reflexLevel(reflexIpsiBase, p.BCThresholds[f], p.NoResponseBC[f])
			}

			switch {
			case hasOverride(p.ContralateralOverride, f):
				rf.Contralateral = p.ContralateralOverride[f]
			case p.conductive():
				rf.Contralateral = ReflexAbsent
			default:
				gap := max(0, s.ACThresholds[f]-s.BCThresholds[f])
				if s.NoResponseBC[f] {
					gap = 0
				}
				rf.Contralateral = reflexLevel(reflexContraBase+gap, s.BCThresholds[f], s.NoResponseBC[f])
			}
			out = append(out, rf)
		}
	}
	return out
}

func hasOverride(m map[int]int, f int) bool {
	_, ok := m[f]
	return ok
}
