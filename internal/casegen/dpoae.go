package casegen

import (
	"math"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/disorder"
)

// DPOAE defaults. SNR falls 0.4 dB per dB of hearing loss from a 16 dB
// ceiling; a B-equivalent middle ear leaves only noise floor.
const (
	dpoaeCeiling   = 16.0
	dpoaeSlope     = 0.4
	dpoaeAbsentSNR = 2.0
	DPOAEPassSNR   = 6.0
)

// DPOAEFrequencies are the f2 test frequencies in Hz.
var DPOAEFrequencies = []int{1000, 2000, 3000, 4000, 6000, 8000}

// DPOAEConfig holds per-ear emission inputs.
type DPOAEConfig struct {
	Right DPOAEEar `json:"right" yaml:"right"`
	Left  DPOAEEar `json:"left" yaml:"left"`
}

// Ear returns the configuration for ear.
func (c DPOAEConfig) Ear(ear audiometry.Ear) DPOAEEar {
	if ear == audiometry.Left {
		return c.Left
	}
	return c.Right
}

// DPOAEEar maps each f2 to the audiometric AC estimate and carries the
// middle-ear class.
type DPOAEEar struct {
	ACThresholds    map[int]float64   `json:"ac_thresholds" yaml:"ac_thresholds"`
	TympanogramType disorder.TympType `json:"tympanogram_type" yaml:"tympanogram_type"`
}

func dpoaeEar(a disorder.Audiogram, t TympanogramEar) DPOAEEar {
	ac := func(f int) float64 { return float64(a.ACAt(f)) }
	e := DPOAEEar{
		ACThresholds: map[int]float64{
			1000: ac(1000),
			2000: ac(2000),
			3000: (ac(2000) + ac(4000)) / 2,
			4000: ac(4000),
			6000: (ac(4000) + ac(8000)) / 2,
			8000: ac(8000),
		},
		TympanogramType: t.Type,
	}
	if t.BEquivalent() {
		e.TympanogramType = disorder.TympB
	}
	return e
}

// DPOAEResult is the emission outcome at one f2.
type DPOAEResult struct {
	Ear  audiometry.Ear `json:"ear"`
	F2   int            `json:"f2"`
	SNR  float64        `json:"snr_db"`
	Pass bool           `json:"pass"`
}

// DPOAESNR returns the default-table SNR for an AC threshold.
func DPOAESNR(ac float64, tymp disorder.TympType) float64 {
	if tymp == disorder.TympB {
		return dpoaeAbsentSNR
	}
	return math.Max(0, round1(dpoaeCeiling-dpoaeSlope*math.Max(0, ac)))
}

// DPOAEResults evaluates the emission table for both ears.
func DPOAEResults(cfg DPOAEConfig) []DPOAEResult {
	var out []DPOAEResult
	for _, ear := range audiometry.Ears {
		e := cfg.Ear(ear)
		for _, f2 := range DPOAEFrequencies {
			snr := DPOAESNR(e.ACThresholds[f2], e.TympanogramType)
			out = append(out, DPOAEResult{Ear: ear, F2: f2, SNR: snr, Pass: snr >= DPOAEPassSNR})
		}
	}
	return out
}
