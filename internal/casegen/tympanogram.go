package casegen

import (
	"math"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/disorder"
	"github.com/abhisek/audiotrainer/internal/rng"
)

// Tympanogram holds per-ear tympanometric peaks. Type is the overall
// classification: the abnormal type when the ears differ.
type Tympanogram struct {
	Type  disorder.TympType `json:"type" yaml:"type"`
	Right TympanogramEar    `json:"right" yaml:"right"`
	Left  TympanogramEar    `json:"left" yaml:"left"`
}

// Ear returns the parameters for ear.
func (t Tympanogram) Ear(ear audiometry.Ear) TympanogramEar {
	if ear == audiometry.Left {
		return t.Left
	}
	return t.Right
}

// TympanogramEar is a single-peak tympanogram.
type TympanogramEar struct {
	Type           disorder.TympType `json:"type" yaml:"type"`
	PeakPressure   float64           `json:"peak_pressure_dapa" yaml:"peak_pressure_dapa"`
	PeakCompliance float64           `json:"peak_compliance_ml" yaml:"peak_compliance_ml"`
	Sigma          float64           `json:"sigma_dapa" yaml:"sigma_dapa"`
}

// BEquivalent reports whether the middle ear should be treated like a
// flat (type B) tympanogram by reflex and emission measures.
func (t TympanogramEar) BEquivalent() bool {
	return t.Type == disorder.TympB ||
		t.PeakCompliance < 0.8 || t.PeakCompliance > 1.7 ||
		t.PeakPressure > 50 || t.PeakPressure < -150
}

// Admittance evaluates the tympanogram curve at pressure p (daPa).
func (t TympanogramEar) Admittance(p float64) float64 {
	d := (p - t.PeakPressure) / t.Sigma
	return t.PeakCompliance * math.Exp(-0.5*d*d)
}

// TympanogramCurve samples the curve from -400 to +200 daPa in step
// increments for renderers.
func TympanogramCurve(t TympanogramEar, step float64) [][2]float64 {
	if step <= 0 {
		step = 10
	}
	var out [][2]float64
	for p := -400.0; p <= 200; p += step {
		out = append(out, [2]float64{p, round2(t.Admittance(p))})
	}
	return out
}

type tympRange struct {
	pressure   [2]float64
	compliance [2]float64
	sigma      [2]float64
}

var tympRanges = map[disorder.TympType]tympRange{
	disorder.TympA:  {pressure: [2]float64{-50, 25}, compliance: [2]float64{0.8, 1.5}, sigma: [2]float64{70, 100}},
	disorder.TympAs: {pressure: [2]float64{-50, 0}, compliance: [2]float64{0.10, 0.25}, sigma: [2]float64{60, 90}},
	disorder.TympAd: {pressure: [2]float64{-25, 25}, compliance: [2]float64{3.0, 4.0}, sigma: [2]float64{60, 90}},
	disorder.TympB:  {pressure: [2]float64{-400, -300}, compliance: [2]float64{0.05, 0.20}, sigma: [2]float64{250, 400}},
	disorder.TympC:  {pressure: [2]float64{-250, -160}, compliance: [2]float64{0.8, 1.2}, sigma: [2]float64{70, 100}},
}

func sampleTymp(r *rng.Rand, typ disorder.TympType) TympanogramEar {
	rg := tympRanges[typ]
	return clampTymp(TympanogramEar{
		Type:           typ,
		PeakPressure:   r.Uniform(rg.pressure[0], rg.pressure[1]),
		PeakCompliance: r.Uniform(rg.compliance[0], rg.compliance[1]),
		Sigma:          r.Uniform(rg.sigma[0], rg.sigma[1]),
	})
}

func jitterTymp(r *rng.Rand, t TympanogramEar) TympanogramEar {
	t.PeakPressure += r.Uniform(-10, 10)
	t.PeakCompliance += r.Uniform(-0.1, 0.1)
	t.Sigma += r.Uniform(-5, 5)
	return clampTymp(t)
}

func clampTymp(t TympanogramEar) TympanogramEar {
	rg := tympRanges[t.Type]
	t.PeakPressure = math.Round(clampF(t.PeakPressure, rg.pressure[0], rg.pressure[1]))
	t.PeakCompliance = round2(clampF(t.PeakCompliance, rg.compliance[0], rg.compliance[1]))
	t.Sigma = math.Round(clampF(t.Sigma, rg.sigma[0], rg.sigma[1]))
	return t
}

// nudge separates two identical rows deterministically.
func nudge(t TympanogramEar) TympanogramEar {
	rg := tympRanges[t.Type]
	if t.PeakPressure+5 <= rg.pressure[1] {
		t.PeakPressure += 5
	} else {
		t.PeakPressure -= 5
	}
	if t.PeakCompliance+0.05 <= rg.compliance[1] {
		t.PeakCompliance = round2(t.PeakCompliance + 0.05)
	} else {
		t.PeakCompliance = round2(t.PeakCompliance - 0.05)
	}
	return t
}

// earTympType picks the tympanogram class for an ear. Conductive ears
// whose shaped audiogram shows a gap but whose profile maps to A are
// re-tagged As.
func earTympType(p disorder.Profile, a disorder.Audiogram) disorder.TympType {
	switch p.Class {
	case disorder.ClassCHL:
		if p.Tympanogram == disorder.TympA && a.MaxABG() >= 20 {
			return disorder.TympAs
		}
		return p.Tympanogram
	default:
		return disorder.TympA
	}
}

func buildTympanogram(r *rng.Rand, rightType, leftType disorder.TympType) Tympanogram {
	right := sampleTymp(r, rightType)
	var left TympanogramEar
	if leftType == rightType {
		left = jitterTymp(r, right)
		if left == right {
			left = nudge(left)
		}
	} else {
		left = sampleTymp(r, leftType)
	}

	overall := rightType
	if rightType == disorder.TympA {
		overall = leftType
	}
	return Tympanogram{Type: overall, Right: right, Left: left}
}

func clampF(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
