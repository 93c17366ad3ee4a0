// Package response decides whether the simulated patient responds to a
// stimulus, accounting for crossover, masking and over-masking.
package response

import (
	"math"

	"github.com/abhisek/audiotrainer/internal/audiometry"
)

// Patient exposes the hidden thresholds of a case.
type Patient interface {
	// Threshold returns the measurable threshold at (ear, t, f). Scale-out
	// thresholds are +Inf. ok is false where nothing is measured.
	Threshold(ear audiometry.Ear, t audiometry.Transducer, f int) (float64, bool)
	// BoneThreshold returns the cochlear threshold of ear at f, including
	// the internal estimate where BC is not measured.
	BoneThreshold(ear audiometry.Ear, f int) (float64, bool)
}

// Warning is a non-fatal classification of a stimulus.
type Warning string

const (
	WarnOverMasking  Warning = "over-masking"
	WarnCrossHearing Warning = "cross-hearing"
)

// Config controls the engine.
type Config struct {
	Attenuation audiometry.Attenuation
	// MaxMaskOffset is how far the masker may exceed the test ear's BC
	// threshold before it shifts the test-ear threshold.
	MaxMaskOffset int

	// Suppress hides the matching warning from Warnings. Result booleans
	// are unaffected.
	SuppressOverMasking  bool
	SuppressCrossHearing bool
}

// DefaultMaxMaskOffset is the over-masking allowance above teBC.
const DefaultMaxMaskOffset = 50

// DefaultConfig returns the default interaural attenuation, the default
// over-masking allowance and no suppression.
func DefaultConfig() Config {
	return Config{
		Attenuation:   audiometry.DefaultAttenuation(),
		MaxMaskOffset: DefaultMaxMaskOffset,
	}
}

// Result is the outcome of one stimulus.
type Result struct {
	// Known is false when the stimulus addresses nothing measurable.
	Known        bool `json:"known"`
	Respond      bool `json:"respond"`
	CrossHearing bool `json:"cross_hearing"`
	OverMasking  bool `json:"over_masking"`

	Level         int     `json:"level"`
	Leak          float64 `json:"leak"`
	EffectiveMask float64 `json:"effective_mask"`
	NTEBC         float64 `json:"nte_bc"`
	MaskLimit     float64 `json:"mask_limit"`
	TEThreshold   float64 `json:"te_threshold"`
	// TEThresholdEff includes the over-masking shift.
	TEThresholdEff float64 `json:"te_threshold_eff"`
}

// Engine evaluates stimuli against a patient.
type Engine struct {
	cfg Config
}

// New creates an engine. A zero MaxMaskOffset takes the default.
func New(cfg Config) *Engine {
	if cfg.MaxMaskOffset == 0 {
		cfg.MaxMaskOffset = DefaultMaxMaskOffset
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Evaluate decides the patient's response to s. Levels are clamped to the
// input range and then to the presentation limit for (transducer, f).
func (e *Engine) Evaluate(p Patient, s audiometry.Stimulus) Result {
	s = s.Normalize()
	if p == nil || !s.Ear.Valid() || !audiometry.Measurable(s.Transducer, s.Frequency) {
		return Result{}
	}
	teThr, ok := p.Threshold(s.Ear, s.Transducer, s.Frequency)
	if !ok {
		return Result{}
	}

	maxLevel, _ := audiometry.MaxLevel(s.Transducer, s.Frequency)
	level := min(s.Level, maxLevel)

	teBC := boneOrInf(p, s.Ear, s.Frequency)
	nteBC := boneOrInf(p, s.Ear.Opposite(), s.Frequency)

	leak := float64(level - e.cfg.Attenuation.For(s.Transducer, s.Frequency))
	effectiveMask := nteBC
	if s.Masked && float64(s.Masker) > nteBC {
		effectiveMask = float64(s.Masker)
	}

	maskLimit := teBC + float64(e.cfg.MaxMaskOffset)
	teThrEff := teThr
	overMasking := false
	if s.Masked && float64(s.Masker) > maskLimit {
		overMasking = true
		teThrEff = teThr + (float64(s.Masker) - maskLimit)
	}

	cross := leak >= effectiveMask
	return Result{
		Known:          true,
		Respond:        float64(level) >= teThrEff || cross,
		CrossHearing:   cross,
		OverMasking:    overMasking,
		Level:          level,
		Leak:           leak,
		EffectiveMask:  effectiveMask,
		NTEBC:          nteBC,
		MaskLimit:      maskLimit,
		TEThreshold:    teThr,
		TEThresholdEff: teThrEff,
	}
}

// Warnings lists the classifications of r that are not suppressed.
func (e *Engine) Warnings(r Result) []Warning {
	var out []Warning
	if r.OverMasking && !e.cfg.SuppressOverMasking {
		out = append(out, WarnOverMasking)
	}
	if r.CrossHearing && !e.cfg.SuppressCrossHearing {
		out = append(out, WarnCrossHearing)
	}
	return out
}

// Commit is the plotted outcome of a stimulus.
type Commit struct {
	Applied bool
	Point   audiometry.Point
	// Result is the evaluation at the committed level.
	Result Result
}

// Commit decides the point to plot for s. At or above the presentation
// limit, a patient who does not respond at the limit yields a scale-out
// point at the limit.
func (e *Engine) Commit(p Patient, s audiometry.Stimulus) Commit {
	s = s.Normalize()
	res := e.Evaluate(p, s)
	if !res.Known {
		return Commit{}
	}

	maxLevel, _ := audiometry.MaxLevel(s.Transducer, s.Frequency)
	pt := audiometry.Point{
		Ear:        s.Ear,
		Transducer: s.Transducer,
		Masked:     s.Masked,
		Frequency:  s.Frequency,
	}
	if s.Level >= maxLevel {
		atMax := s
		atMax.Level = maxLevel
		res = e.Evaluate(p, atMax)
		pt.Level = maxLevel
		pt.ScaleOut = !res.Respond
		return Commit{Applied: true, Point: pt, Result: res}
	}
	pt.Level = audiometry.ClampDisplay(s.Level)
	if pt.Level != s.Level {
		s.Level = pt.Level
		res = e.Evaluate(p, s)
	}
	return Commit{Applied: true, Point: pt, Result: res}
}

func boneOrInf(p Patient, ear audiometry.Ear, f int) float64 {
	v, ok := p.BoneThreshold(ear, f)
	if !ok {
		return math.Inf(1)
	}
	return v
}
