package disorder

import (
	"math"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/norms"
	"github.com/abhisek/audiotrainer/internal/rng"
)

// Flags raised during shaping and recorded on the case meta.
const (
	FlagMumpsTotal = "mumps-total-scaleout"
)

// Correlation between the two ears of a bilateral case.
const Rho = 0.7

const n = audiometry.NumFrequencies

// Audiogram is the working threshold set for one ear during generation.
// BC entries at non-BC frequencies are unused.
type Audiogram struct {
	AC   [n]int
	BC   [n]int
	SOAC [n]bool
	SOBC [n]bool
}

// ACAt returns the AC threshold at f.
func (a Audiogram) ACAt(f int) int { return a.AC[audiometry.FrequencyIndex(f)] }

// BCAt returns the BC threshold at f.
func (a Audiogram) BCAt(f int) int { return a.BC[audiometry.FrequencyIndex(f)] }

// PTA4 is the four-division pure-tone average (0.5k + 2*1k + 2k) / 4.
func (a Audiogram) PTA4() float64 {
	return float64(a.ACAt(500)+2*a.ACAt(1000)+a.ACAt(2000)) / 4
}

// MaxABG returns the largest air-bone gap over the BC frequencies.
func (a Audiogram) MaxABG() int {
	best := 0
	for i, f := range audiometry.Frequencies {
		if audiometry.IsBCFrequency(f) && a.AC[i]-a.BC[i] > best {
			best = a.AC[i] - a.BC[i]
		}
	}
	return best
}

// NormalEar samples an ear from the age/sex norms.
func NormalEar(r *rng.Rand, sex norms.Sex, age norms.AgeGroup) Audiogram {
	var a Audiogram
	for i, f := range audiometry.Frequencies {
		a.AC[i] = norms.Sample(r, sex, age, f)
		if audiometry.IsBCFrequency(f) {
			a.BC[i] = norms.SampleBC(r, a.AC[i], f)
		}
	}
	return a
}

var presbyAgeFactor = map[norms.AgeGroup]float64{
	"20s": 0.6, "30s": 0.7, "40s": 0.8, "50s": 0.9, "60s": 1.0, "70s": 1.1,
}

// Shape applies p at severity to ear and returns the shaped ear along
// with any flags. The result is not yet reconciled.
func Shape(r *rng.Rand, p Profile, ear Audiogram, severity int, age norms.AgeGroup) (Audiogram, []string) {
	severity = max(0, min(3, severity))
	d := p.Depth[severity]
	if p.Name == Normal || d == 0 {
		return ear, nil
	}

	var flags []string
	out := ear
	for i, f := range audiometry.Frequencies {
		w := p.Weights[f]
		var shift float64
		switch p.Name {
		case SNHLAge:
			shift = d*presbyAgeFactor[norms.Nearest(age)]*w + r.Normal(0, 2)
		case SNHLSudden:
			shift = d*1.2*w + r.Normal(0, 6)
		case SNHLMumps:
			target := 65 + 10*float64(severity) + r.Normal(0, 5)
			shift = math.Max(0, target-float64(ear.AC[i]))
		case Ossicular:
			shift = d*w + r.Normal(0, 3)
		default:
			shift = d*w + r.Normal(0, 2)
		}
		shift = math.Max(0, shift)

		out.AC[i] = ear.AC[i] + int(math.Round(shift))
		if !audiometry.IsBCFrequency(f) {
			continue
		}
		switch p.BC {
		case BCParallel:
			out.BC[i] = ear.BC[i] + int(math.Round(shift))
		case BCNearNormal:
			out.BC[i] = ear.BC[i]
		case BCCarhart:
			out.BC[i] = ear.BC[i] + carhartLift(f)
		}
	}

	if p.Name == SNHLMumps && r.Bool(0.5) {
		for i, f := range audiometry.Frequencies {
			out.AC[i], _ = audiometry.MaxLevel(audiometry.AC, f)
			out.SOAC[i] = true
			if nr, ok := audiometry.NoResponseBC(f); ok {
				out.BC[i] = nr
				out.SOBC[i] = true
			}
		}
		flags = append(flags, FlagMumpsTotal)
	}
	return out, flags
}

func carhartLift(f int) int {
	switch f {
	case 1000, 4000:
		return 5
	case 2000:
		return 15
	}
	return 0
}

// Correlate builds the second ear of a bilateral case from the first:
// median + Rho*(first - median) + N(0, 0.3*sd) per frequency, clipped to
// the wider of the ±2 SD band and the first ear's value.
func Correlate(r *rng.Rand, first Audiogram, sex norms.Sex, age norms.AgeGroup) Audiogram {
	var out Audiogram
	for i, f := range audiometry.Frequencies {
		b := norms.Lookup(sex, age, f)
		out.AC[i] = correlated(r, b, first.AC[i], f, math.MaxInt)
		if audiometry.IsBCFrequency(f) {
			hi, _ := audiometry.MaxLevel(audiometry.BC, f)
			out.BC[i] = correlated(r, b, first.BC[i], f, hi)
		}
	}
	return out
}

func correlated(r *rng.Rand, b norms.Band, first, f, hi int) int {
	v := b.Median + Rho*(float64(first)-b.Median) + r.Normal(0, b.SD()*0.3)
	lo, up := math.Min(b.Minus2SD, float64(first)), math.Max(b.Plus2SD, float64(first))
	return norms.Finalize(math.Max(lo, math.Min(up, v)), f, hi)
}

// Reconcile enforces the cross-threshold rules on a shaped ear:
//   - quantization, clinical floor and BC presentation limit;
//   - the Carhart notch for otosclerosis;
//   - minimum ABG for conductive profiles, raising AC;
//   - BC never worse than AC + 5;
//   - the BC no-response rule for non-conductive ears.
//
// Reconcile is idempotent.
func Reconcile(p Profile, severity int, a Audiogram) Audiogram {
	for i, f := range audiometry.Frequencies {
		a.AC[i] = max(audiometry.Quantize5(float64(a.AC[i])), audiometry.MinLevel(f))
		if !audiometry.IsBCFrequency(f) {
			a.BC[i], a.SOBC[i] = 0, false
			continue
		}
		hi, _ := audiometry.MaxLevel(audiometry.BC, f)
		a.BC[i] = audiometry.Clamp(audiometry.Quantize5(float64(a.BC[i])), audiometry.MinLevel(f), hi)
	}

	if p.BC == BCCarhart && severity >= 1 {
		a = enforceCarhart(a)
	}

	for i, f := range audiometry.Frequencies {
		if !audiometry.IsBCFrequency(f) {
			continue
		}
		if gap := p.MinABGAt(f, severity); gap > 0 && a.AC[i]-a.BC[i] < gap {
			a.AC[i] = a.BC[i] + gap
		}
		if p.Class != ClassCHL {
			nr, _ := audiometry.NoResponseBC(f)
			if a.AC[i] > nr {
				a.BC[i], a.SOBC[i] = nr, true
			} else {
				a.SOBC[i] = false
			}
		} else {
			a.SOBC[i] = false
		}
		if a.BC[i] > a.AC[i]+5 {
			a.BC[i] = a.AC[i] + 5
		}
	}
	return a
}

func enforceCarhart(a Audiogram) Audiogram {
	i1, i2, i4 := audiometry.FrequencyIndex(1000), audiometry.FrequencyIndex(2000), audiometry.FrequencyIndex(4000)
	hi, _ := audiometry.MaxLevel(audiometry.BC, 2000)
	if want := max(a.BC[i1], a.BC[i4]) + 5; a.BC[i2] < want {
		a.BC[i2] = min(want, hi)
	}
	a.BC[i1] = min(a.BC[i1], a.BC[i2]-5)
	a.BC[i4] = min(a.BC[i4], a.BC[i2]-5)
	return a
}

// ScaleOutAC caps AC at the presentation limit and marks scale-out.
func ScaleOutAC(a Audiogram) Audiogram {
	for i, f := range audiometry.Frequencies {
		hi, _ := audiometry.MaxLevel(audiometry.AC, f)
		if a.AC[i] >= hi && (a.AC[i] > hi || a.SOAC[i]) {
			a.AC[i], a.SOAC[i] = hi, true
		}
	}
	return a
}
