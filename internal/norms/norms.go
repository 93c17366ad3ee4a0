// Package norms provides age and sex dependent hearing threshold bands
// (ISO 7029 style, simplified) and samplers for normal-hearing ears.
package norms

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/rng"
)

// Sex of the simulated patient.
type Sex string

const (
	Male   Sex = "M"
	Female Sex = "F"
)

// Sexes lists both values.
var Sexes = []Sex{Male, Female}

// String returns "Male" or "Female".
func (s Sex) String() string {
	switch s {
	case Male:
		return "Male"
	case Female:
		return "Female"
	}
	return string(s)
}

// ParseSex accepts M/F and male/female in any case.
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return Male, nil
	case "f", "female":
		return Female, nil
	}
	return "", fmt.Errorf("unknown sex %q", s)
}

// AgeGroup is a decade bucket such as "40s".
type AgeGroup string

// AgeGroups lists the tabulated age groups in order.
var AgeGroups = []AgeGroup{"20s", "30s", "40s", "50s", "60s", "70s"}

// Decade returns the numeric decade (40 for "40s"), or 0 if malformed.
func (a AgeGroup) Decade() int {
	n, err := strconv.Atoi(strings.TrimSuffix(string(a), "s"))
	if err != nil {
		return 0
	}
	return n
}

// ParseAgeGroup accepts "40s", "40" or an age in years such as "47".
// Ages outside the table map to the nearest tabulated group.
func ParseAgeGroup(s string) (AgeGroup, error) {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "s"))
	if err != nil || n <= 0 {
		return "", fmt.Errorf("unknown age group %q", s)
	}
	return Nearest(AgeGroup(strconv.Itoa(n/10*10) + "s")), nil
}

// Nearest maps a (possibly untabulated) age group to the nearest one in
// AgeGroups.
func Nearest(a AgeGroup) AgeGroup {
	d := a.Decade()
	best := AgeGroups[0]
	bestDist := math.MaxInt
	for _, g := range AgeGroups {
		dist := g.Decade() - d
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, bestDist = g, dist
		}
	}
	return best
}

// Band is a threshold distribution summary in dB HL.
type Band struct {
	Minus2SD float64
	Median   float64
	Plus2SD  float64
}

// SD returns the band's standard deviation.
func (b Band) SD() float64 {
	return (b.Plus2SD - b.Median) / 2
}

// Contains reports whether level lies within ±2 SD.
func (b Band) Contains(level int) bool {
	v := float64(level)
	return v >= b.Minus2SD && v <= b.Plus2SD
}

type row struct {
	medians [6]float64 // 250, 500, 1k, 2k, 4k, 8k
	width   float64
}

var tableFreqs = [6]int{250, 500, 1000, 2000, 4000, 8000}

var maleTable = map[AgeGroup]row{
	"20s": {[6]float64{5, 5, 5, 5, 5, 10}, 10},
	"30s": {[6]float64{5, 5, 5, 5, 10, 10}, 10},
	"40s": {[6]float64{5, 5, 5, 10, 15, 20}, 12},
	"50s": {[6]float64{10, 10, 10, 15, 25, 30}, 15},
	"60s": {[6]float64{10, 10, 15, 20, 35, 45}, 18},
	"70s": {[6]float64{15, 15, 20, 30, 45, 60}, 20},
}

var femaleTable = map[AgeGroup]row{
	"20s": {[6]float64{5, 5, 5, 5, 5, 5}, 10},
	"30s": {[6]float64{5, 5, 5, 5, 5, 10}, 10},
	"40s": {[6]float64{5, 5, 5, 10, 10, 15}, 12},
	"50s": {[6]float64{10, 10, 10, 15, 20, 25}, 15},
	"60s": {[6]float64{10, 15, 15, 20, 30, 40}, 18},
	"70s": {[6]float64{15, 20, 20, 25, 40, 55}, 20},
}

// Lookup returns the band for (sex, age, f). 125 Hz reuses 250 Hz and
// untabulated age groups use the nearest tabulated one.
func Lookup(sex Sex, age AgeGroup, f int) Band {
	table := maleTable
	if sex == Female {
		table = femaleTable
	}
	r, ok := table[age]
	if !ok {
		r = table[Nearest(age)]
	}
	if f == 125 {
		f = 250
	}
	idx := 0
	for i, tf := range tableFreqs {
		if tf == f {
			idx = i
			break
		}
	}
	m := r.medians[idx]
	return Band{Minus2SD: m - r.width, Median: m, Plus2SD: m + r.width}
}

// InNormalRange reports whether level is within the age/sex band at f.
func InNormalRange(sex Sex, age AgeGroup, f, level int) bool {
	return level <= int(math.Floor(Lookup(sex, age, f).Plus2SD))
}

// Sample draws an AC threshold at f from the band.
func Sample(r *rng.Rand, sex Sex, age AgeGroup, f int) int {
	b := Lookup(sex, age, f)
	sd := 0.5 * b.SD()
	v := r.Normal(b.Median, sd) * r.Uniform(0.9, 1.1)
	v = math.Max(b.Minus2SD, math.Min(b.Plus2SD, v))
	hi, _ := audiometry.MaxLevel(audiometry.AC, f)
	return Finalize(v, f, hi)
}

// SampleBC draws a BC threshold tracking ac within ±5 dB. It is only
// meaningful at BC frequencies.
func SampleBC(r *rng.Rand, ac, f int) int {
	v := float64(ac) + r.Normal(0, 2.5)
	v = math.Max(float64(ac-5), math.Min(float64(ac+5), v))
	hi, _ := audiometry.MaxLevel(audiometry.BC, f)
	return Finalize(v, f, hi)
}

// Finalize clips v to [MinLevel(f), hi] and quantizes to 5 dB. The clinical
// floor at 125/250 Hz is applied after quantization.
func Finalize(v float64, f, hi int) int {
	q := audiometry.Quantize5(v)
	return audiometry.Clamp(q, audiometry.MinLevel(f), hi)
}
