// Package disorder is the catalog of simulated hearing disorders and the
// shaping rules that turn a normal ear into a pathological one.
package disorder

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/audiotrainer/internal/norms"
)

// ErrUnknownProfile is returned by Lookup for names not in the catalog.
var ErrUnknownProfile = errors.New("unknown disorder profile")

// Name identifies a profile.
type Name string

const (
	Normal       Name = "Normal"
	SNHLAge      Name = "SNHL_Age"
	SNHLNoise    Name = "SNHL_Noise"
	SNHLMeniere  Name = "SNHL_Meniere"
	SNHLSudden   Name = "SNHL_Sudden"
	SNHLMumps    Name = "SNHL_Mumps"
	Otosclerosis Name = "CHL_Otosclerosis"
	Ossicular    Name = "CHL_OssicularDiscontinuity"
	AOM          Name = "CHL_AOM"
	OME          Name = "CHL_OME"
)

// Class groups profiles by site of lesion.
type Class int

const (
	ClassNormal Class = iota
	ClassSNHL
	ClassCHL
)

func (c Class) String() string {
	switch c {
	case ClassSNHL:
		return "sensorineural"
	case ClassCHL:
		return "conductive"
	}
	return "normal"
}

// BCBehavior is how bone conduction responds to the AC shaping.
type BCBehavior int

const (
	// BCParallel moves BC with AC (cochlear loss).
	BCParallel BCBehavior = iota
	// BCNearNormal keeps BC at the normal baseline (middle-ear loss).
	BCNearNormal
	// BCCarhart keeps BC near normal with a notch peaking at 2 kHz.
	BCCarhart
)

// TympType is a Jerger tympanogram class.
type TympType string

const (
	TympA  TympType = "A"
	TympAs TympType = "As"
	TympAd TympType = "Ad"
	TympB  TympType = "B"
	TympC  TympType = "C"
)

// Profile describes one disorder.
type Profile struct {
	Name        Name
	Label       string
	Class       Class
	Description string

	// Unilateral profiles affect one ear; the other is Normal.
	Unilateral bool

	// EligibleAges are the age groups the profile is drawn for when the
	// age is not fixed by the caller.
	EligibleAges []norms.AgeGroup

	// MaleProb is the sex prior.
	MaleProb float64

	// Weights scale the severity depth per frequency.
	Weights map[int]float64

	BC BCBehavior

	// Depth is the dB shift at weight 1.0 for each severity step.
	Depth [4]float64

	// MinABG is the minimum air-bone gap enforced at severity >= 1.
	MinABG map[int]int

	Tympanogram TympType
}

// IsUnilateral reports whether the named profile is canonically unilateral.
func IsUnilateral(n Name) bool {
	p, err := Lookup(string(n))
	return err == nil && p.Unilateral
}

var snhlDepth = [4]float64{0, 20, 40, 60}

var chlDepth = [4]float64{0, 15, 30, 45}

var catalog = []Profile{
	{
		Name:         Normal,
		Label:        "Normal hearing",
		Class:        ClassNormal,
		Description:  "Thresholds within age and sex norms.",
		EligibleAges: norms.AgeGroups,
		MaleProb:     0.5,
		Weights:      map[int]float64{},
		BC:           BCParallel,
		Tympanogram:  TympA,
	},
	{
		Name:         SNHLAge,
		Label:        "Presbycusis",
		Class:        ClassSNHL,
		Description:  "Bilateral high-frequency sloping sensorineural loss.",
		EligibleAges: []norms.AgeGroup{"40s", "50s", "60s", "70s"},
		MaleProb:     0.5,
		// 125-500 Hz carry the kLF term and 1 kHz a small offset.
		Weights:     map[int]float64{125: 0.2, 250: 0.15, 500: 0.1, 1000: 0.1, 2000: 0.5, 4000: 1.0, 8000: 1.3},
		BC:          BCParallel,
		Depth:       snhlDepth,
		Tympanogram: TympA,
	},
	{
		Name:         SNHLNoise,
		Label:        "Noise-induced hearing loss",
		Class:        ClassSNHL,
		Description:  "Sensorineural notch centred on 4 kHz with recovery at 8 kHz.",
		EligibleAges: []norms.AgeGroup{"30s", "40s", "50s", "60s"},
		MaleProb:     0.8,
		Weights:      map[int]float64{125: 0, 250: 0, 500: 0.05, 1000: 0.15, 2000: 0.4, 4000: 1.1, 8000: 0.5},
		BC:           BCParallel,
		Depth:        snhlDepth,
		Tympanogram:  TympA,
	},
	{
		Name:         SNHLMeniere,
		Label:        "Meniere's disease",
		Class:        ClassSNHL,
		Description:  "Unilateral low-frequency sensorineural loss.",
		Unilateral:   true,
		EligibleAges: []norms.AgeGroup{"30s", "40s", "50s", "60s"},
		MaleProb:     0.45,
		Weights:      map[int]float64{125: 1.0, 250: 1.0, 500: 0.8, 1000: 0.5, 2000: 0.3, 4000: 0.3, 8000: 0.4},
		BC:           BCParallel,
		Depth:        snhlDepth,
		Tympanogram:  TympA,
	},
	{
		Name:         SNHLSudden,
		Label:        "Sudden sensorineural hearing loss",
		Class:        ClassSNHL,
		Description:  "Unilateral sudden-onset sensorineural loss.",
		Unilateral:   true,
		EligibleAges: []norms.AgeGroup{"30s", "40s", "50s", "60s", "70s"},
		MaleProb:     0.5,
		Weights:      map[int]float64{125: 0.9, 250: 1.0, 500: 1.0, 1000: 1.0, 2000: 1.1, 4000: 1.2, 8000: 1.2},
		BC:           BCParallel,
		Depth:        snhlDepth,
		Tympanogram:  TympA,
	},
	{
		Name:         SNHLMumps,
		Label:        "Mumps deafness",
		Class:        ClassSNHL,
		Description:  "Unilateral severe to profound sensorineural loss after mumps.",
		Unilateral:   true,
		EligibleAges: []norms.AgeGroup{"20s", "30s", "40s"},
		MaleProb:     0.5,
		Weights:      map[int]float64{125: 1, 250: 1, 500: 1, 1000: 1, 2000: 1, 4000: 1, 8000: 1},
		BC:           BCParallel,
		Depth:        [4]float64{0, 75, 85, 95},
		Tympanogram:  TympA,
	},
	{
		Name:         Otosclerosis,
		Label:        "Otosclerosis",
		Class:        ClassCHL,
		Description:  "Stapes fixation: low-frequency conductive loss with a Carhart notch.",
		EligibleAges: []norms.AgeGroup{"20s", "30s", "40s", "50s"},
		MaleProb:     0.35,
		Weights:      map[int]float64{125: 1.1, 250: 1.0, 500: 0.9, 1000: 0.8, 2000: 0.6, 4000: 0.7, 8000: 0.7},
		BC:           BCCarhart,
		Depth:        chlDepth,
		MinABG:       map[int]int{250: 20, 500: 20, 1000: 15, 2000: 10, 4000: 15},
		Tympanogram:  TympAs,
	},
	{
		Name:         Ossicular,
		Label:        "Ossicular discontinuity",
		Class:        ClassCHL,
		Description:  "Unilateral flat maximal conductive loss after trauma.",
		Unilateral:   true,
		EligibleAges: []norms.AgeGroup{"20s", "30s", "40s", "50s", "60s"},
		MaleProb:     0.6,
		Weights:      map[int]float64{125: 1, 250: 1, 500: 1, 1000: 1, 2000: 1, 4000: 1, 8000: 1},
		BC:           BCNearNormal,
		Depth:        [4]float64{0, 35, 45, 55},
		MinABG:       map[int]int{250: 30, 500: 30, 1000: 30, 2000: 30, 4000: 30},
		Tympanogram:  TympAd,
	},
	{
		Name:         AOM,
		Label:        "Acute otitis media",
		Class:        ClassCHL,
		Description:  "Middle-ear effusion with inflammation; flat tympanogram.",
		EligibleAges: []norms.AgeGroup{"20s", "30s", "40s"},
		MaleProb:     0.5,
		Weights:      map[int]float64{125: 1.1, 250: 1.1, 500: 1.1, 1000: 1.0, 2000: 0.9, 4000: 0.9, 8000: 0.9},
		BC:           BCNearNormal,
		Depth:        chlDepth,
		MinABG:       map[int]int{250: 20, 500: 20, 1000: 15, 2000: 15, 4000: 15},
		Tympanogram:  TympB,
	},
	{
		Name:         OME,
		Label:        "Otitis media with effusion",
		Class:        ClassCHL,
		Description:  "Eustachian tube dysfunction with negative middle-ear pressure.",
		EligibleAges: norms.AgeGroups,
		MaleProb:     0.5,
		Weights:      map[int]float64{125: 1.0, 250: 1.0, 500: 0.9, 1000: 0.8, 2000: 0.6, 4000: 0.6, 8000: 0.6},
		BC:           BCNearNormal,
		Depth:        chlDepth,
		MinABG:       map[int]int{250: 15, 500: 15, 1000: 15, 2000: 10, 4000: 10},
		Tympanogram:  TympC,
	},
}

var byName = func() map[Name]*Profile {
	m := make(map[Name]*Profile, len(catalog))
	for i := range catalog {
		m[catalog[i].Name] = &catalog[i]
	}
	return m
}()

// Lookup returns the profile with the given name. Matching ignores case.
func Lookup(name string) (Profile, error) {
	if p, ok := byName[Name(name)]; ok {
		return *p, nil
	}
	for i := range catalog {
		if strings.EqualFold(string(catalog[i].Name), name) {
			return catalog[i], nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// All returns every profile in catalog order.
func All() []Profile {
	return slices.Clone(catalog)
}

// Names returns every profile name in catalog order.
func Names() []Name {
	out := make([]Name, len(catalog))
	for i, p := range catalog {
		out[i] = p.Name
	}
	return out
}

// ByClass returns the profiles of class c.
func ByClass(c Class) []Profile {
	var out []Profile
	for _, p := range catalog {
		if p.Class == c {
			out = append(out, p)
		}
	}
	return out
}

// MinABGAt returns the enforced minimum air-bone gap at f for severity.
func (p Profile) MinABGAt(f, severity int) int {
	if p.Class != ClassCHL || severity < 1 {
		return 0
	}
	return p.MinABG[f]
}

// Eligible reports whether age is in the profile's eligible range.
func (p Profile) Eligible(age norms.AgeGroup) bool {
	return slices.Contains(p.EligibleAges, age)
}
