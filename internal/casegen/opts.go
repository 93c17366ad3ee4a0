package casegen

import (
	"errors"
	"fmt"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/disorder"
	"github.com/abhisek/audiotrainer/internal/norms"
	"github.com/abhisek/audiotrainer/internal/rng"
)

// ErrInvalidOpts is wrapped by OptsError.
var ErrInvalidOpts = errors.New("invalid generate options")

// OptsError reports a malformed GenerateOpts field.
type OptsError struct {
	Field string
	Value string
	Err   error
}

func (e *OptsError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *OptsError) Unwrap() error {
	return ErrInvalidOpts
}

// GenerateOpts selects the case to generate. Empty fields are drawn from
// the seeded source.
type GenerateOpts struct {
	Seed         int64  `json:"seed" yaml:"seed"`
	Sex          string `json:"sex,omitempty" yaml:"sex,omitempty"`
	AgeGroup     string `json:"age_group,omitempty" yaml:"age_group,omitempty"`
	Profile      string `json:"profile,omitempty" yaml:"profile,omitempty"`
	Severity     *int   `json:"severity,omitempty" yaml:"severity,omitempty"`
	AffectedSide string `json:"affected_side,omitempty" yaml:"affected_side,omitempty"`
}

// WithSeverity returns a copy of o with severity set.
func (o GenerateOpts) WithSeverity(s int) GenerateOpts {
	o.Severity = &s
	return o
}

// Validate rejects malformed fields. Unknown profile names are not an
// error: Generate falls back to SNHL_Age.
func (o GenerateOpts) Validate() error {
	if o.Sex != "" {
		if _, err := norms.ParseSex(o.Sex); err != nil {
			return &OptsError{Field: "sex", Value: o.Sex, Err: err}
		}
	}
	if o.AgeGroup != "" {
		if _, err := norms.ParseAgeGroup(o.AgeGroup); err != nil {
			return &OptsError{Field: "age group", Value: o.AgeGroup, Err: err}
		}
	}
	if o.Severity != nil && (*o.Severity < 0 || *o.Severity > 3) {
		return &OptsError{Field: "severity", Value: fmt.Sprint(*o.Severity)}
	}
	if o.AffectedSide != "" {
		if _, err := audiometry.ParseEar(o.AffectedSide); err != nil {
			return &OptsError{Field: "affected side", Value: o.AffectedSide, Err: err}
		}
	}
	return nil
}

// Flags recorded on Meta.
const (
	FlagProfileFallback = "profile-fallback"
	FlagAgeIneligible   = "age-ineligible"
	FlagSeverityRaised  = "severity-raised"
	FlagPresbyNormal    = "presbycusis-retagged-normal"
)

type resolved struct {
	sex      norms.Sex
	age      norms.AgeGroup
	profile  disorder.Profile
	severity int
	side     audiometry.Ear
	flags    []string
}

// resolve fills in missing options. The draw order is fixed so the same
// seed and options always resolve identically.
func resolve(r *rng.Rand, o GenerateOpts) resolved {
	var res resolved

	if o.Profile == "" {
		res.profile = rng.Pick(r, disorder.All())
	} else if p, err := disorder.Lookup(o.Profile); err == nil {
		res.profile = p
	} else {
		res.profile, _ = disorder.Lookup(string(disorder.SNHLAge))
		res.flags = append(res.flags, FlagProfileFallback)
	}

	if o.Severity != nil {
		res.severity = *o.Severity
		if res.profile.Unilateral && res.severity < 1 {
			res.severity = 1
			res.flags = append(res.flags, FlagSeverityRaised)
		}
	} else if res.profile.Unilateral {
		res.severity = 1 + r.IntN(3)
	} else {
		res.severity = r.IntN(4)
	}

	if o.AgeGroup != "" {
		res.age, _ = norms.ParseAgeGroup(o.AgeGroup)
		if !res.profile.Eligible(res.age) {
			res.flags = append(res.flags, FlagAgeIneligible)
		}
	} else {
		res.age = rng.Pick(r, res.profile.EligibleAges)
	}

	if o.Sex != "" {
		res.sex, _ = norms.ParseSex(o.Sex)
	} else if r.Bool(res.profile.MaleProb) {
		res.sex = norms.Male
	} else {
		res.sex = norms.Female
	}

	if res.profile.Unilateral {
		if o.AffectedSide != "" {
			res.side, _ = audiometry.ParseEar(o.AffectedSide)
		} else {
			res.side = rng.Pick(r, audiometry.Ears)
		}
	}
	return res
}
