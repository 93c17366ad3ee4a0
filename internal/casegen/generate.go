package casegen

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/disorder"
	"github.com/abhisek/audiotrainer/internal/rng"
)

var caseNamespace = uuid.MustParse("6f1d3c52-8a57-4b0e-9a61-2f1f0c6b7d41")

// Generate builds a case from opts. Identical opts always yield an
// identical case. The only error is a malformed option record.
func Generate(opts GenerateOpts) (*Case, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	r := rng.New(opts.Seed)
	res := resolve(r, opts)
	normal, _ := disorder.Lookup(string(disorder.Normal))

	base := disorder.NormalEar(r, res.sex, res.age)
	shaped, flags := disorder.Shape(r, res.profile, base, res.severity, res.age)
	res.flags = append(res.flags, flags...)

	var right, left disorder.Audiogram
	rightP, leftP := res.profile, res.profile
	if res.profile.Unilateral {
		other := disorder.NormalEar(r, res.sex, res.age)
		if res.side == audiometry.Right {
			right, left = shaped, other
			leftP = normal
		} else {
			right, left = other, shaped
			rightP = normal
		}
	} else {
		right = shaped
		left = disorder.Correlate(r, disorder.Reconcile(res.profile, res.severity, shaped), res.sex, res.age)
	}

	right = disorder.ScaleOutAC(disorder.Reconcile(rightP, res.severity, right))
	left = disorder.ScaleOutAC(disorder.Reconcile(leftP, res.severity, left))

	meta := Meta{
		Seed:         opts.Seed,
		Sex:          res.sex,
		AgeGroup:     res.age,
		Profile:      res.profile.Name,
		Severity:     res.severity,
		RightProfile: rightP.Name,
		LeftProfile:  leftP.Name,
		Flags:        res.flags,
	}
	if res.profile.Unilateral {
		side := res.side
		meta.AffectedSide = &side
	}

	if res.profile.Name == disorder.SNHLAge && res.age.Decade() <= 50 {
		if right.PTA4() <= 25 {
			meta.RightProfile, rightP = disorder.Normal, normal
		}
		if left.PTA4() <= 25 {
			meta.LeftProfile, leftP = disorder.Normal, normal
		}
		if meta.RightProfile == disorder.Normal || meta.LeftProfile == disorder.Normal {
			meta.Flags = append(meta.Flags, FlagPresbyNormal)
		}
	}

	tymp := buildTympanogram(r, earTympType(rightP, right), earTympType(leftP, left))

	c := &Case{
		ID:          caseID(opts, meta),
		Meta:        meta,
		Right:       toRows(right, rightP.Class),
		Left:        toRows(left, leftP.Class),
		Tympanogram: tymp,
		ART:         buildART(right, left, tymp, meta),
		DPOAE: DPOAEConfig{
			Right: dpoaeEar(right, tymp.Right),
			Left:  dpoaeEar(left, tymp.Left),
		},
		Narrative: templateNarrative(meta, right, left, tymp),
	}
	return c, nil
}

// caseID is a name-based UUID over the resolved case identity.
func caseID(opts GenerateOpts, m Meta) string {
	side := "-"
	if m.AffectedSide != nil {
		side = string(*m.AffectedSide)
	}
	key := fmt.Sprintf("%d|%s|%s|%s|%d|%s", opts.Seed, m.Sex, m.AgeGroup, m.Profile, m.Severity, side)
	return uuid.NewSHA1(caseNamespace, []byte(key)).String()
}
