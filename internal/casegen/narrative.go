package casegen

import (
	"fmt"
	"strings"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/disorder"
	"github.com/abhisek/audiotrainer/internal/norms"
)

var complaints = map[disorder.Name]string{
	disorder.Normal:       "attends for a routine hearing check with no specific complaint",
	disorder.SNHLAge:      "reports gradually worsening difficulty following conversation, especially in background noise",
	disorder.SNHLNoise:    "reports ringing in both ears and muffled hearing after years of occupational noise exposure",
	disorder.SNHLMeniere:  "reports episodes of vertigo with fluctuating hearing, tinnitus and fullness in the %s ear",
	disorder.SNHLSudden:   "noticed hearing loss in the %s ear on waking %d days ago",
	disorder.SNHLMumps:    "has had no useful hearing in the %s ear since a mumps infection in childhood",
	disorder.Otosclerosis: "reports slowly progressive hearing loss over several years; a parent had similar problems",
	disorder.Ossicular:    "reports hearing loss in the %s ear since a head injury",
	disorder.AOM:          "presents with ear pain, fever and reduced hearing over the past two days",
	disorder.OME:          "reports a blocked feeling in the ears since a cold three weeks ago",
}

// Degree classifies a four-division PTA.
func Degree(pta float64) string {
	switch {
	case pta <= 25:
		return "normal"
	case pta <= 40:
		return "mild"
	case pta <= 55:
		return "moderate"
	case pta <= 70:
		return "moderately severe"
	case pta <= 90:
		return "severe"
	}
	return "profound"
}

func templateNarrative(meta Meta, right, left disorder.Audiogram, tymp Tympanogram) Narrative {
	who := fmt.Sprintf("A %s %s", ageWords(meta.AgeGroup), strings.ToLower(meta.Sex.String()))

	complaint := complaints[meta.Profile]
	switch meta.Profile {
	case disorder.SNHLSudden:
		complaint = fmt.Sprintf(complaint, sideWord(meta.AffectedSide), 1+int(uint64(meta.Seed)%7))
	case disorder.SNHLMeniere, disorder.SNHLMumps, disorder.Ossicular:
		complaint = fmt.Sprintf(complaint, sideWord(meta.AffectedSide))
	}

	var findings []string
	for _, ear := range audiometry.Ears {
		a, t := right, tymp.Right
		if ear == audiometry.Left {
			a, t = left, tymp.Left
		}
		pta := a.PTA4()
		line := fmt.Sprintf("%s ear: PTA %.1f dB HL (%s), tympanogram type %s", ear, pta, Degree(pta), t.Type)
		if gap := a.MaxABG(); gap >= 15 {
			line += fmt.Sprintf(", air-bone gap up to %d dB", gap)
		}
		findings = append(findings, line+".")
	}

	return Narrative{
		History:  who + " " + complaint + ".",
		Findings: strings.Join(findings, " "),
	}
}

func ageWords(a norms.AgeGroup) string {
	return fmt.Sprintf("%d-something", a.Decade())
}

func sideWord(e *audiometry.Ear) string {
	if e != nil && *e == audiometry.Left {
		return "left"
	}
	return "right"
}
