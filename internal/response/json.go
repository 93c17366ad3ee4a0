package response

import (
	"encoding/json"
	"math"
)

// MarshalJSON encodes infinite levels (dead cochlea, scale-out) as null.
func (r Result) MarshalJSON() ([]byte, error) {
	type wire struct {
		Known          bool     `json:"known"`
		Respond        bool     `json:"respond"`
		CrossHearing   bool     `json:"cross_hearing"`
		OverMasking    bool     `json:"over_masking"`
		Level          int      `json:"level"`
		Leak           float64  `json:"leak"`
		EffectiveMask  *float64 `json:"effective_mask"`
		NTEBC          *float64 `json:"nte_bc"`
		MaskLimit      *float64 `json:"mask_limit"`
		TEThreshold    *float64 `json:"te_threshold"`
		TEThresholdEff *float64 `json:"te_threshold_eff"`
	}
	return json.Marshal(wire{
		Known:          r.Known,
		Respond:        r.Respond,
		CrossHearing:   r.CrossHearing,
		OverMasking:    r.OverMasking,
		Level:          r.Level,
		Leak:           r.Leak,
		EffectiveMask:  finite(r.EffectiveMask),
		NTEBC:          finite(r.NTEBC),
		MaskLimit:      finite(r.MaskLimit),
		TEThreshold:    finite(r.TEThreshold),
		TEThresholdEff: finite(r.TEThresholdEff),
	})
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
