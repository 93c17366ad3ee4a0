// Package scoring compares a trainee's plotted thresholds with the hidden
// case targets.
package scoring

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/abhisek/audiotrainer/internal/audiometry"
)

// PassAccuracy is the accuracy at which a session counts as complete even
// with unplotted targets.
const PassAccuracy = 80

// Item is the outcome for one target.
type Item struct {
	ID       string `json:"id"`
	Correct  bool   `json:"correct"`
	Plotted  bool   `json:"plotted"`
	Expected int    `json:"expected"`
	ScaleOut bool   `json:"scale_out"`
	// Delta is plotted minus expected, nil when nothing was plotted.
	Delta *int `json:"delta,omitempty"`
}

// Result is the aggregate score.
type Result struct {
	Total        int     `json:"total"`
	Correct      int     `json:"correct"`
	Accuracy     int     `json:"accuracy"`
	Complete     bool    `json:"complete"`
	MeanAbsDelta float64 `json:"mean_abs_delta"`
	PerItem      []Item  `json:"per_item"`
}

// Score grades points against targets. The masked flag of a point is
// ignored when matching. BC targets at frequencies without BC are skipped.
func Score(targets []audiometry.Target, points []audiometry.Point) Result {
	bySlot := make(map[audiometry.SlotKey]audiometry.Point, len(points))
	for _, p := range points {
		if prev, ok := bySlot[p.Slot()]; ok && prev.Masked && !p.Masked {
			continue
		}
		bySlot[p.Slot()] = p
	}

	var res Result
	var deltas []float64
	allPlotted := true
	for _, t := range targets {
		if !audiometry.Measurable(t.Transducer, t.Frequency) {
			continue
		}
		res.Total++
		item := Item{ID: t.Slot().ID(), Expected: t.Level, ScaleOut: t.ScaleOut}

		p, ok := bySlot[t.Slot()]
		if !ok {
			allPlotted = false
			res.PerItem = append(res.PerItem, item)
			continue
		}
		item.Plotted = true
		d := p.Level - t.Level
		item.Delta = &d
		deltas = append(deltas, math.Abs(float64(d)))

		if t.ScaleOut {
			item.Correct = p.ScaleOut
		} else {
			item.Correct = !p.ScaleOut && audiometry.Quantize5(float64(p.Level)) == t.Level
		}
		if item.Correct {
			res.Correct++
		}
		res.PerItem = append(res.PerItem, item)
	}

	if res.Total > 0 {
		res.Accuracy = int(math.Round(float64(res.Correct) / float64(res.Total) * 100))
	}
	res.Complete = res.Total > 0 && (allPlotted || res.Accuracy >= PassAccuracy)
	if len(deltas) > 0 {
		res.MeanAbsDelta, _ = stats.Mean(deltas)
	}
	return res
}
