package session

import (
	"time"

	"github.com/abhisek/audiotrainer/internal/scoring"
)

// CaseAccuracy is the latest score of one case plus its history.
type CaseAccuracy struct {
	Total       int       `json:"total"`
	Correct     int       `json:"correct"`
	Accuracy    int       `json:"accuracy"`
	CompletedAt time.Time `json:"completedAt"`
	History     []int     `json:"history,omitempty"`
}

// Progress is the per-student progress blob.
type Progress struct {
	TotalSessions   int                      `json:"totalSessions"`
	CompletedCases  int                      `json:"completedCases"`
	CaseAccuracy    map[string]*CaseAccuracy `json:"caseAccuracy"`
	LastSessionDate time.Time                `json:"lastSessionDate"`
}

// NewProgress returns an empty progress record.
func NewProgress() *Progress {
	return &Progress{CaseAccuracy: make(map[string]*CaseAccuracy)}
}

// Record adds a scored session for caseID. A case counts toward
// CompletedCases the first time it is scored complete.
func (p *Progress) Record(caseID string, r scoring.Result, at time.Time) {
	if p.CaseAccuracy == nil {
		p.CaseAccuracy = make(map[string]*CaseAccuracy)
	}
	p.TotalSessions++
	p.LastSessionDate = at

	ca, ok := p.CaseAccuracy[caseID]
	if !ok {
		ca = &CaseAccuracy{}
		p.CaseAccuracy[caseID] = ca
	}
	wasComplete := ok && !ca.CompletedAt.IsZero()

	ca.Total = r.Total
	ca.Correct = r.Correct
	ca.Accuracy = r.Accuracy
	ca.History = append(ca.History, r.Accuracy)
	if r.Complete {
		ca.CompletedAt = at
		if !wasComplete {
			p.CompletedCases++
		}
	}
}

// Accuracies returns the latest accuracy of every recorded case.
func (p *Progress) Accuracies() []float64 {
	out := make([]float64, 0, len(p.CaseAccuracy))
	for _, ca := range p.CaseAccuracy {
		out = append(out, float64(ca.Accuracy))
	}
	return out
}
