// Package narrative rewrites a generated case history with an LLM. The
// template narrative produced by casegen stays authoritative: any failure
// falls back to it.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/llm"
)

// Schema constrains the enrichment response.
var Schema = &llm.Schema{
	Name:        "case-narrative",
	Description: "Patient case history and findings summary",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"history": map[string]any{
				"type":        "string",
				"description": "Case history as the patient would report it at intake",
				"minLength":   1,
			},
			"findings": map[string]any{
				"type":        "string",
				"description": "Summary of otoscopy and immittance findings",
				"minLength":   1,
			},
		},
		"required":             []string{"history", "findings"},
		"additionalProperties": false,
	},
}

const systemPrompt = `You write short clinical case vignettes for audiology students.
Rewrite the supplied history so it reads like a real intake note, two to four sentences.
Keep every fact you are given. Do not state the diagnosis, the disorder name, or any threshold value in the history.
The findings must keep every number and tympanogram type exactly as given.
Return JSON only.`

// Enricher asks an LLM for a richer case narrative.
type Enricher struct {
	Provider llm.Provider
	// MaxTokens bounds the response. Zero means 600.
	MaxTokens int
}

// Enrich returns an LLM-written narrative for c. On error the returned
// narrative is c's template narrative, so callers may use it either way.
func (e *Enricher) Enrich(ctx context.Context, c *casegen.Case) (casegen.Narrative, error) {
	if e == nil || e.Provider == nil {
		return c.Narrative, fmt.Errorf("enrich narrative: no provider")
	}

	maxTokens := e.MaxTokens
	if maxTokens == 0 {
		maxTokens = 600
	}
	resp, err := e.Provider.Generate(llm.WithPurpose(ctx, llm.PurposeCaseNarrative), llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserPrompt(Prompt(c)),
		Schema:      Schema,
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return c.Narrative, fmt.Errorf("enrich narrative: %w", err)
	}

	var out casegen.Narrative
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return c.Narrative, fmt.Errorf("decode narrative: %w", err)
	}
	out.History = strings.TrimSpace(out.History)
	out.Findings = strings.TrimSpace(out.Findings)
	if out.History == "" || out.Findings == "" {
		return c.Narrative, fmt.Errorf("decode narrative: empty field")
	}
	return out, nil
}

// Apply replaces c's narrative in place when enrichment succeeds and
// reports whether it did.
func (e *Enricher) Apply(ctx context.Context, c *casegen.Case) (bool, error) {
	n, err := e.Enrich(ctx, c)
	if err != nil {
		return false, err
	}
	c.Narrative = n
	return true, nil
}

// Prompt renders the facts the model may use.
func Prompt(c *casegen.Case) string {
	var b strings.Builder
	m := c.Meta
	fmt.Fprintf(&b, "Patient: %s, age group %s.\n", strings.ToLower(m.Sex.String()), m.AgeGroup)
	fmt.Fprintf(&b, "Underlying condition (do not name it): %s, severity %d of 3.\n", m.Profile, m.Severity)
	if m.AffectedSide != nil {
		fmt.Fprintf(&b, "Affected side: %s.\n", strings.ToLower(m.AffectedSide.String()))
	}
	fmt.Fprintf(&b, "Template history: %s\n", c.Narrative.History)
	fmt.Fprintf(&b, "Template findings: %s\n", c.Narrative.Findings)
	for _, ear := range audiometry.Ears {
		t := c.Tympanogram.Ear(ear)
		fmt.Fprintf(&b, "%s tympanogram: type %s, peak %.0f daPa, compliance %.2f mL.\n",
			ear, t.Type, t.PeakPressure, t.PeakCompliance)
	}
	return b.String()
}
