package simulation

import (
	"fmt"
	"math/rand"

	"github.com/quantumfork/whatif/models"
)

// branchPayload is the parsed LLM (or template) output for one branch,
// before fate scoring is applied. ProbabilityScore is a pointer so an
// explicit 0.0 from the model is distinguishable from an absent field.
type branchPayload struct {
	Title            string                 `json:"title"`
	Story            string                 `json:"story"`
	Timeline         []models.TimelineEntry `json:"timeline"`
	KeyEvents        []string               `json:"key_events"`
	ProbabilityScore *float64               `json:"probability_score"`
}

func probability(v float64) *float64 {
	return &v
}

// fallbackTemplate builds the procedural branch for an index when no LLM
// result is available. Templates cycle by branch index so every branch in
// a batch reads differently.
func fallbackTemplate(decision string, branchIndex int) branchPayload {
	templates := []branchPayload{
		{
			Title: "The Conventional Path",
			Story: fmt.Sprintf("You decided to %s. Things progressed as most would expect - some challenges, some victories, but overall a steady journey. Life unfolds with familiar rhythms, bringing both comfort and occasional wonder about the roads not taken.", decision),
			Timeline: []models.TimelineEntry{
				{Year: "Year 1", Event: "Initial adjustment period with mixed results"},
				{Year: "Year 3", Event: "Established new routines and relationships"},
				{Year: "Year 5", Event: "Achieved moderate success and stability"},
			},
			KeyEvents:        []string{"Found your footing", "Built new connections", "Reached equilibrium"},
			ProbabilityScore: probability(0.7),
		},
		{
			Title: "The Transformative Journey",
			Story: fmt.Sprintf("Your choice to %s catalyzed unexpected personal growth. Initial struggles gave way to profound discoveries about yourself. What seemed like a simple decision became a complete life transformation.", decision),
			Timeline: []models.TimelineEntry{
				{Year: "Year 1", Event: "Difficult start but important lessons learned"},
				{Year: "Year 3", Event: "Breakthrough moment changes everything"},
				{Year: "Year 5", Event: "Living a completely different life than imagined"},
			},
			KeyEvents:        []string{"Overcame major obstacle", "Discovered hidden talent", "Found true calling"},
			ProbabilityScore: probability(0.4),
		},
		{
			Title: "The Serendipitous Adventure",
			Story: fmt.Sprintf("After deciding to %s, life took surprising turns. A chance encounter led to unexpected opportunities. Sometimes the best outcomes come from the most unlikely circumstances.", decision),
			Timeline: []models.TimelineEntry{
				{Year: "Year 1", Event: "Random encounter changes trajectory"},
				{Year: "Year 3", Event: "Pursuing opportunity you never expected"},
				{Year: "Year 5", Event: "Success in an entirely different field"},
			},
			KeyEvents:        []string{"Met future mentor", "Pivoted to new path", "Achieved unexpected success"},
			ProbabilityScore: probability(0.3),
		},
		{
			Title: "The Wild Card Timeline",
			Story: fmt.Sprintf("Your decision to %s triggered a cascade of improbable events. Against all odds, you found yourself in situations that defy conventional wisdom. Life became stranger than fiction.", decision),
			Timeline: []models.TimelineEntry{
				{Year: "Year 1", Event: "Bizarre coincidence alters course"},
				{Year: "Year 3", Event: "Became involved in something extraordinary"},
				{Year: "Year 5", Event: "Living a life no one could have predicted"},
			},
			KeyEvents:        []string{"Won unlikely lottery", "Became accidental celebrity", "Changed the world"},
			ProbabilityScore: probability(0.1),
		},
	}

	return templates[branchIndex%len(templates)]
}

// adjustProbabilityForMode overrides a template's probability score for
// non-realistic modes.
func adjustProbabilityForMode(payload branchPayload, mode string) branchPayload {
	switch mode {
	case models.ModeRandom:
		payload.ProbabilityScore = probability(rand.Float64())
	case models.ModeFiftyFifty:
		payload.ProbabilityScore = probability(0.5)
	}
	return payload
}

// safeBranch is the fixed branch returned for content that fails the
// safety gate. All branches in the batch share it.
func safeBranch(branchIndex int) models.LifeBranch {
	return models.LifeBranch{
		BranchID: branchIndex,
		Title:    fmt.Sprintf("Path %d: A New Beginning", branchIndex+1),
		Story:    "Every decision opens new doors. This path leads to personal growth and positive outcomes through dedication and perseverance.",
		Timeline: []models.TimelineEntry{
			{Year: "Year 1", Event: "Started fresh with new perspective"},
			{Year: "Year 3", Event: "Built meaningful connections"},
			{Year: "Year 5", Event: "Achieved personal milestone"},
		},
		KeyEvents:        []string{"Fresh start", "Personal growth", "Positive outcome"},
		ProbabilityScore: 0.5,
		FateScore:        70,
	}
}
