package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantumfork/whatif/models"
	"github.com/quantumfork/whatif/repositories"
	"github.com/quantumfork/whatif/services/governor"
	"github.com/quantumfork/whatif/services/security"
)

var (
	positiveKeywords = []string{"success", "happy", "achieve", "win", "love", "prosper", "fulfill"}
	negativeKeywords = []string{"fail", "regret", "lose", "struggle", "miss", "difficult"}
)

// Generator is the governed LLM generation dependency. Satisfied by
// *governor.Governor.
type Generator interface {
	Generate(ctx context.Context, prompt, namespace string) (json.RawMessage, error)
}

// Engine generates alternate life path simulations. Every LLM call goes
// through the governor; a denied or exhausted call degrades to the
// procedural templates so the feature works with zero configured providers.
type Engine struct {
	governor Generator
	security *security.Service
	repo     repositories.SimulationRepository
	logger   *zap.Logger
}

// NewEngine creates a simulation engine
func NewEngine(
	gov Generator,
	sec *security.Service,
	repo repositories.SimulationRepository,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		governor: gov,
		security: sec,
		repo:     repo,
		logger:   logger,
	}
}

// Generate runs a full simulation: sanitize the decision, gate it for
// safety, classify it, generate numBranches branches, and persist the
// result.
func (e *Engine) Generate(ctx context.Context, decision, mode string, numBranches int) (*models.Simulation, error) {
	decision = e.security.SanitizeDecision(decision)
	mode = e.security.ValidateMode(mode)

	sim := &models.Simulation{
		ID:        uuid.NewString(),
		Decision:  decision,
		Mode:      mode,
		CreatedAt: time.Now().UTC(),
	}

	e.logger.Info("starting simulation",
		zap.String("simulation_id", sim.ID),
		zap.String("mode", mode),
		zap.Int("branches", numBranches))

	if safety := e.security.CheckContentSafety(decision); !safety.Safe {
		e.logger.Warn("content safety gate triggered",
			zap.String("simulation_id", sim.ID),
			zap.String("reason", safety.Reason))
		for i := 0; i < numBranches; i++ {
			sim.Branches = append(sim.Branches, safeBranch(i))
		}
		if err := e.repo.Save(ctx, sim); err != nil {
			return nil, fmt.Errorf("failed to save simulation: %w", err)
		}
		return sim, nil
	}

	category := classifyDecision(decision)

	for i := 0; i < numBranches; i++ {
		branch := e.generateBranch(ctx, decision, mode, i, category, numBranches)
		sim.Branches = append(sim.Branches, branch)
	}

	if err := e.repo.Save(ctx, sim); err != nil {
		return nil, fmt.Errorf("failed to save simulation: %w", err)
	}

	e.logger.Info("simulation completed",
		zap.String("simulation_id", sim.ID),
		zap.Int("branches", len(sim.Branches)))

	return sim, nil
}

// Load retrieves a persisted simulation. A shared load additionally
// bumps the share counter.
func (e *Engine) Load(ctx context.Context, id string, shared bool) (*models.Simulation, error) {
	sim, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shared {
		if err := e.repo.IncrementShareCount(ctx, id); err != nil {
			e.logger.Warn("failed to increment share count",
				zap.String("simulation_id", id), zap.Error(err))
		} else {
			sim.ShareCount++
		}
	}
	return sim, nil
}

// generateBranch produces one branch, falling back to procedural
// generation when the governor denies or exhausts the provider chain.
func (e *Engine) generateBranch(ctx context.Context, decision, mode string, index int, category string, total int) models.LifeBranch {
	prompt := buildBranchPrompt(decision, mode, index, category, total)
	namespace := branchNamespace(decision, mode, index)

	payload, ok := e.tryGovernor(ctx, prompt, namespace)
	if !ok {
		payload = adjustProbabilityForMode(fallbackTemplate(decision, index), mode)
	}
	payload = e.sanitizePayload(payload)

	return models.LifeBranch{
		BranchID:         index,
		Title:            payload.Title,
		Story:            payload.Story,
		Timeline:         payload.Timeline,
		KeyEvents:        payload.KeyEvents,
		ProbabilityScore: *payload.ProbabilityScore,
		FateScore:        calculateFateScore(payload.KeyEvents, mode),
	}
}

// tryGovernor attempts a governed LLM generation and parses the payload
func (e *Engine) tryGovernor(ctx context.Context, prompt, namespace string) (branchPayload, bool) {
	raw, err := e.governor.Generate(ctx, prompt, namespace)
	if err != nil {
		if governor.IsRateLimited(err) {
			e.logger.Warn("branch generation rate limited, using procedural fallback",
				zap.String("namespace", namespace))
		} else {
			e.logger.Warn("branch generation failed, using procedural fallback",
				zap.String("namespace", namespace), zap.Error(err))
		}
		return branchPayload{}, false
	}

	var payload branchPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Title == "" {
		e.logger.Warn("branch payload did not match expected shape",
			zap.String("namespace", namespace))
		return branchPayload{}, false
	}
	// Absent score defaults to 0.5; an explicit 0.0 is kept as-is
	if payload.ProbabilityScore == nil {
		payload.ProbabilityScore = probability(0.5)
	}
	return payload, true
}

// sanitizePayload runs every narrative field through the output sanitizer
func (e *Engine) sanitizePayload(payload branchPayload) branchPayload {
	payload.Story = e.security.SanitizeOutput(payload.Story)
	for i := range payload.Timeline {
		payload.Timeline[i].Event = e.security.SanitizeOutput(payload.Timeline[i].Event)
	}
	for i := range payload.KeyEvents {
		payload.KeyEvents[i] = e.security.SanitizeOutput(payload.KeyEvents[i])
	}
	return payload
}

// classifyDecision maps a decision onto a probability category by keyword
func classifyDecision(decision string) string {
	lower := strings.ToLower(decision)

	containsAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	switch {
	case containsAny("move", "relocate", "city", "country"):
		return CategoryCareerRelocation
	case containsAny("study", "degree", "university", "college"):
		return CategoryEducation
	case containsAny("start", "business", "company", "startup"):
		return CategoryEntrepreneurship
	case containsAny("marry", "relationship", "divorce", "date"):
		return CategoryRelationships
	default:
		return CategoryCareerRelocation
	}
}

// calculateFateScore scores key events against positive/negative keyword
// lists from a base of 50, with a random swing in random mode, clamped to
// [0, 100].
func calculateFateScore(events []string, mode string) int {
	score := 50
	for _, event := range events {
		lower := strings.ToLower(event)
		for _, pos := range positiveKeywords {
			if strings.Contains(lower, pos) {
				score += 5
			}
		}
		for _, neg := range negativeKeywords {
			if strings.Contains(lower, neg) {
				score -= 5
			}
		}
	}

	if mode == models.ModeRandom {
		score += rand.Intn(41) - 20
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// branchNamespace qualifies the cache key so each branch of a batch is a
// distinct cache entry: provider tag, decision prefix, mode, branch index.
func branchNamespace(decision, mode string, index int) string {
	prefix := decision
	if runes := []rune(prefix); len(runes) > 20 {
		prefix = string(runes[:20])
	}
	return fmt.Sprintf("openrouter_%s_%s_%d", prefix, mode, index)
}

// buildBranchPrompt assembles the generation prompt with mode
// instructions, the category probability table, and branch theme hints.
func buildBranchPrompt(decision, mode string, index int, category string, total int) string {
	modeInstructions := map[string]string{
		models.ModeRealistic:  "Use realistic probabilities and likely outcomes based on real-world data.",
		models.ModeFiftyFifty: "Give equal weight to positive and negative outcomes.",
		models.ModeRandom:     "Include surprising, unlikely, or wildly improbable events.",
	}

	probs, _ := json.MarshalIndent(ProbabilitiesFor(category), "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "Generate alternative life path #%d of %d for this decision:\n%q\n\n", index+1, total, decision)
	fmt.Fprintf(&b, "Mode: %s - %s\n\n", mode, modeInstructions[mode])
	fmt.Fprintf(&b, "Consider these real-world probabilities for context:\n%s\n\n", probs)
	b.WriteString("Create a unique branch that differs significantly from other branches.\n")
	b.WriteString("Branch theme suggestions:\n")
	b.WriteString("- Branch 1: The expected path\n")
	b.WriteString("- Branch 2: The challenging but rewarding path\n")
	b.WriteString("- Branch 3: The unexpected twist path\n")
	b.WriteString("- Branch 4: The wildcard path\n\n")
	b.WriteString("Return JSON with this structure:\n")
	b.WriteString(`{
  "title": "Brief branch title (5-7 words)",
  "story": "Narrative description of this life path (150-200 words)",
  "timeline": [
    {"year": "Year 1", "event": "What happens"},
    {"year": "Year 3", "event": "Major milestone"},
    {"year": "Year 5", "event": "Outcome"}
  ],
  "key_events": ["Event 1", "Event 2", "Event 3"],
  "probability_score": 0.0-1.0 based on likelihood
}`)

	return b.String()
}
