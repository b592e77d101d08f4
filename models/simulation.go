package models

import (
	"fmt"
	"time"
)

// Simulation modes supported by the engine
const (
	ModeRealistic  = "realistic"
	ModeFiftyFifty = "50/50"
	ModeRandom     = "random"
)

// ValidModes lists the accepted simulation modes
var ValidModes = []string{ModeRealistic, ModeFiftyFifty, ModeRandom}

// TimelineEntry is a single dated event in a branch timeline
type TimelineEntry struct {
	Year  string `json:"year"`
	Event string `json:"event"`
}

// LifeBranch represents one alternate life path generated for a decision
type LifeBranch struct {
	BranchID         int             `json:"branch_id"`
	Title            string          `json:"title"`
	Story            string          `json:"story"`
	Timeline         []TimelineEntry `json:"timeline"`
	KeyEvents        []string        `json:"key_events"`
	ProbabilityScore float64         `json:"probability_score"`
	FateScore        int             `json:"fate_score"`
}

// Validate checks branch invariants
func (b *LifeBranch) Validate() error {
	if b.FateScore < 0 || b.FateScore > 100 {
		return fmt.Errorf("fate score must be in [0, 100], got %d", b.FateScore)
	}
	if b.Title == "" {
		return fmt.Errorf("branch title is required")
	}
	return nil
}

// Simulation is a persisted simulation result
type Simulation struct {
	ID         string       `json:"simulation_id"`
	Decision   string       `json:"user_decision"`
	Mode       string       `json:"mode"`
	Branches   []LifeBranch `json:"branches"`
	CreatedAt  time.Time    `json:"created_at"`
	ShareCount int          `json:"share_count"`
}

// IsValidMode reports whether mode is one of the supported simulation modes
func IsValidMode(mode string) bool {
	for _, m := range ValidModes {
		if mode == m {
			return true
		}
	}
	return false
}
