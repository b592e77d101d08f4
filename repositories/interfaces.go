package repositories

import (
	"context"
	"errors"

	"github.com/quantumfork/whatif/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// SimulationRepository defines the interface for simulation persistence
type SimulationRepository interface {
	// Save persists a simulation result
	Save(ctx context.Context, sim *models.Simulation) error

	// GetByID retrieves a simulation by its identifier.
	// Returns ErrNotFound when no simulation exists for the id.
	GetByID(ctx context.Context, id string) (*models.Simulation, error)

	// IncrementShareCount bumps the share counter for a shared load
	IncrementShareCount(ctx context.Context, id string) error
}
