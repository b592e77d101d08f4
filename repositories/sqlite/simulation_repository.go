package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/quantumfork/whatif/models"
	"github.com/quantumfork/whatif/repositories"
)

// SimulationRepository implements repositories.SimulationRepository
// backed by SQLite. Branches are stored as a JSON blob.
type SimulationRepository struct {
	db *sql.DB
}

// NewSimulationRepository creates a new simulation repository
func NewSimulationRepository(db *sql.DB) *SimulationRepository {
	return &SimulationRepository{db: db}
}

// Save persists a simulation result
func (r *SimulationRepository) Save(ctx context.Context, sim *models.Simulation) error {
	branches, err := json.Marshal(sim.Branches)
	if err != nil {
		return fmt.Errorf("failed to marshal branches: %w", err)
	}

	query := `
		INSERT INTO simulations (id, user_decision, mode, branches, created_at, share_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		sim.ID, sim.Decision, sim.Mode, string(branches), sim.CreatedAt, sim.ShareCount)
	if err != nil {
		return fmt.Errorf("failed to save simulation: %w", err)
	}
	return nil
}

// GetByID retrieves a simulation by its identifier
func (r *SimulationRepository) GetByID(ctx context.Context, id string) (*models.Simulation, error) {
	query := `
		SELECT id, user_decision, mode, branches, created_at, share_count
		FROM simulations
		WHERE id = ?
	`

	var sim models.Simulation
	var branches string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sim.ID, &sim.Decision, &sim.Mode, &branches, &sim.CreatedAt, &sim.ShareCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get simulation: %w", err)
	}

	if err := json.Unmarshal([]byte(branches), &sim.Branches); err != nil {
		return nil, fmt.Errorf("failed to unmarshal branches: %w", err)
	}

	return &sim, nil
}

// IncrementShareCount bumps the share counter for a shared load
func (r *SimulationRepository) IncrementShareCount(ctx context.Context, id string) error {
	query := `UPDATE simulations SET share_count = share_count + 1 WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment share count: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
