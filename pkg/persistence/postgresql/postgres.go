// Package postgresql provides the PostgreSQL flow repository used in
// production. Flow documents are stored as JSONB next to the columns the
// console lists and filters on.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	// Registers the postgres driver.
	_ "github.com/lib/pq"

	"github.com/botfluent/botfluent/pkg/models"
	"github.com/botfluent/botfluent/pkg/persistence"
	"github.com/botfluent/botfluent/pkg/persistence/sqlbase"
)

// Repository implements persistence.FlowRepository on PostgreSQL.
type Repository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository connects, runs migrations and returns the repository.
func NewRepository(ctx context.Context, logger *slog.Logger, databaseURL string) (*Repository, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Repository{
		db:     database,
		logger: logger.With("module", "persistence.postgresql"),
	}, nil
}

// Flows returns every stored flow, newest first.
func (r *Repository) Flows(ctx context.Context) ([]*models.Flow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT document FROM flows
		WHERE deleted_at IS NULL
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query flows: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	flows := make([]*models.Flow, 0)

	for rows.Next() {
		var document []byte

		err = rows.Scan(&document)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow row: %w", err)
		}

		var flow models.Flow

		err = json.Unmarshal(document, &flow)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal flow document: %w", err)
		}

		flows = append(flows, &flow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate flow rows: %w", err)
	}

	return flows, nil
}

// FlowByID returns one flow by id.
func (r *Repository) FlowByID(ctx context.Context, id string) (*models.Flow, error) {
	var document []byte

	err := r.db.QueryRowContext(ctx, `
		SELECT document FROM flows
		WHERE id = $1 AND deleted_at IS NULL
	`, id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewFlowError("FlowByID", id, persistence.ErrFlowNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query flow %s: %w", id, err)
	}

	var flow models.Flow

	err = json.Unmarshal(document, &flow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow %s: %w", id, err)
	}

	return &flow, nil
}

// SaveFlow upserts the flow document.
func (r *Repository) SaveFlow(ctx context.Context, flow *models.Flow) error {
	flow.UpdatedAt = time.Now().UTC()

	document, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal flow %s: %w", flow.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO flows (id, partner_id, name, active, document, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			partner_id = EXCLUDED.partner_id,
			name = EXCLUDED.name,
			active = EXCLUDED.active,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`, flow.ID, flow.PartnerID, flow.Name, flow.Active, document, flow.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save flow %s: %w", flow.ID, err)
	}

	return nil
}

// DeleteFlow soft deletes a flow by setting deleted_at.
func (r *Repository) DeleteFlow(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE flows SET deleted_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete flow %s: %w", id, err)
	}

	return nil
}

// HealthCheck verifies the database connection.
func (r *Repository) HealthCheck(ctx context.Context) error {
	err := r.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (r *Repository) Close(_ context.Context) error {
	if r.db != nil {
		err := r.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
