package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/botfluent/botfluent/pkg/models"
	"github.com/botfluent/botfluent/pkg/persistence"
	"github.com/botfluent/botfluent/pkg/validation"
)

// Flow is the flow management service. Saving runs the graph validator and
// refuses structurally broken graphs; warnings pass through.
type Flow struct {
	repository persistence.FlowRepository
	logger     *slog.Logger
}

// NewFlow creates a flow service.
func NewFlow(repository persistence.FlowRepository, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}

	return &Flow{
		repository: repository,
		logger:     logger.With("module", "services.flow"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (f *Flow) HealthCheck(ctx context.Context) (string, bool) {
	if f.repository == nil {
		return "Persistence layer not initialized", false
	}

	err := f.repository.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns every stored flow.
func (f *Flow) List(ctx context.Context) ([]*models.Flow, error) {
	flows, err := f.repository.Flows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	return flows, nil
}

// FetchByID retrieves a flow by its id.
func (f *Flow) FetchByID(ctx context.Context, id string) (*models.Flow, error) {
	return f.repository.FlowByID(ctx, id)
}

// Create stores a new flow under a fresh id after validating its
// structure.
func (f *Flow) Create(ctx context.Context, flow *models.Flow) (*models.Flow, error) {
	err := f.checkSavable(flow)
	if err != nil {
		return nil, err
	}

	flow.ID = uuid.New().String()

	err = f.repository.SaveFlow(ctx, flow)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow: %w", err)
	}

	f.logger.InfoContext(ctx, "flow created", "flow_id", flow.ID, "name", flow.Name)

	return flow, nil
}

// Update replaces an existing flow after validating its structure.
func (f *Flow) Update(ctx context.Context, flowID string, flow *models.Flow) (*models.Flow, error) {
	err := f.checkSavable(flow)
	if err != nil {
		return nil, err
	}

	_, err = f.repository.FlowByID(ctx, flowID)
	if err != nil {
		return nil, err
	}

	flow.ID = flowID

	err = f.repository.SaveFlow(ctx, flow)
	if err != nil {
		return nil, fmt.Errorf("failed to update flow: %w", err)
	}

	return flow, nil
}

// Delete removes a flow by its id.
func (f *Flow) Delete(ctx context.Context, flowID string) error {
	_, err := f.repository.FlowByID(ctx, flowID)
	if err != nil {
		return err
	}

	err = f.repository.DeleteFlow(ctx, flowID)
	if err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}

	return nil
}

// Validate runs the graph validator over a stored flow.
func (f *Flow) Validate(ctx context.Context, flowID string) (validation.Result, error) {
	flow, err := f.repository.FlowByID(ctx, flowID)
	if err != nil {
		return validation.Result{}, err
	}

	return validation.Validate(flow), nil
}

func (f *Flow) checkSavable(flow *models.Flow) error {
	if flow == nil {
		return ErrFlowNil
	}

	if flow.Name == "" {
		return ErrFlowNameRequired
	}

	result := validation.Validate(flow)
	if !result.IsValid {
		return &InvalidFlowError{Errors: result.Errors}
	}

	return nil
}
