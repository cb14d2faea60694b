package formflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/botfluent/botfluent/pkg/models"
)

// ErrFormInvalid is returned when the form definition fails validation.
var ErrFormInvalid = errors.New("form definition is invalid")

// PlatformAPI is the slice of the platform client the publisher needs.
type PlatformAPI interface {
	Create(ctx context.Context, name string, categories []string, document ScreenDocument) (string, error)
	PublishFlow(ctx context.Context, flowID string) (string, error)
}

// PersistFlowID stores a platform flow id on the originating node. The
// publisher calls it after create and before publish, so an interrupted
// publish can be retried against the already-created artifact instead of
// creating a duplicate.
type PersistFlowID func(ctx context.Context, platformFlowID string) error

// PublishResult reports the ids produced by a publish run.
type PublishResult struct {
	PlatformFlowID string `json:"platformFlowId"`
	PreviewURL     string `json:"previewUrl,omitempty"`
}

// Publisher validates, compiles, creates and publishes a form node's
// definition against the platform.
type Publisher struct {
	api    PlatformAPI
	logger *slog.Logger
}

// NewPublisher creates a publisher backed by the given platform API.
func NewPublisher(api PlatformAPI, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		api:    api,
		logger: logger.With("module", "formflow"),
	}
}

// Publish runs the full lifecycle for one form node. When the node already
// carries a platform flow id, the create step is skipped and only publish
// runs. Otherwise the flow is created, its id persisted through persist,
// and only then published.
func (p *Publisher) Publish(ctx context.Context, form models.WhatsAppFormData, persist PersistFlowID) (PublishResult, error) {
	validation := Validate(form.Title, form.Fields)
	if !validation.IsValid {
		return PublishResult{}, fmt.Errorf("%w: %v", ErrFormInvalid, validation.Errors)
	}

	platformFlowID := form.FlowID

	if platformFlowID == "" {
		document := Compile(form.Title, form.Fields)

		created, err := p.api.Create(ctx, form.Title, form.Categories, document)
		if err != nil {
			return PublishResult{}, err
		}

		platformFlowID = created

		err = persist(ctx, platformFlowID)
		if err != nil {
			// The artifact exists on the platform but its id is lost
			// locally. Surface the id so the operator can reconcile.
			return PublishResult{PlatformFlowID: platformFlowID},
				fmt.Errorf("failed to persist platform flow id %s: %w", platformFlowID, err)
		}
	} else {
		p.logger.InfoContext(ctx, "reusing existing platform flow", "platform_flow_id", platformFlowID)
	}

	previewURL, err := p.api.PublishFlow(ctx, platformFlowID)
	if err != nil {
		return PublishResult{PlatformFlowID: platformFlowID}, err
	}

	return PublishResult{PlatformFlowID: platformFlowID, PreviewURL: previewURL}, nil
}
