package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/botfluent/botfluent/pkg/eventbus"
	"github.com/botfluent/botfluent/pkg/events"
	"github.com/botfluent/botfluent/pkg/interpreter"
	"github.com/botfluent/botfluent/pkg/models"
	"github.com/botfluent/botfluent/pkg/otelhelper"
	"github.com/botfluent/botfluent/pkg/persistence"
	"github.com/botfluent/botfluent/pkg/validation"
)

// SessionInput is one user event resuming a suspended session: exactly one
// of OptionID or Text.
type SessionInput struct {
	OptionID string `json:"optionId,omitempty"`
	Text     string `json:"text,omitempty"`
}

// SessionStep is a session step plus its identifiers, as returned to the
// console.
type SessionStep struct {
	SessionID string                 `json:"sessionId"`
	FlowID    string                 `json:"flowId"`
	Step      interpreter.StepResult `json:"step"`
}

// Session orchestrates test sessions: it runs the interpreter over stored
// flows, persists suspended sessions between calls and publishes lifecycle
// events.
type Session struct {
	flows     persistence.FlowRepository
	store     persistence.SessionStore
	publisher eventbus.EventPublisher
	api       interpreter.APIClient
	forms     interpreter.FormPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewSession creates a session service. publisher, api, forms and tracer
// may be nil; the corresponding concern is then skipped.
func NewSession(
	flows persistence.FlowRepository,
	store persistence.SessionStore,
	publisher eventbus.EventPublisher,
	api interpreter.APIClient,
	forms interpreter.FormPublisher,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("botfluent")
	}

	return &Session{
		flows:     flows,
		store:     store,
		publisher: publisher,
		api:       api,
		forms:     forms,
		tracer:    tracer,
		logger:    logger.With("module", "services.session"),
	}
}

// Start validates the flow, runs it from its start node and persists the
// resulting session.
func (s *Session) Start(ctx context.Context, flowID string) (SessionStep, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "session.start",
		attribute.String(otelhelper.FlowIDKey, flowID))
	defer span.End()

	flow, err := s.flows.FlowByID(ctx, flowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return SessionStep{}, err
	}

	result := validation.Validate(flow)
	if !result.IsValid {
		err = &InvalidFlowError{Errors: result.Errors}
		otelhelper.SetError(span, err)

		return SessionStep{}, err
	}

	sessionID := uuid.New().String()
	span.SetAttributes(attribute.String(otelhelper.SessionIDKey, sessionID))

	interp := s.interpreterFor(flow)
	step := interp.Start(ctx)

	record := recordFrom(sessionID, flowID, interp.State())
	record.StartedAt = time.Now().UTC()

	err = s.persistStep(ctx, record, step)
	if err != nil {
		otelhelper.SetError(span, err)

		return SessionStep{}, err
	}

	s.publishStarted(ctx, flow, record)
	s.publishStep(ctx, record, step)

	return SessionStep{SessionID: sessionID, FlowID: flowID, Step: step}, nil
}

// Resume feeds one user event into a suspended session.
func (s *Session) Resume(ctx context.Context, sessionID string, input SessionInput) (SessionStep, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "session.resume",
		attribute.String(otelhelper.SessionIDKey, sessionID))
	defer span.End()

	if input.OptionID == "" && input.Text == "" {
		return SessionStep{}, ErrInputMissing
	}

	if input.OptionID != "" && input.Text != "" {
		return SessionStep{}, ErrInputAmbiguous
	}

	record, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return SessionStep{}, err
	}

	if record.Status != string(interpreter.StatusSuspended) {
		return SessionStep{}, ErrSessionNotLive
	}

	flow, err := s.flows.FlowByID(ctx, record.FlowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return SessionStep{}, err
	}

	interp := interpreter.Restore(flow, stateFrom(record),
		interpreter.WithAPIClient(s.api),
		interpreter.WithFormPublisher(s.forms),
		interpreter.WithLogger(s.logger))

	var step interpreter.StepResult
	if input.OptionID != "" {
		step = interp.ResumeWithOption(ctx, input.OptionID)
	} else {
		step = interp.ResumeWithText(ctx, input.Text)
	}

	updated := recordFrom(sessionID, record.FlowID, interp.State())
	updated.StartedAt = record.StartedAt

	err = s.persistStep(ctx, updated, step)
	if err != nil {
		otelhelper.SetError(span, err)

		return SessionStep{}, err
	}

	s.publishStep(ctx, updated, step)

	return SessionStep{SessionID: sessionID, FlowID: record.FlowID, Step: step}, nil
}

func (s *Session) interpreterFor(flow *models.Flow) *interpreter.Interpreter {
	return interpreter.New(flow,
		interpreter.WithAPIClient(s.api),
		interpreter.WithFormPublisher(s.forms),
		interpreter.WithLogger(s.logger))
}

// persistStep saves a live session and drops an ended one.
func (s *Session) persistStep(ctx context.Context, record *persistence.SessionRecord, step interpreter.StepResult) error {
	if step.Status == interpreter.StatusEnded {
		err := s.store.DeleteSession(ctx, record.ID)
		if err != nil {
			return fmt.Errorf("failed to drop ended session %s: %w", record.ID, err)
		}

		return nil
	}

	err := s.store.SaveSession(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", record.ID, err)
	}

	return nil
}

func (s *Session) publishStarted(ctx context.Context, flow *models.Flow, record *persistence.SessionRecord) {
	if s.publisher == nil {
		return
	}

	event := events.SessionStarted{
		BaseEvent: events.NewBaseEvent(events.SessionStartedEvent, flow.ID, record.ID),
		FlowName:  flow.Name,
		Variables: record.Variables,
	}

	s.publish(ctx, record.ID, event)
}

// publishStep emits one BotMessageSent per message plus the suspension or
// termination event.
func (s *Session) publishStep(ctx context.Context, record *persistence.SessionRecord, step interpreter.StepResult) {
	if s.publisher == nil {
		return
	}

	for _, message := range step.Messages {
		s.publish(ctx, record.ID, events.BotMessageSent{
			BaseEvent: events.NewBaseEvent(events.BotMessageSentEvent, record.FlowID, record.ID),
			Kind:      string(message.Kind),
			Text:      message.Text,
			MediaURL:  message.MediaURL,
			Options:   len(message.Options),
		})
	}

	switch step.Status {
	case interpreter.StatusSuspended:
		s.publish(ctx, record.ID, events.SessionSuspended{
			BaseEvent: events.NewBaseEvent(events.SessionSuspendedEvent, record.FlowID, record.ID),
			NodeID:    step.ActiveNodeID,
			Awaiting:  string(step.Awaiting),
		})
	case interpreter.StatusEnded:
		s.publish(ctx, record.ID, events.SessionEnded{
			BaseEvent:  events.NewBaseEvent(events.SessionEndedEvent, record.FlowID, record.ID),
			Reason:     step.EndReason,
			DurationMs: time.Since(record.StartedAt).Milliseconds(),
		})
	case interpreter.StatusActive:
	}
}

func (s *Session) publish(ctx context.Context, key string, event eventbus.Event) {
	err := s.publisher.Publish(ctx, key, event)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish session event",
			"event_type", event.GetType(),
			"error", err)
	}
}

func recordFrom(sessionID, flowID string, state interpreter.State) *persistence.SessionRecord {
	return &persistence.SessionRecord{
		ID:           sessionID,
		FlowID:       flowID,
		Status:       string(state.Status),
		ActiveNodeID: state.ActiveNodeID,
		Awaiting:     string(state.Awaiting),
		EndReason:    state.EndReason,
		LastInput:    state.LastInput,
		Variables:    state.Variables,
	}
}

func stateFrom(record *persistence.SessionRecord) interpreter.State {
	return interpreter.State{
		ActiveNodeID: record.ActiveNodeID,
		Status:       interpreter.Status(record.Status),
		Awaiting:     interpreter.AwaitKind(record.Awaiting),
		EndReason:    record.EndReason,
		LastInput:    record.LastInput,
		Variables:    record.Variables,
	}
}
