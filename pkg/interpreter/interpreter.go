// Package interpreter runs one conversation session over a flow graph. It
// walks nodes cooperatively, suspends on user-input nodes and resumes on
// caller-supplied events. Every failure is reported through the returned
// step result; nothing escapes the loop.
package interpreter

import (
	"context"
	"log/slog"
	"time"

	"github.com/botfluent/botfluent/pkg/conditions"
	"github.com/botfluent/botfluent/pkg/connector"
	"github.com/botfluent/botfluent/pkg/formflow"
	"github.com/botfluent/botfluent/pkg/models"
	"github.com/botfluent/botfluent/pkg/variables"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusEnded     Status = "ended"
)

// AwaitKind says what kind of user event a suspended session expects.
type AwaitKind string

const (
	AwaitNone   AwaitKind = ""
	AwaitOption AwaitKind = "option"
	AwaitText   AwaitKind = "text"
)

// Terminal reasons reported on StepResult.EndReason.
const (
	ReasonCompleted          = "completed"
	ReasonDeadEnd            = "dead end"
	ReasonMessageNoSuccessor = "message without successor"
	ReasonNoConditionMatched = "no condition matched"
	ReasonUnsupportedType    = "unsupported node type"
	ReasonNoStartNode        = "flow has no start node"
	ReasonStepLimit          = "step limit exceeded"
)

// MessageKind classifies an emitted bot message.
type MessageKind string

const (
	MessageKindText   MessageKind = "text"
	MessageKindMedia  MessageKind = "media"
	MessageKindPrompt MessageKind = "prompt"
)

// Choice is one selectable option attached to a prompt message.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Message is one bot emission of a step.
type Message struct {
	Text     string      `json:"text,omitempty"`
	Kind     MessageKind `json:"kind"`
	Options  []Choice    `json:"options,omitempty"`
	MediaURL string      `json:"mediaUrl,omitempty"`
	Filename string      `json:"filename,omitempty"`
}

// StepResult is what one Start or Resume call hands back to the caller:
// the messages emitted during the step and the session state afterwards.
type StepResult struct {
	Messages     []Message `json:"messages"`
	Status       Status    `json:"status"`
	Awaiting     AwaitKind `json:"awaiting,omitempty"`
	EndReason    string    `json:"endReason,omitempty"`
	ActiveNodeID string    `json:"activeNodeId,omitempty"`
}

// APIClient executes webhook and api_connector node calls.
type APIClient interface {
	Execute(ctx context.Context, cfg models.ConnectorConfig, store *variables.Store) connector.Result
}

// FormPublisher ensures a whatsapp_form node's platform artifact exists and
// is published.
type FormPublisher interface {
	Publish(ctx context.Context, form models.WhatsAppFormData, persist formflow.PersistFlowID) (formflow.PublishResult, error)
}

// State is the resumable snapshot of a session, stored between suspend and
// resume.
type State struct {
	ActiveNodeID string         `json:"activeNodeId,omitempty"`
	Status       Status         `json:"status"`
	Awaiting     AwaitKind      `json:"awaiting,omitempty"`
	EndReason    string         `json:"endReason,omitempty"`
	LastInput    string         `json:"lastInput,omitempty"`
	Variables    map[string]any `json:"variables"`
}

const (
	// defaultChoiceVariable receives a chosen option value when the option
	// configures no storeInVariable of its own.
	defaultChoiceVariable = "last_choice"
	// defaultInputVariable receives free text when the node configures no
	// storeInVariable.
	defaultInputVariable = "last_input"
	// maxStepsPerDrive bounds one uninterrupted advance so a cyclic graph
	// cannot spin the loop forever.
	maxStepsPerDrive = 256
)

// Interpreter drives one session. It is single-owner: one goroutine calls
// Start and the Resume methods, never concurrently.
type Interpreter struct {
	flow      *models.Flow
	store     *variables.Store
	evaluator *conditions.Evaluator
	api       APIClient
	forms     FormPublisher
	logger    *slog.Logger
	delay     time.Duration

	activeNodeID string
	status       Status
	awaiting     AwaitKind
	endReason    string
	lastInput    string
}

// Option configures an interpreter.
type Option func(*Interpreter)

// WithAPIClient wires the executor for webhook and api_connector nodes.
func WithAPIClient(api APIClient) Option {
	return func(i *Interpreter) { i.api = api }
}

// WithFormPublisher wires the publisher for whatsapp_form nodes.
func WithFormPublisher(forms FormPublisher) Option {
	return func(i *Interpreter) { i.forms = forms }
}

// WithDelay inserts an artificial pause before each emitted message, used
// by the console's test mode to simulate typing. Zero keeps runs
// deterministic.
func WithDelay(delay time.Duration) Option {
	return func(i *Interpreter) { i.delay = delay }
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = logger }
}

// New creates an interpreter over its own variable store seeded from the
// flow's variable defaults. The flow is not mutated during execution except
// for form publish write-backs.
func New(flow *models.Flow, opts ...Option) *Interpreter {
	i := &Interpreter{
		flow:   flow,
		store:  variables.New(flow.Variables),
		logger: slog.Default(),
		status: StatusActive,
	}

	for _, opt := range opts {
		opt(i)
	}

	i.logger = i.logger.With("module", "interpreter", "flow_id", flow.ID)
	i.evaluator = conditions.NewEvaluator(i.logger)

	return i
}

// Restore rebuilds an interpreter from a persisted session snapshot.
func Restore(flow *models.Flow, state State, opts ...Option) *Interpreter {
	i := New(flow, opts...)
	i.store = variables.FromSnapshot(state.Variables)
	i.activeNodeID = state.ActiveNodeID
	i.status = state.Status
	i.awaiting = state.Awaiting
	i.endReason = state.EndReason
	i.lastInput = state.LastInput

	return i
}

// State snapshots the session for persistence between calls.
func (i *Interpreter) State() State {
	return State{
		ActiveNodeID: i.activeNodeID,
		Status:       i.status,
		Awaiting:     i.awaiting,
		EndReason:    i.endReason,
		LastInput:    i.lastInput,
		Variables:    i.store.Snapshot(),
	}
}

// Store exposes the session variable store.
func (i *Interpreter) Store() *variables.Store {
	return i.store
}

// Start enters the flow at its start node and advances until the session
// suspends or ends.
func (i *Interpreter) Start(ctx context.Context) StepResult {
	start := i.flow.StartNode()
	if start == nil {
		return i.terminate(ReasonNoStartNode, nil)
	}

	i.activeNodeID = start.ID
	i.status = StatusActive

	return i.drive(ctx, nil)
}

// ResumeWithOption resumes a session suspended on a buttons or list node
// with the chosen option id. An unknown option id re-renders the prompt and
// stays suspended.
func (i *Interpreter) ResumeWithOption(ctx context.Context, optionID string) StepResult {
	node, reprompt := i.resumable(AwaitOption)
	if node == nil {
		return reprompt
	}

	var (
		value, storeIn, target string
		found                  bool
	)

	switch data := node.Data.(type) {
	case models.ButtonsData:
		for _, button := range data.Buttons {
			if button.ID == optionID {
				value, storeIn, target = button.Value, button.StoreInVariable, button.NextNodeID
				found = true

				break
			}
		}
	case models.ListData:
		for _, item := range data.Items {
			if item.ID == optionID {
				value, storeIn, target = item.Value, item.StoreInVariable, item.NextNodeID
				found = true

				break
			}
		}
	default:
		return i.terminate(ReasonUnsupportedType, i.diagnostic(node))
	}

	if !found {
		i.logger.WarnContext(ctx, "unknown option chosen", "node_id", node.ID, "option_id", optionID)

		return i.result(i.promptMessages(node))
	}

	if storeIn == "" {
		storeIn = defaultChoiceVariable
	}

	i.store.Set(storeIn, value)
	i.lastInput = value
	i.awaiting = AwaitNone
	i.status = StatusActive

	if target == "" {
		target = node.NextNodeID
	}

	if target == "" {
		return i.terminate(ReasonDeadEnd, nil)
	}

	i.activeNodeID = target

	return i.drive(ctx, nil)
}

// ResumeWithText resumes a session suspended on an input or wait_response
// node with the user's free text. Validation failures re-render the prompt
// and keep the session suspended.
func (i *Interpreter) ResumeWithText(ctx context.Context, text string) StepResult {
	node, reprompt := i.resumable(AwaitText)
	if node == nil {
		return reprompt
	}

	storeIn := defaultInputVariable

	switch data := node.Data.(type) {
	case models.InputData:
		if data.Required && !validInput(data.ResponseType, text) {
			messages := []Message{{Text: inputErrorMessage(data), Kind: MessageKindText}}

			return i.result(append(messages, i.promptMessages(node)...))
		}

		if data.StoreInVariable != "" {
			storeIn = data.StoreInVariable
		}
	case models.WaitResponseData:
		if data.StoreInVariable != "" {
			storeIn = data.StoreInVariable
		}
	default:
		return i.terminate(ReasonUnsupportedType, i.diagnostic(node))
	}

	i.store.Set(storeIn, text)
	i.lastInput = text
	i.awaiting = AwaitNone
	i.status = StatusActive

	if node.NextNodeID == "" {
		return i.terminate(ReasonDeadEnd, nil)
	}

	i.activeNodeID = node.NextNodeID

	return i.drive(ctx, nil)
}

// resumable checks that the session is suspended awaiting the given kind.
// It returns the active node, or nil plus the result to hand back (the
// current prompt for a mismatched resume, the terminal state otherwise).
func (i *Interpreter) resumable(kind AwaitKind) (*models.Node, StepResult) {
	if i.status == StatusEnded {
		return nil, i.result(nil)
	}

	node := i.flow.NodeByID(i.activeNodeID)
	if i.status != StatusSuspended || node == nil {
		return nil, i.terminate(ReasonDeadEnd, nil)
	}

	if i.awaiting != kind {
		return nil, i.result(i.promptMessages(node))
	}

	return node, StepResult{}
}

// drive advances through auto-executing nodes until the session suspends
// or ends.
func (i *Interpreter) drive(ctx context.Context, messages []Message) StepResult {
	for steps := 0; ; steps++ {
		if steps >= maxStepsPerDrive {
			i.logger.WarnContext(ctx, "session exceeded step limit", "node_id", i.activeNodeID)

			return i.terminate(ReasonStepLimit, messages)
		}

		node := i.flow.NodeByID(i.activeNodeID)
		if node == nil {
			return i.terminate(ReasonDeadEnd, messages)
		}

		switch data := node.Data.(type) {
		case models.StartData:
			if node.NextNodeID == "" {
				return i.terminate(ReasonDeadEnd, messages)
			}

			i.activeNodeID = node.NextNodeID
		case models.MessageData:
			messages = i.emit(messages, Message{Text: i.store.Render(data.Text), Kind: MessageKindText})

			if node.NextNodeID == "" {
				return i.terminate(ReasonMessageNoSuccessor, messages)
			}

			i.activeNodeID = node.NextNodeID
		case models.ButtonsData, models.ListData:
			return i.suspend(AwaitOption, append(messages, i.promptMessages(node)...))
		case models.InputData, models.WaitResponseData:
			return i.suspend(AwaitText, append(messages, i.promptMessages(node)...))
		case models.ConditionData:
			next := i.evaluator.SelectBranch(data.Connections, data.DefaultNextNodeID, i.store, i.lastInput)
			if next == "" {
				return i.terminate(ReasonNoConditionMatched, messages)
			}

			i.activeNodeID = next
		case models.VariableSetData:
			i.applyVariableOp(data)

			if node.NextNodeID == "" {
				return i.terminate(ReasonDeadEnd, messages)
			}

			i.activeNodeID = node.NextNodeID
		case models.ImageData:
			if data.Caption != "" {
				messages = i.emit(messages, Message{Text: i.store.Render(data.Caption), Kind: MessageKindText})
			}

			messages = i.emit(messages, Message{Kind: MessageKindMedia, MediaURL: data.URL})

			if node.NextNodeID == "" {
				return i.terminate(ReasonDeadEnd, messages)
			}

			i.activeNodeID = node.NextNodeID
		case models.FileData:
			if data.Caption != "" {
				messages = i.emit(messages, Message{Text: i.store.Render(data.Caption), Kind: MessageKindText})
			}

			messages = i.emit(messages, Message{Kind: MessageKindMedia, MediaURL: data.URL, Filename: data.Filename})

			if node.NextNodeID == "" {
				return i.terminate(ReasonDeadEnd, messages)
			}

			i.activeNodeID = node.NextNodeID
		case models.APIConnectorData:
			next := i.runConnector(ctx, node, data)
			if next == "" {
				return i.terminate(ReasonDeadEnd, messages)
			}

			i.activeNodeID = next
		case models.WhatsAppFormData:
			i.ensureFormPublished(ctx, node, data)

			if node.NextNodeID == "" {
				return i.terminate(ReasonDeadEnd, messages)
			}

			i.activeNodeID = node.NextNodeID
		case models.EndData:
			if data.Text != "" {
				messages = i.emit(messages, Message{Text: i.store.Render(data.Text), Kind: MessageKindText})
			}

			return i.terminate(ReasonCompleted, messages)
		default:
			i.logger.WarnContext(ctx, "unsupported node type", "node_id", node.ID, "node_type", node.Type)

			return i.terminate(ReasonUnsupportedType, append(messages, i.diagnostic(node)...))
		}
	}
}

// promptMessages builds the suspension prompt for a choice or text node.
func (i *Interpreter) promptMessages(node *models.Node) []Message {
	switch data := node.Data.(type) {
	case models.ButtonsData:
		options := make([]Choice, 0, len(data.Buttons))
		for _, button := range data.Buttons {
			options = append(options, Choice{ID: button.ID, Text: i.store.Render(button.Text)})
		}

		return []Message{{Text: i.store.Render(data.Text), Kind: MessageKindPrompt, Options: options}}
	case models.ListData:
		options := make([]Choice, 0, len(data.Items))
		for _, item := range data.Items {
			options = append(options, Choice{ID: item.ID, Text: i.store.Render(item.Title)})
		}

		return []Message{{Text: i.store.Render(data.Text), Kind: MessageKindPrompt, Options: options}}
	case models.InputData:
		return []Message{{Text: i.store.Render(data.Text), Kind: MessageKindPrompt}}
	case models.WaitResponseData:
		if data.Text == "" {
			return nil
		}

		return []Message{{Text: i.store.Render(data.Text), Kind: MessageKindPrompt}}
	default:
		return nil
	}
}

func (i *Interpreter) applyVariableOp(data models.VariableSetData) {
	switch data.Operation {
	case models.VariableOpIncrement:
		i.store.Increment(data.Variable)
	case models.VariableOpDecrement:
		i.store.Decrement(data.Variable)
	case models.VariableOpSet, "":
		value := data.Value
		if text, ok := value.(string); ok {
			value = i.store.Render(text)
		}

		i.store.Set(data.Variable, value)
	default:
		i.logger.Warn("unknown variable operation", "operation", data.Operation, "variable", data.Variable)
	}
}

// runConnector executes the node's HTTP call and returns the id of the
// successor to follow, empty when no successor is wired.
func (i *Interpreter) runConnector(ctx context.Context, node *models.Node, data models.APIConnectorData) string {
	result := connector.Result{Success: false, Error: "no connector configured"}
	if i.api != nil {
		result = i.api.Execute(ctx, data.Connector, i.store)
	}

	for name, value := range connector.MapResponse(result.ResponseData, data.ResponseMappings) {
		i.store.Set(name, value)
	}

	if result.Success {
		if data.OnSuccessNodeID != "" {
			return data.OnSuccessNodeID
		}

		return node.NextNodeID
	}

	i.logger.WarnContext(ctx, "connector call failed",
		"node_id", node.ID,
		"status", result.Status,
		"error", result.Error)

	if data.OnFailureNodeID != "" {
		return data.OnFailureNodeID
	}

	return node.NextNodeID
}

// ensureFormPublished creates and publishes the node's platform form when
// it has no flow id yet. A publish failure is logged and the session
// continues; field collection happens platform-side, not here.
func (i *Interpreter) ensureFormPublished(ctx context.Context, node *models.Node, data models.WhatsAppFormData) {
	if i.forms == nil {
		return
	}

	persist := func(_ context.Context, platformFlowID string) error {
		data.FlowID = platformFlowID
		node.Data = data

		return nil
	}

	result, err := i.forms.Publish(ctx, data, persist)
	if err != nil {
		i.logger.WarnContext(ctx, "form publish failed", "node_id", node.ID, "error", err)

		return
	}

	data.FlowID = result.PlatformFlowID
	data.PreviewURL = result.PreviewURL
	node.Data = data
}

// diagnostic is the user-visible message emitted for an unsupported node.
func (i *Interpreter) diagnostic(node *models.Node) []Message {
	return []Message{{
		Text: "Ce type d'étape n'est pas pris en charge: " + string(node.Type),
		Kind: MessageKindText,
	}}
}

func (i *Interpreter) emit(messages []Message, message Message) []Message {
	if i.delay > 0 {
		time.Sleep(i.delay)
	}

	return append(messages, message)
}

func (i *Interpreter) suspend(kind AwaitKind, messages []Message) StepResult {
	i.status = StatusSuspended
	i.awaiting = kind

	return i.result(messages)
}

func (i *Interpreter) terminate(reason string, messages []Message) StepResult {
	i.status = StatusEnded
	i.awaiting = AwaitNone
	i.endReason = reason

	return i.result(messages)
}

func (i *Interpreter) result(messages []Message) StepResult {
	return StepResult{
		Messages:     messages,
		Status:       i.status,
		Awaiting:     i.awaiting,
		EndReason:    i.endReason,
		ActiveNodeID: i.activeNodeID,
	}
}
