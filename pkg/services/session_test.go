package services

import (
	"context"
	"sync"
	"testing"

	"github.com/botfluent/botfluent/pkg/eventbus"
	"github.com/botfluent/botfluent/pkg/events"
	"github.com/botfluent/botfluent/pkg/interpreter"
	"github.com/botfluent/botfluent/pkg/models"
	"github.com/botfluent/botfluent/pkg/persistence/file"
	"github.com/botfluent/botfluent/pkg/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *capturingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]events.EventType, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.GetType())
	}

	return types
}

func greetingFlow() *models.Flow {
	flow := models.NewFlow("partner-1", "Greeting", "fr")
	flow.AddVariable(models.Variable{Name: "name", Value: "Ada", Type: models.VariableTypeString})

	message := flow.AddNode(&models.Node{
		Type: models.NodeTypeMessage,
		Data: models.MessageData{Text: "Hello {name}"},
	})
	end := flow.AddNode(&models.Node{Type: models.NodeTypeEnd, Data: models.EndData{}})
	buttons := flow.AddNode(&models.Node{
		Type: models.NodeTypeButtons,
		Data: models.ButtonsData{
			Text: "Continue?",
			Buttons: []models.Button{
				{ID: "yes", Text: "Yes", Value: "yes_value", StoreInVariable: "user_choice", NextNodeID: end.ID},
			},
		},
	})

	flow.Connect(flow.StartNode().ID, message.ID)
	flow.Connect(message.ID, buttons.ID)

	return flow
}

func newSessionFixture(t *testing.T) (*Session, *capturingPublisher, string) {
	t.Helper()

	repo := file.NewRepository(t.TempDir())
	flow := greetingFlow()
	require.NoError(t, repo.SaveFlow(context.Background(), flow))

	publisher := &capturingPublisher{}
	service := NewSession(repo, memory.NewSessionStore(), publisher, nil, nil, nil, nil)

	return service, publisher, flow.ID
}

func TestStartSuspendsAndPersistsSession(t *testing.T) {
	service, publisher, flowID := newSessionFixture(t)

	started, err := service.Start(context.Background(), flowID)
	require.NoError(t, err)
	require.NotEmpty(t, started.SessionID)
	assert.Equal(t, interpreter.StatusSuspended, started.Step.Status)
	assert.Equal(t, "Hello Ada", started.Step.Messages[0].Text)

	types := publisher.types()
	require.Len(t, types, 4)
	assert.Equal(t, events.SessionStartedEvent, types[0])
	assert.Equal(t, events.BotMessageSentEvent, types[1])
	assert.Equal(t, events.BotMessageSentEvent, types[2])
	assert.Equal(t, events.SessionSuspendedEvent, types[3])
}

func TestResumeCompletesSessionAcrossCalls(t *testing.T) {
	service, publisher, flowID := newSessionFixture(t)

	started, err := service.Start(context.Background(), flowID)
	require.NoError(t, err)

	resumed, err := service.Resume(context.Background(), started.SessionID, SessionInput{OptionID: "yes"})
	require.NoError(t, err)
	assert.Equal(t, interpreter.StatusEnded, resumed.Step.Status)
	assert.Equal(t, interpreter.ReasonCompleted, resumed.Step.EndReason)

	types := publisher.types()
	assert.Equal(t, events.SessionEndedEvent, types[len(types)-1])

	// The ended session is dropped from the store.
	_, err = service.Resume(context.Background(), started.SessionID, SessionInput{OptionID: "yes"})
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestResumeRequiresInput(t *testing.T) {
	service, _, flowID := newSessionFixture(t)

	started, err := service.Start(context.Background(), flowID)
	require.NoError(t, err)

	_, err = service.Resume(context.Background(), started.SessionID, SessionInput{})
	require.ErrorIs(t, err, ErrInputMissing)
}

func TestResumeRejectsAmbiguousInput(t *testing.T) {
	service, _, flowID := newSessionFixture(t)

	started, err := service.Start(context.Background(), flowID)
	require.NoError(t, err)

	_, err = service.Resume(context.Background(), started.SessionID, SessionInput{OptionID: "yes", Text: "yes"})
	require.ErrorIs(t, err, ErrInputAmbiguous)

	// The session stays suspended and still accepts a clean event.
	resumed, err := service.Resume(context.Background(), started.SessionID, SessionInput{OptionID: "yes"})
	require.NoError(t, err)
	assert.Equal(t, interpreter.StatusEnded, resumed.Step.Status)
}

func TestStartRefusesInvalidFlow(t *testing.T) {
	repo := file.NewRepository(t.TempDir())
	flow := greetingFlow()
	flow.Connect(flow.StartNode().ID, "ghost")
	require.NoError(t, repo.SaveFlow(context.Background(), flow))

	service := NewSession(repo, memory.NewSessionStore(), nil, nil, nil, nil, nil)

	_, err := service.Start(context.Background(), flow.ID)
	require.ErrorIs(t, err, ErrFlowInvalid)
}

func TestStartUnknownFlow(t *testing.T) {
	service, _, _ := newSessionFixture(t)

	_, err := service.Start(context.Background(), "missing")
	require.ErrorIs(t, err, ErrFlowNotFound)
}
