package services

import (
	"context"
	"testing"

	"github.com/botfluent/botfluent/pkg/models"
	"github.com/botfluent/botfluent/pkg/persistence"
	"github.com/botfluent/botfluent/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFlow() *models.Flow {
	flow := models.NewFlow("partner-1", "Support", "fr")
	end := flow.AddNode(&models.Node{Type: models.NodeTypeEnd, Data: models.EndData{}})
	flow.Connect(flow.StartNode().ID, end.ID)

	return flow
}

func newFlowService(t *testing.T) *Flow {
	t.Helper()

	return NewFlow(file.NewRepository(t.TempDir()), nil)
}

func TestCreateAndFetchFlow(t *testing.T) {
	service := newFlowService(t)

	created, err := service.Create(context.Background(), validFlow())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	fetched, err := service.FetchByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Support", fetched.Name)
}

func TestCreateRefusesBrokenGraph(t *testing.T) {
	service := newFlowService(t)

	flow := validFlow()
	flow.Connect(flow.StartNode().ID, "ghost")

	_, err := service.Create(context.Background(), flow)

	require.ErrorIs(t, err, ErrFlowInvalid)

	var invalid *InvalidFlowError

	require.ErrorAs(t, err, &invalid)
	assert.NotEmpty(t, invalid.Errors)
}

func TestCreateRequiresName(t *testing.T) {
	service := newFlowService(t)

	flow := validFlow()
	flow.Name = ""

	_, err := service.Create(context.Background(), flow)

	require.ErrorIs(t, err, ErrFlowNameRequired)
}

func TestUpdateMissingFlow(t *testing.T) {
	service := newFlowService(t)

	_, err := service.Update(context.Background(), "missing", validFlow())

	require.ErrorIs(t, err, persistence.ErrFlowNotFound)
}

func TestDeleteFlow(t *testing.T) {
	service := newFlowService(t)

	created, err := service.Create(context.Background(), validFlow())
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), created.ID))

	_, err = service.FetchByID(context.Background(), created.ID)
	require.ErrorIs(t, err, persistence.ErrFlowNotFound)
}

func TestValidateReportsWarnings(t *testing.T) {
	service := newFlowService(t)

	flow := validFlow()
	flow.AddNode(&models.Node{Type: models.NodeTypeButtons, Data: models.ButtonsData{Text: "choose"}})

	created, err := service.Create(context.Background(), flow)
	require.NoError(t, err)

	result, err := service.Validate(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.NotEmpty(t, result.Warnings)
}
