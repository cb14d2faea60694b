// Package web provides the REST handlers of the flow console API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/botfluent/botfluent/pkg/connector"
	"github.com/botfluent/botfluent/pkg/formflow"
	"github.com/botfluent/botfluent/pkg/models"
	"github.com/botfluent/botfluent/pkg/persistence"
	"github.com/botfluent/botfluent/pkg/services"
	"github.com/botfluent/botfluent/pkg/validation"
)

type APIHandlers struct {
	flowService    *services.Flow
	sessionService *services.Session
	connector      *connector.Connector
	formPublisher  *formflow.Publisher
	validator      *validator.Validate
}

func NewAPIHandlers(
	flowService *services.Flow,
	sessionService *services.Session,
	connector *connector.Connector,
	formPublisher *formflow.Publisher,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		flowService:    flowService,
		sessionService: sessionService,
		connector:      connector,
		formPublisher:  formPublisher,
		validator:      validator,
	}
}

func (h *APIHandlers) GetFlows(c fiber.Ctx) error {
	flows, err := h.flowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"flows": flows,
		"count": len(flows),
	})
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	flow, err := h.flowService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsFlowNotFound(err) {
			return notFound(c, "Flow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) CreateFlow(c fiber.Ctx) error {
	flow, err := h.decodeFlowDocument(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.flowService.Create(c.Context(), flow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	flow, err := h.decodeFlowDocument(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.flowService.Update(c.Context(), id, flow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	err := h.flowService.Delete(c.Context(), id)
	if err != nil {
		if persistence.IsFlowNotFound(err) {
			return notFound(c, "Flow not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ValidateFlow runs the graph validator over a stored flow and returns the
// full report, warnings included.
func (h *APIHandlers) ValidateFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	result, err := h.flowService.Validate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) StartSession(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	step, err := h.sessionService.Start(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(step)
}

func (h *APIHandlers) SessionInput(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	var req SessionInputRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	step, err := h.sessionService.Resume(c.Context(), id, services.SessionInput{
		OptionID: req.OptionID,
		Text:     req.Text,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(step)
}

// TestConnector runs a connector configuration against sample variables.
// Execution failures are part of the report, not HTTP errors.
func (h *APIHandlers) TestConnector(c fiber.Ctx) error {
	var req ConnectorTestRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result := h.connector.Test(c.Context(), req.Connector, req.SampleVariables)

	return c.JSON(result)
}

// PublishForm compiles and publishes the form of one whatsapp_form node.
// The platform flow id is persisted onto the node before the publish call
// so a retry after a crash reuses the same artifact.
func (h *APIHandlers) PublishForm(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	if h.formPublisher == nil {
		return serviceUnavailable(c, "Form publishing is not configured")
	}

	var req PublishFormRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	flow, err := h.flowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	node := flow.NodeByID(req.NodeID)
	if node == nil {
		return notFound(c, "Node not found")
	}

	form, ok := node.Data.(models.WhatsAppFormData)
	if !ok {
		return badRequest(c, "Node is not a WhatsApp form node")
	}

	result, err := h.formPublisher.Publish(c.Context(), form, func(ctx context.Context, platformFlowID string) error {
		form.FlowID = platformFlowID
		node.Data = form

		_, saveErr := h.flowService.Update(ctx, flow.ID, flow)

		return saveErr
	})
	if err != nil {
		if errors.Is(err, formflow.ErrFormInvalid) {
			return badRequest(c, err.Error())
		}

		return internalError(c, err)
	}

	form.PreviewURL = result.PreviewURL
	node.Data = form

	if _, err = h.flowService.Update(c.Context(), flow.ID, flow); err != nil {
		return internalError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.flowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Botfluent API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Botfluent API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// decodeFlowDocument checks the raw body against the flow JSON schema
// before decoding, so malformed documents fail with a schema message
// instead of a half-decoded flow.
func (h *APIHandlers) decodeFlowDocument(c fiber.Ctx) (*models.Flow, error) {
	body := c.Body()

	if err := validation.ValidateDocument(body); err != nil {
		return nil, err
	}

	var flow models.Flow
	if err := json.Unmarshal(body, &flow); err != nil {
		return nil, err
	}

	if err := h.validator.Struct(flow); err != nil {
		return nil, err
	}

	return &flow, nil
}
