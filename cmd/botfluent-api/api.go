// Package main provides the Botfluent API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/botfluent/botfluent/pkg/connector"
	"github.com/botfluent/botfluent/pkg/eventbus"
	"github.com/botfluent/botfluent/pkg/formflow"
	"github.com/botfluent/botfluent/pkg/interpreter"
	"github.com/botfluent/botfluent/pkg/persistence"
	"github.com/botfluent/botfluent/pkg/services"
	"github.com/botfluent/botfluent/pkg/web"
)

type API struct {
	logger        *slog.Logger
	repository    persistence.FlowRepository
	store         persistence.SessionStore
	eventBus      eventbus.EventBus
	formPublisher *formflow.Publisher
	tracer        trace.Tracer
	validate      *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	repository persistence.FlowRepository,
	store persistence.SessionStore,
	eventBus eventbus.EventBus,
	formPublisher *formflow.Publisher,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:        logger,
		repository:    repository,
		store:         store,
		eventBus:      eventBus,
		formPublisher: formPublisher,
		tracer:        tracer,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	conn := connector.New(a.logger)

	var forms interpreter.FormPublisher
	if a.formPublisher != nil {
		forms = a.formPublisher
	}

	flowService := services.NewFlow(a.repository, a.logger)
	sessionService := services.NewSession(a.repository, a.store, a.eventBus, conn, forms, a.tracer, a.logger)

	handlers := web.NewAPIHandlers(flowService, sessionService, conn, a.formPublisher, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Botfluent API")
	})

	flows := app.Group("/flows")
	flows.Get("/", handlers.GetFlows)
	flows.Post("/", handlers.CreateFlow)
	flows.Get("/:id", handlers.GetFlow)
	flows.Put("/:id", handlers.UpdateFlow)
	flows.Delete("/:id", handlers.DeleteFlow)
	flows.Post("/:id/validate", handlers.ValidateFlow)
	flows.Post("/:id/sessions", handlers.StartSession)
	flows.Post("/:id/form/publish", handlers.PublishForm)

	app.Post("/sessions/:id/input", handlers.SessionInput)
	app.Post("/connector/test", handlers.TestConnector)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
