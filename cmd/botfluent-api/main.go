package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/botfluent/botfluent/pkg/cmd"
	"github.com/botfluent/botfluent/pkg/formflow"
	"github.com/botfluent/botfluent/pkg/log"
	"github.com/botfluent/botfluent/pkg/otelhelper"
	"github.com/botfluent/botfluent/pkg/services"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	cmdline := &cli.Command{
		Name:                  "botfluent-api",
		Usage:                 "Create, validate and test-run conversation flows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for flow persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "session-store-url",
				Usage:   "Session store URL (redis://...); empty keeps sessions in memory",
				Sources: cli.EnvVars("SESSION_STORE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "forms-api-url",
				Usage:   "Base URL of the WhatsApp flows platform API",
				Sources: cli.EnvVars("FORMS_API_URL"),
			},
			&cli.StringFlag{
				Name:    "forms-api-token",
				Usage:   "Bearer token for the WhatsApp flows platform API",
				Sources: cli.EnvVars("FORMS_API_TOKEN"),
			},
			&cli.DurationFlag{
				Name:    "session-idle-timeout",
				Usage:   "Idle duration after which suspended sessions are expired",
				Value:   30 * time.Minute,
				Sources: cli.EnvVars("SESSION_IDLE_TIMEOUT"),
			},
			&cli.BoolFlag{
				Name:    "otel",
				Usage:   "Enable OpenTelemetry tracing",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Botfluent API")

			repository := cmd.NewFlowRepository(ctx, logger, command.String("database-url"))

			defer func() {
				err := repository.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close flow repository", "error", err)
				}
			}()

			store := cmd.NewSessionStore(ctx, logger, command.String("session-store-url"),
				command.Duration("session-idle-timeout"))

			defer func() {
				err := store.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close session store", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var tracer trace.Tracer

			if command.Bool("otel") {
				var err error

				tracer, err = otelhelper.NewTracer(ctx, "botfluent-api")
				if err != nil {
					logger.WarnContext(ctx, "Failed to initialize tracing", "error", err)
				}
			}

			var formPublisher *formflow.Publisher
			if formsURL := command.String("forms-api-url"); formsURL != "" {
				client := formflow.NewClient(formsURL, command.String("forms-api-token"), logger)
				formPublisher = formflow.NewPublisher(client, logger)
			}

			sweeper := services.NewSweeper(store, command.Duration("session-idle-timeout"), logger)
			if err := sweeper.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to start session sweeper", "error", err)
			}

			defer sweeper.Stop()

			api := NewAPI(
				logger,
				repository,
				store,
				eventBus,
				formPublisher,
				tracer,
			)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := cmdline.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
