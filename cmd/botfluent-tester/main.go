// Package main provides a command-line runner for scripted flow test
// scenarios.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/botfluent/botfluent/pkg/cmd"
	"github.com/botfluent/botfluent/pkg/config"
	"github.com/botfluent/botfluent/pkg/connector"
	"github.com/botfluent/botfluent/pkg/interpreter"
	"github.com/botfluent/botfluent/pkg/log"
	"github.com/botfluent/botfluent/pkg/models"
	"github.com/botfluent/botfluent/pkg/validation"
)

var errFlowSourceMissing = errors.New("either --flow-file or --database-url with --flow-id is required")

func main() {
	logger := log.WithModule("tester")

	cmdline := &cli.Command{
		Name:                  "botfluent-tester",
		Usage:                 "Run a scripted scenario against a conversation flow",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "flow-file",
				Usage: "Path to a flow JSON document",
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for flow persistence",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:  "flow-id",
				Usage: "ID of the stored flow to run",
			},
			&cli.StringFlag{
				Name:     "scenario",
				Usage:    "Path to a YAML scenario file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			flow, err := loadFlow(ctx, logger, command)
			if err != nil {
				return err
			}

			scenario, err := config.LoadScenario(command.String("scenario"))
			if err != nil {
				return err
			}

			return runScenario(ctx, flow, scenario)
		},
	}

	err := cmdline.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadFlow(ctx context.Context, logger *slog.Logger, command *cli.Command) (*models.Flow, error) {
	if path := command.String("flow-file"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read flow file %s: %w", path, err)
		}

		if err = validation.ValidateDocument(raw); err != nil {
			return nil, err
		}

		var flow models.Flow
		if err = json.Unmarshal(raw, &flow); err != nil {
			return nil, fmt.Errorf("failed to decode flow file %s: %w", path, err)
		}

		return &flow, nil
	}

	databaseURL := command.String("database-url")
	flowID := command.String("flow-id")

	if databaseURL == "" || flowID == "" {
		return nil, errFlowSourceMissing
	}

	repository := cmd.NewFlowRepository(ctx, logger, databaseURL)

	defer func() {
		if err := repository.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close flow repository", "error", err)
		}
	}()

	return repository.FlowByID(ctx, flowID)
}

func runScenario(ctx context.Context, flow *models.Flow, scenario config.Scenario) error {
	result := validation.Validate(flow)
	if !result.IsValid {
		return fmt.Errorf("flow is structurally invalid: %v", result.Errors)
	}

	interp := interpreter.New(flow, interpreter.WithAPIClient(connector.New(nil)))

	fmt.Printf("=== %s (%s)\n", flow.Name, scenario.Name)

	step := interp.Start(ctx)
	printStep(step)

	for i, event := range scenario.Steps {
		if step.Status != interpreter.StatusSuspended {
			return fmt.Errorf("scenario step %d has no session to resume: session already %s", i+1, step.Status)
		}

		if event.Option != "" {
			fmt.Printf(">>> option %q\n", event.Option)

			step = interp.ResumeWithOption(ctx, event.Option)
		} else {
			fmt.Printf(">>> %q\n", event.Text)

			step = interp.ResumeWithText(ctx, event.Text)
		}

		printStep(step)
	}

	if step.Status != interpreter.StatusEnded {
		return fmt.Errorf("scenario finished with session still %s at node %s", step.Status, step.ActiveNodeID)
	}

	fmt.Printf("=== session ended: %s\n", step.EndReason)

	return nil
}

func printStep(step interpreter.StepResult) {
	for _, message := range step.Messages {
		switch {
		case message.MediaURL != "":
			fmt.Printf("<<< [%s] %s %s\n", message.Kind, message.Text, message.MediaURL)
		default:
			fmt.Printf("<<< %s\n", message.Text)
		}

		for _, option := range message.Options {
			fmt.Printf("      (%s) %s\n", option.ID, option.Text)
		}
	}
}
