// Package config provides configuration loading for scripted test
// scenarios.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScenarioStep is one scripted user event. Exactly one of Option or Text
// must be set.
type ScenarioStep struct {
	Option string `yaml:"option,omitempty"`
	Text   string `yaml:"text,omitempty"`
}

// Scenario is a scripted conversation run against a flow: the session is
// started, then every step is fed in order.
type Scenario struct {
	Name  string         `yaml:"name"`
	Steps []ScenarioStep `yaml:"steps"`
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(filepath string) (Scenario, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario file %s: %w", filepath, err)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse YAML scenario: %w", err)
	}

	if err := ValidateScenario(scenario); err != nil {
		return Scenario{}, err
	}

	return scenario, nil
}

// ValidateScenario checks that every step carries exactly one event.
func ValidateScenario(scenario Scenario) error {
	for i, step := range scenario.Steps {
		if step.Option == "" && step.Text == "" {
			return fmt.Errorf("scenario step %d carries neither an option nor text", i+1)
		}

		if step.Option != "" && step.Text != "" {
			return fmt.Errorf("scenario step %d carries both an option and text", i+1)
		}
	}

	return nil
}
