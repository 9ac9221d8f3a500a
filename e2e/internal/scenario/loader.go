package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadScenario loads and validates a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return LoadScenarioFromBytes(data)
}

// LoadScenarioFromBytes loads and validates a scenario from YAML
func LoadScenarioFromBytes(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if err := ValidateScenario(&s); err != nil {
		return nil, fmt.Errorf("scenario validation failed: %w", err)
	}

	return &s, nil
}
