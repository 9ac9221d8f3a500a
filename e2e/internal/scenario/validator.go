package scenario

import (
	"fmt"
	"strings"
	"time"

	"github.com/saaga0h/jeeves-dns/pkg/mqtt"
)

var knownControls = map[string]bool{
	"mode":       true,
	"map":        true,
	"fade":       true,
	"sprite_tag": true,
}

// ValidateScenario checks a loaded scenario
func ValidateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}

	if err := validateClock(s.Clock); err != nil {
		return fmt.Errorf("clock validation failed: %w", err)
	}

	if err := validateSteps(s.Steps); err != nil {
		return fmt.Errorf("steps validation failed: %w", err)
	}

	if err := validateExpectations(s.Expectations); err != nil {
		return fmt.Errorf("expectations validation failed: %w", err)
	}

	return nil
}

func validateClock(c *ClockConfig) error {
	if c == nil {
		return nil
	}

	if _, err := time.Parse(time.RFC3339, c.VirtualStart); err != nil {
		return fmt.Errorf("virtual_start must be an RFC 3339 timestamp: %w", err)
	}

	if c.TimeScale < 1 {
		return fmt.Errorf("time_scale must be >= 1 (got %d)", c.TimeScale)
	}

	return nil
}

func validateSteps(steps []Step) error {
	for i, step := range steps {
		if step.Time < 0 {
			return fmt.Errorf("step %d: time cannot be negative", i)
		}
		if !knownControls[step.Control] {
			return fmt.Errorf("step %d: unknown control %q", i, step.Control)
		}
		if len(step.Payload) == 0 {
			return fmt.Errorf("step %d: payload is required", i)
		}
	}
	return nil
}

func validateExpectations(exps []Expectation) error {
	if len(exps) == 0 {
		return fmt.Errorf("at least one expectation is required")
	}

	for i, exp := range exps {
		if exp.Time < 0 {
			return fmt.Errorf("expectation %d: time cannot be negative", i)
		}

		switch exp.Kind() {
		case "redis":
			if exp.RedisField == "" || exp.Expected == "" {
				return fmt.Errorf("expectation %d: redis_field and expected are required with redis_key", i)
			}
		case "mqtt":
			if exp.Topic == "" {
				return fmt.Errorf("expectation %d: topic or redis_key is required", i)
			}
			if !strings.HasPrefix(exp.Topic, mqtt.TopicContextBase+"/") {
				return fmt.Errorf("expectation %d: topic %q is not an agent output topic", i, exp.Topic)
			}
			if len(exp.Payload) == 0 {
				return fmt.Errorf("expectation %d: payload is required", i)
			}
		}
	}

	return nil
}
