package scenario

import "time"

// Scenario is one end-to-end run against a live dns-agent
type Scenario struct {
	Name         string        `yaml:"name"`
	Description  string        `yaml:"description"`
	Clock        *ClockConfig  `yaml:"clock,omitempty"`
	Steps        []Step        `yaml:"steps"`
	Expectations []Expectation `yaml:"expectations"`
}

// ClockConfig is published to the agent's virtual clock before the run
type ClockConfig struct {
	VirtualStart string `yaml:"virtual_start"`
	TimeScale    int    `yaml:"time_scale"`
}

// Step publishes one control message
type Step struct {
	Time        int                    `yaml:"time"`    // Seconds from start
	Control     string                 `yaml:"control"` // mode, map, fade, sprite_tag
	Payload     map[string]interface{} `yaml:"payload"`
	Description string                 `yaml:"description"`
}

// Expectation is checked at Time against either the latest message on
// Topic or a Redis hash field.
//
// RedisKey may contain {instance_id}, which is replaced with the instance
// ID seen in the agent's most recent message.
type Expectation struct {
	Time    int                    `yaml:"time"` // Seconds from start
	Topic   string                 `yaml:"topic,omitempty"`
	Payload map[string]interface{} `yaml:"payload,omitempty"`

	RedisKey   string `yaml:"redis_key,omitempty"`
	RedisField string `yaml:"redis_field,omitempty"`
	Expected   string `yaml:"expected,omitempty"`

	Description string `yaml:"description"`
}

// Kind reports which checker handles the expectation
func (e *Expectation) Kind() string {
	if e.RedisKey != "" {
		return "redis"
	}
	return "mqtt"
}

// TestResult is the outcome of a run
type TestResult struct {
	Scenario     *Scenario
	StartTime    time.Time
	EndTime      time.Time
	Passed       bool
	PassedCount  int
	FailedCount  int
	Expectations []ExpectationResult
}

// ExpectationResult is the outcome of one expectation
type ExpectationResult struct {
	Expectation Expectation
	Passed      bool
	Reason      string
	Actual      interface{}
}
