package executor

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/saaga0h/jeeves-dns/e2e/internal/scenario"
	"github.com/saaga0h/jeeves-dns/pkg/mqtt"
)

// MQTTPlayer publishes scenario input to the agent
type MQTTPlayer struct {
	client mqtt.Client
	logger *slog.Logger
}

// NewMQTTPlayer creates a player on an already connected client
func NewMQTTPlayer(client mqtt.Client, logger *slog.Logger) *MQTTPlayer {
	return &MQTTPlayer{client: client, logger: logger}
}

// PublishStep sends a step's payload to dns/control/{control}
func (p *MQTTPlayer) PublishStep(step scenario.Step) error {
	payload, err := json.Marshal(step.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	topic := mqtt.ControlTopic(step.Control)
	if err := p.client.Publish(topic, 1, false, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.logger.Debug("Published control", "topic", topic, "payload", string(payload))
	return nil
}

// PublishClock configures the agent's virtual clock. The message is
// retained so an agent started later still picks it up.
func (p *MQTTPlayer) PublishClock(c *scenario.ClockConfig) error {
	payload, err := json.Marshal(map[string]interface{}{
		"test_mode":     true,
		"virtual_start": c.VirtualStart,
		"time_scale":    c.TimeScale,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal clock config: %w", err)
	}

	if err := p.client.Publish(mqtt.TopicTestTimeConfig, 1, true, payload); err != nil {
		return fmt.Errorf("failed to publish clock config: %w", err)
	}

	p.logger.Info("Published clock configuration",
		"virtual_start", c.VirtualStart,
		"time_scale", c.TimeScale)
	return nil
}

// ResetClock returns the agent to wall time
func (p *MQTTPlayer) ResetClock() error {
	return p.client.Publish(mqtt.TopicTestTimeConfig, 1, true, []byte(`{"test_mode": false}`))
}
