package observer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/saaga0h/jeeves-dns/pkg/mqtt"
)

// TopicAll captures everything the agent and the harness publish
const TopicAll = "dns/#"

// CapturedMessage is one MQTT message seen during a run
type CapturedMessage struct {
	Timestamp time.Time   `json:"timestamp"`
	Topic     string      `json:"topic"`
	Payload   interface{} `json:"payload"`
}

// Observer records agent traffic for later checks
type Observer struct {
	client     mqtt.Client
	logger     *slog.Logger
	startTime  time.Time
	mu         sync.RWMutex
	messages   []CapturedMessage
	instanceID string
}

// NewObserver creates an observer on an already connected client
func NewObserver(client mqtt.Client, logger *slog.Logger) *Observer {
	return &Observer{
		client: client,
		logger: logger,
	}
}

// Start subscribes to all dns topics
func (o *Observer) Start() error {
	o.startTime = time.Now()
	if err := o.client.Subscribe(TopicAll, 0, o.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", TopicAll, err)
	}
	return nil
}

func (o *Observer) handleMessage(msg mqtt.Message) {
	var payload interface{}
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		payload = string(msg.Payload())
	}

	o.mu.Lock()
	o.messages = append(o.messages, CapturedMessage{
		Timestamp: time.Now(),
		Topic:     msg.Topic(),
		Payload:   payload,
	})
	if m, ok := payload.(map[string]interface{}); ok {
		if id, ok := m["instance_id"].(string); ok && id != "" {
			o.instanceID = id
		}
	}
	o.mu.Unlock()

	o.logger.Debug("Captured message",
		"elapsed", time.Since(o.startTime).Round(time.Millisecond),
		"topic", msg.Topic())
}

// Messages returns a copy of everything captured so far
func (o *Observer) Messages() []CapturedMessage {
	o.mu.RLock()
	defer o.mu.RUnlock()

	messages := make([]CapturedMessage, len(o.messages))
	copy(messages, o.messages)
	return messages
}

// InstanceID is the agent instance seen in the most recent message that
// carried one
func (o *Observer) InstanceID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.instanceID
}

// SaveCapture writes the captured messages as JSON
func (o *Observer) SaveCapture(filename string) error {
	data, err := json.MarshalIndent(o.Messages(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(filename, data, 0644)
}
