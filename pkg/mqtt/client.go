package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-dns/pkg/config"
)

// publishTimeout bounds how long a publish may wait for the broker
const publishTimeout = 5 * time.Second

type subscription struct {
	qos     byte
	handler pahomqtt.MessageHandler
}

// mqttClient implements Client on top of Paho. Subscriptions are remembered
// and renewed after every reconnect, since sessions are clean.
type mqttClient struct {
	client pahomqtt.Client
	cfg    *config.Config
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string]subscription
}

// NewClient creates a client for the configured broker. Nothing is sent
// until Connect.
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}

	m := &mqttClient{
		cfg:    cfg,
		logger: logger,
		subs:   make(map[string]subscription),
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTAddress())

	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = fmt.Sprintf("%s-%s", cfg.ServiceName, uuid.NewString()[:8])
	}
	opts.SetClientID(clientID)

	if cfg.MQTTUser != "" {
		opts.SetUsername(cfg.MQTTUser)
	}
	if cfg.MQTTPassword != "" {
		opts.SetPassword(cfg.MQTTPassword)
	}

	// Retained offline marker so context consumers can tell the agent is gone
	if cfg.MQTTAnnounce {
		opts.SetWill(TopicContextStatus, "offline", 1, true)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = m.onConnect
	opts.OnConnectionLost = func(c pahomqtt.Client, err error) {
		logger.Warn("MQTT connection lost", "error", err)
	}
	opts.OnReconnecting = func(c pahomqtt.Client, opts *pahomqtt.ClientOptions) {
		logger.Info("MQTT reconnecting...")
	}

	m.client = pahomqtt.NewClient(opts)
	return m
}

func (m *mqttClient) onConnect(c pahomqtt.Client) {
	m.logger.Info("Connected to MQTT broker", "broker", m.cfg.MQTTAddress())

	if m.cfg.MQTTAnnounce {
		c.Publish(TopicContextStatus, 1, true, "online")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for topic, sub := range m.subs {
		token := c.Subscribe(topic, sub.qos, sub.handler)
		if token.WaitTimeout(publishTimeout) && token.Error() != nil {
			m.logger.Error("Failed to renew subscription", "topic", topic, "error", token.Error())
			continue
		}
		m.logger.Debug("Renewed subscription", "topic", topic)
	}
}

// Connect waits for the first connection or the context, whichever ends
// first
func (m *mqttClient) Connect(ctx context.Context) error {
	m.logger.Info("Connecting to MQTT broker", "broker", m.cfg.MQTTAddress())

	token := m.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("connection timeout: %w", ctx.Err())
	}
}

func (m *mqttClient) Disconnect() {
	m.logger.Info("Disconnecting from MQTT broker")
	m.client.Disconnect(250)
}

func (m *mqttClient) Subscribe(topic string, qos byte, handler MessageHandler) error {
	wrapped := func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler(&mqttMessage{msg: msg})
	}

	m.mu.Lock()
	m.subs[topic] = subscription{qos: qos, handler: wrapped}
	m.mu.Unlock()

	token := m.client.Subscribe(topic, qos, wrapped)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}

	m.logger.Info("Subscribed to topic", "topic", topic, "qos", qos)
	return nil
}

func (m *mqttClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := m.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to topic %s timed out after %s", topic, publishTimeout)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	m.logger.Debug("Published message", "topic", topic, "size", len(payload))
	return nil
}

func (m *mqttClient) IsConnected() bool {
	return m.client.IsConnected()
}

// mqttMessage adapts a Paho message to Message
type mqttMessage struct {
	msg pahomqtt.Message
}

func (m *mqttMessage) Topic() string   { return m.msg.Topic() }
func (m *mqttMessage) Payload() []byte { return m.msg.Payload() }
func (m *mqttMessage) Ack()            { m.msg.Ack() }
