package mqtt

import "context"

// Client is the broker connection shared by the agent, the virtual clock and
// the e2e harness. Tests substitute in-memory fakes.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect()

	// Subscribe registers handler for topic, which may contain + and #
	// wildcards. Handlers run on the client's delivery goroutine.
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// Publish sends payload; retained messages are replayed to late
	// subscribers such as a restarted agent.
	Publish(topic string, qos byte, retained bool, payload []byte) error

	IsConnected() bool
}

// MessageHandler receives one delivered message
type MessageHandler func(Message)

// Message is a delivered MQTT message
type Message interface {
	Topic() string
	Payload() []byte
	Ack()
}
