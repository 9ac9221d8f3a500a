package clock

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sixdouglas/suncalc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-dns/internal/dns"
	"github.com/saaga0h/jeeves-dns/pkg/mqtt"
)

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Topic() string   { return m.topic }
func (m *mockMessage) Payload() []byte { return m.payload }
func (m *mockMessage) Ack()            {}

type mockMQTT struct {
	handlers map[string]mqtt.MessageHandler
}

func (m *mockMQTT) Connect(ctx context.Context) error { return nil }
func (m *mockMQTT) Disconnect()                       {}
func (m *mockMQTT) IsConnected() bool                 { return true }
func (m *mockMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	return nil
}
func (m *mockMQTT) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	if m.handlers == nil {
		m.handlers = map[string]mqtt.MessageHandler{}
	}
	m.handlers[topic] = handler
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRTC(t *testing.T) {
	wall := time.Date(2025, 3, 1, 18, 42, 10, 0, time.UTC)
	c := NewRTC(-12 * time.Hour)
	c.now = func() time.Time { return wall }

	assert.Equal(t, dns.ClockTime{Hour: 6, Minute: 42}, c.Now())

	c.offset = 0
	assert.Equal(t, dns.ClockTime{Hour: 18, Minute: 42}, c.Now())
}

func TestManual(t *testing.T) {
	m := NewManual(23, 50)
	assert.Equal(t, dns.ClockTime{Hour: 23, Minute: 50}, m.Now())

	assert.Equal(t, dns.ClockTime{Hour: 0, Minute: 5}, m.Advance(15))
	assert.Equal(t, dns.ClockTime{Hour: 23, Minute: 55}, m.Advance(-10))
	assert.Equal(t, dns.ClockTime{Hour: 23, Minute: 55}, m.Advance(minutesPerDay))

	m.Set(25, 0)
	assert.ErrorIs(t, m.Now().Validate(), dns.ErrClockOutOfRange)
}

func TestVirtual(t *testing.T) {
	wall := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	v := NewVirtual(quietLogger())
	v.now = func() time.Time { return wall }

	assert.False(t, v.IsTestMode())
	assert.Equal(t, dns.ClockTime{Hour: 9, Minute: 0}, v.Now())

	client := &mockMQTT{}
	require.NoError(t, v.ConfigureFromMQTT(client))
	handler, ok := client.handlers[mqtt.TopicTestTimeConfig]
	require.True(t, ok)

	handler(&mockMessage{
		topic:   mqtt.TopicTestTimeConfig,
		payload: []byte(`{"test_mode": true, "virtual_start": "2025-01-01T20:55:00Z", "time_scale": 60}`),
	})
	require.True(t, v.IsTestMode())
	assert.Equal(t, dns.ClockTime{Hour: 20, Minute: 55}, v.Now())

	wall = wall.Add(10 * time.Second)
	assert.Equal(t, dns.ClockTime{Hour: 21, Minute: 5}, v.Now())

	// Broken payloads leave the clock as it was.
	v.HandleTimeConfig([]byte(`{"test_mode": true, "virtual_start": "tomorrow"}`))
	v.HandleTimeConfig([]byte(`not json`))
	assert.Equal(t, dns.ClockTime{Hour: 21, Minute: 5}, v.Now())

	v.HandleTimeConfig([]byte(`{"test_mode": false}`))
	assert.False(t, v.IsTestMode())
	assert.Equal(t, dns.ClockTime{Hour: 9, Minute: 0}, v.Now())
}

func TestSolar_MapsSunOntoGameDay(t *testing.T) {
	const lat, lon = 0.0, 0.0
	day := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	times := suncalc.GetTimes(day, lat, lon)
	sunrise := times[suncalc.Sunrise].Value
	sunset := times[suncalc.Sunset].Value
	require.True(t, sunset.After(sunrise))

	s := NewSolar(lat, lon, dns.DefaultBoundaries(), quietLogger())

	assert.Equal(t, dns.ClockTime{Hour: 7, Minute: 0}, s.At(sunrise))
	assert.Equal(t, dns.ClockTime{Hour: 19, Minute: 0}, s.At(sunset))
	assert.Equal(t, dns.ClockTime{Hour: 18, Minute: 59}, s.At(sunset.Add(-time.Second)))

	noon := s.At(sunrise.Add(sunset.Sub(sunrise) / 2))
	assert.InDelta(t, 13*60, noon.Hour*60+noon.Minute, 1)

	for _, wall := range []time.Time{
		time.Date(2025, 3, 20, 0, 30, 0, 0, time.UTC),
		time.Date(2025, 3, 20, 22, 0, 0, 0, time.UTC),
	} {
		game := s.At(wall)
		require.NoError(t, game.Validate())
		phase := dns.ResolvePhase(game.Hour)
		assert.NotEqual(t, dns.Day, phase, "wall %s mapped to %s", wall, game)
		assert.NotEqual(t, dns.Dawn, phase, "wall %s mapped to %s", wall, game)
	}
}

func TestSolar_PolarDayUsesWallClock(t *testing.T) {
	s := NewSolar(89.5, 0, dns.DefaultBoundaries(), quietLogger())
	wall := time.Date(2025, 6, 21, 3, 17, 0, 0, time.UTC)
	s.now = func() time.Time { return wall }

	assert.Equal(t, FromTime(wall), s.Now())
}
