package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-dns/internal/clock"
	"github.com/saaga0h/jeeves-dns/internal/dns"
	"github.com/saaga0h/jeeves-dns/pkg/config"
	"github.com/saaga0h/jeeves-dns/pkg/mqtt"
	"github.com/saaga0h/jeeves-dns/pkg/redis"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type mockMQTT struct {
	mu         sync.Mutex
	connectErr error
	connects   int
	handlers   map[string]mqtt.MessageHandler
	published  []published
}

func (m *mockMQTT) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connects++
	return m.connectErr
}

func (m *mockMQTT) Disconnect()        {}
func (m *mockMQTT) IsConnected() bool { return m.connectErr == nil }

func (m *mockMQTT) connectAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects
}

func (m *mockMQTT) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handlers == nil {
		m.handlers = map[string]mqtt.MessageHandler{}
	}
	m.handlers[topic] = handler
	return nil
}

func (m *mockMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, published{topic: topic, retained: retained, payload: payload})
	return nil
}

func (m *mockMQTT) on(topic string) []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []published
	for _, p := range m.published {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func (m *mockMQTT) subscribed(topic string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.handlers[topic]
	return ok
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Topic() string   { return m.topic }
func (m *mockMessage) Payload() []byte { return m.payload }
func (m *mockMessage) Ack()            {}

type mockRedis struct {
	mu      sync.Mutex
	strings map[string]string
	hashes  map[string]map[string]string
	lists   map[string][]string
	ttls    map[string]time.Duration
}

func newMockRedis() *mockRedis {
	return &mockRedis{
		strings: map[string]string{},
		hashes:  map[string]map[string]string{},
		lists:   map[string][]string{},
		ttls:    map[string]time.Duration{},
	}
}

func (r *mockRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strings[key] = value.(string)
	r.ttls[key] = ttl
	return nil
}

func (r *mockRedis) Get(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.strings[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return v, nil
}

func (r *mockRedis) HSet(ctx context.Context, key string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hashes[key]
	if !ok {
		h = map[string]string{}
		r.hashes[key] = h
	}
	for k, v := range fields {
		b, _ := json.Marshal(v)
		if s, isString := v.(string); isString {
			h[k] = s
		} else {
			h[k] = string(b)
		}
	}
	return nil
}

func (r *mockRedis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]string{}
	for k, v := range r.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (r *mockRedis) LPush(ctx context.Context, key string, values ...interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range values {
		r.lists[key] = append([]string{v.(string)}, r.lists[key]...)
	}
	return nil
}

func (r *mockRedis) LTrim(ctx context.Context, key string, start, stop int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.lists[key]
	if int(stop)+1 < len(l) {
		r.lists[key] = l[start : stop+1]
	}
	return nil
}

func (r *mockRedis) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.lists[key]
	end := int(stop) + 1
	if end > len(l) {
		end = len(l)
	}
	return append([]string(nil), l[start:end]...), nil
}

func (r *mockRedis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ttls[key] = ttl
	return nil
}

func (r *mockRedis) Ping(ctx context.Context) error { return nil }
func (r *mockRedis) Close() error                   { return nil }

type mockHistory struct {
	mu          sync.Mutex
	schema      bool
	transitions []Transition
}

func (h *mockHistory) EnsureSchema(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.schema = true
	return nil
}

func (h *mockHistory) Record(ctx context.Context, t Transition) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transitions = append(h.transitions, t)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	agent   *Agent
	mqtt    *mockMQTT
	redis   *mockRedis
	history *mockHistory
	clock   *clock.Manual
}

func newFixture(t *testing.T, hour, minute int) *fixture {
	t.Helper()
	f := &fixture{
		mqtt:    &mockMQTT{},
		redis:   newMockRedis(),
		history: &mockHistory{},
		clock:   clock.NewManual(hour, minute),
	}

	cfg := config.NewConfig()
	a, err := NewAgent(f.mqtt, f.redis, f.history, f.clock, cfg, quietLogger())
	require.NoError(t, err)

	wall := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return wall }
	f.agent = a
	return f
}

func (f *fixture) runFrame() []event {
	f.agent.drainControls()
	events := f.agent.frame()
	for _, ev := range events {
		f.agent.handleEvent(context.Background(), ev)
	}
	return events
}

func TestNewAgent_Validation(t *testing.T) {
	cfg := config.NewConfig()
	cfg.FilterStrategy = "additive"
	_, err := NewAgent(&mockMQTT{}, newMockRedis(), nil, clock.NewManual(0, 0), cfg, quietLogger())
	assert.Error(t, err)

	cfg = config.NewConfig()
	cfg.TablesPath = "/nonexistent/tables.yaml"
	_, err = NewAgent(&mockMQTT{}, newMockRedis(), nil, clock.NewManual(0, 0), cfg, quietLogger())
	assert.Error(t, err)

	cfg = config.NewConfig()
	cfg.InitialMode = "menu"
	_, err = NewAgent(&mockMQTT{}, newMockRedis(), nil, clock.NewManual(0, 0), cfg, quietLogger())
	assert.Error(t, err)
}

func TestFrame_FirstFramePublishesPhase(t *testing.T) {
	f := newFixture(t, 21, 30)

	events := f.runFrame()
	require.Len(t, events, 2)
	assert.Equal(t, eventTransition, events[0].kind)
	assert.Equal(t, eventSummary, events[1].kind)

	phases := f.mqtt.on(mqtt.TopicContextPhase)
	require.Len(t, phases, 1)
	assert.True(t, phases[0].retained)

	var tr Transition
	require.NoError(t, json.Unmarshal(phases[0].payload, &tr))
	assert.Equal(t, "night", tr.Phase)
	assert.Empty(t, tr.PreviousPhase)
	assert.Equal(t, "21:30", tr.GameTime)
	assert.Equal(t, "overworld", tr.Mode)
	assert.Equal(t, "route", tr.MapType)
	assert.Equal(t, f.agent.InstanceID(), tr.InstanceID)
	assert.NotEmpty(t, tr.ID)

	require.Len(t, f.mqtt.on(mqtt.TopicContextFrame), 1)

	state, err := f.agent.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "night", state["phase"])
	assert.Equal(t, "true", state["lighting"])
	assert.Equal(t, 5*time.Minute, f.redis.ttls[redis.StateKey(f.agent.InstanceID())])

	staging, err := f.agent.state.LoadStaging(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.agent.system.Staging(), staging)
	assert.Equal(t, staging, f.agent.Display().Snapshot())

	require.Len(t, f.history.transitions, 1)
	assert.Equal(t, tr.ID, f.history.transitions[0].ID)
}

func TestFrame_PublishesOnlyOnPhaseChange(t *testing.T) {
	f := newFixture(t, 21, 30)
	f.runFrame()

	f.clock.Advance(10)
	events := f.runFrame()
	assert.Empty(t, events, "same phase, summary interval not elapsed")

	f.clock.Set(7, 0)
	events = f.runFrame()
	require.Len(t, events, 1)
	assert.Equal(t, "dawn", events[0].transition.Phase)
	assert.Equal(t, "night", events[0].transition.PreviousPhase)

	recent, err := f.agent.RecentTransitions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "dawn", recent[0].Phase)
	assert.Equal(t, "night", recent[1].Phase)

	assert.Len(t, f.mqtt.on(mqtt.TopicContextPhase), 2)
	assert.Len(t, f.history.transitions, 2)
}

func TestFrame_Status(t *testing.T) {
	f := newFixture(t, 12, 0)
	f.runFrame()

	status := f.agent.FrameStatus()
	assert.Equal(t, uint64(1), status.Frames)
	assert.Equal(t, "day", status.Phase)
	assert.Equal(t, "overworld", status.Mode)
	assert.Empty(t, status.Bypass)
	assert.False(t, status.LastFrame.IsZero())
}

func TestControlMessages(t *testing.T) {
	f := newFixture(t, 22, 0)
	send := func(control, payload string) {
		f.agent.handleControlMessage(&mockMessage{topic: mqtt.ControlTopic(control), payload: []byte(payload)})
	}

	send("mode", `{"mode": "combat"}`)
	send("fade", `{"active": true}`)
	send("sprite_tag", `{"slot": 2, "tag": 55039}`)
	send("mode", `{"mode": "menu"}`)
	send("weather", `{}`)
	send("map", `not json`)
	f.runFrame()

	assert.Equal(t, dns.ModeCombat, f.agent.system.Mode())
	assert.True(t, f.agent.sim.FadeActive())
	assert.Equal(t, dns.PaletteTag(0xD6FF), f.agent.sim.SpritePaletteTag(2))

	send("map", `{"map_type": "indoor"}`)
	events := f.runFrame()
	assert.Equal(t, dns.MapTypeIndoor, f.agent.sim.CurrentMapType())
	assert.Empty(t, events)
	assert.Equal(t, string(dns.BypassMapException), f.agent.FrameStatus().Bypass)

	// The forwarded palette is the host's own while the map is excepted.
	assert.Equal(t, *f.agent.sim.Faded(), f.agent.Display().Snapshot())
}

func TestStartStop(t *testing.T) {
	m := &mockMQTT{}
	r := newMockRedis()
	h := &mockHistory{}

	cfg := config.NewConfig()
	cfg.FrameIntervalMs = 1
	a, err := NewAgent(m, r, h, clock.NewVirtual(quietLogger()), cfg, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()

	require.Eventually(t, func() bool { return a.Display().Transfers() > 3 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(m.on(mqtt.TopicContextPhase)) >= 1 }, 2*time.Second, 5*time.Millisecond)

	assert.True(t, m.subscribed(mqtt.TopicControlAll))
	assert.True(t, m.subscribed(mqtt.TopicTestTimeConfig))
	h.mu.Lock()
	assert.True(t, h.schema)
	h.mu.Unlock()

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, a.Stop())
}

func TestStart_ConnectFailure(t *testing.T) {
	m := &mockMQTT{connectErr: errors.New("connection refused")}
	a, err := NewAgent(m, newMockRedis(), nil, clock.NewManual(0, 0), config.NewConfig(), quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, a.Start(ctx))
}

func TestStop_WhileConnecting(t *testing.T) {
	m := &mockMQTT{connectErr: errors.New("connection refused")}
	a, err := NewAgent(m, newMockRedis(), nil, clock.NewManual(0, 0), config.NewConfig(), quietLogger())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Start(context.Background()) }()
	require.Eventually(t, func() bool { return m.connectAttempts() > 0 }, 2*time.Second, time.Millisecond)

	require.NoError(t, a.Stop())
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept retrying after Stop")
	}

	assert.Zero(t, a.Display().Transfers())
	require.NoError(t, a.Stop(), "second Stop is a no-op")
}

func TestStart_AfterStop(t *testing.T) {
	m := &mockMQTT{}
	cfg := config.NewConfig()
	cfg.FrameIntervalMs = 1
	a, err := NewAgent(m, newMockRedis(), nil, clock.NewManual(12, 0), cfg, quietLogger())
	require.NoError(t, err)

	require.NoError(t, a.Stop())

	done := make(chan error, 1)
	go func() { done <- a.Start(context.Background()) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start blocked after Stop")
	}

	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, a.Display().Transfers(), "frame loop never started")
}
