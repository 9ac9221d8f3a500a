package clock

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/saaga0h/jeeves-dns/internal/dns"
	"github.com/saaga0h/jeeves-dns/pkg/mqtt"
)

// Virtual runs on wall time until test mode is switched on over MQTT, then
// runs from a virtual start time at a speed multiplier.
type Virtual struct {
	mu           sync.RWMutex
	testMode     bool
	virtualStart time.Time
	realStart    time.Time
	timeScale    int
	now          func() time.Time
	logger       *slog.Logger
}

// NewVirtual creates a virtual clock in real-time mode
func NewVirtual(logger *slog.Logger) *Virtual {
	if logger == nil {
		logger = slog.Default()
	}
	return &Virtual{
		realStart: time.Now(),
		timeScale: 1,
		now:       time.Now,
		logger:    logger,
	}
}

// ConfigureFromMQTT subscribes to test mode configuration
func (v *Virtual) ConfigureFromMQTT(mqttClient mqtt.Client) error {
	handler := func(msg mqtt.Message) {
		v.HandleTimeConfig(msg.Payload())
	}

	return mqttClient.Subscribe(mqtt.TopicTestTimeConfig, 1, handler)
}

// HandleTimeConfig applies a JSON time configuration:
//
//	{"test_mode": true, "virtual_start": "2025-01-01T20:55:00Z", "time_scale": 60}
func (v *Virtual) HandleTimeConfig(payload []byte) {
	var config struct {
		VirtualStart string `json:"virtual_start"`
		TimeScale    int    `json:"time_scale"`
		TestMode     bool   `json:"test_mode"`
	}

	if err := json.Unmarshal(payload, &config); err != nil {
		v.logger.Error("Failed to parse time config", "error", err)
		return
	}

	if !config.TestMode {
		v.logger.Info("Virtual time disabled")
		v.mu.Lock()
		v.testMode = false
		v.mu.Unlock()
		return
	}

	virtualStart, err := time.Parse(time.RFC3339, config.VirtualStart)
	if err != nil {
		v.logger.Error("Invalid virtual_start time", "error", err)
		return
	}
	if config.TimeScale < 1 {
		config.TimeScale = 1
	}

	v.mu.Lock()
	v.testMode = true
	v.virtualStart = virtualStart
	v.realStart = v.now()
	v.timeScale = config.TimeScale
	v.mu.Unlock()

	v.logger.Info("Virtual time configured",
		"virtual_start", config.VirtualStart,
		"time_scale", config.TimeScale)
}

// Time returns the current time (real or virtual)
func (v *Virtual) Time() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()

	now := v.now()
	if !v.testMode {
		return now
	}

	realElapsed := now.Sub(v.realStart)
	return v.virtualStart.Add(realElapsed * time.Duration(v.timeScale))
}

func (v *Virtual) Now() dns.ClockTime {
	return FromTime(v.Time())
}

// IsTestMode returns whether virtual time is active
func (v *Virtual) IsTestMode() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.testMode
}
