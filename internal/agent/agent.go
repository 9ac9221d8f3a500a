// Package agent runs the day/night system as a long-lived service: a frame
// loop drives the simulated host, and phase changes are published over MQTT,
// cached in Redis and optionally recorded in Postgres.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-dns/internal/dns"
	"github.com/saaga0h/jeeves-dns/internal/host"
	"github.com/saaga0h/jeeves-dns/pkg/config"
	"github.com/saaga0h/jeeves-dns/pkg/health"
	"github.com/saaga0h/jeeves-dns/pkg/mqtt"
	"github.com/saaga0h/jeeves-dns/pkg/redis"
)

// mqttConfigurable is implemented by clocks driven over MQTT
type mqttConfigurable interface {
	ConfigureFromMQTT(mqttClient mqtt.Client) error
}

// Agent represents the day/night frame agent
type Agent struct {
	mqtt    mqtt.Client
	redis   redis.Client
	history HistoryStore
	state   *StateStore
	cfg     *config.Config
	logger  *slog.Logger

	instanceID string
	clock      dns.Clock
	sim        *host.Sim
	display    *host.Recorder
	system     *dns.System

	// Touched only by the frame goroutine
	lastPhase   dns.TimeOfDay
	havePhase   bool
	lastSummary time.Time
	frames      uint64

	controls chan control
	events   chan event

	statusMux sync.RWMutex
	status    health.FrameStatus

	// runMux orders Start spawning goroutines against Stop waiting for them
	runMux   sync.Mutex
	stopped  bool
	ticker   *time.Ticker
	stopChan chan struct{}
	wg       sync.WaitGroup
	now      func() time.Time
}

// NewAgent creates a new day/night agent. history may be nil when Postgres
// is disabled.
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, history HistoryStore, clk dns.Clock, cfg *config.Config, logger *slog.Logger) (*Agent, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tables := dns.DefaultTables()
	if cfg.TablesPath != "" {
		loaded, err := dns.LoadTables(cfg.TablesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load DNS tables: %w", err)
		}
		tables = loaded
	}

	filter, err := dns.FilterByName(cfg.FilterStrategy)
	if err != nil {
		return nil, err
	}

	mode, err := dns.ParseMode(cfg.InitialMode)
	if err != nil {
		return nil, err
	}
	mapType, err := dns.ParseMapType(cfg.InitialMapType)
	if err != nil {
		return nil, err
	}

	sim := host.NewSim(clk)
	sim.SetMapType(mapType)

	system, err := dns.NewSystem(tables, sim, dns.WithFilter(filter), dns.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	system.SetMode(mode)

	instanceID := uuid.NewString()

	return &Agent{
		mqtt:       mqttClient,
		redis:      redisClient,
		history:    history,
		state:      NewStateStore(redisClient, instanceID, cfg.StateTTL(), cfg.TransitionHistory, logger),
		cfg:        cfg,
		logger:     logger,
		instanceID: instanceID,
		clock:      clk,
		sim:        sim,
		display:    host.NewRecorder(),
		system:     system,
		controls:   make(chan control, 64),
		events:     make(chan event, 64),
		stopChan:   make(chan struct{}),
		now:        time.Now,
	}, nil
}

// Start connects to the brokers and runs the frame loop until ctx is done
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting DNS agent",
		"service_name", a.cfg.ServiceName,
		"instance_id", a.instanceID,
		"frame_interval_ms", a.cfg.FrameIntervalMs,
		"filter", a.cfg.FilterStrategy,
		"clock", a.cfg.ClockSource,
		"mode", a.system.Mode().String())

	// Stop cancels whatever Start is blocked on
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-a.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := a.connect(ctx); err != nil {
		return err
	}

	if a.history != nil {
		if err := a.history.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	if err := a.mqtt.Subscribe(mqtt.TopicControlAll, 1, a.handleControlMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", mqtt.TopicControlAll, err)
	}
	a.logger.Info("Subscribed to control topics", "topic", mqtt.TopicControlAll)

	if c, ok := a.clock.(mqttConfigurable); ok {
		if err := c.ConfigureFromMQTT(a.mqtt); err != nil {
			return fmt.Errorf("failed to subscribe clock to MQTT: %w", err)
		}
	}

	a.runMux.Lock()
	if a.stopped {
		a.runMux.Unlock()
		a.logger.Info("DNS agent stopped before the frame loop started")
		return nil
	}
	a.startPublisher(ctx)
	a.startFrameLoop()
	a.runMux.Unlock()

	a.logger.Info("DNS agent started and ready")

	<-ctx.Done()
	a.logger.Info("DNS agent stopping")

	return nil
}

// connect retries the MQTT connection and Redis ping with exponential backoff
func (a *Agent) connect(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = time.Minute

	connectMQTT := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return a.mqtt.Connect(attemptCtx)
	}
	notify := func(what string) backoff.Notify {
		return func(err error, wait time.Duration) {
			a.logger.Warn("Connection attempt failed, retrying", "target", what, "error", err, "retry_in", wait)
		}
	}

	if err := backoff.RetryNotify(connectMQTT, backoff.WithContext(bo, ctx), notify("mqtt")); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	bo.Reset()
	pingRedis := func() error { return a.redis.Ping(ctx) }
	if err := backoff.RetryNotify(pingRedis, backoff.WithContext(bo, ctx), notify("redis")); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	return nil
}

// Stop gracefully stops the agent. It may be called while Start is still
// connecting, and calling it more than once is a no-op.
func (a *Agent) Stop() error {
	a.runMux.Lock()
	if a.stopped {
		a.runMux.Unlock()
		return nil
	}
	a.stopped = true
	a.logger.Info("Stopping DNS agent")

	if a.ticker != nil {
		a.ticker.Stop()
	}
	close(a.stopChan)
	a.runMux.Unlock()

	a.wg.Wait()

	a.mqtt.Disconnect()

	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		return err
	}

	a.logger.Info("DNS agent stopped", "frames", a.frames)
	return nil
}

// InstanceID identifies this agent on MQTT, in Redis and in history rows
func (a *Agent) InstanceID() string {
	return a.instanceID
}

// Display returns the simulated palette memory
func (a *Agent) Display() *host.Recorder {
	return a.display
}

// FrameStatus implements health.FrameReporter
func (a *Agent) FrameStatus() health.FrameStatus {
	a.statusMux.RLock()
	defer a.statusMux.RUnlock()
	return a.status
}

// State returns the cached state hash from Redis
func (a *Agent) State(ctx context.Context) (map[string]string, error) {
	return a.state.Load(ctx)
}

// RecentTransitions returns recent phase changes from Redis
func (a *Agent) RecentTransitions(ctx context.Context, n int) ([]Transition, error) {
	return a.state.RecentTransitions(ctx, n)
}
