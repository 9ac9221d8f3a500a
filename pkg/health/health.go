package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/jeeves-dns/pkg/mqtt"
	"github.com/saaga0h/jeeves-dns/pkg/postgres"
	"github.com/saaga0h/jeeves-dns/pkg/redis"
)

// FrameStatus is what the frame loop reports about itself
type FrameStatus struct {
	Frames    uint64    `json:"frames"`
	LastFrame time.Time `json:"last_frame"`
	Mode      string    `json:"mode"`
	Phase     string    `json:"phase,omitempty"`
	Bypass    string    `json:"bypass,omitempty"`
}

// FrameReporter is implemented by the agent
type FrameReporter interface {
	FrameStatus() FrameStatus
}

// Checker provides health check functionality for agents
type Checker struct {
	mqtt       mqtt.Client
	redis      redis.Client
	postgres   postgres.Client
	frames     FrameReporter
	staleAfter time.Duration
	logger     *slog.Logger
}

// NewChecker creates a new health checker with the given dependencies.
// postgresClient and frames may be nil.
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, postgresClient postgres.Client, frames FrameReporter, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		mqtt:       mqttClient,
		redis:      redisClient,
		postgres:   postgresClient,
		frames:     frames,
		staleAfter: 2 * time.Second,
		logger:     logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Services  *Services    `json:"services,omitempty"`
	Frame     *FrameStatus `json:"frame,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Redis    string `json:"redis"`
	MQTT     string `json:"mqtt"`
	Postgres string `json:"postgres,omitempty"`
}

// HandlerFunc returns an HTTP handler function for health checks.
// Returns 200 if process is alive without checking dependencies
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}
		h.write(w, http.StatusOK, response)
	}
}

// DetailedHandlerFunc returns a handler that checks all dependencies and
// whether the frame loop is still ticking
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()

		services := &Services{
			Redis: "disconnected",
			MQTT:  "disconnected",
		}

		if h.mqtt != nil && h.mqtt.IsConnected() {
			services.MQTT = "connected"
		}
		if h.redis != nil && h.redis.Ping(ctx) == nil {
			services.Redis = "connected"
		}
		if h.postgres != nil {
			services.Postgres = "disconnected"
			if status, err := h.postgres.HealthCheck(ctx); err == nil && status.Connected {
				services.Postgres = "connected"
			}
		}

		status := "healthy"
		statusCode := http.StatusOK

		if services.Redis == "disconnected" || services.MQTT == "disconnected" || services.Postgres == "disconnected" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		}

		if h.frames != nil {
			frame := h.frames.FrameStatus()
			response.Frame = &frame
			if frame.LastFrame.IsZero() || time.Since(frame.LastFrame) > h.staleAfter {
				response.Status = "stalled"
				statusCode = http.StatusServiceUnavailable
			}
		}

		h.write(w, statusCode, response)
	}
}

func (h *Checker) write(w http.ResponseWriter, statusCode int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
