package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-dns/pkg/mqtt"
	"github.com/saaga0h/jeeves-dns/pkg/redis"
)

type stubMQTT struct {
	mqtt.Client
	connected bool
}

func (s stubMQTT) IsConnected() bool { return s.connected }

type stubRedis struct {
	redis.Client
	err error
}

func (s stubRedis) Ping(ctx context.Context) error { return s.err }

type stubFrames struct{ status FrameStatus }

func (s stubFrames) FrameStatus() FrameStatus { return s.status }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandlerFunc(t *testing.T) {
	h := NewChecker(nil, nil, nil, nil, quietLogger())
	rec := httptest.NewRecorder()
	h.HandlerFunc()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decode(t, rec).Status)
}

func TestDetailedHandlerFunc(t *testing.T) {
	fresh := FrameStatus{Frames: 42, LastFrame: time.Now(), Mode: "overworld", Phase: "night"}

	testCases := []struct {
		name       string
		mqtt       bool
		redisErr   error
		frames     FrameReporter
		wantCode   int
		wantStatus string
	}{
		{"all healthy", true, nil, stubFrames{fresh}, http.StatusOK, "healthy"},
		{"mqtt down", false, nil, stubFrames{fresh}, http.StatusServiceUnavailable, "degraded"},
		{"redis down", true, errors.New("refused"), nil, http.StatusServiceUnavailable, "degraded"},
		{"frame loop stalled", true, nil, stubFrames{FrameStatus{Frames: 3, LastFrame: time.Now().Add(-time.Minute)}}, http.StatusServiceUnavailable, "stalled"},
		{"frame loop never ran", true, nil, stubFrames{}, http.StatusServiceUnavailable, "stalled"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewChecker(stubMQTT{connected: tc.mqtt}, stubRedis{err: tc.redisErr}, nil, tc.frames, quietLogger())
			rec := httptest.NewRecorder()
			h.DetailedHandlerFunc()(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

			assert.Equal(t, tc.wantCode, rec.Code)
			resp := decode(t, rec)
			assert.Equal(t, tc.wantStatus, resp.Status)
			require.NotNil(t, resp.Services)
			assert.Empty(t, resp.Services.Postgres)
			if tc.frames != nil {
				require.NotNil(t, resp.Frame)
				assert.Equal(t, tc.frames.FrameStatus().Frames, resp.Frame.Frames)
			}
		})
	}
}
