package agent

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/saaga0h/jeeves-dns/internal/dns"
	"github.com/saaga0h/jeeves-dns/pkg/postgres"
	"github.com/saaga0h/jeeves-dns/pkg/redis"
)

// Snapshot is the agent's view of one frame
type Snapshot struct {
	InstanceID string
	Frames     uint64
	Result     dns.FrameResult
	MapType    dns.MapType
	Staging    dns.Buffer
	RecordedAt time.Time
}

// Transition is one phase change
type Transition struct {
	ID            string    `json:"id"`
	InstanceID    string    `json:"instance_id"`
	Phase         string    `json:"phase"`
	PreviousPhase string    `json:"previous_phase,omitempty"`
	Filter        uint16    `json:"filter"`
	FilterRGB     string    `json:"filter_rgb"`
	GameTime      string    `json:"game_time"`
	Hour          int       `json:"hour"`
	Minute        int       `json:"minute"`
	Mode          string    `json:"mode"`
	MapType       string    `json:"map_type"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// StateStore keeps the latest frame state and recent transitions in Redis
type StateStore struct {
	redis      redis.Client
	instance   string
	ttl        time.Duration
	historyLen int
	logger     *slog.Logger
}

// NewStateStore creates a StateStore for one agent instance
func NewStateStore(redisClient redis.Client, instance string, ttl time.Duration, historyLen int, logger *slog.Logger) *StateStore {
	return &StateStore{
		redis:      redisClient,
		instance:   instance,
		ttl:        ttl,
		historyLen: historyLen,
		logger:     logger,
	}
}

// Save writes the state hash and the staging buffer, both with the store TTL
func (s *StateStore) Save(ctx context.Context, snap Snapshot) error {
	r := snap.Result
	fields := map[string]interface{}{
		"instance_id": snap.InstanceID,
		"frames":      snap.Frames,
		"applied":     strconv.FormatBool(r.Applied),
		"bypass":      string(r.Bypass),
		"mode":        r.Mode.String(),
		"map_type":    snap.MapType.String(),
		"phase":       r.Phase.String(),
		"filter":      uint16(r.Filter),
		"hour":        r.Time.Hour,
		"minute":      r.Time.Minute,
		"lighting":    strconv.FormatBool(r.Lighting),
		"lit_slots":   r.LitSlots,
		"updated_at":  snap.RecordedAt.UTC().Format(time.RFC3339Nano),
	}

	key := redis.StateKey(s.instance)
	if err := s.redis.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	if s.ttl > 0 {
		if err := s.redis.Expire(ctx, key, s.ttl); err != nil {
			return fmt.Errorf("failed to set state TTL: %w", err)
		}
	}

	if r.Applied {
		staging := hex.EncodeToString(snap.Staging.Bytes())
		if err := s.redis.Set(ctx, redis.StagingKey(s.instance), staging, s.ttl); err != nil {
			return fmt.Errorf("failed to save staging buffer: %w", err)
		}
	}

	return nil
}

// Load reads the state hash back
func (s *StateStore) Load(ctx context.Context) (map[string]string, error) {
	return s.redis.HGetAll(ctx, redis.StateKey(s.instance))
}

// LoadStaging reads the staging buffer back
func (s *StateStore) LoadStaging(ctx context.Context) (dns.Buffer, error) {
	raw, err := s.redis.Get(ctx, redis.StagingKey(s.instance))
	if err != nil {
		return dns.Buffer{}, err
	}
	data, err := hex.DecodeString(raw)
	if err != nil {
		return dns.Buffer{}, fmt.Errorf("failed to decode staging buffer: %w", err)
	}
	return dns.BufferFromBytes(data)
}

// RecordTransition pushes a transition onto the capped recent list
func (s *StateStore) RecordTransition(ctx context.Context, t Transition) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transition: %w", err)
	}

	key := redis.TransitionsKey(s.instance)
	if err := s.redis.LPush(ctx, key, string(data)); err != nil {
		return err
	}
	if s.historyLen > 0 {
		if err := s.redis.LTrim(ctx, key, 0, int64(s.historyLen-1)); err != nil {
			return err
		}
	}
	return nil
}

// RecentTransitions returns up to n transitions, newest first
func (s *StateStore) RecentTransitions(ctx context.Context, n int) ([]Transition, error) {
	if n <= 0 {
		return nil, nil
	}

	raw, err := s.redis.LRange(ctx, redis.TransitionsKey(s.instance), 0, int64(n-1))
	if err != nil {
		return nil, err
	}

	transitions := make([]Transition, 0, len(raw))
	for _, item := range raw {
		var t Transition
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			s.logger.Warn("Skipping malformed transition entry", "error", err)
			continue
		}
		transitions = append(transitions, t)
	}
	return transitions, nil
}

// HistoryStore records phase transitions durably
type HistoryStore interface {
	EnsureSchema(ctx context.Context) error
	Record(ctx context.Context, t Transition) error
}

const createTransitionsTable = `
CREATE TABLE IF NOT EXISTS dns_phase_transitions (
	id             UUID PRIMARY KEY,
	instance_id    UUID NOT NULL,
	phase          TEXT NOT NULL,
	previous_phase TEXT,
	filter         INTEGER NOT NULL,
	game_hour      SMALLINT NOT NULL,
	game_minute    SMALLINT NOT NULL,
	mode           TEXT NOT NULL,
	map_type       TEXT NOT NULL,
	recorded_at    TIMESTAMPTZ NOT NULL
)`

const createTransitionsIndex = `
CREATE INDEX IF NOT EXISTS dns_phase_transitions_recorded_at
	ON dns_phase_transitions (instance_id, recorded_at DESC)`

const insertTransition = `
INSERT INTO dns_phase_transitions
	(id, instance_id, phase, previous_phase, filter, game_hour, game_minute, mode, map_type, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// PostgresHistory stores transitions in the dns_phase_transitions table
type PostgresHistory struct {
	db     postgres.Client
	logger *slog.Logger
}

func NewPostgresHistory(db postgres.Client, logger *slog.Logger) *PostgresHistory {
	return &PostgresHistory{db: db, logger: logger}
}

func (h *PostgresHistory) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createTransitionsTable, createTransitionsIndex} {
		if _, err := h.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create transition schema: %w", err)
		}
	}
	return nil
}

func (h *PostgresHistory) Record(ctx context.Context, t Transition) error {
	previous := sql.NullString{String: t.PreviousPhase, Valid: t.PreviousPhase != ""}

	_, err := h.db.Exec(ctx, insertTransition,
		t.ID, t.InstanceID, t.Phase, previous, int(t.Filter),
		t.Hour, t.Minute, t.Mode, t.MapType, t.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}

	h.logger.Debug("Recorded phase transition", "id", t.ID, "phase", t.Phase)
	return nil
}
