package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-dns/internal/dns"
	"github.com/saaga0h/jeeves-dns/internal/metrics"
	"github.com/saaga0h/jeeves-dns/pkg/mqtt"
)

type eventKind int

const (
	eventTransition eventKind = iota
	eventSummary
)

// event is handed from the frame goroutine to the publisher so that broker
// round trips never hold up a frame
type event struct {
	kind       eventKind
	snapshot   Snapshot
	transition Transition
}

// startFrameLoop runs one frame per tick
func (a *Agent) startFrameLoop() {
	a.ticker = time.NewTicker(a.cfg.FrameInterval())

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.logger.Info("Starting frame loop", "interval_ms", a.cfg.FrameIntervalMs)
		for {
			select {
			case <-a.ticker.C:
				a.drainControls()
				for _, ev := range a.frame() {
					a.emit(ev)
				}
			case <-a.stopChan:
				return
			}
		}
	}()
}

// startPublisher handles events until the agent stops
func (a *Agent) startPublisher(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case ev := <-a.events:
				a.handleEvent(ctx, ev)
			case <-a.stopChan:
				return
			}
		}
	}()
}

func (a *Agent) emit(ev event) {
	select {
	case a.events <- ev:
	default:
		a.logger.Warn("Publisher backlog full, dropping event", "kind", int(ev.kind))
	}
}

// frame runs one ApplyFilters/TransferPalette round and returns the events
// it produced
func (a *Agent) frame() []event {
	start := time.Now()
	result := a.system.ApplyFilters()
	a.system.TransferPalette(a.display)
	metrics.ObserveFrame(result, time.Since(start))

	now := a.now()
	a.frames++
	a.setStatus(result, now)

	snap := Snapshot{
		InstanceID: a.instanceID,
		Frames:     a.frames,
		Result:     result,
		MapType:    a.sim.CurrentMapType(),
		Staging:    a.system.Staging(),
		RecordedAt: now,
	}

	var events []event

	if result.Applied && (!a.havePhase || result.Phase != a.lastPhase) {
		t := Transition{
			ID:         uuid.NewString(),
			InstanceID: a.instanceID,
			Phase:      result.Phase.String(),
			Filter:     uint16(result.Filter),
			FilterRGB:  result.Filter.String(),
			GameTime:   result.Time.String(),
			Hour:       result.Time.Hour,
			Minute:     result.Time.Minute,
			Mode:       result.Mode.String(),
			MapType:    snap.MapType.String(),
			RecordedAt: now,
		}
		if a.havePhase {
			t.PreviousPhase = a.lastPhase.String()
		}
		a.lastPhase = result.Phase
		a.havePhase = true

		metrics.ObserveTransition(result.Phase)
		events = append(events, event{kind: eventTransition, snapshot: snap, transition: t})
	}

	interval := time.Duration(a.cfg.FrameSummaryIntervalSec) * time.Second
	if interval > 0 && now.Sub(a.lastSummary) >= interval {
		a.lastSummary = now
		events = append(events, event{kind: eventSummary, snapshot: snap})
	}

	return events
}

func (a *Agent) setStatus(result dns.FrameResult, now time.Time) {
	a.statusMux.Lock()
	defer a.statusMux.Unlock()

	a.status.Frames = a.frames
	a.status.LastFrame = now
	a.status.Mode = result.Mode.String()
	a.status.Bypass = string(result.Bypass)
	if result.Applied {
		a.status.Phase = result.Phase.String()
	}
}

// handleEvent publishes and stores one event. Failures are logged and never
// reach the frame loop.
func (a *Agent) handleEvent(ctx context.Context, ev event) {
	switch ev.kind {
	case eventTransition:
		a.publishTransition(ev.transition)
		if err := a.state.RecordTransition(ctx, ev.transition); err != nil {
			a.logger.Error("Failed to cache transition", "error", err)
		}
		if a.history != nil {
			if err := a.history.Record(ctx, ev.transition); err != nil {
				a.logger.Error("Failed to record transition", "error", err)
			}
		}
		if err := a.state.Save(ctx, ev.snapshot); err != nil {
			a.logger.Error("Failed to save state", "error", err)
		}
	case eventSummary:
		a.publishSummary(ev.snapshot)
		if err := a.state.Save(ctx, ev.snapshot); err != nil {
			a.logger.Error("Failed to save state", "error", err)
		}
	}
}

func (a *Agent) publishTransition(t Transition) {
	payload, err := json.Marshal(t)
	if err != nil {
		a.logger.Error("Failed to marshal transition", "error", err)
		return
	}

	if err := a.mqtt.Publish(mqtt.TopicContextPhase, 1, true, payload); err != nil {
		a.logger.Error("Failed to publish phase", "error", err)
		return
	}

	a.logger.Info("Published phase transition",
		"phase", t.Phase,
		"previous_phase", t.PreviousPhase,
		"game_time", t.GameTime,
		"filter", t.FilterRGB)
}

type frameSummary struct {
	InstanceID   string `json:"instance_id"`
	Frames       uint64 `json:"frames"`
	Applied      bool   `json:"applied"`
	Bypass       string `json:"bypass,omitempty"`
	Mode         string `json:"mode"`
	MapType      string `json:"map_type"`
	Phase        string `json:"phase,omitempty"`
	GameTime     string `json:"game_time,omitempty"`
	Filter       string `json:"filter,omitempty"`
	FilteredRows int    `json:"filtered_rows"`
	ExemptRows   int    `json:"exempt_rows"`
	Lighting     bool   `json:"lighting"`
	LitSlots     int    `json:"lit_slots"`
	Timestamp    string `json:"timestamp"`
}

func (a *Agent) publishSummary(snap Snapshot) {
	r := snap.Result
	summary := frameSummary{
		InstanceID:   snap.InstanceID,
		Frames:       snap.Frames,
		Applied:      r.Applied,
		Bypass:       string(r.Bypass),
		Mode:         r.Mode.String(),
		MapType:      snap.MapType.String(),
		FilteredRows: r.FilteredRows,
		ExemptRows:   r.ExemptRows,
		Lighting:     r.Lighting,
		LitSlots:     r.LitSlots,
		Timestamp:    snap.RecordedAt.UTC().Format(time.RFC3339),
	}
	if r.Applied {
		summary.Phase = r.Phase.String()
		summary.GameTime = r.Time.String()
		summary.Filter = r.Filter.String()
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		a.logger.Error("Failed to marshal frame summary", "error", err)
		return
	}
	if err := a.mqtt.Publish(mqtt.TopicContextFrame, 0, false, payload); err != nil {
		a.logger.Error("Failed to publish frame summary", "error", err)
	}
}
