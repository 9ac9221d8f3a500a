package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/saaga0h/jeeves-dns/internal/dns"
)

var (
	FramesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dns_frames_applied_total",
			Help: "Frames whose palette went through the day/night filter",
		},
		[]string{"mode"},
	)

	FramesBypassed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dns_frames_bypassed_total",
			Help: "Frames forwarded unfiltered, by reason",
		},
		[]string{"reason"},
	)

	CurrentPhase = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dns_phase",
			Help: "1 for the time-of-day phase of the last filtered frame, 0 otherwise",
		},
		[]string{"phase"},
	)

	LightingFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dns_lighting_frames_total",
			Help: "Filtered frames that ran the nightlight overlay",
		},
	)

	PhaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dns_phase_transitions_total",
			Help: "Phase changes, by the phase entered",
		},
		[]string{"phase"},
	)

	FrameDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dns_frame_duration_seconds",
			Help:    "Time spent filtering and transferring one frame",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
	)
)

// ObserveFrame records one ApplyFilters/TransferPalette round.
func ObserveFrame(result dns.FrameResult, took time.Duration) {
	FrameDuration.Observe(took.Seconds())

	if !result.Applied {
		FramesBypassed.WithLabelValues(string(result.Bypass)).Inc()
		return
	}

	FramesApplied.WithLabelValues(result.Mode.String()).Inc()
	if result.Lighting {
		LightingFrames.Inc()
	}
	for _, phase := range dns.Phases {
		v := 0.0
		if phase == result.Phase {
			v = 1
		}
		CurrentPhase.WithLabelValues(phase.String()).Set(v)
	}
}

// ObserveTransition records a phase change.
func ObserveTransition(phase dns.TimeOfDay) {
	PhaseTransitions.WithLabelValues(phase.String()).Inc()
}
