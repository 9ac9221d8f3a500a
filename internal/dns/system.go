package dns

import (
	"fmt"
	"log/slog"
)

// BypassReason says why a frame was not filtered.
type BypassReason string

const (
	BypassNone         BypassReason = ""
	BypassMode         BypassReason = "mode"
	BypassMapException BypassReason = "map_exception"
	BypassClock        BypassReason = "clock"
	BypassConfig       BypassReason = "config"
)

// FrameResult summarises one ApplyFilters call.
type FrameResult struct {
	Applied      bool
	Bypass       BypassReason
	Mode         Mode
	Time         ClockTime
	Phase        TimeOfDay
	Filter       Color15
	FilteredRows int
	ExemptRows   int
	Lighting     bool
	LitSlots     int
}

// System applies the day/night filter to the host palette once per frame
// and decides which buffer reaches palette memory.
//
// It is not safe for concurrent use: ApplyFilters and TransferPalette are
// meant to be called back to back from the host's frame callback.
type System struct {
	tables *Tables
	host   Host
	filter FilterFunc
	logger *slog.Logger

	mode         Mode
	staging      Buffer
	stagingValid bool
	lastPhase    TimeOfDay
	havePhase    bool
}

// Option configures a System.
type Option func(*System)

// WithFilter swaps the filter strategy. The default is ApplyProportional.
func WithFilter(f FilterFunc) Option {
	return func(s *System) {
		if f != nil {
			s.filter = f
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *System) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSystem validates the tables and binds them to a host. The system
// starts in ModeOther, so nothing is filtered until the host calls SetMode.
func NewSystem(tables *Tables, host Host, opts ...Option) (*System, error) {
	if tables == nil {
		tables = DefaultTables()
	}
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	if host == nil {
		return nil, fmt.Errorf("dns system needs a host")
	}

	s := &System{
		tables: tables,
		host:   host,
		filter: ApplyProportional,
		logger: slog.Default(),
		mode:   ModeOther,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetMode records a mode transition.
func (s *System) SetMode(m Mode) {
	if m != s.mode {
		s.logger.Debug("DNS mode changed", "from", s.mode.String(), "to", m.String())
		s.mode = m
	}
}

func (s *System) Mode() Mode {
	return s.mode
}

func (s *System) Tables() *Tables {
	return s.tables
}

// Staging returns a copy of the last filtered palette.
func (s *System) Staging() Buffer {
	return s.staging
}

// CurrentFilter resolves the phase and filter for a clock time.
func (s *System) CurrentFilter(t ClockTime) (TimeOfDay, Color15, error) {
	if err := t.Validate(); err != nil {
		return 0, 0, err
	}
	phase := s.tables.Boundaries.Resolve(t.Hour)
	filter, err := s.tables.Filters.Select(phase, t)
	if err != nil {
		return phase, 0, err
	}
	return phase, filter, nil
}

// ApplyFilters rebuilds the staging buffer from the host's faded palette.
// Exempt rows are copied as they are, every other row goes through the
// filter, and during the lighting window the overworld lighting slots are
// patched on top.
//
// Nothing is written when the mode is not filtered or the map is an
// exception; TransferPalette then forwards the source buffer.
func (s *System) ApplyFilters() FrameResult {
	result := FrameResult{Mode: s.mode}
	s.stagingValid = false

	if !s.mode.Filtered() {
		result.Bypass = BypassMode
		return result
	}

	mapType := s.host.CurrentMapType()
	if s.tables.Exceptions.IsMapException(mapType) {
		result.Bypass = BypassMapException
		return result
	}

	now := s.host.Now()
	result.Time = now
	phase, filter, err := s.CurrentFilter(now)
	if err != nil {
		reason := BypassConfig
		if now.Validate() != nil {
			reason = BypassClock
		}
		s.logger.Error("DNS filter selection failed, frame left unfiltered",
			"time", now.String(),
			"reason", string(reason),
			"error", err)
		result.Bypass = reason
		return result
	}
	result.Phase = phase
	result.Filter = filter

	if !s.havePhase || phase != s.lastPhase {
		s.logger.Info("DNS phase changed",
			"phase", phase.String(),
			"time", now.String(),
			"filter", filter.String())
		s.lastPhase = phase
		s.havePhase = true
	}

	src := s.host.Faded()
	for row := 0; row < PaletteRows; row++ {
		srcRow := src.Row(row)
		dstRow := s.staging.Row(row)

		if s.tables.Exceptions.IsRowException(row, s.mode, s.host) {
			copy(dstRow, srcRow)
			result.ExemptRows++
			continue
		}

		for i, c := range srcRow {
			dstRow[i] = s.filter(c, filter)
		}
		result.FilteredRows++
	}
	s.stagingValid = true
	result.Applied = true

	if s.mode != ModeCombat && s.tables.Lighting.Active(now.Hour) {
		result.Lighting = true
		result.LitSlots = applyNightlight(&s.staging, s.host.Unfaded(), s.tables.Slots, s.host.FadeActive())
	}

	s.logger.Debug("DNS filters applied",
		"phase", phase.String(),
		"filter", filter.String(),
		"filtered_rows", result.FilteredRows,
		"exempt_rows", result.ExemptRows,
		"lighting", result.Lighting)

	return result
}

// TransferPalette copies the staging buffer into palette memory when the
// game is in a filtered mode on a filtered map, and the host's faded buffer
// otherwise. It reports whether staging was used.
func (s *System) TransferPalette(dst Display) bool {
	if s.mode.Filtered() && !s.tables.Exceptions.IsMapException(s.host.CurrentMapType()) && s.stagingValid {
		dst.Transfer(&s.staging)
		return true
	}
	dst.Transfer(s.host.Faded())
	return false
}
