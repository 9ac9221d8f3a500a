package dns

import (
	"errors"
	"fmt"
	"strings"
)

// TimeOfDay is one of the six phases the day is split into.
type TimeOfDay int

const (
	Midnight TimeOfDay = iota
	Dawn
	Day
	Sunset
	Nightfall
	Night
)

var timeOfDayNames = [...]string{
	Midnight:  "midnight",
	Dawn:      "dawn",
	Day:       "day",
	Sunset:    "sunset",
	Nightfall: "nightfall",
	Night:     "night",
}

// Phases lists every phase in day order.
var Phases = []TimeOfDay{Midnight, Dawn, Day, Sunset, Nightfall, Night}

func (t TimeOfDay) String() string {
	if t < Midnight || t > Night {
		return fmt.Sprintf("TimeOfDay(%d)", int(t))
	}
	return timeOfDayNames[t]
}

// ParseTimeOfDay is the inverse of TimeOfDay.String.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for i, name := range timeOfDayNames {
		if strings.EqualFold(s, name) {
			return TimeOfDay(i), nil
		}
	}
	return 0, fmt.Errorf("unknown time of day %q", s)
}

// ErrClockOutOfRange is returned for an hour outside 0-23 or a minute
// outside 0-59.
var ErrClockOutOfRange = errors.New("clock time out of range")

// ClockTime is the in-game wall clock reading used to pick a filter.
type ClockTime struct {
	Hour   int
	Minute int
}

func (t ClockTime) Validate() error {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("%w: %02d:%02d", ErrClockOutOfRange, t.Hour, t.Minute)
	}
	return nil
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Boundaries holds the exclusive end hour of each phase. Night runs from
// NightfallEnd until midnight.
type Boundaries struct {
	MidnightEnd  int `yaml:"midnight_end"`
	DawnEnd      int `yaml:"dawn_end"`
	DayEnd       int `yaml:"day_end"`
	SunsetEnd    int `yaml:"sunset_end"`
	NightfallEnd int `yaml:"nightfall_end"`
}

// DefaultBoundaries: midnight 00-07, dawn 07-08, day 08-19, sunset 19-20,
// nightfall 20-21, night 21-24.
func DefaultBoundaries() Boundaries {
	return Boundaries{
		MidnightEnd:  7,
		DawnEnd:      8,
		DayEnd:       19,
		SunsetEnd:    20,
		NightfallEnd: 21,
	}
}

// Resolve maps an hour to its phase. The thresholds are tested in
// increasing order and anything left over is Night, so a misordered
// configuration degrades to Night instead of leaving hours unassigned.
func (b Boundaries) Resolve(hour int) TimeOfDay {
	if hour < b.MidnightEnd {
		return Midnight
	} else if hour < b.DawnEnd {
		return Dawn
	} else if hour < b.DayEnd {
		return Day
	} else if hour < b.SunsetEnd {
		return Sunset
	} else if hour < b.NightfallEnd {
		return Nightfall
	}
	return Night
}

// ResolvePhase resolves an hour against the default boundaries.
func ResolvePhase(hour int) TimeOfDay {
	return DefaultBoundaries().Resolve(hour)
}

// PhaseStart returns the first hour of a phase.
func (b Boundaries) PhaseStart(phase TimeOfDay) int {
	switch phase {
	case Dawn:
		return b.MidnightEnd
	case Day:
		return b.DawnEnd
	case Sunset:
		return b.DayEnd
	case Nightfall:
		return b.SunsetEnd
	case Night:
		return b.NightfallEnd
	default:
		return 0
	}
}

// Validate requires strictly increasing end hours in 1..24.
func (b Boundaries) Validate() error {
	ends := []struct {
		name string
		hour int
	}{
		{"midnight_end", b.MidnightEnd},
		{"dawn_end", b.DawnEnd},
		{"day_end", b.DayEnd},
		{"sunset_end", b.SunsetEnd},
		{"nightfall_end", b.NightfallEnd},
	}

	prev := 0
	for _, end := range ends {
		if end.hour <= prev || end.hour > 24 {
			return fmt.Errorf("%s = %d must be greater than %d and at most 24", end.name, end.hour, prev)
		}
		prev = end.hour
	}
	return nil
}

// LightingWindow is the span of hours during which lighting slots glow. It
// wraps across midnight: active when hour >= Start or hour < End.
type LightingWindow struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// DefaultLightingWindow starts at the end of nightfall and stops at the end
// of midnight.
func DefaultLightingWindow() LightingWindow {
	b := DefaultBoundaries()
	return LightingWindow{Start: b.NightfallEnd, End: b.MidnightEnd}
}

func (w LightingWindow) Active(hour int) bool {
	return hour >= w.Start || hour < w.End
}

func (w LightingWindow) Validate() error {
	if w.Start < 0 || w.Start > 24 || w.End < 0 || w.End > 24 {
		return fmt.Errorf("lighting window %d-%d must use hours 0-24", w.Start, w.End)
	}
	return nil
}
