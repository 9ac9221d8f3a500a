package dns

import (
	"errors"
	"fmt"
)

const (
	// MidnightFilterCount covers 00:00-01:00 in 8-minute steps.
	MidnightFilterCount = 8
	// TransitionFilterCount covers one hour in 2-minute steps.
	TransitionFilterCount = 30
)

// ErrFilterIndex means a phase's index formula ran past its sequence.
var ErrFilterIndex = errors.New("filter index out of range")

// FilterTable holds the filter for every phase. Sequence lengths match the
// largest index their formula can produce for minutes 0-59.
type FilterTable struct {
	Midnight  [MidnightFilterCount]Color15
	Dawn      [TransitionFilterCount]Color15
	Day       Color15
	Sunset    [TransitionFilterCount]Color15
	Nightfall [TransitionFilterCount]Color15
	Night     Color15
}

// Select picks the filter for a phase at the given clock time.
//
// Midnight steps through its sequence every 8 minutes during hour 0 and
// holds the last entry afterwards. Dawn, Sunset and Nightfall step every 2
// minutes. Day and Night are constant.
func (ft *FilterTable) Select(phase TimeOfDay, t ClockTime) (Color15, error) {
	switch phase {
	case Midnight:
		if t.Hour < 1 {
			return pick(ft.Midnight[:], t.Minute>>3, phase)
		}
		return ft.Midnight[MidnightFilterCount-1], nil
	case Dawn:
		return pick(ft.Dawn[:], t.Minute>>1, phase)
	case Day:
		return ft.Day, nil
	case Sunset:
		return pick(ft.Sunset[:], t.Minute>>1, phase)
	case Nightfall:
		return pick(ft.Nightfall[:], t.Minute>>1, phase)
	case Night:
		return ft.Night, nil
	}
	return 0, fmt.Errorf("no filter for %s", phase)
}

func pick(seq []Color15, index int, phase TimeOfDay) (Color15, error) {
	if index < 0 || index >= len(seq) {
		return 0, fmt.Errorf("%w: %s index %d, sequence length %d", ErrFilterIndex, phase, index, len(seq))
	}
	return seq[index], nil
}

// Validate checks that every filter is a well-formed 15-bit colour.
func (ft *FilterTable) Validate() error {
	sequences := []struct {
		phase TimeOfDay
		seq   []Color15
	}{
		{Midnight, ft.Midnight[:]},
		{Dawn, ft.Dawn[:]},
		{Day, []Color15{ft.Day}},
		{Sunset, ft.Sunset[:]},
		{Nightfall, ft.Nightfall[:]},
		{Night, []Color15{ft.Night}},
	}
	for _, s := range sequences {
		for i, f := range s.seq {
			if !f.Valid() {
				return fmt.Errorf("%s filter %d: %#04x is not a 15-bit colour", s.phase, i, uint16(f))
			}
		}
	}
	return nil
}

// DefaultFilterTable returns the shipped filters.
func DefaultFilterTable() FilterTable {
	return FilterTable{
		Midnight: [MidnightFilterCount]Color15{
			RGB(14, 14, 6),
			RGB(14, 14, 7),
			RGB(14, 14, 8),
			RGB(15, 15, 8),
			RGB(15, 15, 9),
			RGB(15, 15, 9),
			RGB(16, 16, 9),
			RGB(16, 16, 10),
		},
		Dawn: [TransitionFilterCount]Color15{
			RGB(15, 15, 10),
			RGB(15, 15, 10),
			RGB(14, 14, 10),
			RGB(13, 13, 10),
			RGB(12, 12, 10),
			RGB(11, 11, 10),
			RGB(10, 10, 10),
			RGB(9, 9, 10),
			RGB(8, 8, 10),
			RGB(8, 8, 11),
			RGB(7, 7, 11),
			RGB(6, 6, 11),
			RGB(5, 5, 11),
			RGB(4, 4, 11),
			RGB(3, 3, 11),
			RGB(2, 2, 11),
			RGB(1, 1, 11),
			RGB(0, 0, 11),
			RGB(0, 0, 10),
			RGB(0, 0, 9),
			RGB(0, 0, 8),
			RGB(0, 0, 7),
			RGB(0, 0, 6),
			RGB(0, 0, 5),
			RGB(0, 0, 4),
			RGB(0, 0, 3),
			RGB(0, 0, 2),
			RGB(0, 0, 1),
			RGB(0, 0, 0),
			RGB(0, 0, 0),
		},
		Day: RGB(0, 0, 0),
		Sunset: [TransitionFilterCount]Color15{
			RGB(0, 0, 1),
			RGB(0, 1, 1),
			RGB(0, 1, 2),
			RGB(0, 1, 3),
			RGB(0, 2, 3),
			RGB(0, 2, 4),
			RGB(0, 2, 5),
			RGB(0, 3, 5),
			RGB(0, 3, 6),
			RGB(0, 3, 7),
			RGB(0, 4, 7),
			RGB(0, 4, 8),
			RGB(0, 4, 9),
			RGB(0, 5, 9),
			RGB(0, 5, 10),
			RGB(0, 5, 11),
			RGB(0, 6, 11),
			RGB(0, 6, 12),
			RGB(0, 6, 13),
			RGB(0, 7, 13),
			RGB(0, 7, 14),
			RGB(0, 7, 14),
			RGB(0, 8, 14),
			RGB(0, 9, 14),
			RGB(0, 10, 14),
			RGB(0, 11, 14),
			RGB(0, 12, 14),
			RGB(0, 13, 14),
			RGB(0, 14, 14),
			RGB(0, 14, 14),
		},
		Nightfall: [TransitionFilterCount]Color15{
			RGB(0, 14, 14),
			RGB(0, 14, 14),
			RGB(0, 14, 13),
			RGB(0, 14, 12),
			RGB(0, 14, 11),
			RGB(0, 14, 10),
			RGB(1, 14, 10),
			RGB(1, 14, 9),
			RGB(0, 14, 8),
			RGB(1, 14, 7),
			RGB(1, 14, 6),
			RGB(2, 14, 6),
			RGB(2, 14, 5),
			RGB(2, 14, 4),
			RGB(2, 14, 3),
			RGB(2, 14, 2),
			RGB(2, 14, 2),
			RGB(3, 14, 3),
			RGB(4, 14, 4),
			RGB(5, 14, 5),
			RGB(6, 14, 6),
			RGB(7, 14, 6),
			RGB(8, 14, 6),
			RGB(9, 14, 6),
			RGB(10, 14, 6),
			RGB(11, 14, 6),
			RGB(12, 14, 6),
			RGB(13, 14, 6),
			RGB(14, 14, 6),
			RGB(14, 14, 6),
		},
		Night: RGB(14, 14, 6),
	}
}
