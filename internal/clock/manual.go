package clock

import (
	"sync"

	"github.com/saaga0h/jeeves-dns/internal/dns"
)

// Manual is a clock that only moves when told to.
type Manual struct {
	mu sync.RWMutex
	t  dns.ClockTime
}

func NewManual(hour, minute int) *Manual {
	return &Manual{t: dns.ClockTime{Hour: hour, Minute: minute}}
}

func (m *Manual) Now() dns.ClockTime {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.t
}

// Set jumps to the given time. Out-of-range values are stored as given so
// callers can exercise the system's clock guard.
func (m *Manual) Set(hour, minute int) {
	m.mu.Lock()
	m.t = dns.ClockTime{Hour: hour, Minute: minute}
	m.mu.Unlock()
}

// Advance moves the clock by a number of minutes, wrapping at midnight.
// Negative values move it back.
func (m *Manual) Advance(minutes int) dns.ClockTime {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := (m.t.Hour*60 + m.t.Minute + minutes) % minutesPerDay
	if total < 0 {
		total += minutesPerDay
	}
	m.t = dns.ClockTime{Hour: total / 60, Minute: total % 60}
	return m.t
}

const minutesPerDay = 24 * 60
