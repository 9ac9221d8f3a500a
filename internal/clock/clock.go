// Package clock provides the time sources that drive the day/night system.
package clock

import (
	"time"

	"github.com/saaga0h/jeeves-dns/internal/dns"
)

// FromTime converts a wall-clock time to the hour and minute the system
// reads.
func FromTime(t time.Time) dns.ClockTime {
	return dns.ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

// RTC reads the real-time clock, shifted by a fixed offset. A game whose
// clock was set to 06:00 when the real time was 18:00 runs with a -12h
// offset.
type RTC struct {
	offset time.Duration
	now    func() time.Time
}

func NewRTC(offset time.Duration) *RTC {
	return &RTC{offset: offset, now: time.Now}
}

func (c *RTC) Now() dns.ClockTime {
	return FromTime(c.Time())
}

// Time returns the shifted wall time.
func (c *RTC) Time() time.Time {
	return c.now().Add(c.offset)
}
