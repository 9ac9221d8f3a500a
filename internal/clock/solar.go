package clock

import (
	"log/slog"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/saaga0h/jeeves-dns/internal/dns"
)

// Solar stretches the real day at a location onto the game day: real
// sunrise lands on the first hour of Dawn and real sunset on the first hour
// of Sunset. Daylight and darkness are each mapped linearly, so short
// winter days give a short game day.
type Solar struct {
	lat, lon   float64
	boundaries dns.Boundaries
	now        func() time.Time
	logger     *slog.Logger
}

func NewSolar(lat, lon float64, boundaries dns.Boundaries, logger *slog.Logger) *Solar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Solar{
		lat:        lat,
		lon:        lon,
		boundaries: boundaries,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *Solar) Now() dns.ClockTime {
	return s.At(s.now())
}

// At maps a real instant to game time. Where the sun does not rise or set
// (polar day and night) it falls back to the wall clock.
func (s *Solar) At(t time.Time) dns.ClockTime {
	sunrise, sunset, ok := s.sunTimes(t)
	if !ok {
		s.logger.Debug("No sunrise/sunset at location, using wall clock", "lat", s.lat, "lon", s.lon)
		return FromTime(t)
	}

	dawn := s.boundaries.PhaseStart(dns.Dawn) * 60
	dusk := s.boundaries.PhaseStart(dns.Sunset) * 60

	var from, to time.Time
	var gameFrom, gameSpan int
	switch {
	case t.Before(sunrise):
		prevSunset := sunset.Add(-24 * time.Hour)
		if _, ps, ok := s.sunTimes(t.Add(-24 * time.Hour)); ok {
			prevSunset = ps
		}
		from, to = prevSunset, sunrise
		gameFrom, gameSpan = dusk, minutesPerDay-(dusk-dawn)
	case t.Before(sunset):
		from, to = sunrise, sunset
		gameFrom, gameSpan = dawn, dusk-dawn
	default:
		nextSunrise := sunrise.Add(24 * time.Hour)
		if nr, _, ok := s.sunTimes(t.Add(24 * time.Hour)); ok {
			nextSunrise = nr
		}
		from, to = sunset, nextSunrise
		gameFrom, gameSpan = dusk, minutesPerDay-(dusk-dawn)
	}

	frac := float64(t.Sub(from)) / float64(to.Sub(from))
	if frac < 0 {
		frac = 0
	}
	if frac >= 1 {
		frac = 0.9999
	}

	minutes := (gameFrom + int(frac*float64(gameSpan))) % minutesPerDay
	return dns.ClockTime{Hour: minutes / 60, Minute: minutes % 60}
}

func (s *Solar) sunTimes(t time.Time) (sunrise, sunset time.Time, ok bool) {
	times := suncalc.GetTimes(t, s.lat, s.lon)
	sunrise = times[suncalc.Sunrise].Value
	sunset = times[suncalc.Sunset].Value
	if sunrise.IsZero() || sunset.IsZero() || !sunset.After(sunrise) || sunset.Sub(sunrise) >= 24*time.Hour {
		return sunrise, sunset, false
	}
	return sunrise, sunset, true
}
