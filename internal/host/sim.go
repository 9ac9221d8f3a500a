// Package host contains a simulated game host for the day/night system.
package host

import (
	"fmt"

	"github.com/saaga0h/jeeves-dns/internal/dns"
)

// Sim stands in for the game: it owns the palette buffers, the current map
// type, the fade flag and the sprite palette tags, and takes its time from a
// clock.
//
// Sim is not safe for concurrent use. Callers serialise access with the
// frame loop.
type Sim struct {
	clock   dns.Clock
	mapType dns.MapType
	fading  bool
	tags    [dns.PaletteRows - dns.SpriteRowStart]dns.PaletteTag
	faded   dns.Buffer
	unfaded dns.Buffer
}

var _ dns.Host = (*Sim)(nil)

// NewSim creates a host on a route map showing TestPalette.
func NewSim(clock dns.Clock) *Sim {
	s := &Sim{
		clock:   clock,
		mapType: dns.MapTypeRoute,
	}
	s.LoadPalette(TestPalette())
	return s
}

func (s *Sim) Now() dns.ClockTime           { return s.clock.Now() }
func (s *Sim) CurrentMapType() dns.MapType  { return s.mapType }
func (s *Sim) FadeActive() bool             { return s.fading }
func (s *Sim) Faded() *dns.Buffer           { return &s.faded }
func (s *Sim) Unfaded() *dns.Buffer         { return &s.unfaded }
func (s *Sim) SetMapType(m dns.MapType)     { s.mapType = m }
func (s *Sim) SpriteTags() []dns.PaletteTag { return append([]dns.PaletteTag(nil), s.tags[:]...) }

func (s *Sim) SpritePaletteTag(slot int) dns.PaletteTag {
	if slot < 0 || slot >= len(s.tags) {
		return 0
	}
	return s.tags[slot]
}

// SetSpriteTag records the tag of the palette loaded into a sprite slot.
func (s *Sim) SetSpriteTag(slot int, tag dns.PaletteTag) error {
	if slot < 0 || slot >= len(s.tags) {
		return fmt.Errorf("sprite slot %d outside 0-%d", slot, len(s.tags)-1)
	}
	s.tags[slot] = tag
	return nil
}

// SetFading starts or ends a screen fade. Ending a fade settles the faded
// buffer back onto the unfaded one, as the game does once the fade is done.
func (s *Sim) SetFading(active bool) {
	if s.fading && !active {
		s.faded = s.unfaded
	}
	s.fading = active
}

// LoadPalette replaces both buffers, as a map load does.
func (s *Sim) LoadPalette(b dns.Buffer) {
	s.faded = b
	s.unfaded = b
}

var testHues = [...]dns.Color15{
	dns.RGB(31, 8, 8),
	dns.RGB(31, 20, 4),
	dns.RGB(28, 28, 6),
	dns.RGB(8, 26, 8),
	dns.RGB(6, 24, 28),
	dns.RGB(8, 12, 31),
	dns.RGB(22, 10, 28),
	dns.RGB(24, 24, 24),
}

// TestPalette returns a deterministic palette: each row is a ramp from
// black up to one of eight hues, so filtering is easy to see.
func TestPalette() dns.Buffer {
	var b dns.Buffer
	for row := 0; row < dns.PaletteRows; row++ {
		hue := testHues[row%len(testHues)]
		for i := 0; i < dns.ColorsPerRow; i++ {
			b.Set(row, i, dns.RGB(
				ramp(hue.R(), i),
				ramp(hue.G(), i),
				ramp(hue.B(), i),
			))
		}
	}
	return b
}

func ramp(channel uint8, step int) uint8 {
	return uint8(int(channel) * step / (dns.ColorsPerRow - 1))
}
