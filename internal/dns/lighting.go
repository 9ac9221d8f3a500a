package dns

import "fmt"

// LightingSlot is a palette cell that glows during the lighting window,
// typically a window tile.
type LightingSlot struct {
	Row   int     `yaml:"row"`
	Index int     `yaml:"index"`
	Glow  Color15 `yaml:"glow"`
}

func (s LightingSlot) Validate() error {
	if s.Row < 0 || s.Row >= PaletteRows || s.Index < 0 || s.Index >= ColorsPerRow {
		return fmt.Errorf("lighting slot (%d,%d) outside the %dx%d palette", s.Row, s.Index, PaletteRows, ColorsPerRow)
	}
	if !s.Glow.Valid() {
		return fmt.Errorf("lighting slot (%d,%d): glow %#04x is not a 15-bit colour", s.Row, s.Index, uint16(s.Glow))
	}
	return nil
}

// applyNightlight patches the lighting slots in staging and returns how many
// of them glow this frame.
//
// While a fade runs, or while the unfaded buffer still holds a non-zero
// colour at the slot, staging keeps its filtered colour and the glow colour
// is written back into the unfaded buffer. Only once the fade is over and
// the unfaded cell reads zero does the glow go to staging. The write into
// unfaded is what staggers the light switching on behind a fade.
func applyNightlight(staging, unfaded *Buffer, slots []LightingSlot, fading bool) int {
	lit := 0
	for _, slot := range slots {
		off := Offset(slot.Row, slot.Index)

		if fading || unfaded[off] != 0 {
			unfaded[off] = slot.Glow
			continue
		}

		staging[off] = slot.Glow
		lit++
	}
	return lit
}

// DefaultLightingSlots returns the shipped window colours.
func DefaultLightingSlots() []LightingSlot {
	return []LightingSlot{
		{Row: 0, Index: 1, Glow: RGB(30, 30, 5)},
		{Row: 0, Index: 2, Glow: RGB(26, 25, 4)},
		{Row: 0, Index: 3, Glow: RGB(22, 21, 3)},
		{Row: 1, Index: 1, Glow: RGB(30, 30, 5)},
		{Row: 1, Index: 2, Glow: RGB(26, 25, 4)},
		{Row: 6, Index: 1, Glow: RGB(30, 30, 5)},
		{Row: 6, Index: 2, Glow: RGB(26, 25, 4)},
		{Row: 6, Index: 3, Glow: RGB(22, 21, 3)},
	}
}
