package dns

import (
	"io"
	"log/slog"
)

type fakeHost struct {
	now     ClockTime
	mapType MapType
	fading  bool
	tags    [PaletteRows - SpriteRowStart]PaletteTag
	faded   Buffer
	unfaded Buffer
}

func newFakeHost(hour, minute int) *fakeHost {
	h := &fakeHost{
		now:     ClockTime{Hour: hour, Minute: minute},
		mapType: MapTypeRoute,
	}
	h.faded = gradientPalette()
	h.unfaded = h.faded
	return h
}

func (h *fakeHost) Now() ClockTime                       { return h.now }
func (h *fakeHost) CurrentMapType() MapType              { return h.mapType }
func (h *fakeHost) FadeActive() bool                     { return h.fading }
func (h *fakeHost) SpritePaletteTag(slot int) PaletteTag { return h.tags[slot] }
func (h *fakeHost) Faded() *Buffer                       { return &h.faded }
func (h *fakeHost) Unfaded() *Buffer                     { return &h.unfaded }

type recordingDisplay struct {
	vram      Buffer
	transfers int
}

func (d *recordingDisplay) Transfer(src *Buffer) {
	d.vram = *src
	d.transfers++
}

// gradientPalette gives every cell a distinct, non-zero colour.
func gradientPalette() Buffer {
	var b Buffer
	for row := 0; row < PaletteRows; row++ {
		for i := 0; i < ColorsPerRow; i++ {
			b.Set(row, i, RGB(uint8(i*2+1), uint8(row), uint8(31-i*2)))
		}
	}
	return b
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
