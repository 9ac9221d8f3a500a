package dns

// Clock supplies the current in-game time.
type Clock interface {
	Now() ClockTime
}

// MapSource reports the category of the map currently on screen.
type MapSource interface {
	CurrentMapType() MapType
}

// FadeSource reports whether a screen fade is running.
type FadeSource interface {
	FadeActive() bool
}

// SpriteTagLookup returns the tag of the sprite palette loaded into a sprite
// slot (0-15, i.e. palette row minus SpriteRowStart).
type SpriteTagLookup interface {
	SpritePaletteTag(slot int) PaletteTag
}

// PaletteSource exposes the host's colour buffers. Faded is the post-fade
// buffer that gets filtered each frame. Unfaded is the pre-fade buffer; the
// nightlight overlay reads and writes it.
type PaletteSource interface {
	Faded() *Buffer
	Unfaded() *Buffer
}

// Display is the raw block copy into palette memory.
type Display interface {
	Transfer(src *Buffer)
}

// Host bundles everything the system reads from the game each frame.
type Host interface {
	Clock
	MapSource
	FadeSource
	SpriteTagLookup
	PaletteSource
}
