package dns

import "fmt"

// FilterFunc combines a palette colour with a filter. Both built-in
// strategies saturate every channel to 0 instead of wrapping.
type FilterFunc func(colour, filter Color15) Color15

// Strategy names accepted by FilterByName.
const (
	StrategyProportional = "proportional"
	StrategySubtractive  = "subtractive"
)

// ApplySubtractive removes the filter channel from the colour channel as a
// flat offset.
func ApplySubtractive(colour, filter Color15) Color15 {
	red := uint16(colour.R()) - uint16(filter.R())
	green := uint16(colour.G()) - uint16(filter.G())
	blue := uint16(colour.B()) - uint16(filter.B())

	return RGB(saturate(uint32(red)), saturate(uint32(green)), saturate(uint32(blue)))
}

// ApplyProportional scales each channel by (31 - filter) / 32, so the filter
// expresses how much of the channel's brightness to remove. The zero filter
// leaves the colour untouched; the scale alone would still take a step off
// bright channels.
func ApplyProportional(colour, filter Color15) Color15 {
	if filter == 0 {
		return colour
	}

	red := uint32(colour.R()) * (ChannelMax - uint32(filter.R())) >> 5
	green := uint32(colour.G()) * (ChannelMax - uint32(filter.G())) >> 5
	blue := uint32(colour.B()) * (ChannelMax - uint32(filter.B())) >> 5

	return RGB(saturate(red), saturate(green), saturate(blue))
}

// saturate maps anything that escaped the channel range (an unsigned
// underflow in practice) to 0.
func saturate(v uint32) uint8 {
	if v <= ChannelMax {
		return uint8(v)
	}
	return 0
}

// FilterByName resolves a configured strategy name.
func FilterByName(name string) (FilterFunc, error) {
	switch name {
	case StrategyProportional, "":
		return ApplyProportional, nil
	case StrategySubtractive:
		return ApplySubtractive, nil
	default:
		return nil, fmt.Errorf("unknown filter strategy %q (must be %s or %s)",
			name, StrategyProportional, StrategySubtractive)
	}
}
