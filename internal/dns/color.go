package dns

import (
	"fmt"
	"image/color"

	"gopkg.in/yaml.v3"
)

// Color15 is a packed 15-bit colour as stored in palette memory:
// red in bits 0-4, green in bits 5-9, blue in bits 10-14.
//
// Filters share the representation: their channels are how much to take away
// from a palette colour rather than a displayable colour.
type Color15 uint16

// ChannelMax is the largest value a 5-bit channel can hold.
const ChannelMax = 31

const colorMask = 0x7FFF

// RGB packs three 5-bit channels. Bits above the fifth are dropped.
func RGB(r, g, b uint8) Color15 {
	return Color15(uint16(r&ChannelMax) | uint16(g&ChannelMax)<<5 | uint16(b&ChannelMax)<<10)
}

func (c Color15) R() uint8 { return uint8(c & ChannelMax) }
func (c Color15) G() uint8 { return uint8(c >> 5 & ChannelMax) }
func (c Color15) B() uint8 { return uint8(c >> 10 & ChannelMax) }

// Valid reports whether the unused top bit is clear.
func (c Color15) Valid() bool {
	return c&^colorMask == 0
}

// RGBA implements color.Color, expanding each channel to 16 bits.
func (c Color15) RGBA() (r, g, b, a uint32) {
	r = (uint32(c.R())*0xFFFF + 15) / 31
	g = (uint32(c.G())*0xFFFF + 15) / 31
	b = (uint32(c.B())*0xFFFF + 15) / 31
	a = 0xFFFF
	return
}

func (c Color15) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R(), c.G(), c.B())
}

// Color15Model converts any colour to the nearest 15-bit colour.
var Color15Model = color.ModelFunc(func(c color.Color) color.Color {
	if c15, ok := c.(Color15); ok {
		return c15
	}
	r, g, b, _ := c.RGBA()
	return RGB(uint8(r>>11), uint8(g>>11), uint8(b>>11))
})

// UnmarshalYAML accepts a colour written as a [r, g, b] sequence.
func (c *Color15) UnmarshalYAML(value *yaml.Node) error {
	var channels []int
	if err := value.Decode(&channels); err != nil {
		return fmt.Errorf("line %d: colour must be a [r, g, b] sequence: %w", value.Line, err)
	}
	if len(channels) != 3 {
		return fmt.Errorf("line %d: colour needs 3 channels, got %d", value.Line, len(channels))
	}
	for _, ch := range channels {
		if ch < 0 || ch > ChannelMax {
			return fmt.Errorf("line %d: channel value %d outside 0-%d", value.Line, ch, ChannelMax)
		}
	}
	*c = RGB(uint8(channels[0]), uint8(channels[1]), uint8(channels[2]))
	return nil
}

// MarshalYAML writes the colour as a flow-style [r, g, b] sequence.
func (c Color15) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, ch := range []uint8{c.R(), c.G(), c.B()} {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!int",
			Value: fmt.Sprintf("%d", ch),
		})
	}
	return node, nil
}
