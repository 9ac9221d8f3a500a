package dns

import (
	"encoding/binary"
	"fmt"
)

const (
	// PaletteRows is the number of 16-colour palettes in palette memory:
	// 16 background rows followed by 16 sprite rows.
	PaletteRows = 32
	// ColorsPerRow is the number of colours in one palette row.
	ColorsPerRow = 16
	// BufferSize is the number of colours in a full palette buffer.
	BufferSize = PaletteRows * ColorsPerRow
	// SpriteRowStart is the first sprite palette row.
	SpriteRowStart = 16
)

// Buffer mirrors palette memory: row r, colour i lives at r*16+i.
type Buffer [BufferSize]Color15

// Offset returns the buffer index of a colour cell.
func Offset(row, index int) int {
	return row*ColorsPerRow + index
}

// Row returns a slice over one palette row.
func (b *Buffer) Row(row int) []Color15 {
	start := Offset(row, 0)
	return b[start : start+ColorsPerRow]
}

// At returns the colour at a cell.
func (b *Buffer) At(row, index int) Color15 {
	return b[Offset(row, index)]
}

// Set writes the colour at a cell.
func (b *Buffer) Set(row, index int, c Color15) {
	b[Offset(row, index)] = c
}

// Bytes encodes the buffer as little-endian halfwords, the layout palette
// memory expects.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, 0, BufferSize*2)
	for _, c := range b {
		out = binary.LittleEndian.AppendUint16(out, uint16(c))
	}
	return out
}

// BufferFromBytes decodes the output of Bytes.
func BufferFromBytes(data []byte) (Buffer, error) {
	var b Buffer
	if len(data) != BufferSize*2 {
		return b, fmt.Errorf("palette data is %d bytes, want %d", len(data), BufferSize*2)
	}
	for i := range b {
		b[i] = Color15(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return b, nil
}
