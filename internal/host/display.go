package host

import (
	"image"
	"image/png"
	"io"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/saaga0h/jeeves-dns/internal/dns"
)

// Recorder is a Display that keeps a copy of palette memory. It is safe to
// read from other goroutines while the frame loop transfers into it.
type Recorder struct {
	mu        sync.RWMutex
	vram      dns.Buffer
	transfers uint64
}

var _ dns.Display = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Transfer(src *dns.Buffer) {
	r.mu.Lock()
	r.vram = *src
	r.transfers++
	r.mu.Unlock()
}

// Snapshot returns palette memory as of the last transfer.
func (r *Recorder) Snapshot() dns.Buffer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vram
}

func (r *Recorder) Transfers() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.transfers
}

// PaletteImage renders a buffer as a 16x32 image, one pixel per colour, in
// palette memory order.
func PaletteImage(b *dns.Buffer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, dns.ColorsPerRow, dns.PaletteRows))
	for row := 0; row < dns.PaletteRows; row++ {
		for i := 0; i < dns.ColorsPerRow; i++ {
			img.Set(i, row, b.At(row, i))
		}
	}
	return img
}

// ScaledPaletteImage renders a buffer with every colour blown up to a
// scale x scale block.
func ScaledPaletteImage(b *dns.Buffer, scale int) *image.RGBA {
	src := PaletteImage(b)
	if scale <= 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, dns.ColorsPerRow*scale, dns.PaletteRows*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// WritePNG encodes a scaled rendering of the buffer as PNG.
func WritePNG(w io.Writer, b *dns.Buffer, scale int) error {
	return png.Encode(w, ScaledPaletteImage(b, scale))
}
