package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/saaga0h/jeeves-dns/internal/clock"
	"github.com/saaga0h/jeeves-dns/internal/dns"
	"github.com/saaga0h/jeeves-dns/internal/host"
)

var (
	modeCycle    = []dns.Mode{dns.ModeOverworld, dns.ModeCombat, dns.ModeOther}
	mapTypeCycle = []dns.MapType{
		dns.MapTypeRoute,
		dns.MapTypeTown,
		dns.MapTypeCity,
		dns.MapTypeOceanRoute,
		dns.MapTypeUnderwater,
		dns.MapTypeIndoor,
		dns.MapTypeUnderground,
		dns.MapTypeSecretBase,
		dns.MapTypeNone,
	}
)

// Preview renders the source palette next to what reaches palette memory.
type Preview struct {
	screen  tcell.Screen
	tables  *dns.Tables
	clock   *clock.Manual
	sim     *host.Sim
	display *host.Recorder
	system  *dns.System

	strategy string
	auto     bool
	last     dns.FrameResult
}

func NewPreview(screen tcell.Screen, tables *dns.Tables, clk *clock.Manual, strategy string, mode dns.Mode, mapType dns.MapType) (*Preview, error) {
	p := &Preview{
		screen:   screen,
		tables:   tables,
		clock:    clk,
		sim:      host.NewSim(clk),
		display:  host.NewRecorder(),
		strategy: strategy,
	}
	p.sim.SetMapType(mapType)
	if err := p.rebuild(mode); err != nil {
		return nil, err
	}
	return p, nil
}

// rebuild recreates the system, e.g. after a strategy change
func (p *Preview) rebuild(mode dns.Mode) error {
	filter, err := dns.FilterByName(p.strategy)
	if err != nil {
		return err
	}
	system, err := dns.NewSystem(p.tables, p.sim, dns.WithFilter(filter), dns.WithLogger(discardLogger()))
	if err != nil {
		return err
	}
	system.SetMode(mode)
	p.system = system
	return nil
}

// Step runs one frame.
func (p *Preview) Step() {
	if p.auto {
		p.clock.Advance(1)
	}
	p.last = p.system.ApplyFilters()
	p.system.TransferPalette(p.display)
}

// HandleKey applies a key press and reports whether the preview keeps
// running.
func (p *Preview) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRight:
		p.clock.Advance(2)
	case tcell.KeyLeft:
		p.clock.Advance(-2)
	case tcell.KeyUp:
		p.clock.Advance(60)
	case tcell.KeyDown:
		p.clock.Advance(-60)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'h':
			p.clock.Advance(60)
		case 'H':
			p.clock.Advance(-60)
		case 'm':
			p.clock.Advance(2)
		case 'M':
			p.clock.Advance(-2)
		case 'o':
			p.system.SetMode(next(modeCycle, p.system.Mode()))
		case 'p':
			p.sim.SetMapType(next(mapTypeCycle, p.sim.CurrentMapType()))
		case 'f':
			p.sim.SetFading(!p.sim.FadeActive())
		case 'a':
			p.auto = !p.auto
		case 's':
			if p.strategy == dns.StrategySubtractive {
				p.strategy = dns.StrategyProportional
			} else {
				p.strategy = dns.StrategySubtractive
			}
			if err := p.rebuild(p.system.Mode()); err != nil {
				return false
			}
		}
	}
	return true
}

func next[T comparable](cycle []T, current T) T {
	for i, v := range cycle {
		if v == current {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}

const swatchWidth = 2

// Draw paints both palettes and the status lines.
func (p *Preview) Draw() {
	p.screen.Clear()

	source := *p.sim.Faded()
	vram := p.display.Snapshot()

	header := tcell.StyleDefault.Bold(true)
	drawText(p.screen, 0, 0, header, "source")
	right := dns.ColorsPerRow*swatchWidth + 3
	drawText(p.screen, right, 0, header, "palette memory")

	for row := 0; row < dns.PaletteRows; row++ {
		for i := 0; i < dns.ColorsPerRow; i++ {
			drawSwatch(p.screen, i*swatchWidth, row+1, source.At(row, i))
			drawSwatch(p.screen, right+i*swatchWidth, row+1, vram.At(row, i))
		}
	}

	y := dns.PaletteRows + 2
	for _, line := range p.StatusLines() {
		drawText(p.screen, 0, y, tcell.StyleDefault, line)
		y++
	}

	p.screen.Show()
}

// StatusLines describes the current frame.
func (p *Preview) StatusLines() []string {
	r := p.last
	now := p.clock.Now()

	frame := fmt.Sprintf("bypassed (%s)", r.Bypass)
	if r.Applied {
		frame = fmt.Sprintf("phase %s  filter %s  rows %d filtered / %d exempt", r.Phase, r.Filter, r.FilteredRows, r.ExemptRows)
		if r.Lighting {
			frame += fmt.Sprintf("  lights %d/%d", r.LitSlots, len(p.tables.Slots))
		}
	}

	return []string{
		fmt.Sprintf("%s  mode %s  map %s  fade %t  strategy %s  auto %t",
			now, p.system.Mode(), p.sim.CurrentMapType(), p.sim.FadeActive(), p.strategy, p.auto),
		frame,
		"h/H hour  m/M minute  o mode  p map  f fade  s strategy  a auto  q quit",
	}
}

func drawSwatch(s tcell.Screen, x, y int, c dns.Color15) {
	r, g, b, _ := c.RGBA()
	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8)))
	for dx := 0; dx < swatchWidth; dx++ {
		s.SetContent(x+dx, y, '█', nil, style)
	}
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}
