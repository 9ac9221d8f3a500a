package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/pflag"

	"github.com/saaga0h/jeeves-dns/internal/clock"
	"github.com/saaga0h/jeeves-dns/internal/dns"
	"github.com/saaga0h/jeeves-dns/internal/host"
)

func main() {
	var (
		start      = pflag.String("time", "21:30", "Start time (HH:MM)")
		modeName   = pflag.String("mode", "overworld", "Game mode (other, overworld, combat)")
		mapName    = pflag.String("map-type", "route", "Map type")
		strategy   = pflag.String("filter", dns.StrategyProportional, "Filter strategy (proportional, subtractive)")
		tablesPath = pflag.String("tables", "", "YAML file overriding the built-in DNS tables")
		pngPath    = pflag.String("png", "", "Render one frame to this PNG file and exit")
		scale      = pflag.Int("scale", 16, "Pixels per colour in PNG output")
		auto       = pflag.Bool("auto", false, "Advance the clock one minute per frame")
	)
	pflag.Parse()

	if err := run(*start, *modeName, *mapName, *strategy, *tablesPath, *pngPath, *scale, *auto); err != nil {
		fmt.Fprintf(os.Stderr, "dns-preview: %v\n", err)
		os.Exit(1)
	}
}

func run(start, modeName, mapName, strategy, tablesPath, pngPath string, scale int, auto bool) error {
	var hour, minute int
	if _, err := fmt.Sscanf(start, "%d:%d", &hour, &minute); err != nil {
		return fmt.Errorf("invalid --time %q: %w", start, err)
	}
	if err := (dns.ClockTime{Hour: hour, Minute: minute}).Validate(); err != nil {
		return err
	}

	mode, err := dns.ParseMode(modeName)
	if err != nil {
		return err
	}
	mapType, err := dns.ParseMapType(mapName)
	if err != nil {
		return err
	}

	tables := dns.DefaultTables()
	if tablesPath != "" {
		if tables, err = dns.LoadTables(tablesPath); err != nil {
			return err
		}
	}

	clk := clock.NewManual(hour, minute)

	if pngPath != "" {
		return renderPNG(pngPath, tables, clk, strategy, mode, mapType, scale)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	p, err := NewPreview(screen, tables, clk, strategy, mode, mapType)
	if err != nil {
		return err
	}
	p.auto = auto

	loop(p)
	return nil
}

func loop(p *Preview) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	p.Step()
	p.Draw()

	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !p.HandleKey(ev) {
					return
				}
			case *tcell.EventResize:
				p.screen.Sync()
			}
		case <-ticker.C:
		}
		p.Step()
		p.Draw()
	}
}

func renderPNG(path string, tables *dns.Tables, clk *clock.Manual, strategy string, mode dns.Mode, mapType dns.MapType, scale int) error {
	p, err := NewPreview(nil, tables, clk, strategy, mode, mapType)
	if err != nil {
		return err
	}
	p.Step()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	vram := p.display.Snapshot()
	if err := host.WritePNG(f, &vram, scale); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	for _, line := range p.StatusLines()[:2] {
		fmt.Println(line)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
