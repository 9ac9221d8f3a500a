package agent

import (
	"encoding/json"
	"fmt"

	"github.com/saaga0h/jeeves-dns/internal/dns"
	"github.com/saaga0h/jeeves-dns/pkg/mqtt"
)

// control is a host change queued by an MQTT handler and applied on the
// frame goroutine between frames
type control func(a *Agent) error

// handleControlMessage parses a dns/control/{name} message:
//
//	dns/control/mode        {"mode": "combat"}
//	dns/control/map         {"map_type": "indoor"}
//	dns/control/fade        {"active": true}
//	dns/control/sprite_tag  {"slot": 3, "tag": 55039}
func (a *Agent) handleControlMessage(msg mqtt.Message) {
	name := mqtt.ControlName(msg.Topic())

	c, err := parseControl(name, msg.Payload())
	if err != nil {
		a.logger.Error("Failed to parse control message",
			"topic", msg.Topic(),
			"error", err)
		return
	}

	select {
	case a.controls <- c:
		a.logger.Debug("Queued control", "control", name)
	default:
		a.logger.Warn("Control queue full, dropping message", "control", name)
	}
}

func parseControl(name string, payload []byte) (control, error) {
	switch name {
	case "mode":
		var msg struct {
			Mode string `json:"mode"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, err
		}
		mode, err := dns.ParseMode(msg.Mode)
		if err != nil {
			return nil, err
		}
		return func(a *Agent) error {
			a.system.SetMode(mode)
			return nil
		}, nil

	case "map":
		var msg struct {
			MapType string `json:"map_type"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, err
		}
		mapType, err := dns.ParseMapType(msg.MapType)
		if err != nil {
			return nil, err
		}
		return func(a *Agent) error {
			a.sim.SetMapType(mapType)
			return nil
		}, nil

	case "fade":
		var msg struct {
			Active bool `json:"active"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, err
		}
		return func(a *Agent) error {
			a.sim.SetFading(msg.Active)
			return nil
		}, nil

	case "sprite_tag":
		var msg struct {
			Slot int    `json:"slot"`
			Tag  uint16 `json:"tag"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, err
		}
		return func(a *Agent) error {
			return a.sim.SetSpriteTag(msg.Slot, dns.PaletteTag(msg.Tag))
		}, nil
	}

	return nil, fmt.Errorf("unknown control %q", name)
}

// drainControls applies every queued control
func (a *Agent) drainControls() {
	for {
		select {
		case c := <-a.controls:
			if err := c(a); err != nil {
				a.logger.Error("Failed to apply control", "error", err)
			}
		default:
			return
		}
	}
}
