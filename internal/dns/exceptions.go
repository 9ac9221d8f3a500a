package dns

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode is the host's top-level game mode. The host sets it explicitly on
// every mode transition; filtering only runs in Overworld and Combat.
type Mode int

const (
	ModeOther Mode = iota
	ModeOverworld
	ModeCombat
)

var modeNames = [...]string{
	ModeOther:     "other",
	ModeOverworld: "overworld",
	ModeCombat:    "combat",
}

func (m Mode) String() string {
	if m < ModeOther || m > ModeCombat {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Filtered reports whether the mode takes part in day/night filtering.
func (m Mode) Filtered() bool {
	return m == ModeOverworld || m == ModeCombat
}

func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// MapType is the category of a map, as carried in the map header.
type MapType uint8

const (
	MapTypeNone MapType = iota
	MapTypeTown
	MapTypeCity
	MapTypeRoute
	MapTypeUnderground
	MapTypeUnderwater
	MapTypeOceanRoute
	MapTypeUnknown
	MapTypeIndoor
	MapTypeSecretBase
)

var mapTypeNames = [...]string{
	MapTypeNone:        "none",
	MapTypeTown:        "town",
	MapTypeCity:        "city",
	MapTypeRoute:       "route",
	MapTypeUnderground: "underground",
	MapTypeUnderwater:  "underwater",
	MapTypeOceanRoute:  "ocean_route",
	MapTypeUnknown:     "unknown",
	MapTypeIndoor:      "indoor",
	MapTypeSecretBase:  "secret_base",
}

func (m MapType) String() string {
	if int(m) >= len(mapTypeNames) {
		return fmt.Sprintf("MapType(%d)", uint8(m))
	}
	return mapTypeNames[m]
}

func ParseMapType(s string) (MapType, error) {
	for i, name := range mapTypeNames {
		if strings.EqualFold(s, name) {
			return MapType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown map type %q", s)
}

func (m *MapType) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseMapType(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*m = parsed
	return nil
}

func (m MapType) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// PaletteTag identifies a dynamically allocated sprite palette.
type PaletteTag uint16

// RowFlags marks, per palette row, whether filtering applies (true) or the
// row is an exception (false).
type RowFlags [PaletteRows]bool

func (f *RowFlags) UnmarshalYAML(value *yaml.Node) error {
	var flags []bool
	if err := value.Decode(&flags); err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	if len(flags) != PaletteRows {
		return fmt.Errorf("line %d: need %d row flags, got %d", value.Line, PaletteRows, len(flags))
	}
	copy(f[:], flags)
	return nil
}

func (f RowFlags) MarshalYAML() (interface{}, error) {
	return f[:], nil
}

// ExceptionPolicy decides which palette rows are left unfiltered.
type ExceptionPolicy struct {
	Overworld  RowFlags     `yaml:"overworld"`
	Combat     RowFlags     `yaml:"combat"`
	MapTypes   []MapType    `yaml:"map_types"`
	SpriteTags []PaletteTag `yaml:"sprite_tags"`
}

// IsMapException reports whether the map category disables filtering and
// the nightlight overlay entirely.
func (p *ExceptionPolicy) IsMapException(m MapType) bool {
	for _, ex := range p.MapTypes {
		if ex == m {
			return true
		}
	}
	return false
}

// IsTagException reports whether a sprite palette tag is never filtered.
func (p *ExceptionPolicy) IsTagException(tag PaletteTag) bool {
	for _, ex := range p.SpriteTags {
		if ex == tag {
			return true
		}
	}
	return false
}

// IsRowException reports whether a palette row is copied unfiltered. The
// combat table is used in ModeCombat and the overworld table otherwise.
// Sprite rows also consult the tag of the palette loaded into them, and a
// tag match wins over the table.
func (p *ExceptionPolicy) IsRowException(row int, mode Mode, tags SpriteTagLookup) bool {
	flags := &p.Overworld
	if mode == ModeCombat {
		flags = &p.Combat
	}

	if !flags[row] {
		return true
	}
	if row >= SpriteRowStart && tags != nil {
		return p.IsTagException(tags.SpritePaletteTag(row - SpriteRowStart))
	}
	return false
}

// DefaultExceptionPolicy returns the shipped exception tables.
func DefaultExceptionPolicy() ExceptionPolicy {
	var overworld, combat RowFlags
	for row := range overworld {
		overworld[row] = true
		combat[row] = true
	}

	// Overworld rows 13-15 are never filtered.
	overworld[13], overworld[14], overworld[15] = false, false, false

	// Combat leaves rows 0, 1, 5 and every sprite row unfiltered.
	combat[0], combat[1], combat[5] = false, false, false
	for row := SpriteRowStart; row < PaletteRows; row++ {
		combat[row] = false
	}

	return ExceptionPolicy{
		Overworld: overworld,
		Combat:    combat,
		MapTypes: []MapType{
			MapTypeNone,
			MapTypeIndoor,
			MapTypeUnderground,
			MapTypeSecretBase,
		},
		SpriteTags: []PaletteTag{
			0xD6FF, // healthbox
			0xD704, // healthbar
			0xD710, // status summary bar
			0xD712, // status summary balls
		},
	}
}
