package dns

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTables wraps every configuration problem found by Validate.
var ErrInvalidTables = errors.New("invalid dns tables")

// Tables is the full static configuration of the day/night system.
type Tables struct {
	Boundaries Boundaries
	Lighting   LightingWindow
	Filters    FilterTable
	Exceptions ExceptionPolicy
	Slots      []LightingSlot
}

// DefaultTables returns the configuration the system ships with.
func DefaultTables() *Tables {
	return &Tables{
		Boundaries: DefaultBoundaries(),
		Lighting:   DefaultLightingWindow(),
		Filters:    DefaultFilterTable(),
		Exceptions: DefaultExceptionPolicy(),
		Slots:      DefaultLightingSlots(),
	}
}

// Validate checks every table. Errors wrap ErrInvalidTables.
func (t *Tables) Validate() error {
	if err := t.Boundaries.Validate(); err != nil {
		return fmt.Errorf("%w: boundaries: %v", ErrInvalidTables, err)
	}
	if err := t.Lighting.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTables, err)
	}
	if err := t.Filters.Validate(); err != nil {
		return fmt.Errorf("%w: filters: %v", ErrInvalidTables, err)
	}
	for i, slot := range t.Slots {
		if err := slot.Validate(); err != nil {
			return fmt.Errorf("%w: slot %d: %v", ErrInvalidTables, i, err)
		}
	}
	return nil
}

// tablesFile is the YAML layout. Sections left out keep their defaults.
type tablesFile struct {
	Boundaries     *Boundaries     `yaml:"boundaries"`
	LightingWindow *LightingWindow `yaml:"lighting_window"`
	Filters        *filtersFile    `yaml:"filters"`
	Exceptions     *exceptionsFile `yaml:"exceptions"`
	LightingSlots  []LightingSlot  `yaml:"lighting_slots"`
}

type exceptionsFile struct {
	Overworld  *RowFlags    `yaml:"overworld"`
	Combat     *RowFlags    `yaml:"combat"`
	MapTypes   []MapType    `yaml:"map_types"`
	SpriteTags []PaletteTag `yaml:"sprite_tags"`
}

type filtersFile struct {
	Midnight  []Color15 `yaml:"midnight"`
	Dawn      []Color15 `yaml:"dawn"`
	Day       *Color15  `yaml:"day"`
	Sunset    []Color15 `yaml:"sunset"`
	Nightfall []Color15 `yaml:"nightfall"`
	Night     *Color15  `yaml:"night"`
}

// LoadTables reads a YAML tables file over the defaults.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}
	return LoadTablesFromBytes(data)
}

// LoadTablesFromBytes parses YAML tables over the defaults and validates the
// result.
func LoadTablesFromBytes(data []byte) (*Tables, error) {
	var file tablesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tables YAML: %w", err)
	}

	tables := DefaultTables()

	if file.Boundaries != nil {
		tables.Boundaries = *file.Boundaries
		// The lighting window follows the boundaries unless set explicitly.
		tables.Lighting = LightingWindow{Start: file.Boundaries.NightfallEnd, End: file.Boundaries.MidnightEnd}
	}
	if file.LightingWindow != nil {
		tables.Lighting = *file.LightingWindow
	}
	if file.Filters != nil {
		if err := file.Filters.apply(&tables.Filters); err != nil {
			return nil, fmt.Errorf("%w: filters: %v", ErrInvalidTables, err)
		}
	}
	if ex := file.Exceptions; ex != nil {
		if ex.Overworld != nil {
			tables.Exceptions.Overworld = *ex.Overworld
		}
		if ex.Combat != nil {
			tables.Exceptions.Combat = *ex.Combat
		}
		if ex.MapTypes != nil {
			tables.Exceptions.MapTypes = ex.MapTypes
		}
		if ex.SpriteTags != nil {
			tables.Exceptions.SpriteTags = ex.SpriteTags
		}
	}
	if file.LightingSlots != nil {
		tables.Slots = file.LightingSlots
	}

	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return tables, nil
}

func (f *filtersFile) apply(ft *FilterTable) error {
	sequences := []struct {
		phase TimeOfDay
		src   []Color15
		dst   []Color15
	}{
		{Midnight, f.Midnight, ft.Midnight[:]},
		{Dawn, f.Dawn, ft.Dawn[:]},
		{Sunset, f.Sunset, ft.Sunset[:]},
		{Nightfall, f.Nightfall, ft.Nightfall[:]},
	}
	for _, s := range sequences {
		if s.src == nil {
			continue
		}
		if len(s.src) != len(s.dst) {
			return fmt.Errorf("%s needs exactly %d filters, got %d", s.phase, len(s.dst), len(s.src))
		}
		copy(s.dst, s.src)
	}
	if f.Day != nil {
		ft.Day = *f.Day
	}
	if f.Night != nil {
		ft.Night = *f.Night
	}
	return nil
}

// Marshal writes the tables in the layout LoadTablesFromBytes reads.
func (t *Tables) Marshal() ([]byte, error) {
	day, night := t.Filters.Day, t.Filters.Night
	file := tablesFile{
		Boundaries:     &t.Boundaries,
		LightingWindow: &t.Lighting,
		Filters: &filtersFile{
			Midnight:  t.Filters.Midnight[:],
			Dawn:      t.Filters.Dawn[:],
			Day:       &day,
			Sunset:    t.Filters.Sunset[:],
			Nightfall: t.Filters.Nightfall[:],
			Night:     &night,
		},
		Exceptions: &exceptionsFile{
			Overworld:  &t.Exceptions.Overworld,
			Combat:     &t.Exceptions.Combat,
			MapTypes:   t.Exceptions.MapTypes,
			SpriteTags: t.Exceptions.SpriteTags,
		},
		LightingSlots: t.Slots,
	}
	return yaml.Marshal(&file)
}
