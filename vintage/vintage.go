// Package vintage holds the per-source field-mapping configuration.
// Chicago has shipped three boundary vintages (2010, 2013-2022,
// 2023-present), each with its own property naming, and the election
// CSV exports drift the same way. Instead of hand-editing headers per
// file, every source era gets a declarative entry here: which fields
// carry ward and precinct, how a combined identifier splits, and which
// headers get renamed before import.
package vintage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cgpdata/chielect/precinct"
)

// Vintage describes one source era.
type Vintage struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`

	// Year range the vintage covers. ValidTo of 0 means still current.
	ValidFrom int `yaml:"valid_from"`
	ValidTo   int `yaml:"valid_to,omitempty"`

	// Field names carrying the precinct identity. Either both
	// WardField and PrecinctField are set, or CombinedField is set
	// together with a split rule.
	WardField     string `yaml:"ward_field,omitempty"`
	PrecinctField string `yaml:"precinct_field,omitempty"`
	CombinedField string `yaml:"combined_field,omitempty"`

	Split precinct.SplitRule `yaml:"split,omitempty"`

	// HeaderRenames is applied to CSV headers before import. The
	// documented recovery rule for an unlabeled column is an explicit
	// entry mapping the empty header to "id"; nothing is inferred.
	HeaderRenames map[string]string `yaml:"header_renames,omitempty"`
}

// Combined reports whether this vintage fuses ward and precinct into a
// single field.
func (v *Vintage) Combined() bool {
	return v.CombinedField != ""
}

// Covers reports whether the vintage applies to the given year.
func (v *Vintage) Covers(year int) bool {
	if year < v.ValidFrom {
		return false
	}
	return v.ValidTo == 0 || year <= v.ValidTo
}

// Config is the full set of known vintages.
type Config struct {
	Vintages []*Vintage `yaml:"vintages"`
}

// Default returns the built-in configuration for the three boundary
// eras and their property conventions.
func Default() *Config {
	return &Config{Vintages: []*Vintage{
		{
			ID:            "2010",
			Label:         "2010 consolidation boundaries",
			ValidFrom:     2010,
			ValidTo:       2012,
			WardField:     "WARD",
			PrecinctField: "PRECINCT",
		},
		{
			ID:            "2013",
			Label:         "2013-2022 boundaries",
			ValidFrom:     2013,
			ValidTo:       2022,
			WardField:     "ward",
			PrecinctField: "precinct",
		},
		{
			ID:            "2023",
			Label:         "2023-present boundaries",
			ValidFrom:     2023,
			CombinedField: "precinct_id",
			Split:         precinct.SplitRule{WardWidth: 2},
		},
	}}
}

// Load reads a YAML config file. An empty path returns the built-in
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading vintage config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML config document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing vintage config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Vintages) == 0 {
		return fmt.Errorf("vintage config defines no vintages")
	}
	seen := make(map[string]bool)
	for _, v := range c.Vintages {
		if v.ID == "" {
			return fmt.Errorf("vintage with valid_from %d has no id", v.ValidFrom)
		}
		if seen[v.ID] {
			return fmt.Errorf("duplicate vintage id %q", v.ID)
		}
		seen[v.ID] = true
		if v.ValidFrom == 0 {
			return fmt.Errorf("vintage %s: valid_from is required", v.ID)
		}
		if v.ValidTo != 0 && v.ValidTo < v.ValidFrom {
			return fmt.Errorf("vintage %s: valid_to %d precedes valid_from %d",
				v.ID, v.ValidTo, v.ValidFrom)
		}
		switch {
		case v.CombinedField != "":
			if v.WardField != "" || v.PrecinctField != "" {
				return fmt.Errorf("vintage %s: combined_field excludes ward_field/precinct_field", v.ID)
			}
			if v.Split.IsZero() {
				return fmt.Errorf("vintage %s: combined_field requires a split rule", v.ID)
			}
		case v.WardField == "" || v.PrecinctField == "":
			return fmt.Errorf("vintage %s: ward_field and precinct_field are both required", v.ID)
		}
	}
	for i, a := range c.Vintages {
		for _, b := range c.Vintages[i+1:] {
			if rangesOverlap(a, b) {
				return fmt.Errorf("vintages %s and %s overlap", a.ID, b.ID)
			}
		}
	}
	return nil
}

func rangesOverlap(a, b *Vintage) bool {
	aTo, bTo := a.ValidTo, b.ValidTo
	if aTo == 0 {
		aTo = int(^uint(0) >> 1)
	}
	if bTo == 0 {
		bTo = int(^uint(0) >> 1)
	}
	return a.ValidFrom <= bTo && b.ValidFrom <= aTo
}

// ForYear returns the vintage covering the given year.
func (c *Config) ForYear(year int) (*Vintage, error) {
	for _, v := range c.Vintages {
		if v.Covers(year) {
			return v, nil
		}
	}
	return nil, fmt.Errorf("no vintage covers year %d", year)
}

// ByID returns the vintage with the given id.
func (c *Config) ByID(id string) (*Vintage, error) {
	for _, v := range c.Vintages {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, fmt.Errorf("unknown vintage %q", id)
}
