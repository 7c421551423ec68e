package powerup

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed catalog.toml
var defaultCatalogTOML []byte

var ErrUnknownType = errors.New("unknown power-up type")

type Definition struct {
	Type            Type    `toml:"type"`
	Name            string  `toml:"name"`
	Description     string  `toml:"description"`
	Cost            int64   `toml:"cost"`
	DurationMinutes int     `toml:"duration_minutes"`
	Multiplier      float64 `toml:"multiplier"`
}

func (d Definition) Duration() time.Duration {
	return time.Duration(d.DurationMinutes) * time.Minute
}

// Catalog is the validated, immutable set of purchasable power-ups.
type Catalog struct {
	byType map[Type]Definition
}

type catalogFile struct {
	PowerUps []Definition `toml:"powerup"`
}

// DefaultCatalog returns the embedded catalog. It panics only if the embedded
// file is invalid, which the package tests guard against.
func DefaultCatalog() Catalog {
	catalog, err := ParseCatalog(defaultCatalogTOML)
	if err != nil {
		panic(fmt.Sprintf("embedded power-up catalog: %v", err))
	}
	return catalog
}

// LoadCatalogFile reads a TOML catalog from path, falling back to the embedded
// catalog when path is empty.
func LoadCatalogFile(path string) (Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalogTOML)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read power-up catalog: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (Catalog, error) {
	var file catalogFile
	meta, err := toml.Decode(string(raw), &file)
	if err != nil {
		return Catalog{}, fmt.Errorf("decode power-up catalog: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Catalog{}, fmt.Errorf("power-up catalog has unknown keys: %v", undecoded)
	}
	if len(file.PowerUps) == 0 {
		return Catalog{}, fmt.Errorf("power-up catalog is empty")
	}

	byType := make(map[Type]Definition, len(file.PowerUps))
	for i, def := range file.PowerUps {
		switch {
		case !def.Type.Valid():
			return Catalog{}, fmt.Errorf("power-up %d: %w: %q", i, ErrUnknownType, def.Type)
		case def.Name == "":
			return Catalog{}, fmt.Errorf("power-up %s: name is required", def.Type)
		case def.Cost <= 0:
			return Catalog{}, fmt.Errorf("power-up %s: cost must be > 0", def.Type)
		case def.DurationMinutes <= 0:
			return Catalog{}, fmt.Errorf("power-up %s: duration_minutes must be > 0", def.Type)
		case def.Multiplier < 1.0:
			return Catalog{}, fmt.Errorf("power-up %s: multiplier must be >= 1.0", def.Type)
		}
		if _, dup := byType[def.Type]; dup {
			return Catalog{}, fmt.Errorf("power-up %s: duplicate definition", def.Type)
		}
		byType[def.Type] = def
	}

	return Catalog{byType: byType}, nil
}

func (c Catalog) Lookup(t Type) (Definition, bool) {
	def, ok := c.byType[t]
	return def, ok
}

// Definitions returns every definition ordered by cost.
func (c Catalog) Definitions() []Definition {
	out := make([]Definition, 0, len(c.byType))
	for _, def := range c.byType {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cost != out[j].Cost {
			return out[i].Cost < out[j].Cost
		}
		return out[i].Type < out[j].Type
	})
	return out
}
