package achievement

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/riskibarqy/questrank/internal/domain/scoring"
)

//go:embed catalog.toml
var defaultCatalogTOML []byte

// Catalog is the validated achievement list in file order.
type Catalog struct {
	items []Achievement
	byKey map[string]int
}

type catalogFile struct {
	Achievements []struct {
		Key          string `toml:"key"`
		Name         string `toml:"name"`
		Description  string `toml:"description"`
		Icon         string `toml:"icon"`
		Category     string `toml:"category"`
		Rule         string `toml:"rule"`
		Window       string `toml:"window"`
		Requirement  int    `toml:"requirement"`
		RewardPoints int64  `toml:"reward_points"`
	} `toml:"achievement"`
}

func DefaultCatalog() Catalog {
	catalog, err := ParseCatalog(defaultCatalogTOML)
	if err != nil {
		panic(fmt.Sprintf("embedded achievement catalog: %v", err))
	}
	return catalog
}

// LoadCatalogFile reads a TOML catalog from path, or the embedded one when
// path is empty.
func LoadCatalogFile(path string) (Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalogTOML)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read achievement catalog: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (Catalog, error) {
	var file catalogFile
	meta, err := toml.Decode(string(raw), &file)
	if err != nil {
		return Catalog{}, fmt.Errorf("decode achievement catalog: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Catalog{}, fmt.Errorf("achievement catalog has unknown keys: %v", undecoded)
	}

	catalog := Catalog{byKey: make(map[string]int, len(file.Achievements))}
	for i, raw := range file.Achievements {
		item := Achievement{
			Key:          strings.TrimSpace(raw.Key),
			Name:         strings.TrimSpace(raw.Name),
			Description:  raw.Description,
			Icon:         raw.Icon,
			Category:     Category(raw.Category),
			Rule:         Rule(raw.Rule),
			Window:       raw.Window,
			Requirement:  raw.Requirement,
			RewardPoints: raw.RewardPoints,
		}
		if err := validate(item); err != nil {
			return Catalog{}, fmt.Errorf("achievement %d (%s): %w", i, item.Key, err)
		}
		if _, dup := catalog.byKey[item.Key]; dup {
			return Catalog{}, fmt.Errorf("achievement %s: duplicate key", item.Key)
		}
		catalog.byKey[item.Key] = len(catalog.items)
		catalog.items = append(catalog.items, item)
	}
	return catalog, nil
}

func validate(item Achievement) error {
	switch {
	case item.Key == "":
		return fmt.Errorf("key is required")
	case item.Name == "":
		return fmt.Errorf("name is required")
	case !item.Category.Valid():
		return fmt.Errorf("unknown category %q", item.Category)
	case !item.Rule.Valid():
		return fmt.Errorf("unknown rule %q", item.Rule)
	case item.Requirement <= 0:
		return fmt.Errorf("requirement must be > 0")
	case item.RewardPoints < 0:
		return fmt.Errorf("reward_points must be >= 0")
	}

	if item.Rule == RuleTimeWindow {
		if !knownWindow(item.Window) {
			return fmt.Errorf("time_window rule needs a known window, got %q", item.Window)
		}
	} else if item.Window != "" {
		return fmt.Errorf("window is only valid for time_window rules")
	}
	return nil
}

func knownWindow(window string) bool {
	switch scoring.TimeWindow(window) {
	case scoring.WindowEarlyBird, scoring.WindowLunchExplorer, scoring.WindowGoldenHour, scoring.WindowNightOwl:
		return true
	default:
		return false
	}
}

// All returns the catalog in file order.
func (c Catalog) All() []Achievement {
	return append([]Achievement(nil), c.items...)
}

func (c Catalog) Lookup(key string) (Achievement, bool) {
	idx, ok := c.byKey[key]
	if !ok {
		return Achievement{}, false
	}
	return c.items[idx], true
}

func (c Catalog) Len() int {
	return len(c.items)
}
