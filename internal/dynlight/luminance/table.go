// Package luminance maps items and entities to light levels.
package luminance

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/go-theft-craft/dynlights/internal/dynlight/source"
)

//go:embed default.yaml
var defaultTable []byte

// Item is one row of the luminance table.
type Item struct {
	ID             string `yaml:"id"`
	Luminance      int    `yaml:"luminance"`
	WaterSensitive bool   `yaml:"water_sensitive,omitempty"`
}

type tableFile struct {
	Items []Item `yaml:"items"`
}

// Parse decodes a YAML luminance table.
func Parse(data []byte) (map[string]Item, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse luminance table: %w", err)
	}
	items := make(map[string]Item, len(f.Items))
	for i, it := range f.Items {
		if it.ID == "" {
			return nil, fmt.Errorf("item %d: missing id", i)
		}
		if it.Luminance < 0 || it.Luminance > source.MaxLuminance {
			return nil, fmt.Errorf("item %q: luminance %d out of range", it.ID, it.Luminance)
		}
		if _, dup := items[it.ID]; dup {
			return nil, fmt.Errorf("item %q: duplicate entry", it.ID)
		}
		items[it.ID] = it
	}
	return items, nil
}

// Table is a concurrency-safe item luminance lookup that can be replaced
// while in use.
type Table struct {
	mu    sync.RWMutex
	items map[string]Item
}

// Default returns the built-in table.
func Default() *Table {
	items, err := Parse(defaultTable)
	if err != nil {
		panic(err)
	}
	return &Table{items: items}
}

// LoadFile reads a table from a YAML file.
func LoadFile(path string) (*Table, error) {
	t := &Table{}
	if err := t.Reload(path); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload replaces the table contents with the file at path. On error the
// table is left unchanged.
func (t *Table) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read luminance table: %w", err)
	}
	items, err := Parse(data)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.items = items
	t.mu.Unlock()
	return nil
}

// Len returns the number of items.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// ItemLuminance returns the light emitted by an item. Water sensitive items
// are dark when submerged. Unknown items are dark.
func (t *Table) ItemLuminance(id string, submerged bool) int {
	t.mu.RLock()
	it, ok := t.items[id]
	t.mu.RUnlock()
	if !ok || (submerged && it.WaterSensitive) {
		return 0
	}
	return it.Luminance
}

// Encode writes items as a YAML luminance table, ordered by id.
func Encode(items []Item) ([]byte, error) {
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b Item) int { return strings.Compare(a.ID, b.ID) })
	data, err := yaml.Marshal(tableFile{Items: sorted})
	if err != nil {
		return nil, fmt.Errorf("encode luminance table: %w", err)
	}
	return data, nil
}
