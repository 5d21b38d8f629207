// Package bom maps set SKU descriptions to their bill of materials.
package bom

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultEntries []byte

// Registry resolves a SKU description to its bill of materials.
type Registry interface {
	Lookup(description string) (domain.BOM, bool)
}

// Entry is one row of a registry source.
type Entry struct {
	Description string `yaml:"description" db:"description"`
	domain.BOM  `yaml:",inline"`
}

type file struct {
	Entries []Entry `yaml:"entries"`
}

// StaticRegistry is an immutable in-memory registry.
type StaticRegistry struct {
	entries map[string]domain.BOM
	order   []string
}

// NewStatic validates entries and builds a registry. Duplicate descriptions
// are rejected.
func NewStatic(entries []Entry) (*StaticRegistry, error) {
	r := &StaticRegistry{entries: make(map[string]domain.BOM, len(entries))}
	for i, e := range entries {
		desc := strings.TrimSpace(e.Description)
		if desc == "" {
			return nil, fmt.Errorf("bom entry %d: empty description", i)
		}
		if err := Validate(e.BOM); err != nil {
			return nil, fmt.Errorf("bom entry %q: %w", desc, err)
		}
		if _, dup := r.entries[desc]; dup {
			return nil, fmt.Errorf("bom entry %q: duplicate description", desc)
		}
		r.entries[desc] = e.BOM
		r.order = append(r.order, desc)
	}
	return r, nil
}

// Validate checks that b names a sheet type and both sizes.
func Validate(b domain.BOM) error {
	if !b.SheetType.IsSheet() {
		return fmt.Errorf("sheet type %q is not a sheet", b.SheetType)
	}
	if b.SheetSize == "" || b.DuvetSize == "" {
		return fmt.Errorf("sheet and duvet sizes are required")
	}
	if b.PillowCount < 0 {
		return fmt.Errorf("negative pillow count %d", b.PillowCount)
	}
	return nil
}

// Lookup implements Registry. Descriptions are matched after trimming.
func (r *StaticRegistry) Lookup(description string) (domain.BOM, bool) {
	b, ok := r.entries[strings.TrimSpace(description)]
	return b, ok
}

// Entries returns the registry content in source order.
func (r *StaticRegistry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, d := range r.order {
		out = append(out, Entry{Description: d, BOM: r.entries[d]})
	}
	return out
}

// Len returns the number of descriptions.
func (r *StaticRegistry) Len() int {
	return len(r.order)
}

// Parse decodes a YAML registry document.
func Parse(data []byte) (*StaticRegistry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode bom file: %w", err)
	}
	return NewStatic(f.Entries)
}

// LoadFile reads a YAML registry from path. An empty path yields the
// built-in catalogue.
func LoadFile(path string) (*StaticRegistry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bom file %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the built-in catalogue.
func Default() *StaticRegistry {
	r, err := Parse(defaultEntries)
	if err != nil {
		panic(fmt.Sprintf("bom: invalid embedded catalogue: %v", err))
	}
	return r
}
