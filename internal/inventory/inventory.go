// Package inventory holds the component stock table, counted in assemblable sets.
package inventory

import (
	"sort"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
)

// Key identifies one component pool.
type Key struct {
	Type  domain.ComponentType
	Color string
	Size  string
}

// Entry is a key with its count, used for listings.
type Entry struct {
	Type  domain.ComponentType `json:"type"`
	Color string               `json:"color"`
	Size  string               `json:"size"`
	Count int                  `json:"count"`
}

// Inventory maps component keys to non-negative set counts. The zero value is
// not usable; call New.
type Inventory struct {
	counts map[Key]int
	order  []Key
}

// New returns an empty inventory.
func New() *Inventory {
	return &Inventory{counts: make(map[Key]int)}
}

// Add accumulates n sets into key. Non-positive n is ignored so counts never
// go negative.
func (inv *Inventory) Add(key Key, n int) {
	if n <= 0 {
		return
	}
	if _, ok := inv.counts[key]; !ok {
		inv.order = append(inv.order, key)
	}
	inv.counts[key] += n
}

// Get returns the count for key, or zero when absent.
func (inv *Inventory) Get(key Key) int {
	return inv.counts[key]
}

// Stock is shorthand for Get with the key fields spelled out.
func (inv *Inventory) Stock(t domain.ComponentType, color, size string) int {
	return inv.counts[Key{Type: t, Color: color, Size: size}]
}

// Pillowcases returns the pillowcase sets available for color.
func (inv *Inventory) Pillowcases(color string) int {
	return inv.Stock(domain.Pillowcase, color, domain.StandardSize)
}

// Len returns the number of distinct keys.
func (inv *Inventory) Len() int {
	return len(inv.order)
}

// Entries lists every key in insertion order.
func (inv *Inventory) Entries() []Entry {
	out := make([]Entry, 0, len(inv.order))
	for _, k := range inv.order {
		out = append(out, Entry{Type: k.Type, Color: k.Color, Size: k.Size, Count: inv.counts[k]})
	}
	return out
}

// Overview lists entries of one component type restricted to colors, in the
// order of colors and then by size.
func (inv *Inventory) Overview(t domain.ComponentType, colors []string) []Entry {
	var out []Entry
	for _, color := range colors {
		var sizes []Entry
		for _, k := range inv.order {
			if k.Type == t && k.Color == color {
				sizes = append(sizes, Entry{Type: k.Type, Color: k.Color, Size: k.Size, Count: inv.counts[k]})
			}
		}
		sort.SliceStable(sizes, func(i, j int) bool { return sizes[i].Size < sizes[j].Size })
		out = append(out, sizes...)
	}
	return out
}
