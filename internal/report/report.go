// Package report summarizes allocation results and renders export files.
package report

import (
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/inventory"
)

// ColorSummary is the per-color rollup.
type ColorSummary struct {
	Color    string `json:"color"`
	SKUCount int    `json:"sku_count"`
	Sets     int    `json:"sets"`
}

// Summary is the headline rollup of one run.
type Summary struct {
	TotalSKUs     int            `json:"total_skus"`
	InStockSKUs   int            `json:"in_stock_skus"`
	ZeroStockSKUs int            `json:"zero_stock_skus"`
	TotalSets     int            `json:"total_sets"`
	ByColor       []ColorSummary `json:"by_color"`
}

// Summarize rolls results up; colors keep their first-appearance order.
func Summarize(results []domain.AllocationResult) Summary {
	s := Summary{TotalSKUs: len(results), ByColor: []ColorSummary{}}
	index := make(map[string]int)
	for _, r := range results {
		if r.SellableStock > 0 {
			s.InStockSKUs++
		} else {
			s.ZeroStockSKUs++
		}
		s.TotalSets += r.SellableStock

		i, ok := index[r.Color]
		if !ok {
			i = len(s.ByColor)
			index[r.Color] = i
			s.ByColor = append(s.ByColor, ColorSummary{Color: r.Color})
		}
		s.ByColor[i].SKUCount++
		s.ByColor[i].Sets += r.SellableStock
	}
	return s
}

// Filter selects results for display. An empty Color matches every color.
type Filter struct {
	Color    string
	HideZero bool
}

// Apply returns the matching results in their original order.
func (f Filter) Apply(results []domain.AllocationResult) []domain.AllocationResult {
	out := make([]domain.AllocationResult, 0, len(results))
	for _, r := range results {
		if f.Color != "" && r.Color != f.Color {
			continue
		}
		if f.HideZero && r.SellableStock <= 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ComponentGroup lists one component type's stock across the active colors.
type ComponentGroup struct {
	Type    domain.ComponentType `json:"type"`
	Entries []inventory.Entry    `json:"entries"`
}

// ComponentOverview lists pooled stock per component type for colors, in
// the fixed type order.
func ComponentOverview(inv *inventory.Inventory, colors []string) []ComponentGroup {
	out := make([]ComponentGroup, 0, len(domain.ComponentTypes))
	for _, t := range domain.ComponentTypes {
		entries := inv.Overview(t, colors)
		if entries == nil {
			entries = []inventory.Entry{}
		}
		out = append(out, ComponentGroup{Type: t, Entries: entries})
	}
	return out
}
