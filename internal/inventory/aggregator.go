package inventory

import (
	"strings"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
)

// LabelParser is the subset of the name parser the aggregator needs.
type LabelParser interface {
	Parse(label string) (domain.ComponentSpec, bool)
	IsPair(label string) bool
}

// Aggregate builds the component inventory from raw export rows. Rows are
// summed per raw label first; labels with a non-positive total or that do not
// parse are skipped. Single pillowcases are paired down with floor(n/2).
func Aggregate(rows []domain.InventoryRow, p LabelParser) *Inventory {
	totals := make(map[string]float64, len(rows))
	var labels []string
	for _, r := range rows {
		if strings.TrimSpace(r.Label) == "" {
			continue
		}
		if _, ok := totals[r.Label]; !ok {
			labels = append(labels, r.Label)
		}
		totals[r.Label] += r.Available
	}

	inv := New()
	for _, label := range labels {
		total := totals[label]
		// NaN fails both comparisons.
		if !(total > 0 && total <= domain.MaxAvailable) {
			continue
		}
		stock := int(total)
		if stock <= 0 {
			continue
		}

		spec, ok := p.Parse(label)
		if !ok {
			continue
		}

		if spec.Type == domain.Pillowcase && !p.IsPair(label) {
			stock /= 2
		}

		inv.Add(Key{Type: spec.Type, Color: spec.Color, Size: spec.Size}, stock)
	}
	return inv
}
