package allocation

import (
	"strings"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/bom"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
)

// ColorGroup is the independent unit of allocation: every demand of one color.
type ColorGroup struct {
	Color   string
	Demands []domain.Demand
}

// BuildDemands groups SKU mappings by color in first-appearance order, keeping
// only active colors and descriptions known to the registry. A missing ratio
// counts as zero. Colors left without demands are omitted.
func BuildDemands(mappings []domain.SKUMapping, ratios map[string]float64, registry bom.Registry, activeColors []string) []ColorGroup {
	active := make(map[string]struct{}, len(activeColors))
	for _, c := range activeColors {
		active[strings.TrimSpace(c)] = struct{}{}
	}

	index := make(map[string]int)
	var groups []ColorGroup
	for _, m := range mappings {
		color := strings.TrimSpace(m.Color)
		if _, ok := active[color]; !ok {
			continue
		}

		desc := strings.TrimSpace(m.Description)
		b, ok := registry.Lookup(desc)
		if !ok {
			continue
		}

		i, seen := index[color]
		if !seen {
			i = len(groups)
			index[color] = i
			groups = append(groups, ColorGroup{Color: color})
		}

		ratio := ratios[desc]
		if ratio < 0 {
			ratio = 0
		}
		groups[i].Demands = append(groups[i].Demands, domain.Demand{
			SKUID:       strings.TrimSpace(m.SKUID),
			Description: desc,
			Color:       color,
			BOM:         b,
			Ratio:       ratio,
		})
	}
	return groups
}
