// internal/domain/models.go
package domain

// ComponentType identifies the kind of physical piece a set is assembled from.
type ComponentType string

const (
	FittedSheet ComponentType = "fitted_sheet"
	FlatSheet   ComponentType = "flat_sheet"
	DuvetCover  ComponentType = "duvet_cover"
	Pillowcase  ComponentType = "pillowcase"
)

// StandardSize is the sentinel size for pillowcases, which are pooled by color only.
const StandardSize = "标准"

// MaxAvailable bounds an inventory count so it converts to int exactly.
const MaxAvailable = 1 << 53

// ComponentTypes lists every component type in display order.
var ComponentTypes = []ComponentType{FittedSheet, FlatSheet, DuvetCover, Pillowcase}

// Valid reports whether t is a known component type.
func (t ComponentType) Valid() bool {
	switch t {
	case FittedSheet, FlatSheet, DuvetCover, Pillowcase:
		return true
	}
	return false
}

// IsSheet reports whether t can fill the sheet slot of a bill of materials.
func (t ComponentType) IsSheet() bool {
	return t == FittedSheet || t == FlatSheet
}

// ComponentSpec is the classification of a single inventory label.
type ComponentSpec struct {
	Type  ComponentType `json:"type"`
	Size  string        `json:"size"`
	Color string        `json:"color"`
}

// BOM is the bill of materials of one set SKU.
type BOM struct {
	SheetType   ComponentType `json:"sheet_type" yaml:"sheet_type" db:"sheet_type"`
	SheetSize   string        `json:"sheet_size" yaml:"sheet_size" db:"sheet_size"`
	DuvetSize   string        `json:"duvet_size" yaml:"duvet_size" db:"duvet_size"`
	PillowCount int           `json:"pillow_count" yaml:"pillow_count" db:"pillow_count"`
}

// InventoryRow is one row of the raw inventory export.
type InventoryRow struct {
	Label     string  `json:"label"`
	Available float64 `json:"available"`
}

// SKUMapping ties a shop SKU id to its set description and color.
type SKUMapping struct {
	SKUID       string `json:"sku_id"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// Demand is a SKU competing for the component pools of its color.
type Demand struct {
	SKUID       string  `json:"sku_id"`
	Description string  `json:"description"`
	Color       string  `json:"color"`
	BOM         BOM     `json:"bom"`
	Ratio       float64 `json:"ratio"`
}

// AllocationResult is the sellable quantity computed for one SKU.
type AllocationResult struct {
	SKUID         string `json:"sku_id"`
	Description   string `json:"description"`
	Color         string `json:"color"`
	SellableStock int    `json:"sellable_stock"`
	Explanation   string `json:"explanation"`
}
