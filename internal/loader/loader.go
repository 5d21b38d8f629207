package loader

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
	"github.com/shopspring/decimal"
)

// Table names used in errors and cache keys.
const (
	TableInventory = "inventory"
	TableRatios    = "sales ratio"
	TableMappings  = "sku mapping"
)

// Default inventory export headers.
const (
	DefaultLabelColumn     = "商品名称"
	DefaultAvailableColumn = "可用数"
)

// InventoryColumns names the two required inventory headers.
type InventoryColumns struct {
	Label     string
	Available string
}

// DefaultInventoryColumns returns the headers of the stock export.
func DefaultInventoryColumns() InventoryColumns {
	return InventoryColumns{Label: DefaultLabelColumn, Available: DefaultAvailableColumn}
}

// Inventory decodes the stock export. Both configured columns must be
// present in the header row.
func Inventory(src Source, cols InventoryColumns) ([]domain.InventoryRow, error) {
	table, err := ReadTable(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", TableInventory, err)
	}
	return InventoryFromTable(table, cols)
}

// InventoryFromTable is Inventory over an already decoded grid.
func InventoryFromTable(table [][]string, cols InventoryColumns) ([]domain.InventoryRow, error) {
	if len(table) == 0 {
		return nil, &domain.SchemaError{Table: TableInventory, Column: cols.Label}
	}

	header := table[0]
	labelIdx := colIndex(header, cols.Label)
	if labelIdx < 0 {
		return nil, &domain.SchemaError{Table: TableInventory, Column: cols.Label}
	}
	availIdx := colIndex(header, cols.Available)
	if availIdx < 0 {
		return nil, &domain.SchemaError{Table: TableInventory, Column: cols.Available}
	}

	rows := make([]domain.InventoryRow, 0, len(table)-1)
	for i, record := range table[1:] {
		label := cell(record, labelIdx)
		if label == "" {
			continue
		}
		available, err := parseCount(cell(record, availIdx))
		if err != nil {
			return nil, &domain.DataError{Table: TableInventory, Row: i + 2, Err: err}
		}
		rows = append(rows, domain.InventoryRow{Label: label, Available: available})
	}
	return rows, nil
}

func parseCount(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid count %q", v)
	}
	if math.Abs(f) > domain.MaxAvailable {
		return 0, fmt.Errorf("count %q out of range", v)
	}
	return f, nil
}

// SalesRatios decodes the headerless description/ratio table. A first row
// whose ratio does not parse is taken as a header and skipped. Later
// duplicates overwrite earlier ones.
func SalesRatios(src Source) (map[string]float64, error) {
	table, err := ReadTable(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", TableRatios, err)
	}
	return SalesRatiosFromTable(table)
}

// SalesRatiosFromTable is SalesRatios over an already decoded grid.
func SalesRatiosFromTable(table [][]string) (map[string]float64, error) {
	ratios := make(map[string]float64, len(table))
	for i, record := range table {
		desc := cell(record, 0)
		if desc == "" {
			continue
		}
		ratio, err := ParseRatio(cell(record, 1))
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, &domain.DataError{Table: TableRatios, Row: i + 1, Err: err}
		}
		ratios[desc] = ratio
	}
	return ratios, nil
}

var (
	hundred = decimal.NewFromInt(100)

	errNegativeRatio = errors.New("ratio must not be negative")
)

// ParseRatio reads "0.35", "35%" or an empty cell (zero). A bare number is
// taken as a fraction, so "35" means 35 and not 35%.
func ParseRatio(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}

	percent := strings.HasSuffix(v, "%")
	if percent {
		v = strings.TrimSpace(strings.TrimSuffix(v, "%"))
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0, fmt.Errorf("invalid ratio %q", v)
	}
	if percent {
		d = d.Div(hundred)
	}
	if d.IsNegative() {
		return 0, errNegativeRatio
	}
	return d.InexactFloat64(), nil
}

// SKUMappings decodes the SKU mapping table. Columns are positional after a
// header row: SKU id, description, color.
func SKUMappings(src Source) ([]domain.SKUMapping, error) {
	table, err := ReadTable(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", TableMappings, err)
	}
	return SKUMappingsFromTable(table)
}

// SKUMappingsFromTable is SKUMappings over an already decoded grid.
func SKUMappingsFromTable(table [][]string) ([]domain.SKUMapping, error) {
	if len(table) == 0 {
		return nil, nil
	}
	if len(table[0]) < 3 {
		return nil, &domain.SchemaError{Table: TableMappings, Column: "color"}
	}

	out := make([]domain.SKUMapping, 0, len(table)-1)
	for _, record := range table[1:] {
		if blank(record) {
			continue
		}
		out = append(out, domain.SKUMapping{
			SKUID:       cell(record, 0),
			Description: cell(record, 1),
			Color:       cell(record, 2),
		})
	}
	return out, nil
}
