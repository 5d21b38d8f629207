package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Variant selects the export columns.
type Variant string

const (
	// Simple omits the explanation column.
	Simple   Variant = "simple"
	Detailed Variant = "detailed"
)

// Format is the export file format.
type Format string

const (
	XLSX Format = "xlsx"
	CSV  Format = "csv"
)

const sheetName = "results"

// ParseVariant accepts "simple" or "detailed"; empty means Simple.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case "", Simple:
		return Simple, nil
	case Detailed:
		return Detailed, nil
	}
	return "", fmt.Errorf("unknown export variant %q", s)
}

// ParseFormat accepts "xlsx" or "csv"; empty means XLSX.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", XLSX:
		return XLSX, nil
	case CSV:
		return CSV, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == CSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName returns the download name for v in f.
func FileName(v Variant, f Format) string {
	if v == Detailed {
		return "set_inventory_detailed." + string(f)
	}
	return "set_inventory." + string(f)
}

// Header returns the column names of v.
func Header(v Variant) []string {
	h := []string{"sku_id", "description", "color", "sellable_stock"}
	if v == Detailed {
		h = append(h, "explanation")
	}
	return h
}

func record(v Variant, r domain.AllocationResult) []string {
	rec := []string{r.SKUID, r.Description, r.Color, strconv.Itoa(r.SellableStock)}
	if v == Detailed {
		rec = append(rec, r.Explanation)
	}
	return rec
}

// Write renders results to w in the given variant and format.
func Write(w io.Writer, results []domain.AllocationResult, v Variant, f Format) error {
	if f == CSV {
		return WriteCSV(w, results, v)
	}
	return WriteXLSX(w, results, v)
}

// WriteCSV renders results as CSV with a header row.
func WriteCSV(w io.Writer, results []domain.AllocationResult, v Variant) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(v)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write(record(v, r)); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.SKUID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders results as a single-sheet workbook. Sellable stock is
// written as a number.
func WriteXLSX(w io.Writer, results []domain.AllocationResult, v Variant) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := Header(v)
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range results {
		row := []any{r.SKUID, r.Description, r.Color, r.SellableStock}
		if v == Detailed {
			row = append(row, r.Explanation)
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, addr, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
