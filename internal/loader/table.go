// Package loader decodes the three input tables from spreadsheet files.
package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Source is an input file held in memory. Name only selects the decoder.
type Source struct {
	Name string
	Data []byte
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadTable returns the raw cell grid of src: the first sheet of a workbook,
// or every record of a CSV file.
func ReadTable(src Source) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(src.Name)); ext {
	case ".xlsx", ".xlsm":
		return readWorkbook(src.Data)
	case ".csv", ".txt":
		return readCSV(src.Data)
	default:
		return nil, fmt.Errorf("%w %q for %s", domain.ErrUnsupportedFormat, ext, src.Name)
	}
}

func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = DetectDelimiter(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

// DetectDelimiter picks the candidate delimiter that yields the most rows
// with the same multi-column width as the first row.
func DetectDelimiter(data []byte) rune {
	best, bestScore := ',', 0
	for _, delim := range []rune{',', ';', '\t', '|'} {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) == 0 || len(records[0]) < 2 {
			continue
		}

		width := len(records[0])
		consistent := 0
		for _, r := range records {
			if len(r) == width {
				consistent++
			}
		}
		if score := consistent*10 + width; score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "", "　", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

func colIndex(header []string, name string) int {
	want := normalizeColumnName(name)
	for i, h := range header {
		if normalizeColumnName(h) == want {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
