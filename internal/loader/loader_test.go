package loader

import (
	"fmt"
	"testing"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, addr, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"comma", "a,b,c\n1,2,3\n", ','},
		{"semicolon", "a;b;c\n1;2;3\n", ';'},
		{"tab", "a\tb\n1\t2\n", '\t'},
		{"pipe", "a|b\n1|2\n", '|'},
		{"single column", "a\n1\n", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDelimiter([]byte(tt.data)))
		})
	}
}

func TestReadTable_UnsupportedExtension(t *testing.T) {
	_, err := ReadTable(Source{Name: "stock.xls", Data: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestInventory_Workbook(t *testing.T) {
	data := workbook(t, [][]any{
		{"序号", " 商品名称 ", "可用数"},
		{1, "被套200*230-米白四季款", 12},
		{2, "床笠150*200*30cm-米白四季款", 3.5},
		{3, "", 9},
		{4, "枕套（48*74cm一对）-米白四季款", nil},
	})

	rows, err := Inventory(Source{Name: "stock.xlsx", Data: data}, DefaultInventoryColumns())
	require.NoError(t, err)
	assert.Equal(t, []domain.InventoryRow{
		{Label: "被套200*230-米白四季款", Available: 12},
		{Label: "床笠150*200*30cm-米白四季款", Available: 3.5},
		{Label: "枕套（48*74cm一对）-米白四季款", Available: 0},
	}, rows)
}

func TestInventory_CSVWithCustomColumns(t *testing.T) {
	data := "\xEF\xBB\xBFName;Qty Available\n被套200*230-米白四季款;\"1,200\"\n"

	rows, err := Inventory(Source{Name: "stock.csv", Data: []byte(data)}, InventoryColumns{Label: "name", Available: "qty_available"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1200, rows[0].Available, 1e-9)
}

func TestInventory_MissingColumn(t *testing.T) {
	data := "商品名称,库存\n被套200*230-米白四季款,1\n"

	_, err := Inventory(Source{Name: "stock.csv", Data: []byte(data)}, DefaultInventoryColumns())
	require.Error(t, err)

	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "可用数", schemaErr.Column)
	assert.Contains(t, err.Error(), "可用数")
}

func TestInventory_BadCount(t *testing.T) {
	data := "商品名称,可用数\n被套200*230-米白四季款,lots\n"

	_, err := Inventory(Source{Name: "stock.csv", Data: []byte(data)}, DefaultInventoryColumns())
	var dataErr *domain.DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, 2, dataErr.Row)
}

func TestInventory_NonFiniteCounts(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "-Inf", "1e30"} {
		t.Run(v, func(t *testing.T) {
			data := "商品名称,可用数\n被套200*230-米白四季款,3\n被套200*230-米白四季款," + v + "\n"

			_, err := Inventory(Source{Name: "stock.csv", Data: []byte(data)}, DefaultInventoryColumns())
			var dataErr *domain.DataError
			require.ErrorAs(t, err, &dataErr)
			assert.Equal(t, 3, dataErr.Row)
		})
	}
}

func TestWorkbook_ReadsStoredValuesNotDisplayText(t *testing.T) {
	styled := func(t *testing.T, cells [][2]any, numFmt int) []byte {
		t.Helper()
		f := excelize.NewFile()
		defer f.Close()

		sheet := f.GetSheetName(0)
		style, err := f.NewStyle(&excelize.Style{NumFmt: numFmt})
		require.NoError(t, err)
		for i, c := range cells {
			row := i + 1
			require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("A%d", row), c[0]))
			require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("B%d", row), c[1]))
			if _, isNumber := c[1].(float64); isNumber {
				require.NoError(t, f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), style))
			}
		}
		buf, err := f.WriteToBuffer()
		require.NoError(t, err)
		return buf.Bytes()
	}

	// 0.3456 displays as "35%" under format 9.
	ratios, err := SalesRatios(Source{Name: "ratios.xlsx", Data: styled(t, [][2]any{
		{"【床单款】1.5米床套件，搭配200x230cm被套", 0.3456},
	}, 9)})
	require.NoError(t, err)
	assert.InDelta(t, 0.3456, ratios["【床单款】1.5米床套件，搭配200x230cm被套"], 1e-12)

	// 12.6 displays as "13" under format 1.
	rows, err := Inventory(Source{Name: "stock.xlsx", Data: styled(t, [][2]any{
		{"商品名称", "可用数"},
		{"被套200*230-米白四季款", 12.6},
	}, 1)}, DefaultInventoryColumns())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 12.6, rows[0].Available, 1e-12)
}

func TestParseRatio(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"0.35", 0.35, false},
		{"35%", 0.35, false},
		{" 12.5 % ", 0.125, false},
		{"", 0, false},
		{"35", 35, false},
		{"abc", 0, true},
		{"-0.1", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRatio(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestSalesRatios(t *testing.T) {
	data := workbook(t, [][]any{
		{"套件描述", "占比"},
		{" 【床单款】1.5米床套件，搭配200x230cm被套 ", "60%"},
		{"【床笠款】1.5米床套件，搭配200x230cm被套", 0.4},
		{"【床笠款】1.8米床套件，搭配220x240cm被套", nil},
	})

	ratios, err := SalesRatios(Source{Name: "ratio.xlsx", Data: data})
	require.NoError(t, err)
	assert.Len(t, ratios, 3)
	assert.InDelta(t, 0.6, ratios["【床单款】1.5米床套件，搭配200x230cm被套"], 1e-12)
	assert.InDelta(t, 0.4, ratios["【床笠款】1.5米床套件，搭配200x230cm被套"], 1e-12)
	assert.Zero(t, ratios["【床笠款】1.8米床套件，搭配220x240cm被套"])
}

func TestSalesRatios_BadRowAfterFirst(t *testing.T) {
	table := [][]string{
		{"a", "0.5"},
		{"b", "half"},
	}
	_, err := SalesRatiosFromTable(table)
	var dataErr *domain.DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, 2, dataErr.Row)
	assert.Equal(t, TableRatios, dataErr.Table)
}

func TestSKUMappings(t *testing.T) {
	data := "SKU编码,套件描述,颜色\n1001, 【床单款】1.5米床套件，搭配200x230cm被套 ,米白四季款\n,,\n1002,【床笠款】1.5米床套件，搭配200x230cm被套,丁香紫四季款\n"

	mappings, err := SKUMappings(Source{Name: "mapping.csv", Data: []byte(data)})
	require.NoError(t, err)
	assert.Equal(t, []domain.SKUMapping{
		{SKUID: "1001", Description: "【床单款】1.5米床套件，搭配200x230cm被套", Color: "米白四季款"},
		{SKUID: "1002", Description: "【床笠款】1.5米床套件，搭配200x230cm被套", Color: "丁香紫四季款"},
	}, mappings)
}

func TestSKUMappings_TooFewColumns(t *testing.T) {
	_, err := SKUMappingsFromTable([][]string{{"SKU", "desc"}, {"1", "x"}})
	var schemaErr *domain.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}
