package bom

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	r := Default()
	assert.Equal(t, 11, r.Len())

	b, ok := r.Lookup("【床笠款】1.8米床套件，搭配220x240cm被套")
	require.True(t, ok)
	assert.Equal(t, domain.BOM{
		SheetType:   domain.FittedSheet,
		SheetSize:   "180*200",
		DuvetSize:   "220*240",
		PillowCount: 2,
	}, b)

	b, ok = r.Lookup("  【床单款】2米床（200*200cm）套件，搭配220x240cm被套 ")
	require.True(t, ok)
	assert.Equal(t, domain.FlatSheet, b.SheetType)
	assert.Equal(t, "270*250", b.SheetSize)

	_, ok = r.Lookup("【床单款】3米床套件")
	assert.False(t, ok)
}

func TestNewStatic_Validation(t *testing.T) {
	good := domain.BOM{SheetType: domain.FlatSheet, SheetSize: "240*250", DuvetSize: "200*230", PillowCount: 2}

	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty description", []Entry{{Description: " ", BOM: good}}},
		{"duvet as sheet", []Entry{{Description: "a", BOM: domain.BOM{SheetType: domain.DuvetCover, SheetSize: "1*1", DuvetSize: "1*1"}}}},
		{"missing size", []Entry{{Description: "a", BOM: domain.BOM{SheetType: domain.FlatSheet, DuvetSize: "1*1"}}}},
		{"negative pillows", []Entry{{Description: "a", BOM: domain.BOM{SheetType: domain.FlatSheet, SheetSize: "1*1", DuvetSize: "1*1", PillowCount: -1}}}},
		{"duplicate", []Entry{{Description: "a", BOM: good}, {Description: "a", BOM: good}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStatic(tt.entries)
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	r, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 11, r.Len())

	path := filepath.Join(t.TempDir(), "bom.yaml")
	content := `entries:
  - description: "Queen set"
    sheet_type: fitted_sheet
    sheet_size: "160*200"
    duvet_size: "220*240"
    pillow_count: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err = LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())
	assert.Equal(t, "Queen set", r.Entries()[0].Description)
	assert.Equal(t, "160*200", r.Entries()[0].SheetSize)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
