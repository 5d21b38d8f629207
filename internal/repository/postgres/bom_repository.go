package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/bom"
)

// BOMSchema creates the registry table.
const BOMSchema = `
	CREATE TABLE IF NOT EXISTS bom_entries (
		description  TEXT PRIMARY KEY,
		sheet_type   TEXT NOT NULL CHECK (sheet_type IN ('fitted_sheet', 'flat_sheet')),
		sheet_size   TEXT NOT NULL,
		duvet_size   TEXT NOT NULL,
		pillow_count INTEGER NOT NULL DEFAULT 2,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

const upsertBOMQuery = `
	INSERT INTO bom_entries (description, sheet_type, sheet_size, duvet_size, pillow_count)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (description)
	DO UPDATE SET
		sheet_type = EXCLUDED.sheet_type,
		sheet_size = EXCLUDED.sheet_size,
		duvet_size = EXCLUDED.duvet_size,
		pillow_count = EXCLUDED.pillow_count,
		updated_at = NOW()
`

type BOMRepository struct {
	db *DB
}

func NewBOMRepository(db *DB) *BOMRepository {
	return &BOMRepository{db: db}
}

// List returns every entry ordered by description.
func (r *BOMRepository) List(ctx context.Context) ([]bom.Entry, error) {
	var entries []bom.Entry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT description, sheet_type, sheet_size, duvet_size, pillow_count
		FROM bom_entries
		ORDER BY description
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bom entries: %w", err)
	}
	return entries, nil
}

// Registry loads the table into an immutable registry.
func (r *BOMRepository) Registry(ctx context.Context) (*bom.StaticRegistry, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return bom.NewStatic(entries)
}

// Upsert writes entries in one transaction.
func (r *BOMRepository) Upsert(ctx context.Context, entries []bom.Entry) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return UpsertBOMEntries(ctx, tx, entries)
	})
}

// UpsertBOMEntries creates the table when missing and writes entries through
// tx.
func UpsertBOMEntries(ctx context.Context, tx *sql.Tx, entries []bom.Entry) error {
	if _, err := tx.ExecContext(ctx, BOMSchema); err != nil {
		return fmt.Errorf("failed to create bom_entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertBOMQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if err := bom.Validate(e.BOM); err != nil {
			return fmt.Errorf("bom entry %q: %w", e.Description, err)
		}
		_, err := stmt.ExecContext(ctx, e.Description, string(e.SheetType), e.SheetSize, e.DuvetSize, e.PillowCount)
		if err != nil {
			return fmt.Errorf("failed to upsert bom entry %q: %w", e.Description, err)
		}
	}
	return nil
}
