package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/app"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/bom"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/repository/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

type dbKey struct{}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func bomCommand() *cli.Command {
	return &cli.Command{
		Name:  "bom",
		Usage: "Inspect and seed the set bill of materials",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Print the catalogue of the configured source as YAML",
				Action: listBOM,
			},
			{
				Name:  "seed",
				Usage: "Upsert a catalogue file into the bom_entries table",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "file",
						Usage:   "Catalogue YAML; the built-in catalogue when empty",
						EnvVars: []string{"APP_BOM_FILE"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: seedBOM,
			},
		},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(c.Context); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey{}, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey{}).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func seedBOM(c *cli.Context) error {
	db, ok := c.Context.Value(dbKey{}).(*sql.DB)
	if !ok {
		return fmt.Errorf("database not initialized")
	}

	registry, err := bom.LoadFile(c.String("file"))
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(c.Context, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Defer a rollback in case anything fails.
	defer tx.Rollback()

	if err := postgres.UpsertBOMEntries(c.Context, tx, registry.Entries()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().Int("entries", registry.Len()).Msg("bom: catalogue seeded")
	return nil
}

type bomFile struct {
	Entries []bom.Entry `yaml:"entries"`
}

func listBOM(c *cli.Context) error {
	registry, err := app.LoadRegistry(c.Context, loadConfig())
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(bomFile{Entries: registry.Entries()})
}
