// Package app assembles the calculation service from configuration. Both the
// HTTP server and the CLI build their dependencies here.
package app

import (
	"context"
	"fmt"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/bom"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/cache"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/config"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/drive"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/loader"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/metrics"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/parser"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/repository/postgres"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/service"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/storage"
	"github.com/rs/zerolog/log"
)

// Remote source names accepted by CalculateRemote.
const (
	SourceS3    = "s3"
	SourceDrive = "drive"
)

// Components are the long-lived dependencies built from config.
type Components struct {
	Service  *service.CalculationService
	Defaults service.Params
	Storage  *storage.MinioClient
	Drive    *drive.Service
}

// Build wires the service. Object storage and Drive are optional and only
// set up when configured.
func Build(ctx context.Context, cfg *config.Config, collector *metrics.Collector) (*Components, error) {
	p, err := parser.FromFile(cfg.App.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load label rules: %w", err)
	}

	registry, err := LoadRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tables, err := cache.NewTableCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("init table cache: %w", err)
	}

	c := &Components{
		Defaults: service.Params{
			SafetyFactor: cfg.App.SafetyFactor,
			ActiveColors: cfg.App.ActiveColors,
		},
	}
	fetchers := make(map[string]service.Fetcher)

	if cfg.Storage.Bucket != "" {
		c.Storage, err = storage.NewMinioClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		fetchers[SourceS3] = storage.NewFetcher(c.Storage)
	}

	if cfg.Drive.CredentialsFile != "" {
		c.Drive, err = drive.NewServiceFromFile(ctx, cfg.Drive.CredentialsFile)
		if err != nil {
			return nil, err
		}
		fetchers[SourceDrive] = drive.NewDownloader(c.Drive, cfg.Drive.FolderID)
	}

	c.Service = service.NewCalculationService(service.Options{
		Parser:   p,
		Registry: registry,
		Cache:    tables,
		Metrics:  collector,
		Columns: loader.InventoryColumns{
			Label:     cfg.App.LabelColumn,
			Available: cfg.App.AvailableColumn,
		},
		Workers:  cfg.App.Workers,
		Fetchers: fetchers,
	})

	log.Info().
		Str("bom_source", cfg.App.BOMSource).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Int("remote_sources", len(fetchers)).
		Msg("app: calculation service ready")

	return c, nil
}

// LoadRegistry reads the BOM catalogue from the configured source.
func LoadRegistry(ctx context.Context, cfg *config.Config) (*bom.StaticRegistry, error) {
	switch cfg.App.BOMSource {
	case config.BOMSourcePostgres:
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect bom database: %w", err)
		}
		registry, err := postgres.NewBOMRepository(db).Registry(ctx)
		if err != nil {
			return nil, err
		}
		log.Info().Int("entries", registry.Len()).Msg("app: bom registry loaded from postgres")
		return registry, nil
	case "", config.BOMSourceFile:
		registry, err := bom.LoadFile(cfg.App.BOMFile)
		if err != nil {
			return nil, err
		}
		return registry, nil
	default:
		return nil, fmt.Errorf("unknown bom source %q", cfg.App.BOMSource)
	}
}
