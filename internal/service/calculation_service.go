package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/allocation"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/bom"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/cache"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/inventory"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/loader"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/metrics"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/parser"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/report"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Fetcher resolves a remote reference to an input file.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (loader.Source, error)
}

// Inputs are the three files of one run.
type Inputs struct {
	Inventory loader.Source
	Ratios    loader.Source
	Mappings  loader.Source
}

// RemoteInputs names the three files in a remote source.
type RemoteInputs struct {
	Inventory string `json:"inventory" binding:"required"`
	Ratios    string `json:"ratios" binding:"required"`
	Mappings  string `json:"mappings" binding:"required"`
}

// Params are the user-tunable knobs of a run.
type Params struct {
	SafetyFactor float64  `json:"safety_factor"`
	ActiveColors []string `json:"active_colors"`
}

// Calculation is the full outcome of one run.
type Calculation struct {
	SafetyFactor float64                   `json:"safety_factor"`
	ActiveColors []string                  `json:"active_colors"`
	Summary      report.Summary            `json:"summary"`
	Results      []domain.AllocationResult `json:"results"`
	Components   []report.ComponentGroup   `json:"components"`
}

type Options struct {
	Parser   *parser.Parser
	Registry bom.Registry
	Cache    cache.TableCache
	Metrics  *metrics.Collector
	Columns  loader.InventoryColumns
	Workers  int
	// Fetchers maps a source name such as "s3" or "drive" to its fetcher.
	Fetchers map[string]Fetcher
}

type CalculationService struct {
	parser   *parser.Parser
	registry bom.Registry
	cache    cache.TableCache
	metrics  *metrics.Collector
	columns  loader.InventoryColumns
	workers  int
	fetchers map[string]Fetcher
}

func NewCalculationService(opts Options) *CalculationService {
	if opts.Parser == nil {
		opts.Parser = parser.Default()
	}
	if opts.Registry == nil {
		opts.Registry = bom.Default()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNoopTableCache()
	}
	if opts.Columns.Label == "" || opts.Columns.Available == "" {
		opts.Columns = loader.DefaultInventoryColumns()
	}
	return &CalculationService{
		parser:   opts.Parser,
		registry: opts.Registry,
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		columns:  opts.Columns,
		workers:  opts.Workers,
		fetchers: opts.Fetchers,
	}
}

// Sources lists the configured remote source names.
func (s *CalculationService) Sources() []string {
	out := make([]string, 0, len(s.fetchers))
	for name := range s.fetchers {
		out = append(out, name)
	}
	return out
}

// NormalizeParams trims and deduplicates colors and checks both knobs.
func NormalizeParams(p Params) (Params, error) {
	if math.IsNaN(p.SafetyFactor) || p.SafetyFactor < allocation.MinSafetyFactor || p.SafetyFactor > allocation.MaxSafetyFactor {
		return p, fmt.Errorf("%w: got %v", domain.ErrInvalidSafetyFactor, p.SafetyFactor)
	}

	seen := make(map[string]struct{}, len(p.ActiveColors))
	colors := make([]string, 0, len(p.ActiveColors))
	for _, c := range p.ActiveColors {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		colors = append(colors, c)
	}
	if len(colors) == 0 {
		return p, domain.ErrNoActiveColors
	}
	p.ActiveColors = colors
	return p, nil
}

// Calculate decodes the inputs, aggregates the component pools and runs the
// allocation for every active color.
func (s *CalculationService) Calculate(ctx context.Context, in Inputs, p Params) (calc *Calculation, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
			if domain.IsInvalidInput(err) {
				outcome = metrics.OutcomeInvalid
			}
		}
		s.metrics.ObserveCalculation(outcome, time.Since(start))
	}()

	p, err = NormalizeParams(p)
	if err != nil {
		return nil, err
	}

	engine, err := allocation.NewEngine(p.SafetyFactor, s.workers)
	if err != nil {
		return nil, err
	}

	var (
		rows     []domain.InventoryRow
		ratios   map[string]float64
		mappings []domain.SKUMapping
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = loadTable(gctx, s, loader.TableInventory, in.Inventory,
			[]string{s.columns.Label, s.columns.Available},
			func(src loader.Source) ([]domain.InventoryRow, error) { return loader.Inventory(src, s.columns) })
		return err
	})
	g.Go(func() error {
		var err error
		ratios, err = loadTable(gctx, s, loader.TableRatios, in.Ratios, nil, loader.SalesRatios)
		return err
	})
	g.Go(func() error {
		var err error
		mappings, err = loadTable(gctx, s, loader.TableMappings, in.Mappings, nil, loader.SKUMappings)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inv := inventory.Aggregate(rows, s.parser)
	groups := allocation.BuildDemands(mappings, ratios, s.registry, p.ActiveColors)

	results, err := engine.Allocate(ctx, groups, inv)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.AllocationResult{}
	}

	summary := report.Summarize(results)
	byColor := make(map[string]int, len(summary.ByColor))
	for _, c := range summary.ByColor {
		byColor[c.Color] = c.Sets
	}
	s.metrics.SetSellableSets(byColor)

	log.Info().
		Int("inventory_rows", len(rows)).
		Int("component_keys", inv.Len()).
		Int("colors", len(groups)).
		Int("skus", summary.TotalSKUs).
		Int("sets", summary.TotalSets).
		Dur("elapsed", time.Since(start)).
		Msg("calculation: completed")

	return &Calculation{
		SafetyFactor: p.SafetyFactor,
		ActiveColors: p.ActiveColors,
		Summary:      summary,
		Results:      results,
		Components:   report.ComponentOverview(inv, p.ActiveColors),
	}, nil
}

// CalculateRemote fetches the three files from a named source concurrently
// and calculates.
func (s *CalculationService) CalculateRemote(ctx context.Context, source string, refs RemoteInputs, p Params) (*Calculation, error) {
	f, ok := s.fetchers[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSource, source)
	}

	var in Inputs
	g, gctx := errgroup.WithContext(ctx)
	for _, item := range []struct {
		ref string
		dst *loader.Source
	}{
		{refs.Inventory, &in.Inventory},
		{refs.Ratios, &in.Ratios},
		{refs.Mappings, &in.Mappings},
	} {
		g.Go(func() error {
			src, err := f.Fetch(gctx, item.ref)
			if err != nil {
				return fmt.Errorf("fetch %s from %s: %w", item.ref, source, err)
			}
			*item.dst = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.Calculate(ctx, in, p)
}

// ClearCache drops every memoized table.
func (s *CalculationService) ClearCache(ctx context.Context) error {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("clear table cache: %w", err)
	}
	log.Info().Msg("calculation: table cache cleared")
	return nil
}

func loadTable[T any](ctx context.Context, s *CalculationService, table string, src loader.Source, params []string, decode func(loader.Source) (T, error)) (T, error) {
	key := cache.Key(table, src.Data, append([]string{src.Name}, params...)...)

	var cached T
	if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
		s.metrics.ObserveCacheLookup(table, true)
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Str("table", table).Msg("calculation: cache get failed")
	}
	s.metrics.ObserveCacheLookup(table, false)

	value, err := decode(src)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := s.cache.Set(ctx, key, value); err != nil {
		log.Warn().Err(err).Str("table", table).Msg("calculation: cache set failed")
	}
	return value, nil
}
