// Package allocation turns shared component pools into per-SKU sellable stock.
//
// Each color is allocated on its own. Within a color, SKUs that use the same
// duvet size share the duvet pool and SKUs that use the same sheet type and
// size share the sheet pool; each pool is split in proportion to the SKUs'
// sales ratios. The smaller of the two shares bounds a SKU, pillowcases then
// scale every SKU of the color down uniformly when short, and the safety
// factor is applied last with floor rounding.
package allocation

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Pools is the read side of the component inventory.
type Pools interface {
	Stock(t domain.ComponentType, color, size string) int
	Pillowcases(color string) int
}

// Engine holds the run parameters. It keeps no state between calls.
type Engine struct {
	SafetyFactor float64
	// Workers bounds how many colors are evaluated at once. Zero or less
	// evaluates colors one at a time.
	Workers int
}

// MinSafetyFactor and MaxSafetyFactor bound the accepted safety factor.
const (
	MinSafetyFactor     = 0.1
	MaxSafetyFactor     = 1.0
	DefaultSafetyFactor = 0.3
)

// NewEngine validates the safety factor.
func NewEngine(safetyFactor float64, workers int) (*Engine, error) {
	if math.IsNaN(safetyFactor) || safetyFactor < MinSafetyFactor || safetyFactor > MaxSafetyFactor {
		return nil, fmt.Errorf("%w: got %v", domain.ErrInvalidSafetyFactor, safetyFactor)
	}
	return &Engine{SafetyFactor: safetyFactor, Workers: workers}, nil
}

type poolKey struct {
	t    domain.ComponentType
	size string
}

type draft struct {
	demand     domain.Demand
	zero       bool
	duvetStock int
	duvetPool  float64
	duvetAlloc float64
	sheetStock int
	sheetPool  float64
	sheetAlloc float64
	theory     float64
}

// AllocateColor computes one result per demand of a single color, in demand
// order.
func (e *Engine) AllocateColor(g ColorGroup, pools Pools) []domain.AllocationResult {
	if len(g.Demands) == 0 {
		return nil
	}

	poolRatio := make(map[poolKey]float64)
	for _, d := range g.Demands {
		poolRatio[poolKey{domain.DuvetCover, d.BOM.DuvetSize}] += d.Ratio
		poolRatio[poolKey{d.BOM.SheetType, d.BOM.SheetSize}] += d.Ratio
	}

	drafts := make([]draft, len(g.Demands))
	var total float64
	for i, d := range g.Demands {
		if d.Ratio <= 0 {
			drafts[i] = draft{demand: d, zero: true}
			continue
		}

		dr := draft{demand: d}
		dr.duvetStock = pools.Stock(domain.DuvetCover, g.Color, d.BOM.DuvetSize)
		dr.duvetPool = poolRatio[poolKey{domain.DuvetCover, d.BOM.DuvetSize}]
		dr.duvetAlloc = share(dr.duvetStock, d.Ratio, dr.duvetPool)

		dr.sheetStock = pools.Stock(d.BOM.SheetType, g.Color, d.BOM.SheetSize)
		dr.sheetPool = poolRatio[poolKey{d.BOM.SheetType, d.BOM.SheetSize}]
		dr.sheetAlloc = share(dr.sheetStock, d.Ratio, dr.sheetPool)

		dr.theory = math.Min(dr.duvetAlloc, dr.sheetAlloc)
		total += dr.theory
		drafts[i] = dr
	}

	pillows := pools.Pillowcases(g.Color)
	sufficient := float64(pillows) >= total
	scale := 1.0
	if total > 0 {
		scale = float64(pillows) / total
	}

	results := make([]domain.AllocationResult, len(drafts))
	for i, dr := range drafts {
		res := domain.AllocationResult{
			SKUID:       dr.demand.SKUID,
			Description: dr.demand.Description,
			Color:       g.Color,
		}
		if dr.zero {
			res.Explanation = "ratio is 0"
			results[i] = res
			continue
		}

		theory := dr.theory
		if !sufficient {
			theory *= scale
		}
		res.SellableStock = int(math.Floor(theory * e.SafetyFactor))
		res.Explanation = e.explain(dr, theory, res.SellableStock, pillows, total, sufficient, scale)
		results[i] = res
	}
	return results
}

// Allocate evaluates every color group and returns the results concatenated
// in group order, regardless of how many workers ran.
func (e *Engine) Allocate(ctx context.Context, groups []ColorGroup, pools Pools) ([]domain.AllocationResult, error) {
	perColor := make([][]domain.AllocationResult, len(groups))

	g, ctx := errgroup.WithContext(ctx)
	workers := e.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, group := range groups {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perColor[i] = e.AllocateColor(group, pools)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("allocate colors: %w", err)
	}

	var out []domain.AllocationResult
	for _, rs := range perColor {
		out = append(out, rs...)
	}
	return out, nil
}

func share(stock int, ratio, pool float64) float64 {
	if pool <= 0 {
		return 0
	}
	return float64(stock) * (ratio / pool)
}

func (e *Engine) explain(dr draft, theory float64, final, pillows int, total float64, sufficient bool, scale float64) string {
	b := dr.demand.BOM
	pillowNote := fmt.Sprintf("pillowcases sufficient (%d sets)", pillows)
	if !sufficient {
		pillowNote = fmt.Sprintf("pillowcases short (%d sets < %.0f demanded, scaled to %.2f%%)", pillows, total, scale*100)
	}
	return fmt.Sprintf("%s %s: %d*%.4f/%.4f=%.1f, %s %s: %d*%.4f/%.4f=%.1f, %s, bottleneck: %.1f*%s=%d",
		domain.DuvetCover, b.DuvetSize, dr.duvetStock, dr.demand.Ratio, dr.duvetPool, dr.duvetAlloc,
		b.SheetType, b.SheetSize, dr.sheetStock, dr.demand.Ratio, dr.sheetPool, dr.sheetAlloc,
		pillowNote,
		theory, strconv.FormatFloat(e.SafetyFactor, 'f', -1, 64), final,
	)
}
