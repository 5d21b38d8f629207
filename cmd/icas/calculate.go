package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/app"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/config"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/loader"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/report"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const sourceLocal = "local"

func calculateCommand() *cli.Command {
	return &cli.Command{
		Name:  "calculate",
		Usage: "Compute sellable stock per set SKU from the three input tables",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Usage: "Where the input files live: local, s3 or drive",
				Value: sourceLocal,
			},
			&cli.StringFlag{
				Name:     "inventory",
				Usage:    "Inventory export (path, object key or Drive file name)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "ratios",
				Usage:    "Sales ratio table",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "mappings",
				Usage:    "SKU mapping table",
				Required: true,
			},
			&cli.Float64Flag{
				Name:    "safety-factor",
				Usage:   "Share of the theoretical stock to offer, between 0.1 and 1.0",
				Value:   0.3,
				EnvVars: []string{"APP_SAFETY_FACTOR"},
			},
			&cli.StringFlag{
				Name:    "colors",
				Usage:   "Comma separated active colors; defaults to the configured list",
				EnvVars: []string{"APP_ACTIVE_COLORS"},
			},
			&cli.StringFlag{
				Name:  "color",
				Usage: "Only print or export results of this color",
			},
			&cli.BoolFlag{
				Name:  "hide-zero",
				Usage: "Leave out SKUs with no sellable stock",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Write the result table to this file; the extension picks xlsx or csv",
			},
			&cli.StringFlag{
				Name:  "variant",
				Usage: "Export columns: simple or detailed",
				Value: string(report.Simple),
			},
			&cli.StringFlag{
				Name:  "upload",
				Usage: "Also upload the exported file to object storage under this key",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the full calculation as JSON instead of a table",
			},
		},
		Action: runCalculate,
	}
}

func runCalculate(c *cli.Context) error {
	ctx := c.Context
	cfg := loadConfig()

	components, err := app.Build(ctx, cfg, nil)
	if err != nil {
		return err
	}

	params := runParams(c, cfg)
	calc, err := calculate(ctx, c, components.Service, params)
	if err != nil {
		return err
	}

	filter := report.Filter{Color: c.String("color"), HideZero: c.Bool("hide-zero")}
	results := filter.Apply(calc.Results)

	if c.Bool("json") {
		filtered := *calc
		filtered.Results = results
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(filtered); err != nil {
			return err
		}
	} else {
		printCalculation(c.App.Writer, calc, results)
	}

	output, upload := c.String("output"), c.String("upload")
	if output == "" && upload == "" {
		return nil
	}

	variant, err := report.ParseVariant(c.String("variant"))
	if err != nil {
		return err
	}
	target := output
	if target == "" {
		target = upload
	}
	format, err := report.ParseFormat(formatFromPath(target))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, results, variant, format); err != nil {
		return err
	}

	if output != "" {
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		log.Info().Str("path", output).Int("rows", len(results)).Msg("calculate: export written")
	}

	if upload != "" {
		if components.Storage == nil {
			return fmt.Errorf("--upload needs STORAGE_BUCKET and credentials to be configured")
		}
		if err := components.Storage.UploadObject(ctx, upload, buf.Bytes(), format.ContentType()); err != nil {
			return err
		}
		log.Info().Str("key", upload).Msg("calculate: export uploaded")
	}
	return nil
}

func calculate(ctx context.Context, c *cli.Context, svc *service.CalculationService, params service.Params) (*service.Calculation, error) {
	source := c.String("source")
	if source != sourceLocal {
		return svc.CalculateRemote(ctx, source, service.RemoteInputs{
			Inventory: c.String("inventory"),
			Ratios:    c.String("ratios"),
			Mappings:  c.String("mappings"),
		}, params)
	}

	var in service.Inputs
	for _, f := range []struct {
		path string
		dst  *loader.Source
	}{
		{c.String("inventory"), &in.Inventory},
		{c.String("ratios"), &in.Ratios},
		{c.String("mappings"), &in.Mappings},
	} {
		src, err := readLocal(f.path)
		if err != nil {
			return nil, err
		}
		*f.dst = src
	}
	return svc.Calculate(ctx, in, params)
}

// runParams prefers explicit flags and falls back to the loaded config.
func runParams(c *cli.Context, cfg *config.Config) service.Params {
	params := service.Params{
		SafetyFactor: cfg.App.SafetyFactor,
		ActiveColors: cfg.App.ActiveColors,
	}
	if c.IsSet("safety-factor") {
		params.SafetyFactor = c.Float64("safety-factor")
	}
	if colors := config.SplitList(c.String("colors")); len(colors) > 0 {
		params.ActiveColors = colors
	}
	return params
}

func readLocal(path string) (loader.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return loader.Source{}, fmt.Errorf("read %s: %w", path, err)
	}
	return loader.Source{Name: filepath.Base(path), Data: data}, nil
}

func formatFromPath(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return ext[1:]
}

func printCalculation(w io.Writer, calc *service.Calculation, results []domain.AllocationResult) {
	s := calc.Summary
	fmt.Fprintf(w, "SKUs: %d  in stock: %d  zero stock: %d  sellable sets: %d  (safety factor %g)\n\n",
		s.TotalSKUs, s.InStockSKUs, s.ZeroStockSKUs, s.TotalSets, calc.SafetyFactor)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLOR\tSKUS\tSETS")
	for _, c := range s.ByColor {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", c.Color, c.SKUCount, c.Sets)
	}
	tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SKU_ID\tCOLOR\tSELLABLE\tDESCRIPTION")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.SKUID, r.Color, r.SellableStock, r.Description)
	}
	tw.Flush()
}
