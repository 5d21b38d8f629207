package main

import (
	"fmt"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/cache"
	"github.com/urfave/cli/v2"
)

func clearCache(c *cli.Context) error {
	cfg := loadConfig()
	tables, err := cache.NewTableCache(cfg.Cache)
	if err != nil {
		return err
	}
	if err := tables.InvalidateAll(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "cleared %s table cache\n", cfg.Cache.Backend)
	return nil
}
