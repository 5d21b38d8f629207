package main

import (
	"os"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/config"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/pkg/logger"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("icas failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "icas",
		Usage: "Inventory calculator for assembled bedding sets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			log.Logger = logger.Log
			return nil
		},
		Commands: []*cli.Command{
			calculateCommand(),
			bomCommand(),
			{
				Name:  "cache",
				Usage: "Manage the decoded table cache",
				Subcommands: []*cli.Command{
					{
						Name:   "clear",
						Usage:  "Drop every memoized input table",
						Action: clearCache,
					},
				},
			},
		},
	}
}

func loadConfig() *config.Config {
	return config.Load()
}
