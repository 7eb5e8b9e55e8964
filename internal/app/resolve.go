package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/juliananz/monitoreo-medios/internal/cli"
	"github.com/juliananz/monitoreo-medios/internal/geo"
	"github.com/juliananz/monitoreo-medios/internal/logging"
	"github.com/juliananz/monitoreo-medios/internal/pipeline"
)

func runResolve(args []string) int {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	limit := fs.Int("limit", 0, "Maximum items to process (0 = all pending)")
	timeout := fs.Duration("timeout", 10*time.Minute, "Overall resolution timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *limit < 0 {
		fmt.Fprintln(os.Stderr, "--limit must be >= 0")
		return 2
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Resolution failed: %v\n", err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	file, err := geo.LoadFile(cfg.KeywordsConfig)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.KeywordsConfig).Msg("keywords config load failed")
		fmt.Fprintf(os.Stderr, "Failed to load keywords config: %v\n", err)
		return 1
	}

	service := pipeline.NewService(pool, logger)
	result, err := service.ResolveEntities(ctx, file.Config(), *limit)
	if err != nil {
		logger.Error().Err(err).Msg("entity resolution run failed")
		fmt.Fprintf(os.Stderr, "Resolution failed: %v\n", err)
		return 1
	}

	fmt.Printf("ok: %d items processed, %d entities created, %d links written, %d failed\n",
		result.Processed, result.EntitiesCreated, result.LinksWritten, result.Failed)
	if result.Failed > 0 {
		return 1
	}
	return 0
}
