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
)

func runSeed(args []string) int {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	keywordsPath := fs.String("keywords", "", "Path to the keywords YAML (defaults to KEYWORDS_CONFIG)")
	timeout := fs.Duration("timeout", 30*time.Second, "Overall seed timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	path := *keywordsPath
	if path == "" {
		path = cfg.KeywordsConfig
	}

	file, err := geo.LoadFile(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("keywords config load failed")
		fmt.Fprintf(os.Stderr, "Failed to load keywords config: %v\n", err)
		return 1
	}

	result, err := pool.SeedReferenceData(ctx, file)
	if err != nil {
		logger.Error().Err(err).Msg("seeding reference data failed")
		fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
		return 1
	}

	logger.Info().
		Str("path", path).
		Int("topics", result.Topics).
		Int("regions", result.Regions).
		Int("key_entities", result.KeyEntities).
		Int("aliases", result.Aliases).
		Msg("reference data seeded")
	fmt.Printf("ok: %d topics, %d regions, %d key entities, %d aliases\n",
		result.Topics, result.Regions, result.KeyEntities, result.Aliases)
	return 0
}
