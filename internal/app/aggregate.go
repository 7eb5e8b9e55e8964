package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/juliananz/monitoreo-medios/internal/aggregate"
	"github.com/juliananz/monitoreo-medios/internal/cli"
	"github.com/juliananz/monitoreo-medios/internal/logging"
)

func runAggregate(args []string) int {
	fs := flag.NewFlagSet("aggregate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	dateRaw := fs.String("date", "", "Aggregate a single date (YYYY-MM-DD)")
	backfill := fs.Bool("backfill", false, "Recompute every date that has items")
	fromRaw := fs.String("from", "", "Backfill start date (YYYY-MM-DD, inclusive)")
	toRaw := fs.String("to", "", "Backfill end date (YYYY-MM-DD, inclusive)")
	timeout := fs.Duration("timeout", 30*time.Minute, "Overall aggregation timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if (*dateRaw != "") == *backfill {
		fmt.Fprintln(os.Stderr, "aggregate requires exactly one of --date or --backfill")
		return 2
	}
	if *dateRaw != "" && (*fromRaw != "" || *toRaw != "") {
		fmt.Fprintln(os.Stderr, "--from/--to only apply with --backfill")
		return 2
	}

	var day time.Time
	var from, to *time.Time
	var err error
	if *dateRaw != "" {
		day, err = parseUTCDate(*dateRaw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --date: %v\n", err)
			return 2
		}
	}
	if *fromRaw != "" {
		parsed, err := parseUTCDate(*fromRaw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --from: %v\n", err)
			return 2
		}
		from = &parsed
	}
	if *toRaw != "" {
		parsed, err := parseUTCDate(*toRaw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --to: %v\n", err)
			return 2
		}
		to = &parsed
	}
	if from != nil && to != nil && to.Before(*from) {
		fmt.Fprintln(os.Stderr, "--from must be <= --to")
		return 2
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Aggregation failed: %v\n", err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	service := aggregate.NewService(pool, logger)

	if *backfill {
		count, err := service.Backfill(ctx, from, to)
		if err != nil {
			logger.Error().Err(err).Msg("backfill failed")
			fmt.Fprintf(os.Stderr, "Backfill failed: %v\n", err)
			return 1
		}
		fmt.Printf("ok: %d dates aggregated\n", count)
		return 0
	}

	if err := service.AggregateDay(ctx, day); err != nil {
		logger.Error().Err(err).Str("date", formatUTCDate(day)).Msg("daily aggregation failed")
		fmt.Fprintf(os.Stderr, "Aggregation failed: %v\n", err)
		return 1
	}
	fmt.Printf("ok: aggregated %s\n", formatUTCDate(day))
	return 0
}
