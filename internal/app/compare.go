package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/juliananz/monitoreo-medios/internal/cli"
	"github.com/juliananz/monitoreo-medios/internal/logging"
	"github.com/juliananz/monitoreo-medios/internal/trends"
)

func runCompare(args []string) int {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	days := fs.Int("days", 7, "Length of each compared period in days")
	format := fs.String("format", outputFormatTable, "Output format: table or json")
	timeout := fs.Duration("timeout", 30*time.Second, "Query timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *days <= 0 {
		fmt.Fprintln(os.Stderr, "--days must be positive")
		return 2
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Comparison failed: %v\n", err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	service := trends.NewService(pool, logger)
	comparison, err := service.CompareWithPrevious(ctx, *days)
	if err != nil {
		logger.Error().Err(err).Int("days", *days).Msg("period comparison failed")
		fmt.Fprintf(os.Stderr, "Comparison failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(comparison); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
			return 1
		}
		return 0
	}

	rows := [][]string{
		{
			"items",
			formatInt64(comparison.Current.Items),
			formatInt64(comparison.Previous.Items),
			formatPct(comparison.PctChange.Items),
		},
		{
			"relevant",
			formatInt64(comparison.Current.Relevant),
			formatInt64(comparison.Previous.Relevant),
			formatPct(comparison.PctChange.Relevant),
		},
		{
			"risk",
			formatInt64(comparison.Current.Risk),
			formatInt64(comparison.Previous.Risk),
			formatPct(comparison.PctChange.Risk),
		},
		{
			"opportunity",
			formatInt64(comparison.Current.Opportunity),
			formatInt64(comparison.Previous.Opportunity),
			formatPct(comparison.PctChange.Opportunity),
		},
	}

	fmt.Printf("current:  %s .. %s\n", formatUTCDate(comparison.Current.From), formatUTCDate(comparison.Current.To))
	fmt.Printf("previous: %s .. %s\n\n", formatUTCDate(comparison.Previous.From), formatUTCDate(comparison.Previous.To))
	if err := writeTable([]string{"METRIC", "CURRENT", "PREVIOUS", "CHANGE"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}
