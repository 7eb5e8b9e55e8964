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

func runWeekly(args []string) int {
	fs := flag.NewFlagSet("weekly", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	weeks := fs.Int("weeks", 12, "Trailing window in ISO weeks")
	byTopic := fs.Bool("topics", false, "Roll up per topic instead of globally")
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
	if *weeks <= 0 {
		fmt.Fprintln(os.Stderr, "--weeks must be positive")
		return 2
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Weekly rollup failed: %v\n", err)
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

	if *byTopic {
		summaries, err := service.TopicWeekly(ctx, *weeks)
		if err != nil {
			logger.Error().Err(err).Int("weeks", *weeks).Msg("weekly topic rollup failed")
			fmt.Fprintf(os.Stderr, "Weekly rollup failed: %v\n", err)
			return 1
		}
		if outputFormat == outputFormatJSON {
			if err := printJSON(summaries); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
				return 1
			}
			return 0
		}
		rows := make([][]string, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, []string{
				s.Label,
				s.Topic,
				formatInt64(s.TotalItems),
				formatInt64(s.TotalRisk),
				formatInt64(s.TotalOpportunity),
			})
		}
		if err := writeTable(
			[]string{"WEEK", "TOPIC", "ITEMS", "RISK", "OPPORTUNITY"},
			rows,
		); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
			return 1
		}
		return 0
	}

	summaries, err := service.Weekly(ctx, *weeks)
	if err != nil {
		logger.Error().Err(err).Int("weeks", *weeks).Msg("weekly rollup failed")
		fmt.Fprintf(os.Stderr, "Weekly rollup failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(summaries); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Label,
			formatInt64(s.TotalItems),
			formatInt64(s.TotalRelevant),
			formatInt64(s.TotalRisk),
			formatInt64(s.TotalOpportunity),
			formatInt64(s.TotalMixed),
			formatFloat1(s.AvgActiveSources),
		})
	}
	if err := writeTable(
		[]string{"WEEK", "ITEMS", "RELEVANT", "RISK", "OPPORTUNITY", "MIXED", "AVG SOURCES"},
		rows,
	); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}
