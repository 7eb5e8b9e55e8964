package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/juliananz/monitoreo-medios/internal/cli"
	"github.com/juliananz/monitoreo-medios/internal/db"
	"github.com/juliananz/monitoreo-medios/internal/logging"
	"github.com/juliananz/monitoreo-medios/internal/trends"
)

func runTrends(args []string) int {
	fs := flag.NewFlagSet("trends", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	days := fs.Int("days", 30, "Trailing window in days")
	view := fs.String("view", "daily", "Trend dimension: daily, topics, regions or sources")
	top := fs.Int("top", 0, "Also show daily points for the top-N entities")
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
	trendView := strings.TrimSpace(strings.ToLower(*view))
	switch trendView {
	case "daily", "topics", "regions", "sources":
	default:
		fmt.Fprintln(os.Stderr, "--view must be daily, topics, regions or sources")
		return 2
	}
	if *days <= 0 {
		fmt.Fprintln(os.Stderr, "--days must be positive")
		return 2
	}
	if *top < 0 {
		fmt.Fprintln(os.Stderr, "--top must be >= 0")
		return 2
	}
	if *top > 0 && trendView != "daily" {
		fmt.Fprintln(os.Stderr, "--top only applies to the daily view")
		return 2
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Trend query failed: %v\n", err)
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

	switch trendView {
	case "topics":
		points, err := service.Topics(ctx, *days)
		if err != nil {
			logger.Error().Err(err).Int("days", *days).Msg("topic trend query failed")
			fmt.Fprintf(os.Stderr, "Trend query failed: %v\n", err)
			return 1
		}
		return printTrendView(outputFormat, points, printTopicTable)
	case "regions":
		points, err := service.Regions(ctx, *days)
		if err != nil {
			logger.Error().Err(err).Int("days", *days).Msg("region trend query failed")
			fmt.Fprintf(os.Stderr, "Trend query failed: %v\n", err)
			return 1
		}
		return printTrendView(outputFormat, points, printRegionTable)
	case "sources":
		points, err := service.Sources(ctx, *days)
		if err != nil {
			logger.Error().Err(err).Int("days", *days).Msg("source trend query failed")
			fmt.Fprintf(os.Stderr, "Trend query failed: %v\n", err)
			return 1
		}
		return printTrendView(outputFormat, points, printSourceTable)
	}

	points, err := service.Daily(ctx, *days)
	if err != nil {
		logger.Error().Err(err).Int("days", *days).Msg("daily trend query failed")
		fmt.Fprintf(os.Stderr, "Trend query failed: %v\n", err)
		return 1
	}

	if *top > 0 {
		entityPoints, err := service.TopEntities(ctx, *days, *top)
		if err != nil {
			logger.Error().Err(err).Int("top", *top).Msg("entity trend query failed")
			fmt.Fprintf(os.Stderr, "Entity trend query failed: %v\n", err)
			return 1
		}
		if outputFormat == outputFormatJSON {
			if err := printJSON(map[string]any{"daily": points, "entities": entityPoints}); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
				return 1
			}
			return 0
		}
		if err := printDailyTable(points); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
			return 1
		}
		fmt.Println()
		if err := printEntityTable(entityPoints); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
			return 1
		}
		return 0
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(points); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
			return 1
		}
		return 0
	}
	if err := printDailyTable(points); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}

func printTrendView[T any](outputFormat string, points []T, printTable func([]T) error) int {
	if outputFormat == outputFormatJSON {
		if err := printJSON(points); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
			return 1
		}
		return 0
	}
	if err := printTable(points); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}

func printDailyTable(points []db.DailyPoint) error {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			formatUTCDate(p.Day),
			formatInt64(p.TotalItems),
			formatInt64(p.TotalRelevant),
			formatInt64(p.TotalRisk),
			formatInt64(p.TotalOpportunity),
			formatInt64(p.TotalMixed),
			formatInt64(p.ActiveSources),
			formatInt64(p.NeedsDeepAnalysis),
		})
	}
	return writeTable(
		[]string{"DAY", "ITEMS", "RELEVANT", "RISK", "OPPORTUNITY", "MIXED", "SOURCES", "DEEP"},
		rows,
	)
}

func printTopicTable(points []db.TopicTrendPoint) error {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			formatUTCDate(p.Day),
			p.Topic,
			formatInt64(p.TotalItems),
			formatInt64(p.TotalRisk),
			formatInt64(p.TotalOpportunity),
			formatFloat1(p.AvgScore),
		})
	}
	return writeTable(
		[]string{"DAY", "TOPIC", "ITEMS", "RISK", "OPPORTUNITY", "AVG SCORE"},
		rows,
	)
}

func printRegionTable(points []db.RegionTrendPoint) error {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			formatUTCDate(p.Day),
			p.Region,
			p.GeoLevel,
			formatInt64(p.TotalItems),
			formatInt64(p.TotalRisk),
			formatInt64(p.TotalOpportunity),
		})
	}
	return writeTable(
		[]string{"DAY", "REGION", "LEVEL", "ITEMS", "RISK", "OPPORTUNITY"},
		rows,
	)
}

func printSourceTable(points []db.SourceTrendPoint) error {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			formatUTCDate(p.Day),
			p.Source,
			formatInt64(p.TotalItems),
			formatInt64(p.TotalRelevant),
			formatInt64(p.TotalRisk),
			formatInt64(p.TotalOpportunity),
		})
	}
	return writeTable(
		[]string{"DAY", "SOURCE", "ITEMS", "RELEVANT", "RISK", "OPPORTUNITY"},
		rows,
	)
}

func printEntityTable(points []db.EntityTrendPoint) error {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			formatUTCDate(p.Day),
			p.CanonicalName,
			p.Kind,
			formatInt64(p.Mentions),
			formatInt64(p.RiskItems),
			formatInt64(p.OpportunityItems),
			formatInt64(p.TotalFrequency),
		})
	}
	return writeTable(
		[]string{"DAY", "ENTITY", "KIND", "MENTIONS", "RISK", "OPPORTUNITY", "FREQUENCY"},
		rows,
	)
}
