package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/juliananz/monitoreo-medios/internal/cli"
	"github.com/juliananz/monitoreo-medios/internal/logging"
	"github.com/juliananz/monitoreo-medios/internal/trends"
)

func runAnomalies(args []string) int {
	fs := flag.NewFlagSet("anomalies", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	days := fs.Int("days", 30, "Trailing window in days")
	sigma := fs.Float64("sigma", 2.0, "Standard-deviation threshold")
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
	if *sigma <= 0 {
		fmt.Fprintln(os.Stderr, "--sigma must be positive")
		return 2
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Anomaly scan failed: %v\n", err)
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
	anomalies, err := service.Anomalies(ctx, *days, *sigma)
	if err != nil {
		logger.Error().Err(err).Int("days", *days).Msg("anomaly scan failed")
		fmt.Fprintf(os.Stderr, "Anomaly scan failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(anomalies); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
			return 1
		}
		return 0
	}

	if len(anomalies) == 0 {
		fmt.Printf("no anomalies in the last %d days at %.2f sigma\n", *days, *sigma)
		return 0
	}

	rows := make([][]string, 0, len(anomalies))
	for _, a := range anomalies {
		rows = append(rows, []string{
			formatUTCDate(a.Day),
			a.Metric,
			formatInt64(a.Value),
			formatFloat1(a.Mean),
			formatFloat1(a.Std),
			a.Direction,
			strconv.FormatFloat(a.Sigma, 'f', 2, 64),
		})
	}
	if err := writeTable(
		[]string{"DAY", "METRIC", "VALUE", "MEAN", "STD", "DIRECTION", "SIGMA"},
		rows,
	); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}
