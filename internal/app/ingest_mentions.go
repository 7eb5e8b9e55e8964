package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/juliananz/monitoreo-medios/internal/cli"
	"github.com/juliananz/monitoreo-medios/internal/ingest"
	"github.com/juliananz/monitoreo-medios/internal/logging"
)

func runIngestMentions(args []string) int {
	fs := flag.NewFlagSet("ingest-mentions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 60*time.Second, "Overall staging timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "ingest-mentions requires at least one JSON file argument")
		return 2
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Staging failed: %v\n", err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	service := ingest.NewService(pool, logger)

	total := ingest.LoadResult{}
	for _, path := range files {
		result, err := service.LoadFile(ctx, path)
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("mention file staging failed")
			fmt.Fprintf(os.Stderr, "Staging failed for %s: %v\n", path, err)
			return 1
		}
		total.Documents += result.Documents
		total.ItemsMatched += result.ItemsMatched
		total.MentionsInserted += result.MentionsInserted
		total.TopicsLinked += result.TopicsLinked
		total.Skipped += result.Skipped
	}

	fmt.Printf("ok: %d documents, %d items matched, %d mentions staged, %d topics linked, %d skipped\n",
		total.Documents, total.ItemsMatched, total.MentionsInserted, total.TopicsLinked, total.Skipped)
	return 0
}
