package db_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/juliananz/monitoreo-medios/internal/aggregate"
	"github.com/juliananz/monitoreo-medios/internal/config"
	"github.com/juliananz/monitoreo-medios/internal/db"
)

// These tests need a reachable Postgres and are skipped without one.
func integrationPool(t *testing.T) (context.Context, *db.Pool) {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set; skipping database integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	pool, err := db.NewPool(ctx, &config.Config{
		Environment:    "local",
		LogLevel:       "warn",
		DatabaseURL:    url,
		DBMinConns:     1,
		DBMaxConns:     4,
		KeywordsConfig: "config/keywords.yaml",
	})
	if err != nil {
		t.Fatalf("connect to database: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	return ctx, pool
}

func insertItem(t *testing.T, ctx context.Context, pool *db.Pool, urlPrefix string, day time.Time, source string, relevant, risk, opportunity bool, geoLevel *string) {
	t.Helper()

	sourceURL := fmt.Sprintf("%s/%d", urlPrefix, time.Now().UnixNano())
	if _, err := pool.Exec(ctx, `
INSERT INTO monitor.items (source_url, title, source, published_at, relevant, risk, opportunity, geo_level)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, sourceURL, "integration fixture", source, day, relevant, risk, opportunity, geoLevel); err != nil {
		t.Fatalf("insert fixture item: %v", err)
	}
}

func cleanupDay(t *testing.T, pool *db.Pool, urlPrefix string, days ...time.Time) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := pool.Exec(ctx, `DELETE FROM monitor.items WHERE source_url LIKE $1`, urlPrefix+"%"); err != nil {
			t.Errorf("cleanup fixture items: %v", err)
		}
		for _, day := range days {
			for _, table := range []string{
				"monitor.daily_aggregates",
				"monitor.topic_daily_aggregates",
				"monitor.region_daily_aggregates",
				"monitor.entity_daily_aggregates",
				"monitor.source_daily_aggregates",
			} {
				if _, err := pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE day = $1`, table), day); err != nil {
					t.Errorf("cleanup %s: %v", table, err)
				}
			}
		}
	})
}

type globalRow struct {
	totalItems        int64
	totalRelevant     int64
	totalRisk         int64
	totalOpportunity  int64
	totalMixed        int64
	activeSources     int64
	needsDeepAnalysis int64
}

func readGlobalRow(t *testing.T, ctx context.Context, pool *db.Pool, day time.Time) globalRow {
	t.Helper()

	var row globalRow
	if err := pool.QueryRow(ctx, `
SELECT total_items, total_relevant, total_risk, total_opportunity, total_mixed, active_sources, needs_deep_analysis
FROM monitor.daily_aggregates
WHERE day = $1
`, day).Scan(
		&row.totalItems,
		&row.totalRelevant,
		&row.totalRisk,
		&row.totalOpportunity,
		&row.totalMixed,
		&row.activeSources,
		&row.needsDeepAnalysis,
	); err != nil {
		t.Fatalf("read global aggregate row: %v", err)
	}
	return row
}

type regionRow struct {
	regionID         int64
	geoLevel         string
	totalItems       int64
	totalRisk        int64
	totalOpportunity int64
}

func readRegionRows(t *testing.T, ctx context.Context, pool *db.Pool, day time.Time) []regionRow {
	t.Helper()

	rows, err := pool.Query(ctx, `
SELECT region_id, geo_level, total_items, total_risk, total_opportunity
FROM monitor.region_daily_aggregates
WHERE day = $1
ORDER BY region_id, geo_level
`, day)
	if err != nil {
		t.Fatalf("read region aggregate rows: %v", err)
	}
	defer rows.Close()

	var result []regionRow
	for rows.Next() {
		var row regionRow
		if err := rows.Scan(&row.regionID, &row.geoLevel, &row.totalItems, &row.totalRisk, &row.totalOpportunity); err != nil {
			t.Fatalf("scan region aggregate row: %v", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate region aggregate rows: %v", err)
	}
	return result
}

func TestAggregateDayIdempotentWithSentinelGrouping(t *testing.T) {
	ctx, pool := integrationPool(t)

	day := time.Date(1993, 4, 5, 0, 0, 0, 0, time.UTC)
	urlPrefix := fmt.Sprintf("https://integration.invalid/idem/%d", time.Now().UnixNano())
	cleanupDay(t, pool, urlPrefix, day)

	regional := "regional"
	insertItem(t, ctx, pool, urlPrefix, day, "diario-a", true, true, false, &regional)
	insertItem(t, ctx, pool, urlPrefix, day, "diario-b", true, false, true, nil)
	insertItem(t, ctx, pool, urlPrefix, day, "diario-a", false, false, false, nil)

	if err := pool.AggregateDay(ctx, day); err != nil {
		t.Fatalf("first aggregation run: %v", err)
	}
	firstGlobal := readGlobalRow(t, ctx, pool, day)
	firstRegions := readRegionRows(t, ctx, pool, day)

	if firstGlobal.totalItems != 3 || firstGlobal.totalRelevant != 2 {
		t.Fatalf("unexpected global counters: %+v", firstGlobal)
	}
	if firstGlobal.totalRisk != 1 || firstGlobal.totalOpportunity != 1 || firstGlobal.totalMixed != 0 {
		t.Fatalf("unexpected flag counters: %+v", firstGlobal)
	}
	if firstGlobal.activeSources != 2 {
		t.Fatalf("expected 2 active sources, got %d", firstGlobal.activeSources)
	}

	// Only the two relevant items reach the region aggregate; both carry a
	// NULL region_id and group under the -1 sentinel, split by geo level.
	if len(firstRegions) != 2 {
		t.Fatalf("expected 2 region buckets, got %d: %+v", len(firstRegions), firstRegions)
	}
	for _, row := range firstRegions {
		if row.regionID != db.SentinelRegionID {
			t.Fatalf("expected sentinel region id %d, got %d", db.SentinelRegionID, row.regionID)
		}
		if row.totalItems != 1 {
			t.Fatalf("expected 1 item per bucket, got %+v", row)
		}
	}
	if firstRegions[0].geoLevel != "indeterminate" || firstRegions[1].geoLevel != "regional" {
		t.Fatalf("unexpected geo level split: %+v", firstRegions)
	}

	if err := pool.AggregateDay(ctx, day); err != nil {
		t.Fatalf("second aggregation run: %v", err)
	}
	secondGlobal := readGlobalRow(t, ctx, pool, day)
	secondRegions := readRegionRows(t, ctx, pool, day)

	if secondGlobal != firstGlobal {
		t.Fatalf("global row changed on recompute: first %+v, second %+v", firstGlobal, secondGlobal)
	}
	if len(secondRegions) != len(firstRegions) {
		t.Fatalf("region bucket count changed on recompute: %d vs %d", len(firstRegions), len(secondRegions))
	}
	for i := range firstRegions {
		if firstRegions[i] != secondRegions[i] {
			t.Fatalf("region bucket %d changed on recompute: first %+v, second %+v", i, firstRegions[i], secondRegions[i])
		}
	}
}

func TestBackfillCoversEveryItemDate(t *testing.T) {
	ctx, pool := integrationPool(t)

	day1 := time.Date(1993, 7, 19, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(1993, 7, 20, 0, 0, 0, 0, time.UTC)
	urlPrefix := fmt.Sprintf("https://integration.invalid/backfill/%d", time.Now().UnixNano())
	cleanupDay(t, pool, urlPrefix, day1, day2)

	insertItem(t, ctx, pool, urlPrefix, day1, "diario-a", true, false, false, nil)
	insertItem(t, ctx, pool, urlPrefix, day1, "diario-b", true, true, false, nil)
	insertItem(t, ctx, pool, urlPrefix, day2, "diario-a", false, false, false, nil)

	service := aggregate.NewService(pool, zerolog.Nop())
	count, err := service.Backfill(ctx, &day1, &day2)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 aggregated dates, got %d", count)
	}

	// The summed per-day totals must account for every item in the range.
	var itemCount int64
	if err := pool.QueryRow(ctx, `
SELECT COUNT(*) FROM monitor.items WHERE published_at BETWEEN $1 AND $2
`, day1, day2).Scan(&itemCount); err != nil {
		t.Fatalf("count items in range: %v", err)
	}

	var aggregatedTotal int64
	if err := pool.QueryRow(ctx, `
SELECT COALESCE(SUM(total_items), 0) FROM monitor.daily_aggregates WHERE day BETWEEN $1 AND $2
`, day1, day2).Scan(&aggregatedTotal); err != nil {
		t.Fatalf("sum aggregated totals: %v", err)
	}

	if aggregatedTotal != itemCount {
		t.Fatalf("aggregated totals (%d) do not match item count (%d)", aggregatedTotal, itemCount)
	}
}
