package db

import (
	"context"
	"fmt"
	"time"
)

// AggregateDay recomputes all five daily aggregate tables for one date
// inside a single transaction. Every row written is a pure function of the
// item and link rows dated that day: the global row is upserted in place,
// the dimensional tables are delete-then-insert so a shrunken dimension set
// (a removed topic assignment, a reclassified region) leaves no stale rows.
// A failure in any step rolls back the whole date.
func (p *Pool) AggregateDay(ctx context.Context, day time.Time) error {
	d := day.UTC().Truncate(24 * time.Hour)

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := aggregateGlobal(ctx, tx, d); err != nil {
		return err
	}
	if err := aggregateTopics(ctx, tx, d); err != nil {
		return err
	}
	if err := aggregateRegions(ctx, tx, d); err != nil {
		return err
	}
	if err := aggregateEntities(ctx, tx, d); err != nil {
		return err
	}
	if err := aggregateSources(ctx, tx, d); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit aggregates for %s: %w", d.Format("2006-01-02"), err)
	}
	return nil
}

func aggregateGlobal(ctx context.Context, tx Tx, day time.Time) error {
	if _, err := tx.Exec(ctx, `
INSERT INTO monitor.daily_aggregates (
	day,
	total_items,
	total_relevant,
	total_risk,
	total_opportunity,
	total_mixed,
	active_sources,
	needs_deep_analysis,
	computed_at
)
SELECT
	published_at,
	COUNT(*),
	COUNT(*) FILTER (WHERE relevant),
	COUNT(*) FILTER (WHERE risk),
	COUNT(*) FILTER (WHERE opportunity),
	COUNT(*) FILTER (WHERE risk AND opportunity),
	COUNT(DISTINCT source),
	COUNT(*) FILTER (WHERE needs_deep_analysis),
	now()
FROM monitor.items
WHERE published_at = $1
GROUP BY published_at
ON CONFLICT (day) DO UPDATE SET
	total_items = EXCLUDED.total_items,
	total_relevant = EXCLUDED.total_relevant,
	total_risk = EXCLUDED.total_risk,
	total_opportunity = EXCLUDED.total_opportunity,
	total_mixed = EXCLUDED.total_mixed,
	active_sources = EXCLUDED.active_sources,
	needs_deep_analysis = EXCLUDED.needs_deep_analysis,
	computed_at = EXCLUDED.computed_at
`, day); err != nil {
		return fmt.Errorf("aggregate global: %w", err)
	}
	return nil
}

func aggregateTopics(ctx context.Context, tx Tx, day time.Time) error {
	if _, err := tx.Exec(ctx, `
DELETE FROM monitor.topic_daily_aggregates WHERE day = $1
`, day); err != nil {
		return fmt.Errorf("clear topic aggregates: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO monitor.topic_daily_aggregates (
	day,
	topic_id,
	total_items,
	total_risk,
	total_opportunity,
	avg_score
)
SELECT
	i.published_at,
	it.topic_id,
	COUNT(*),
	COUNT(*) FILTER (WHERE i.risk),
	COUNT(*) FILTER (WHERE i.opportunity),
	AVG(it.score)
FROM monitor.items i
JOIN monitor.item_topics it ON it.item_id = i.item_id
WHERE i.published_at = $1
GROUP BY i.published_at, it.topic_id
`, day); err != nil {
		return fmt.Errorf("aggregate topics: %w", err)
	}
	return nil
}

func aggregateRegions(ctx context.Context, tx Tx, day time.Time) error {
	if _, err := tx.Exec(ctx, `
DELETE FROM monitor.region_daily_aggregates WHERE day = $1
`, day); err != nil {
		return fmt.Errorf("clear region aggregates: %w", err)
	}

	// Items without a resolved region group under the -1 sentinel so the
	// (day, region_id, geo_level) key stays fully defined.
	if _, err := tx.Exec(ctx, `
INSERT INTO monitor.region_daily_aggregates (
	day,
	region_id,
	geo_level,
	total_items,
	total_risk,
	total_opportunity
)
SELECT
	published_at,
	COALESCE(region_id, -1),
	COALESCE(geo_level, 'indeterminate'),
	COUNT(*),
	COUNT(*) FILTER (WHERE risk),
	COUNT(*) FILTER (WHERE opportunity)
FROM monitor.items
WHERE published_at = $1
  AND relevant
GROUP BY published_at, COALESCE(region_id, -1), COALESCE(geo_level, 'indeterminate')
`, day); err != nil {
		return fmt.Errorf("aggregate regions: %w", err)
	}
	return nil
}

func aggregateEntities(ctx context.Context, tx Tx, day time.Time) error {
	if _, err := tx.Exec(ctx, `
DELETE FROM monitor.entity_daily_aggregates WHERE day = $1
`, day); err != nil {
		return fmt.Errorf("clear entity aggregates: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO monitor.entity_daily_aggregates (
	day,
	entity_id,
	mentions,
	risk_items,
	opportunity_items,
	total_frequency
)
SELECT
	i.published_at,
	ie.entity_id,
	COUNT(*),
	COUNT(*) FILTER (WHERE i.risk),
	COUNT(*) FILTER (WHERE i.opportunity),
	SUM(ie.frequency)
FROM monitor.items i
JOIN monitor.item_entities ie ON ie.item_id = i.item_id
WHERE i.published_at = $1
GROUP BY i.published_at, ie.entity_id
`, day); err != nil {
		return fmt.Errorf("aggregate entities: %w", err)
	}
	return nil
}

func aggregateSources(ctx context.Context, tx Tx, day time.Time) error {
	if _, err := tx.Exec(ctx, `
DELETE FROM monitor.source_daily_aggregates WHERE day = $1
`, day); err != nil {
		return fmt.Errorf("clear source aggregates: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO monitor.source_daily_aggregates (
	day,
	source,
	total_items,
	total_relevant,
	total_risk,
	total_opportunity
)
SELECT
	published_at,
	source,
	COUNT(*),
	COUNT(*) FILTER (WHERE relevant),
	COUNT(*) FILTER (WHERE risk),
	COUNT(*) FILTER (WHERE opportunity)
FROM monitor.items
WHERE published_at = $1
GROUP BY published_at, source
`, day); err != nil {
		return fmt.Errorf("aggregate sources: %w", err)
	}
	return nil
}

// ListItemDates returns the distinct publication dates present among items,
// ascending.
func (p *Pool) ListItemDates(ctx context.Context) ([]time.Time, error) {
	rows, err := p.Query(ctx, `
SELECT DISTINCT published_at
FROM monitor.items
ORDER BY published_at
`)
	if err != nil {
		return nil, fmt.Errorf("query item dates: %w", err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0, 64)
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan item date: %w", err)
		}
		dates = append(dates, day.UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item dates: %w", err)
	}
	return dates, nil
}

// CountCatalogs reports the sizes of the topic and entity reference
// catalogs, used to warn when an upstream stage has not seeded them.
func (p *Pool) CountCatalogs(ctx context.Context) (topics, entities int64, err error) {
	err = p.QueryRow(ctx, `
SELECT
	(SELECT COUNT(*) FROM monitor.topics),
	(SELECT COUNT(*) FROM monitor.entities)
`).Scan(&topics, &entities)
	if err != nil {
		return 0, 0, fmt.Errorf("count catalogs: %w", err)
	}
	return topics, entities, nil
}
