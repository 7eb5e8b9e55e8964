package db

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// DailyPoint is one row of the global daily aggregate, the read model every
// trend computation consumes.
type DailyPoint struct {
	Day               time.Time `json:"day"`
	TotalItems        int64     `json:"total_items"`
	TotalRelevant     int64     `json:"total_relevant"`
	TotalRisk         int64     `json:"total_risk"`
	TotalOpportunity  int64     `json:"total_opportunity"`
	TotalMixed        int64     `json:"total_mixed"`
	ActiveSources     int64     `json:"active_sources"`
	NeedsDeepAnalysis int64     `json:"needs_deep_analysis"`
}

// PeriodTotals sums the global daily aggregate over an inclusive date range.
type PeriodTotals struct {
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Items       int64     `json:"items"`
	Relevant    int64     `json:"relevant"`
	Risk        int64     `json:"risk"`
	Opportunity int64     `json:"opportunity"`
}

// EntityTrendPoint is one (day, entity) row of the entity aggregate joined
// with the canonical entity record.
type EntityTrendPoint struct {
	Day              time.Time `json:"day"`
	EntityID         int64     `json:"entity_id"`
	CanonicalName    string    `json:"canonical_name"`
	Kind             string    `json:"kind"`
	Mentions         int64     `json:"mentions"`
	RiskItems        int64     `json:"risk_items"`
	OpportunityItems int64     `json:"opportunity_items"`
	TotalFrequency   int64     `json:"total_frequency"`
}

// TopicTrendPoint is one (day, topic) row of the topic aggregate joined
// with the topic catalog.
type TopicTrendPoint struct {
	Day              time.Time `json:"day"`
	TopicID          int64     `json:"topic_id"`
	Topic            string    `json:"topic"`
	TotalItems       int64     `json:"total_items"`
	TotalRisk        int64     `json:"total_risk"`
	TotalOpportunity int64     `json:"total_opportunity"`
	AvgScore         float64   `json:"avg_score"`
}

// RegionTrendPoint is one (day, region, level) row of the region aggregate.
// Region carries the sentinel label for rows grouped under region_id = -1.
type RegionTrendPoint struct {
	Day              time.Time `json:"day"`
	RegionID         int64     `json:"region_id"`
	Region           string    `json:"region"`
	GeoLevel         string    `json:"geo_level"`
	TotalItems       int64     `json:"total_items"`
	TotalRisk        int64     `json:"total_risk"`
	TotalOpportunity int64     `json:"total_opportunity"`
}

// SourceTrendPoint is one (day, source) row of the per-source aggregate.
type SourceTrendPoint struct {
	Day              time.Time `json:"day"`
	Source           string    `json:"source"`
	TotalItems       int64     `json:"total_items"`
	TotalRelevant    int64     `json:"total_relevant"`
	TotalRisk        int64     `json:"total_risk"`
	TotalOpportunity int64     `json:"total_opportunity"`
}

// NoRegionLabel names the sentinel bucket in region trend reads.
const NoRegionLabel = "Sin region"

// DailyAggregatesSince returns global daily rows from the given date on,
// ascending.
func (p *Pool) DailyAggregatesSince(ctx context.Context, since time.Time) ([]DailyPoint, error) {
	query, args, err := psql.
		Select(
			"day",
			"total_items",
			"total_relevant",
			"total_risk",
			"total_opportunity",
			"total_mixed",
			"active_sources",
			"needs_deep_analysis",
		).
		From("monitor.daily_aggregates").
		Where(sq.GtOrEq{"day": since.UTC().Truncate(24 * time.Hour)}).
		OrderBy("day").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build daily trend query: %w", err)
	}

	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily aggregates: %w", err)
	}
	defer rows.Close()

	points := make([]DailyPoint, 0, 64)
	for rows.Next() {
		var pt DailyPoint
		if err := rows.Scan(
			&pt.Day,
			&pt.TotalItems,
			&pt.TotalRelevant,
			&pt.TotalRisk,
			&pt.TotalOpportunity,
			&pt.TotalMixed,
			&pt.ActiveSources,
			&pt.NeedsDeepAnalysis,
		); err != nil {
			return nil, fmt.Errorf("scan daily aggregate row: %w", err)
		}
		pt.Day = pt.Day.UTC()
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily aggregate rows: %w", err)
	}
	return points, nil
}

// TopicTrendSince returns per-topic daily rows from the given date on,
// ordered by day then topic name.
func (p *Pool) TopicTrendSince(ctx context.Context, since time.Time) ([]TopicTrendPoint, error) {
	query, args, err := psql.
		Select(
			"a.day",
			"a.topic_id",
			"t.name",
			"a.total_items",
			"a.total_risk",
			"a.total_opportunity",
			"a.avg_score",
		).
		From("monitor.topic_daily_aggregates a").
		Join("monitor.topics t ON t.topic_id = a.topic_id").
		Where(sq.GtOrEq{"a.day": since.UTC().Truncate(24 * time.Hour)}).
		OrderBy("a.day", "t.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build topic trend query: %w", err)
	}

	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query topic trend: %w", err)
	}
	defer rows.Close()

	points := make([]TopicTrendPoint, 0, 64)
	for rows.Next() {
		var pt TopicTrendPoint
		if err := rows.Scan(
			&pt.Day,
			&pt.TopicID,
			&pt.Topic,
			&pt.TotalItems,
			&pt.TotalRisk,
			&pt.TotalOpportunity,
			&pt.AvgScore,
		); err != nil {
			return nil, fmt.Errorf("scan topic trend row: %w", err)
		}
		pt.Day = pt.Day.UTC()
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topic trend rows: %w", err)
	}
	return points, nil
}

// RegionTrendSince returns per-region daily rows from the given date on,
// ordered by day then geo level. Rows under the -1 sentinel keep the
// sentinel id and get the no-region label.
func (p *Pool) RegionTrendSince(ctx context.Context, since time.Time) ([]RegionTrendPoint, error) {
	query, args, err := psql.
		Select(
			"a.day",
			"a.region_id",
			fmt.Sprintf("CASE WHEN a.region_id = %d THEN '%s' ELSE COALESCE(r.name, '%s') END",
				SentinelRegionID, NoRegionLabel, NoRegionLabel),
			"a.geo_level",
			"a.total_items",
			"a.total_risk",
			"a.total_opportunity",
		).
		From("monitor.region_daily_aggregates a").
		LeftJoin(fmt.Sprintf("monitor.regions r ON r.region_id = a.region_id AND a.region_id != %d", SentinelRegionID)).
		Where(sq.GtOrEq{"a.day": since.UTC().Truncate(24 * time.Hour)}).
		OrderBy("a.day", "a.geo_level").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build region trend query: %w", err)
	}

	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query region trend: %w", err)
	}
	defer rows.Close()

	points := make([]RegionTrendPoint, 0, 64)
	for rows.Next() {
		var pt RegionTrendPoint
		if err := rows.Scan(
			&pt.Day,
			&pt.RegionID,
			&pt.Region,
			&pt.GeoLevel,
			&pt.TotalItems,
			&pt.TotalRisk,
			&pt.TotalOpportunity,
		); err != nil {
			return nil, fmt.Errorf("scan region trend row: %w", err)
		}
		pt.Day = pt.Day.UTC()
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate region trend rows: %w", err)
	}
	return points, nil
}

// SourceTrendSince returns per-source daily rows from the given date on,
// ordered by day then source.
func (p *Pool) SourceTrendSince(ctx context.Context, since time.Time) ([]SourceTrendPoint, error) {
	query, args, err := psql.
		Select(
			"day",
			"source",
			"total_items",
			"total_relevant",
			"total_risk",
			"total_opportunity",
		).
		From("monitor.source_daily_aggregates").
		Where(sq.GtOrEq{"day": since.UTC().Truncate(24 * time.Hour)}).
		OrderBy("day", "source").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build source trend query: %w", err)
	}

	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query source trend: %w", err)
	}
	defer rows.Close()

	points := make([]SourceTrendPoint, 0, 64)
	for rows.Next() {
		var pt SourceTrendPoint
		if err := rows.Scan(
			&pt.Day,
			&pt.Source,
			&pt.TotalItems,
			&pt.TotalRelevant,
			&pt.TotalRisk,
			&pt.TotalOpportunity,
		); err != nil {
			return nil, fmt.Errorf("scan source trend row: %w", err)
		}
		pt.Day = pt.Day.UTC()
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source trend rows: %w", err)
	}
	return points, nil
}

// QueryPeriodTotals sums the global daily aggregate over [from, to]
// inclusive. Days without rows contribute nothing.
func (p *Pool) QueryPeriodTotals(ctx context.Context, from, to time.Time) (PeriodTotals, error) {
	totals := PeriodTotals{
		From: from.UTC().Truncate(24 * time.Hour),
		To:   to.UTC().Truncate(24 * time.Hour),
	}

	query, args, err := psql.
		Select(
			"COALESCE(SUM(total_items), 0)",
			"COALESCE(SUM(total_relevant), 0)",
			"COALESCE(SUM(total_risk), 0)",
			"COALESCE(SUM(total_opportunity), 0)",
		).
		From("monitor.daily_aggregates").
		Where(sq.GtOrEq{"day": totals.From}).
		Where(sq.LtOrEq{"day": totals.To}).
		ToSql()
	if err != nil {
		return totals, fmt.Errorf("build period totals query: %w", err)
	}

	if err := p.QueryRow(ctx, query, args...).Scan(
		&totals.Items,
		&totals.Relevant,
		&totals.Risk,
		&totals.Opportunity,
	); err != nil {
		return totals, fmt.Errorf("query period totals: %w", err)
	}
	return totals, nil
}

// TopEntityIDs returns the ids of the top-N entities by summed mentions
// since the given date.
func (p *Pool) TopEntityIDs(ctx context.Context, since time.Time, topN int) ([]int64, error) {
	if topN <= 0 {
		topN = 10
	}
	query, args, err := psql.
		Select("entity_id").
		From("monitor.entity_daily_aggregates").
		Where(sq.GtOrEq{"day": since.UTC().Truncate(24 * time.Hour)}).
		GroupBy("entity_id").
		OrderBy("SUM(mentions) DESC").
		Limit(uint64(topN)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build top entities query: %w", err)
	}

	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top entities: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, topN)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan top entity id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top entity ids: %w", err)
	}
	return ids, nil
}

// EntityTrendSince returns the daily entity aggregate for the given
// entities from the given date on.
func (p *Pool) EntityTrendSince(ctx context.Context, since time.Time, entityIDs []int64) ([]EntityTrendPoint, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}

	query, args, err := psql.
		Select(
			"a.day",
			"a.entity_id",
			"e.canonical_name",
			"e.kind",
			"a.mentions",
			"a.risk_items",
			"a.opportunity_items",
			"a.total_frequency",
		).
		From("monitor.entity_daily_aggregates a").
		Join("monitor.entities e ON e.entity_id = a.entity_id").
		Where(sq.GtOrEq{"a.day": since.UTC().Truncate(24 * time.Hour)}).
		Where(sq.Eq{"a.entity_id": entityIDs}).
		OrderBy("a.day", "e.canonical_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entity trend query: %w", err)
	}

	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entity trend: %w", err)
	}
	defer rows.Close()

	points := make([]EntityTrendPoint, 0, len(entityIDs)*8)
	for rows.Next() {
		var pt EntityTrendPoint
		if err := rows.Scan(
			&pt.Day,
			&pt.EntityID,
			&pt.CanonicalName,
			&pt.Kind,
			&pt.Mentions,
			&pt.RiskItems,
			&pt.OpportunityItems,
			&pt.TotalFrequency,
		); err != nil {
			return nil, fmt.Errorf("scan entity trend row: %w", err)
		}
		pt.Day = pt.Day.UTC()
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity trend rows: %w", err)
	}
	return points, nil
}
