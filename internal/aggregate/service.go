// Package aggregate recomputes the per-day rollup tables that the trend
// and anomaly views read.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/juliananz/monitoreo-medios/internal/db"
)

// Service drives the per-date recomputation and historical backfill.
type Service struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewService(pool *db.Pool, logger zerolog.Logger) *Service {
	return &Service{
		pool:   pool,
		logger: logger.With().Str("component", "aggregate").Logger(),
	}
}

// AggregateDay recomputes all five aggregate tables for one date.
// Recomputing the same date twice yields identical rows; the write is one
// all-or-nothing transaction.
func (s *Service) AggregateDay(ctx context.Context, day time.Time) error {
	s.warnEmptyCatalogs(ctx)
	return s.aggregateOne(ctx, day)
}

func (s *Service) aggregateOne(ctx context.Context, day time.Time) error {
	dayStr := day.UTC().Format("2006-01-02")
	s.logger.Debug().Str("day", dayStr).Msg("computing aggregates")

	if err := s.pool.AggregateDay(ctx, day); err != nil {
		return fmt.Errorf("aggregate %s: %w", dayStr, err)
	}

	s.logger.Info().Str("day", dayStr).Msg("aggregates computed")
	return nil
}

// Backfill recomputes every distinct item date, oldest first, optionally
// bounded to [from, to] inclusive. Each date commits independently, so a
// failure on one date leaves earlier dates intact and the run can simply be
// re-invoked.
func (s *Service) Backfill(ctx context.Context, from, to *time.Time) (int, error) {
	s.warnEmptyCatalogs(ctx)

	all, err := s.pool.ListItemDates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list item dates: %w", err)
	}

	days := FilterDays(all, from, to)
	if len(days) == 0 {
		s.logger.Warn().Msg("no item dates found to backfill")
		return 0, nil
	}

	total := len(days)
	s.logger.Info().Int("dates", total).Msg("starting aggregation backfill")

	for i, day := range days {
		if err := s.aggregateOne(ctx, day); err != nil {
			return i, err
		}
		done := i + 1
		if done%10 == 0 || done == total {
			s.logger.Info().
				Int("done", done).
				Int("total", total).
				Int("pct", 100*done/total).
				Msg("backfill progress")
		}
	}

	s.logger.Info().Int("dates", total).Msg("backfill completed")
	return total, nil
}

func (s *Service) warnEmptyCatalogs(ctx context.Context) {
	topics, entities, err := s.pool.CountCatalogs(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not inspect reference catalogs")
		return
	}
	if topics == 0 {
		s.logger.Warn().Msg("topic catalog is empty; topic aggregates will have no rows")
	}
	if entities == 0 {
		s.logger.Warn().Msg("entity catalog is empty; entity aggregates will have no rows")
	}
}

// FilterDays keeps the dates within the optional inclusive bounds,
// preserving order.
func FilterDays(days []time.Time, from, to *time.Time) []time.Time {
	filtered := make([]time.Time, 0, len(days))
	for _, day := range days {
		if from != nil && day.Before(*from) {
			continue
		}
		if to != nil && day.After(*to) {
			continue
		}
		filtered = append(filtered, day)
	}
	return filtered
}
