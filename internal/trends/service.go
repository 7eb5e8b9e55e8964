package trends

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/juliananz/monitoreo-medios/internal/db"
)

// Service exposes the read-only trend and anomaly views over the aggregate
// tables.
type Service struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewService(pool *db.Pool, logger zerolog.Logger) *Service {
	return &Service{
		pool:   pool,
		logger: logger.With().Str("component", "trends").Logger(),
	}
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Daily returns the trailing window of global daily points.
func (s *Service) Daily(ctx context.Context, days int) ([]db.DailyPoint, error) {
	if days <= 0 {
		days = 30
	}
	since := today().AddDate(0, 0, -days)
	return s.pool.DailyAggregatesSince(ctx, since)
}

// Topics returns the trailing window of per-topic daily points.
func (s *Service) Topics(ctx context.Context, days int) ([]db.TopicTrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	return s.pool.TopicTrendSince(ctx, today().AddDate(0, 0, -days))
}

// Regions returns the trailing window of per-region daily points, sentinel
// bucket included.
func (s *Service) Regions(ctx context.Context, days int) ([]db.RegionTrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	return s.pool.RegionTrendSince(ctx, today().AddDate(0, 0, -days))
}

// Sources returns the trailing window of per-source daily points.
func (s *Service) Sources(ctx context.Context, days int) ([]db.SourceTrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	return s.pool.SourceTrendSince(ctx, today().AddDate(0, 0, -days))
}

// TopicWeekly returns (ISO week, topic) rollups covering the trailing
// number of weeks.
func (s *Service) TopicWeekly(ctx context.Context, weeks int) ([]TopicWeeklySummary, error) {
	if weeks <= 0 {
		weeks = 12
	}
	points, err := s.pool.TopicTrendSince(ctx, today().AddDate(0, 0, -weeks*7))
	if err != nil {
		return nil, err
	}
	return RollupTopicWeekly(points), nil
}

// Weekly returns ISO-week rollups covering the trailing number of weeks.
func (s *Service) Weekly(ctx context.Context, weeks int) ([]WeeklySummary, error) {
	if weeks <= 0 {
		weeks = 12
	}
	points, err := s.pool.DailyAggregatesSince(ctx, today().AddDate(0, 0, -weeks*7))
	if err != nil {
		return nil, err
	}
	return RollupWeekly(points), nil
}

// Monthly returns calendar-month rollups covering the trailing number of
// months.
func (s *Service) Monthly(ctx context.Context, months int) ([]MonthlySummary, error) {
	if months <= 0 {
		months = 12
	}
	points, err := s.pool.DailyAggregatesSince(ctx, today().AddDate(0, -months, 0))
	if err != nil {
		return nil, err
	}
	return RollupMonthly(points), nil
}

// Compare sums the global aggregate over two explicit inclusive periods.
func (s *Service) Compare(ctx context.Context, currentFrom, currentTo, previousFrom, previousTo time.Time) (*PeriodComparison, error) {
	current, err := s.pool.QueryPeriodTotals(ctx, currentFrom, currentTo)
	if err != nil {
		return nil, fmt.Errorf("sum current period: %w", err)
	}
	previous, err := s.pool.QueryPeriodTotals(ctx, previousFrom, previousTo)
	if err != nil {
		return nil, fmt.Errorf("sum previous period: %w", err)
	}
	comparison := ComparePeriods(current, previous)
	return &comparison, nil
}

// CompareWithPrevious compares the trailing N days with the N days before
// them.
func (s *Service) CompareWithPrevious(ctx context.Context, days int) (*PeriodComparison, error) {
	if days <= 0 {
		days = 7
	}
	end := today()
	return s.Compare(ctx,
		end.AddDate(0, 0, -(days-1)), end,
		end.AddDate(0, 0, -(2*days-1)), end.AddDate(0, 0, -days),
	)
}

// Anomalies flags outlier days across the trailing window.
func (s *Service) Anomalies(ctx context.Context, days int, sigmaThreshold float64) ([]Anomaly, error) {
	if days <= 0 {
		days = 30
	}
	if sigmaThreshold <= 0 {
		sigmaThreshold = 2.0
	}
	points, err := s.pool.DailyAggregatesSince(ctx, today().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}
	anomalies := DetectAnomalies(points, sigmaThreshold)
	s.logger.Debug().
		Int("window_days", days).
		Float64("sigma", sigmaThreshold).
		Int("flagged", len(anomalies)).
		Msg("anomaly scan finished")
	return anomalies, nil
}

// TopEntities returns daily points for the top-N entities by mentions over
// the trailing window.
func (s *Service) TopEntities(ctx context.Context, days, topN int) ([]db.EntityTrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	since := today().AddDate(0, 0, -days)
	ids, err := s.pool.TopEntityIDs(ctx, since, topN)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.pool.EntityTrendSince(ctx, since, ids)
}
