package trends

import (
	"testing"
	"time"

	"github.com/juliananz/monitoreo-medios/internal/db"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRollupWeeklySumsAndAverages(t *testing.T) {
	t.Parallel()

	// Mon 2026-01-05 through Wed 2026-01-07 fall in ISO week 2; Mon
	// 2026-01-12 starts week 3.
	points := []db.DailyPoint{
		{Day: day(2026, 1, 5), TotalItems: 10, TotalRisk: 2, ActiveSources: 4},
		{Day: day(2026, 1, 7), TotalItems: 20, TotalRisk: 3, ActiveSources: 6},
		{Day: day(2026, 1, 12), TotalItems: 7, TotalRisk: 1, ActiveSources: 3},
	}

	weeks := RollupWeekly(points)
	if len(weeks) != 2 {
		t.Fatalf("expected 2 weekly buckets, got %d", len(weeks))
	}
	first := weeks[0]
	if first.Label != "2026-W02" {
		t.Fatalf("unexpected first week label: %q", first.Label)
	}
	if first.TotalItems != 30 || first.TotalRisk != 5 {
		t.Fatalf("unexpected week sums: items=%d risk=%d", first.TotalItems, first.TotalRisk)
	}
	if first.AvgActiveSources != 5.0 {
		t.Fatalf("unexpected averaged active sources: %f", first.AvgActiveSources)
	}
	if weeks[1].Label != "2026-W03" || weeks[1].TotalItems != 7 {
		t.Fatalf("unexpected second bucket: %+v", weeks[1])
	}
}

func TestRollupMonthlyCountsDaysWithData(t *testing.T) {
	t.Parallel()

	points := []db.DailyPoint{
		{Day: day(2026, 1, 30), TotalItems: 5, ActiveSources: 2},
		{Day: day(2026, 1, 31), TotalItems: 5, ActiveSources: 4},
		{Day: day(2026, 2, 1), TotalItems: 9, ActiveSources: 3},
	}

	months := RollupMonthly(points)
	if len(months) != 2 {
		t.Fatalf("expected 2 monthly buckets, got %d", len(months))
	}
	jan := months[0]
	if jan.Label != "2026-01" || jan.TotalItems != 10 || jan.DaysWithData != 2 {
		t.Fatalf("unexpected January bucket: %+v", jan)
	}
	if jan.AvgActiveSources != 3.0 {
		t.Fatalf("unexpected January source average: %f", jan.AvgActiveSources)
	}
	if months[1].Label != "2026-02" || months[1].DaysWithData != 1 {
		t.Fatalf("unexpected February bucket: %+v", months[1])
	}
}

func TestComparePeriodsZeroPreviousIsUndefined(t *testing.T) {
	t.Parallel()

	current := db.PeriodTotals{Items: 5, Risk: 3}
	previous := db.PeriodTotals{Items: 0, Risk: 2}

	got := ComparePeriods(current, previous)
	if got.PctChange.Items != nil {
		t.Fatalf("expected undefined change for zero previous total, got %v", *got.PctChange.Items)
	}
	if got.PctChange.Risk == nil || *got.PctChange.Risk != 50.0 {
		t.Fatalf("expected +50.0%% risk change, got %v", got.PctChange.Risk)
	}
}

func TestComparePeriodsRoundsToOneDecimal(t *testing.T) {
	t.Parallel()

	got := ComparePeriods(db.PeriodTotals{Items: 10}, db.PeriodTotals{Items: 3})
	if got.PctChange.Items == nil || *got.PctChange.Items != 233.3 {
		t.Fatalf("expected 233.3, got %v", got.PctChange.Items)
	}
}

func TestDetectAnomaliesFlagsSingleSpike(t *testing.T) {
	t.Parallel()

	points := make([]db.DailyPoint, 0, 30)
	start := day(2026, 3, 1)
	for i := 0; i < 30; i++ {
		total := int64(100)
		if i == 14 {
			total = 500
		}
		points = append(points, db.DailyPoint{Day: start.AddDate(0, 0, i), TotalItems: total})
	}

	anomalies := DetectAnomalies(points, 2.0)
	if len(anomalies) != 1 {
		t.Fatalf("expected exactly one anomaly, got %d", len(anomalies))
	}
	a := anomalies[0]
	if a.Metric != MetricTotalItems {
		t.Fatalf("unexpected metric: %q", a.Metric)
	}
	if !a.Day.Equal(start.AddDate(0, 0, 14)) {
		t.Fatalf("unexpected flagged day: %s", a.Day)
	}
	if a.Direction != DirectionHigh {
		t.Fatalf("expected high direction, got %q", a.Direction)
	}
	if a.Value != 500 {
		t.Fatalf("unexpected value: %d", a.Value)
	}
	if a.Sigma <= 2.0 {
		t.Fatalf("expected sigma distance above threshold, got %f", a.Sigma)
	}
}

func TestDetectAnomaliesSkipsZeroVariance(t *testing.T) {
	t.Parallel()

	points := []db.DailyPoint{
		{Day: day(2026, 3, 1), TotalItems: 100},
		{Day: day(2026, 3, 2), TotalItems: 100},
		{Day: day(2026, 3, 3), TotalItems: 100},
	}
	if got := DetectAnomalies(points, 2.0); len(got) != 0 {
		t.Fatalf("expected no anomalies for constant series, got %d", len(got))
	}
}

func TestDetectAnomaliesEmptyWindow(t *testing.T) {
	t.Parallel()

	if got := DetectAnomalies(nil, 2.0); len(got) != 0 {
		t.Fatalf("expected empty result for empty window, got %d", len(got))
	}
}

func TestDetectAnomaliesSortsByDayDescending(t *testing.T) {
	t.Parallel()

	points := []db.DailyPoint{
		{Day: day(2026, 3, 1), TotalItems: 100, TotalRisk: 10},
		{Day: day(2026, 3, 2), TotalItems: 100, TotalRisk: 10},
		{Day: day(2026, 3, 3), TotalItems: 100, TotalRisk: 10},
		{Day: day(2026, 3, 4), TotalItems: 100, TotalRisk: 10},
		{Day: day(2026, 3, 5), TotalItems: 100, TotalRisk: 10},
		{Day: day(2026, 3, 6), TotalItems: 100, TotalRisk: 10},
		{Day: day(2026, 3, 7), TotalItems: 100, TotalRisk: 10},
		{Day: day(2026, 3, 8), TotalItems: 100, TotalRisk: 10},
		{Day: day(2026, 3, 9), TotalItems: 100, TotalRisk: 10},
		{Day: day(2026, 3, 10), TotalItems: 600, TotalRisk: 10},
		{Day: day(2026, 3, 11), TotalItems: 100, TotalRisk: 90},
	}

	anomalies := DetectAnomalies(points, 2.0)
	if len(anomalies) != 2 {
		t.Fatalf("expected two anomalies, got %d", len(anomalies))
	}
	if !anomalies[0].Day.After(anomalies[1].Day) {
		t.Fatalf("expected day-descending order, got %s then %s", anomalies[0].Day, anomalies[1].Day)
	}
	if anomalies[0].Metric != MetricTotalRisk || anomalies[1].Metric != MetricTotalItems {
		t.Fatalf("unexpected metric order: %q, %q", anomalies[0].Metric, anomalies[1].Metric)
	}
}

func TestMeanAndSampleStd(t *testing.T) {
	t.Parallel()

	mean, std := meanAndSampleStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5.0 {
		t.Fatalf("unexpected mean: %f", mean)
	}
	// Sample std of this classic series is ~2.138.
	if std < 2.13 || std > 2.15 {
		t.Fatalf("unexpected sample std: %f", std)
	}

	if _, std := meanAndSampleStd([]float64{42}); std != 0 {
		t.Fatalf("expected zero std for a single observation, got %f", std)
	}
}

func TestRollupTopicWeeklyBucketsPerTopic(t *testing.T) {
	t.Parallel()

	// Two topics across ISO weeks 2 and 3 of 2026; per-topic sums must not
	// bleed into each other.
	points := []db.TopicTrendPoint{
		{Day: day(2026, 1, 5), Topic: "inversion", TotalItems: 4, TotalRisk: 1, TotalOpportunity: 2},
		{Day: day(2026, 1, 7), Topic: "inversion", TotalItems: 6, TotalRisk: 2, TotalOpportunity: 1},
		{Day: day(2026, 1, 7), Topic: "empleo", TotalItems: 3, TotalRisk: 0, TotalOpportunity: 3},
		{Day: day(2026, 1, 12), Topic: "inversion", TotalItems: 5, TotalRisk: 1, TotalOpportunity: 0},
	}

	summaries := RollupTopicWeekly(points)
	if len(summaries) != 3 {
		t.Fatalf("expected 3 (week, topic) buckets, got %d", len(summaries))
	}

	// Ascending by week, then topic within the week.
	if summaries[0].Label != "2026-W02" || summaries[0].Topic != "empleo" {
		t.Fatalf("unexpected first bucket: %+v", summaries[0])
	}
	if summaries[0].TotalItems != 3 || summaries[0].TotalOpportunity != 3 {
		t.Fatalf("unexpected empleo sums: %+v", summaries[0])
	}

	if summaries[1].Label != "2026-W02" || summaries[1].Topic != "inversion" {
		t.Fatalf("unexpected second bucket: %+v", summaries[1])
	}
	if summaries[1].TotalItems != 10 || summaries[1].TotalRisk != 3 || summaries[1].TotalOpportunity != 3 {
		t.Fatalf("unexpected inversion week-2 sums: %+v", summaries[1])
	}

	if summaries[2].Label != "2026-W03" || summaries[2].Topic != "inversion" || summaries[2].TotalItems != 5 {
		t.Fatalf("unexpected third bucket: %+v", summaries[2])
	}
}

func TestRollupTopicWeeklyEmpty(t *testing.T) {
	t.Parallel()

	if summaries := RollupTopicWeekly(nil); len(summaries) != 0 {
		t.Fatalf("expected no buckets for empty input, got %d", len(summaries))
	}
}
