// Package trends derives rollups, period-over-period comparisons and
// statistical outlier flags from the pre-computed daily aggregates. It never
// recomputes from raw items.
package trends

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/juliananz/monitoreo-medios/internal/db"
)

// Metric names reported by anomaly detection.
const (
	MetricTotalItems       = "total_items"
	MetricTotalRisk        = "total_risk"
	MetricTotalOpportunity = "total_opportunity"
)

// Anomaly directions.
const (
	DirectionHigh = "high"
	DirectionLow  = "low"
)

// WeeklySummary is one ISO-week bucket of summed daily counters.
type WeeklySummary struct {
	Year             int     `json:"year"`
	Week             int     `json:"week"`
	Label            string  `json:"label"`
	TotalItems       int64   `json:"total_items"`
	TotalRelevant    int64   `json:"total_relevant"`
	TotalRisk        int64   `json:"total_risk"`
	TotalOpportunity int64   `json:"total_opportunity"`
	TotalMixed       int64   `json:"total_mixed"`
	AvgActiveSources float64 `json:"avg_active_sources"`
}

// MonthlySummary is one calendar-month bucket of summed daily counters.
type MonthlySummary struct {
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	Label            string  `json:"label"`
	TotalItems       int64   `json:"total_items"`
	TotalRelevant    int64   `json:"total_relevant"`
	TotalRisk        int64   `json:"total_risk"`
	TotalOpportunity int64   `json:"total_opportunity"`
	TotalMixed       int64   `json:"total_mixed"`
	AvgActiveSources float64 `json:"avg_active_sources"`
	DaysWithData     int     `json:"days_with_data"`
}

// ChangeSet carries one-decimal percentage changes between two periods. A
// nil field means the previous-period total was zero and the change is
// undefined.
type ChangeSet struct {
	Items       *float64 `json:"items"`
	Relevant    *float64 `json:"relevant"`
	Risk        *float64 `json:"risk"`
	Opportunity *float64 `json:"opportunity"`
}

// PeriodComparison pairs the summed totals of two periods with their
// percentage changes.
type PeriodComparison struct {
	Current   db.PeriodTotals `json:"current"`
	Previous  db.PeriodTotals `json:"previous"`
	PctChange ChangeSet       `json:"pct_change"`
}

// Anomaly is one (day, metric) outlier flag.
type Anomaly struct {
	Day       time.Time `json:"day"`
	Metric    string    `json:"metric"`
	Value     int64     `json:"value"`
	Mean      float64   `json:"mean"`
	Std       float64   `json:"std"`
	Direction string    `json:"direction"`
	Sigma     float64   `json:"sigma"`
}

// RollupWeekly sums daily points into ISO-week buckets, averaging the
// active-sources metric, ascending by week.
func RollupWeekly(points []db.DailyPoint) []WeeklySummary {
	type key struct {
		year, week int
	}
	buckets := make(map[key]*WeeklySummary)
	counts := make(map[key]int)
	sourceSums := make(map[key]int64)

	for _, pt := range points {
		year, week := pt.Day.ISOWeek()
		k := key{year, week}
		bucket, ok := buckets[k]
		if !ok {
			bucket = &WeeklySummary{
				Year:  year,
				Week:  week,
				Label: fmt.Sprintf("%04d-W%02d", year, week),
			}
			buckets[k] = bucket
		}
		bucket.TotalItems += pt.TotalItems
		bucket.TotalRelevant += pt.TotalRelevant
		bucket.TotalRisk += pt.TotalRisk
		bucket.TotalOpportunity += pt.TotalOpportunity
		bucket.TotalMixed += pt.TotalMixed
		sourceSums[k] += pt.ActiveSources
		counts[k]++
	}

	summaries := make([]WeeklySummary, 0, len(buckets))
	for k, bucket := range buckets {
		bucket.AvgActiveSources = round1(float64(sourceSums[k]) / float64(counts[k]))
		summaries = append(summaries, *bucket)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Year != summaries[j].Year {
			return summaries[i].Year < summaries[j].Year
		}
		return summaries[i].Week < summaries[j].Week
	})
	return summaries
}

// RollupMonthly sums daily points into (year, month) buckets, ascending.
func RollupMonthly(points []db.DailyPoint) []MonthlySummary {
	type key struct {
		year  int
		month time.Month
	}
	buckets := make(map[key]*MonthlySummary)
	sourceSums := make(map[key]int64)

	for _, pt := range points {
		k := key{pt.Day.Year(), pt.Day.Month()}
		bucket, ok := buckets[k]
		if !ok {
			bucket = &MonthlySummary{
				Year:  k.year,
				Month: int(k.month),
				Label: fmt.Sprintf("%04d-%02d", k.year, int(k.month)),
			}
			buckets[k] = bucket
		}
		bucket.TotalItems += pt.TotalItems
		bucket.TotalRelevant += pt.TotalRelevant
		bucket.TotalRisk += pt.TotalRisk
		bucket.TotalOpportunity += pt.TotalOpportunity
		bucket.TotalMixed += pt.TotalMixed
		bucket.DaysWithData++
		sourceSums[k] += pt.ActiveSources
	}

	summaries := make([]MonthlySummary, 0, len(buckets))
	for k, bucket := range buckets {
		bucket.AvgActiveSources = round1(float64(sourceSums[k]) / float64(bucket.DaysWithData))
		summaries = append(summaries, *bucket)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Year != summaries[j].Year {
			return summaries[i].Year < summaries[j].Year
		}
		return summaries[i].Month < summaries[j].Month
	})
	return summaries
}

// TopicWeeklySummary is one (ISO week, topic) bucket of summed topic
// counters.
type TopicWeeklySummary struct {
	Year             int    `json:"year"`
	Week             int    `json:"week"`
	Label            string `json:"label"`
	Topic            string `json:"topic"`
	TotalItems       int64  `json:"total_items"`
	TotalRisk        int64  `json:"total_risk"`
	TotalOpportunity int64  `json:"total_opportunity"`
}

// RollupTopicWeekly sums per-topic daily points into (ISO week, topic)
// buckets, ascending by week then topic.
func RollupTopicWeekly(points []db.TopicTrendPoint) []TopicWeeklySummary {
	type key struct {
		year, week int
		topic      string
	}
	buckets := make(map[key]*TopicWeeklySummary)

	for _, pt := range points {
		year, week := pt.Day.ISOWeek()
		k := key{year, week, pt.Topic}
		bucket, ok := buckets[k]
		if !ok {
			bucket = &TopicWeeklySummary{
				Year:  year,
				Week:  week,
				Label: fmt.Sprintf("%04d-W%02d", year, week),
				Topic: pt.Topic,
			}
			buckets[k] = bucket
		}
		bucket.TotalItems += pt.TotalItems
		bucket.TotalRisk += pt.TotalRisk
		bucket.TotalOpportunity += pt.TotalOpportunity
	}

	summaries := make([]TopicWeeklySummary, 0, len(buckets))
	for _, bucket := range buckets {
		summaries = append(summaries, *bucket)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Year != summaries[j].Year {
			return summaries[i].Year < summaries[j].Year
		}
		if summaries[i].Week != summaries[j].Week {
			return summaries[i].Week < summaries[j].Week
		}
		return summaries[i].Topic < summaries[j].Topic
	})
	return summaries
}

// ComparePeriods derives the percentage changes between two summed periods.
// A zero previous total yields a nil change, never a division.
func ComparePeriods(current, previous db.PeriodTotals) PeriodComparison {
	return PeriodComparison{
		Current:  current,
		Previous: previous,
		PctChange: ChangeSet{
			Items:       pctChange(current.Items, previous.Items),
			Relevant:    pctChange(current.Relevant, previous.Relevant),
			Risk:        pctChange(current.Risk, previous.Risk),
			Opportunity: pctChange(current.Opportunity, previous.Opportunity),
		},
	}
}

func pctChange(current, previous int64) *float64 {
	if previous <= 0 {
		return nil
	}
	change := round1(float64(current-previous) / float64(previous) * 100)
	return &change
}

// DetectAnomalies flags days whose metric value falls outside
// mean ± sigmaThreshold·std across the given window, per metric. Std is the
// sample standard deviation; zero-variance metrics are skipped. The result
// is sorted by day descending, one record per triggering metric.
func DetectAnomalies(points []db.DailyPoint, sigmaThreshold float64) []Anomaly {
	if len(points) == 0 {
		return nil
	}

	metrics := []struct {
		name  string
		value func(db.DailyPoint) int64
	}{
		{MetricTotalItems, func(pt db.DailyPoint) int64 { return pt.TotalItems }},
		{MetricTotalRisk, func(pt db.DailyPoint) int64 { return pt.TotalRisk }},
		{MetricTotalOpportunity, func(pt db.DailyPoint) int64 { return pt.TotalOpportunity }},
	}

	anomalies := make([]Anomaly, 0, 8)
	for _, metric := range metrics {
		values := make([]float64, len(points))
		for i, pt := range points {
			values[i] = float64(metric.value(pt))
		}

		mean, std := meanAndSampleStd(values)
		if std == 0 {
			continue
		}

		high := mean + sigmaThreshold*std
		low := mean - sigmaThreshold*std

		for i, pt := range points {
			value := values[i]
			var direction string
			switch {
			case value > high:
				direction = DirectionHigh
			case value < low:
				direction = DirectionLow
			default:
				continue
			}
			anomalies = append(anomalies, Anomaly{
				Day:       pt.Day,
				Metric:    metric.name,
				Value:     metric.value(pt),
				Mean:      round1(mean),
				Std:       round1(std),
				Direction: direction,
				Sigma:     round2((value - mean) / std),
			})
		}
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].Day.After(anomalies[j].Day)
	})
	return anomalies
}

// meanAndSampleStd returns the mean and the sample (n-1) standard
// deviation; std is 0 when fewer than two observations exist.
func meanAndSampleStd(values []float64) (float64, float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	if n < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(n-1))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
