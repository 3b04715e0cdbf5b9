// internal/aggregate/rollup.go
package aggregate

import (
	"context"
	"math"
	"sort"
	"time"

	apperrors "paperless-analytics/internal/common/errors"
	"paperless-analytics/internal/common/metrics"
	"paperless-analytics/internal/models"
	"paperless-analytics/internal/store"
)

// AggregateWeekly folds DailyStats inside one ISO week into a WeeklyStats
// record per branch. Defaults to the last complete week. Unlike the daily job,
// roll-ups are all-or-nothing: the first storage error fails the run.
func (s *Service) AggregateWeekly(ctx context.Context, weekStart string) error {
	start := time.Now()
	defer func() {
		metrics.AggregationDuration.WithLabelValues("weekly").Observe(time.Since(start).Seconds())
	}()

	if weekStart == "" {
		weekStart = previousWeekStart(s.clock.Now(), s.location)
	}
	end, err := weekEnd(weekStart, s.location)
	if err != nil {
		metrics.AggregationRuns.WithLabelValues("weekly", "failed").Inc()
		return apperrors.NewInvalidDateError(weekStart)
	}

	s.logger.Info("starting weekly aggregation", map[string]interface{}{
		"weekStart": weekStart,
		"weekEnd":   end,
	})

	err = s.rollupPeriod(ctx, weekStart, end, func(ctx context.Context, branchID string, r rollup) error {
		return s.stats.UpsertWeeklyStats(ctx, models.WeeklyStats{
			WeekStart:           weekStart,
			WeekEnd:             end,
			BranchID:            branchID,
			District:            r.district,
			TotalQueueNumbers:   r.totalQueueNumbers,
			UniqueCustomerCount: r.uniqueCustomerCount,
			AvgResponseTime:     r.avgResponseTime,
			TopServices:         r.topServices,
		})
	})
	if err != nil {
		metrics.AggregationRuns.WithLabelValues("weekly", "failed").Inc()
		return apperrors.NewRollupFailedError(weekStart, err)
	}
	metrics.AggregationRuns.WithLabelValues("weekly", "completed").Inc()
	return nil
}

// AggregateMonthly folds DailyStats inside one calendar month (YYYY-MM) into a
// MonthlyStats record per branch. Defaults to the last complete month.
func (s *Service) AggregateMonthly(ctx context.Context, month string) error {
	start := time.Now()
	defer func() {
		metrics.AggregationDuration.WithLabelValues("monthly").Observe(time.Since(start).Seconds())
	}()

	if month == "" {
		month = previousMonth(s.clock.Now(), s.location)
	}
	monthStart, monthEnd, err := monthBounds(month, s.location)
	if err != nil {
		metrics.AggregationRuns.WithLabelValues("monthly", "failed").Inc()
		return apperrors.NewInvalidDateError(month)
	}

	s.logger.Info("starting monthly aggregation", map[string]interface{}{"month": month})

	err = s.rollupPeriod(ctx, monthStart, monthEnd, func(ctx context.Context, branchID string, r rollup) error {
		return s.stats.UpsertMonthlyStats(ctx, models.MonthlyStats{
			Month:               month,
			BranchID:            branchID,
			District:            r.district,
			TotalQueueNumbers:   r.totalQueueNumbers,
			UniqueCustomerCount: r.uniqueCustomerCount,
			AvgResponseTime:     r.avgResponseTime,
			TopServices:         r.topServices,
		})
	})
	if err != nil {
		metrics.AggregationRuns.WithLabelValues("monthly", "failed").Inc()
		return apperrors.NewRollupFailedError(month, err)
	}
	metrics.AggregationRuns.WithLabelValues("monthly", "completed").Inc()
	return nil
}

// rollup is the per-branch fold of a period's daily records.
type rollup struct {
	district            string
	totalQueueNumbers   int
	uniqueCustomerCount int
	avgResponseTime     int
	topServices         []models.ServiceUsage
}

func (s *Service) rollupPeriod(ctx context.Context, startDate, endDate string, persist func(context.Context, string, rollup) error) error {
	branchIDs, err := s.stats.DistinctDailyBranches(ctx, startDate, endDate)
	if err != nil {
		return err
	}

	for _, branchID := range branchIDs {
		dailies, err := s.stats.ListDailyStats(ctx, store.DailyFilter{
			StartDate: startDate,
			EndDate:   endDate,
			BranchID:  branchID,
		})
		if err != nil {
			return err
		}
		if len(dailies) == 0 {
			continue
		}

		if err := persist(ctx, branchID, foldDailies(dailies, s.config.TopServices)); err != nil {
			return err
		}
	}
	return nil
}

// foldDailies merges a branch's daily records: totals are summed, customer
// sets are unioned so repeat visitors across days count once, service counts
// merge by id, and the response time is the mean of the daily means.
func foldDailies(dailies []models.DailyStats, topN int) rollup {
	r := rollup{district: dailies[0].District}

	customers := map[string]bool{}
	serviceIdx := map[string]int{}
	var services []models.ServiceUsage
	sumAvg := 0

	for _, d := range dailies {
		r.totalQueueNumbers += d.TotalQueueNumbers
		sumAvg += d.AvgResponseTime
		for _, c := range d.UniqueCustomers {
			customers[c] = true
		}
		for _, sb := range d.ServiceBreakdown {
			if idx, ok := serviceIdx[sb.ServiceID]; ok {
				services[idx].Count += sb.Count
			} else {
				serviceIdx[sb.ServiceID] = len(services)
				services = append(services, models.ServiceUsage{
					ServiceID:   sb.ServiceID,
					ServiceName: sb.ServiceName,
					Count:       sb.Count,
				})
			}
		}
	}

	r.uniqueCustomerCount = len(customers)
	r.avgResponseTime = int(math.Round(float64(sumAvg) / float64(len(dailies))))

	sort.SliceStable(services, func(i, j int) bool { return services[i].Count > services[j].Count })
	if len(services) > topN {
		services = services[:topN]
	}
	r.topServices = services

	return r
}
