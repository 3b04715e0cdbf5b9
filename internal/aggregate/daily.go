// internal/aggregate/daily.go
package aggregate

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	apperrors "paperless-analytics/internal/common/errors"
	"paperless-analytics/internal/common/metrics"
	"paperless-analytics/internal/models"

	"golang.org/x/sync/errgroup"
)

// AggregateDaily computes one DailyStats record per branch active on the given
// date (default: yesterday in the configured timezone), then refreshes branch
// performance and customer engagement for every branch and customer touched.
// Branches are processed concurrently on a bounded pool; one branch failing is
// logged and does not abort the others.
func (s *Service) AggregateDaily(ctx context.Context, date string) error {
	start := time.Now()
	defer func() {
		metrics.AggregationDuration.WithLabelValues("daily").Observe(time.Since(start).Seconds())
	}()

	if date == "" {
		date = yesterday(s.clock.Now(), s.location)
	}

	from, to, err := dayWindow(date, s.location)
	if err != nil {
		metrics.AggregationRuns.WithLabelValues("daily", "failed").Inc()
		return apperrors.NewInvalidDateError(date)
	}

	log := s.logger.WithFields(map[string]interface{}{"date": date})
	log.Info("starting daily aggregation", nil)

	branchIDs, err := s.events.DistinctBranches(ctx, from, to)
	if err != nil {
		metrics.AggregationRuns.WithLabelValues("daily", "failed").Inc()
		return fmt.Errorf("daily aggregation %s: %w", date, err)
	}
	if len(branchIDs) == 0 {
		log.Info("no visit events for date, nothing to aggregate", nil)
		metrics.AggregationRuns.WithLabelValues("daily", "completed").Inc()
		return nil
	}

	var completed, failed int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.BranchWorkers)
	for _, branchID := range branchIDs {
		branchID := branchID
		g.Go(func() error {
			if err := s.aggregateBranchDay(gctx, branchID, date, from, to); err != nil {
				atomic.AddInt64(&failed, 1)
				metrics.BranchesAggregated.WithLabelValues("failed").Inc()
				log.Error("branch aggregation failed", map[string]interface{}{
					"branchId": branchID,
					"error":    err,
				})
				return nil // isolate the failure, keep processing other branches
			}
			atomic.AddInt64(&completed, 1)
			metrics.BranchesAggregated.WithLabelValues("completed").Inc()
			return nil
		})
	}
	_ = g.Wait()

	log.Info("daily aggregation finished", map[string]interface{}{
		"branches":  len(branchIDs),
		"completed": completed,
		"failed":    failed,
	})

	if completed == 0 {
		metrics.AggregationRuns.WithLabelValues("daily", "failed").Inc()
		return apperrors.NewAggregationFailedError("all", fmt.Errorf("every branch failed for %s", date))
	}
	metrics.AggregationRuns.WithLabelValues("daily", "completed").Inc()
	return nil
}

func (s *Service) aggregateBranchDay(ctx context.Context, branchID, date string, from, to time.Time) error {
	visits, err := s.events.ListVisits(ctx, branchID, from, to)
	if err != nil {
		return err
	}
	if len(visits) == 0 {
		return nil
	}

	branchName, district := s.branchInfo(ctx, branchID)

	daily := models.DailyStats{
		Date:     date,
		BranchID: branchID,
		District: district,
	}

	seen := map[string]bool{}
	serviceIdx := map[string]int{}
	totalExpected := 0

	for _, v := range visits {
		daily.TotalQueueNumbers++
		switch v.Channel {
		case models.ChannelBranch:
			daily.BankInitiatedQueues++
		case models.ChannelMobile:
			daily.SuperAppInitiatedQueues++
		case models.ChannelQR:
			daily.QRInitiatedQueues++
		}

		if !seen[v.AccountNumber] {
			seen[v.AccountNumber] = true
			daily.UniqueCustomers = append(daily.UniqueCustomers, v.AccountNumber)
		}

		if idx, ok := serviceIdx[v.ServiceID]; ok {
			daily.ServiceBreakdown[idx].Count++
		} else {
			serviceIdx[v.ServiceID] = len(daily.ServiceBreakdown)
			daily.ServiceBreakdown = append(daily.ServiceBreakdown, models.ServiceBreakdownEntry{
				ServiceID:    v.ServiceID,
				ServiceName:  v.ServiceName,
				CategoryID:   v.CategoryID,
				CategoryName: v.CategoryName,
				Count:        1,
			})
		}

		totalExpected += v.ExpectedResponseTime
	}

	daily.UniqueCustomerCount = len(daily.UniqueCustomers)
	daily.AvgResponseTime = int(math.Round(float64(totalExpected) / float64(len(visits))))

	// Each distinct customer is repeat if any event at this branch predates
	// the window, new otherwise.
	for _, account := range daily.UniqueCustomers {
		prior, err := s.events.HasVisitBefore(ctx, branchID, account, from)
		if err != nil {
			return err
		}
		if prior {
			daily.RepeatCustomers++
		} else {
			daily.NewCustomers++
		}
	}

	if err := s.stats.UpsertDailyStats(ctx, daily); err != nil {
		return err
	}

	if err := s.updateBranchPerformance(ctx, branchID, branchName, district); err != nil {
		return err
	}

	for _, account := range daily.UniqueCustomers {
		if err := s.updateCustomerEngagement(ctx, branchID, account); err != nil {
			return err
		}
	}

	return nil
}
