// internal/aggregate/performance.go
package aggregate

import (
	"context"
	"math"

	"paperless-analytics/internal/models"
)

// PerformanceScore weighs queue volume at 60% and customer diversity at 40%,
// each saturating at its reference volume, yielding 0..100.
func PerformanceScore(totalQueues, uniqueCustomers int) int {
	queueScore := math.Min(float64(totalQueues)/1000, 1) * 60
	customerScore := math.Min(float64(uniqueCustomers)/500, 1) * 40
	return int(math.Round(queueScore + customerScore))
}

// updateBranchPerformance recomputes the branch's all-time totals from the
// full event history and upserts the performance record. The rank is owned by
// the ranking engine and never written here.
func (s *Service) updateBranchPerformance(ctx context.Context, branchID, branchName, district string) error {
	totals, found, err := s.events.AllTimeBranchTotals(ctx, branchID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	return s.stats.UpsertBranchPerformance(ctx, models.BranchPerformance{
		BranchID:             branchID,
		BranchName:           branchName,
		District:             district,
		IsActivated:          true,
		FirstQueueDate:       totals.FirstQueueDate,
		LastQueueDate:        totals.LastQueueDate,
		TotalQueueNumbers:    totals.TotalQueueNumbers,
		TotalUniqueCustomers: totals.TotalUniqueCustomers,
		PerformanceScore:     PerformanceScore(totals.TotalQueueNumbers, totals.TotalUniqueCustomers),
	})
}
