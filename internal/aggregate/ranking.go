// internal/aggregate/ranking.go
package aggregate

import (
	"context"
	"sort"
	"time"

	apperrors "paperless-analytics/internal/common/errors"
	"paperless-analytics/internal/common/metrics"
)

// UpdateBranchRankings orders every activated branch by performance score,
// descending, ties broken by insertion order, and persists dense ranks
// starting at 1. Rankings are all-or-nothing: a storage error fails the run
// and the stale ranks stay consistent until the next attempt.
func (s *Service) UpdateBranchRankings(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.AggregationDuration.WithLabelValues("rankings").Observe(time.Since(start).Seconds())
	}()

	branches, err := s.stats.ListActivatedPerformance(ctx)
	if err != nil {
		metrics.AggregationRuns.WithLabelValues("rankings", "failed").Inc()
		return apperrors.NewRankingFailedError(err)
	}

	sort.SliceStable(branches, func(i, j int) bool {
		return branches[i].PerformanceScore > branches[j].PerformanceScore
	})

	for i, b := range branches {
		if err := s.stats.UpdateBranchRank(ctx, b.BranchID, i+1); err != nil {
			metrics.AggregationRuns.WithLabelValues("rankings", "failed").Inc()
			return apperrors.NewRankingFailedError(err)
		}
	}

	s.logger.Info("branch rankings updated", map[string]interface{}{"branches": len(branches)})
	metrics.AggregationRuns.WithLabelValues("rankings", "completed").Inc()
	return nil
}
