// internal/aggregate/service.go
package aggregate

import (
	"context"
	"time"

	"paperless-analytics/internal/common/clock"
	"paperless-analytics/internal/common/logger"
	"paperless-analytics/internal/models"
	"paperless-analytics/internal/store"
)

// EventReader is the read-only view of the visit event store the aggregation
// engine depends on.
type EventReader interface {
	DistinctBranches(ctx context.Context, from, to time.Time) ([]string, error)
	ListVisits(ctx context.Context, branchID string, from, to time.Time) ([]models.Visit, error)
	HasVisitBefore(ctx context.Context, branchID, accountNumber string, before time.Time) (bool, error)
	ListCustomerVisits(ctx context.Context, branchID, accountNumber string) ([]models.Visit, error)
	AllTimeBranchTotals(ctx context.Context, branchID string) (store.BranchTotals, bool, error)
}

// StatsWriter is the aggregate store surface the engine writes through.
type StatsWriter interface {
	UpsertDailyStats(ctx context.Context, d models.DailyStats) error
	ListDailyStats(ctx context.Context, f store.DailyFilter) ([]models.DailyStats, error)
	DistinctDailyBranches(ctx context.Context, startDate, endDate string) ([]string, error)
	UpsertWeeklyStats(ctx context.Context, w models.WeeklyStats) error
	UpsertMonthlyStats(ctx context.Context, m models.MonthlyStats) error
	UpsertBranchPerformance(ctx context.Context, p models.BranchPerformance) error
	ListActivatedPerformance(ctx context.Context) ([]models.BranchPerformance, error)
	UpdateBranchRank(ctx context.Context, branchID string, rank int) error
	UpsertCustomerEngagement(ctx context.Context, e models.CustomerEngagement) error
}

// BranchDirectory resolves branch reference data.
type BranchDirectory interface {
	GetBranch(ctx context.Context, branchID string) (*models.Branch, error)
}

// Config holds the tunables the engine reads.
type Config struct {
	BranchWorkers int
	TopServices   int
}

// Service is the aggregation engine: daily statistics, weekly/monthly
// roll-ups, branch performance, customer engagement, and rankings.
type Service struct {
	events   EventReader
	stats    StatsWriter
	branches BranchDirectory
	clock    clock.Clock
	location *time.Location
	config   Config
	logger   logger.Logger
}

func NewService(events EventReader, stats StatsWriter, branches BranchDirectory, clk clock.Clock, loc *time.Location, cfg Config, log logger.Logger) *Service {
	if cfg.BranchWorkers <= 0 {
		cfg.BranchWorkers = 8
	}
	if cfg.TopServices <= 0 {
		cfg.TopServices = 10
	}
	return &Service{
		events:   events,
		stats:    stats,
		branches: branches,
		clock:    clk,
		location: loc,
		config:   cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "aggregate"}),
	}
}

// branchInfo resolves name and district, falling back to the raw id when the
// branch is not registered.
func (s *Service) branchInfo(ctx context.Context, branchID string) (name, district string) {
	name, district = branchID, "Unknown"
	b, err := s.branches.GetBranch(ctx, branchID)
	if err != nil {
		s.logger.Warn("branch lookup failed", map[string]interface{}{
			"branchId": branchID,
			"error":    err,
		})
		return name, district
	}
	if b != nil {
		if b.BranchName != "" {
			name = b.BranchName
		}
		if b.District != "" {
			district = b.District
		}
	}
	return name, district
}
