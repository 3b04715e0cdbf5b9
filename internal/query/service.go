// Package query serves the read side of the statistics pipeline. Every method
// filters and folds rows the aggregation jobs already computed; raw visit
// events are never touched here. "No data" is a valid steady state, so methods
// return zero-valued structures instead of errors when nothing matches.
package query

import (
	"context"
	"math"
	"sort"
	"time"

	"paperless-analytics/internal/common/clock"
	apperrors "paperless-analytics/internal/common/errors"
	"paperless-analytics/internal/common/logger"
	"paperless-analytics/internal/common/metrics"
	"paperless-analytics/internal/models"
	"paperless-analytics/internal/store"
)

// StatsReader is the aggregate store surface the query service reads.
type StatsReader interface {
	ListDailyStats(ctx context.Context, f store.DailyFilter) ([]models.DailyStats, error)
	CountActivatedBranches(ctx context.Context, district string) (int, error)
	BestRankedBranch(ctx context.Context, district string) (*models.BranchPerformance, error)
	ListCustomerEngagement(ctx context.Context, branchID string) ([]models.CustomerEngagement, error)
}

// RefReader resolves branch and service reference data.
type RefReader interface {
	GetBranch(ctx context.Context, branchID string) (*models.Branch, error)
	CountBranches(ctx context.Context, district string) (int, error)
	CountActiveServices(ctx context.Context) (int, error)
}

// Service answers the statistics read endpoints.
type Service struct {
	stats    StatsReader
	ref      RefReader
	clock    clock.Clock
	location *time.Location
	topN     int
	logger   logger.Logger
}

func NewService(stats StatsReader, ref RefReader, clk clock.Clock, loc *time.Location, topN int, log logger.Logger) *Service {
	if topN <= 0 {
		topN = 10
	}
	return &Service{
		stats:    stats,
		ref:      ref,
		clock:    clk,
		location: loc,
		topN:     topN,
		logger:   log.WithFields(map[string]interface{}{"component": "query"}),
	}
}

func (s *Service) listDailies(ctx context.Context, q models.StatsQuery) ([]models.DailyStats, error) {
	start, end := resolveRange(q, s.clock.Now(), s.location)
	return s.stats.ListDailyStats(ctx, store.DailyFilter{
		StartDate: start,
		EndDate:   end,
		District:  q.District,
		BranchID:  q.BranchID,
	})
}

// GeneralStats returns the headline numbers for the dashboard landing view.
func (s *Service) GeneralStats(ctx context.Context, q models.StatsQuery) (models.GeneralStatsResponse, error) {
	metrics.StatisticsQueries.WithLabelValues("general").Inc()
	var resp models.GeneralStatsResponse

	dailies, err := s.listDailies(ctx, q)
	if err != nil {
		return resp, apperrors.NewQueryExecutionFailedError("general", err)
	}

	branches := map[string]bool{}
	customers := map[string]bool{}
	for _, d := range dailies {
		branches[d.BranchID] = true
		for _, c := range d.UniqueCustomers {
			customers[c] = true
		}
	}
	resp.TotalPaperlessActivatedBranches = len(branches)
	resp.TotalCustomers = len(customers)

	resp.TotalServices, err = s.ref.CountActiveServices(ctx)
	if err != nil {
		return resp, apperrors.NewQueryExecutionFailedError("general", err)
	}

	resp.BestPerformingBranch = s.bestBranchFromDailies(ctx, dailies)
	return resp, nil
}

// TransactionsOverTime returns total queue numbers per day, ascending by date.
func (s *Service) TransactionsOverTime(ctx context.Context, q models.StatsQuery) (models.TransactionsOverTimeResponse, error) {
	metrics.StatisticsQueries.WithLabelValues("transactions-overtime").Inc()
	var resp models.TransactionsOverTimeResponse

	dailies, err := s.listDailies(ctx, q)
	if err != nil {
		return resp, apperrors.NewQueryExecutionFailedError("transactions-overtime", err)
	}

	byDate := map[string]int{}
	for _, d := range dailies {
		byDate[d.Date] += d.TotalQueueNumbers
	}

	points := make([]models.TransactionsPoint, 0, len(byDate))
	for date, count := range byDate {
		points = append(points, models.TransactionsPoint{Date: date, Count: count})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })

	resp.TotalTransactionsOverTime = points
	return resp, nil
}

// MostUsedServices returns the top services by visit count; percentages are
// shares of the returned list, so they sum to roughly 100.
func (s *Service) MostUsedServices(ctx context.Context, q models.StatsQuery) (models.MostUsedServicesResponse, error) {
	metrics.StatisticsQueries.WithLabelValues("most-used-services").Inc()
	var resp models.MostUsedServicesResponse

	dailies, err := s.listDailies(ctx, q)
	if err != nil {
		return resp, apperrors.NewQueryExecutionFailedError("most-used-services", err)
	}

	services := mergeServiceCounts(dailies)
	if len(services) > s.topN {
		services = services[:s.topN]
	}

	total := 0
	for _, su := range services {
		total += su.Count
	}

	resp.MostUsedServices = make([]models.MostUsedService, 0, len(services))
	for _, su := range services {
		resp.MostUsedServices = append(resp.MostUsedServices, models.MostUsedService{
			ServiceID:   su.ServiceID,
			ServiceName: su.ServiceName,
			Count:       su.Count,
			Percentage:  int(math.Round(float64(su.Count) / float64(total) * 100)),
		})
	}
	return resp, nil
}

// BestPerformingBranch returns the branch with the most queue numbers in the window.
func (s *Service) BestPerformingBranch(ctx context.Context, q models.StatsQuery) (models.BestPerformingBranchResponse, error) {
	metrics.StatisticsQueries.WithLabelValues("best-performing-branch").Inc()
	var resp models.BestPerformingBranchResponse

	dailies, err := s.listDailies(ctx, q)
	if err != nil {
		return resp, apperrors.NewQueryExecutionFailedError("best-performing-branch", err)
	}

	resp.BestPerformingBranch = s.bestBranchFromDailies(ctx, dailies)
	return resp, nil
}

// BestPerformingBranches returns up to topN branches ordered by queue volume,
// each with its position in the list.
func (s *Service) BestPerformingBranches(ctx context.Context, q models.StatsQuery) (models.BestPerformingBranchesResponse, error) {
	metrics.StatisticsQueries.WithLabelValues("best-performing-branches-list").Inc()
	var resp models.BestPerformingBranchesResponse

	dailies, err := s.listDailies(ctx, q)
	if err != nil {
		return resp, apperrors.NewQueryExecutionFailedError("best-performing-branches-list", err)
	}

	summaries := s.rankBranches(ctx, dailies, s.topN)
	resp.BestPerformingBranches = summaries
	return resp, nil
}

// CustomerEngagementScore averages engagement scores, optionally for one branch.
func (s *Service) CustomerEngagementScore(ctx context.Context, q models.StatsQuery) (models.CustomerEngagementScoreResponse, error) {
	metrics.StatisticsQueries.WithLabelValues("customer-engagement").Inc()
	var resp models.CustomerEngagementScoreResponse

	records, err := s.stats.ListCustomerEngagement(ctx, q.BranchID)
	if err != nil {
		return resp, apperrors.NewQueryExecutionFailedError("customer-engagement", err)
	}
	if len(records) == 0 {
		return resp, nil
	}

	sum := 0
	for _, r := range records {
		sum += r.EngagementScore
	}
	resp.CustomerEngagementScore = int(math.Round(float64(sum) / float64(len(records))))
	return resp, nil
}

// BranchInsights reports paperless adoption across the branch network.
func (s *Service) BranchInsights(ctx context.Context, district string) (models.BranchInsightsResponse, error) {
	metrics.StatisticsQueries.WithLabelValues("branch-insights").Inc()
	var resp models.BranchInsightsResponse

	registered, err := s.ref.CountBranches(ctx, district)
	if err != nil {
		return resp, apperrors.NewQueryExecutionFailedError("branch-insights", err)
	}
	enabled, err := s.stats.CountActivatedBranches(ctx, district)
	if err != nil {
		return resp, apperrors.NewQueryExecutionFailedError("branch-insights", err)
	}

	resp.TotalRegisteredBranches = registered
	resp.TotalPaperlessEnabledBranches = enabled
	resp.TotalNonPaperlessBranches = registered - enabled

	best, err := s.stats.BestRankedBranch(ctx, district)
	if err != nil {
		return resp, apperrors.NewQueryExecutionFailedError("branch-insights", err)
	}
	if best != nil {
		resp.BestPerformingBranch = models.BranchSummary{
			BranchID:          best.BranchID,
			BranchName:        best.BranchName,
			TotalQueueNumbers: best.TotalQueueNumbers,
			TotalCustomers:    best.TotalUniqueCustomers,
		}
	}

	// Satisfaction scoring waits on the survey intake; zero until then.
	resp.CustomerSatisfactionScore = 0
	return resp, nil
}

// BranchDetail folds one branch's daily rows into its dashboard card.
func (s *Service) BranchDetail(ctx context.Context, branchID string, q models.StatsQuery) (models.BranchDetailResponse, error) {
	metrics.StatisticsQueries.WithLabelValues("branch-detail").Inc()

	q.BranchID = branchID
	q.District = ""
	resp := models.BranchDetailResponse{BranchID: branchID, BranchName: s.branchName(ctx, branchID)}

	dailies, err := s.listDailies(ctx, q)
	if err != nil {
		return resp, apperrors.NewQueryExecutionFailedError("branch-detail", err)
	}
	if len(dailies) == 0 {
		return resp, nil
	}

	sumAvg := 0
	for _, d := range dailies {
		resp.TotalQueueNumbers += d.TotalQueueNumbers
		resp.BankInitiatedQueues += d.BankInitiatedQueues
		resp.SuperAppInitiatedQueues += d.SuperAppInitiatedQueues
		resp.QRInitiatedQueues += d.QRInitiatedQueues
		sumAvg += d.AvgResponseTime
	}
	resp.AvgResponseTime = int(math.Round(float64(sumAvg) / float64(len(dailies))))

	if services := mergeServiceCounts(dailies); len(services) > 0 {
		resp.MostServedService = services[0]
	}
	return resp, nil
}

// CustomerStats summarizes the customer base over the window.
func (s *Service) CustomerStats(ctx context.Context, q models.StatsQuery) (models.CustomerStatsResponse, error) {
	metrics.StatisticsQueries.WithLabelValues("customers").Inc()
	var resp models.CustomerStatsResponse

	dailies, err := s.listDailies(ctx, q)
	if err != nil {
		return resp, apperrors.NewQueryExecutionFailedError("customers", err)
	}

	customers := map[string]bool{}
	for _, d := range dailies {
		for _, c := range d.UniqueCustomers {
			customers[c] = true
		}
	}
	resp.TotalCustomers = len(customers)

	if services := mergeServiceCounts(dailies); len(services) > 0 {
		resp.MostUsedService = services[0]
	}
	resp.CustomerSatisfactionScore = 0
	return resp, nil
}

// mergeServiceCounts folds daily service breakdowns into one list, counts
// summed by service id, ordered by count descending with first-encounter
// order breaking ties.
func mergeServiceCounts(dailies []models.DailyStats) []models.ServiceUsage {
	idx := map[string]int{}
	var services []models.ServiceUsage
	for _, d := range dailies {
		for _, sb := range d.ServiceBreakdown {
			if i, ok := idx[sb.ServiceID]; ok {
				services[i].Count += sb.Count
			} else {
				idx[sb.ServiceID] = len(services)
				services = append(services, models.ServiceUsage{
					ServiceID:   sb.ServiceID,
					ServiceName: sb.ServiceName,
					Count:       sb.Count,
				})
			}
		}
	}
	sort.SliceStable(services, func(i, j int) bool { return services[i].Count > services[j].Count })
	return services
}

// branchVolume is a branch's fold over the window for ranking by volume.
type branchVolume struct {
	branchID  string
	total     int
	customers map[string]bool
}

func foldBranchVolumes(dailies []models.DailyStats) []*branchVolume {
	idx := map[string]int{}
	var volumes []*branchVolume
	for _, d := range dailies {
		i, ok := idx[d.BranchID]
		if !ok {
			i = len(volumes)
			idx[d.BranchID] = i
			volumes = append(volumes, &branchVolume{branchID: d.BranchID, customers: map[string]bool{}})
		}
		volumes[i].total += d.TotalQueueNumbers
		for _, c := range d.UniqueCustomers {
			volumes[i].customers[c] = true
		}
	}
	sort.SliceStable(volumes, func(i, j int) bool { return volumes[i].total > volumes[j].total })
	return volumes
}

func (s *Service) bestBranchFromDailies(ctx context.Context, dailies []models.DailyStats) models.BranchSummary {
	volumes := foldBranchVolumes(dailies)
	if len(volumes) == 0 {
		return models.BranchSummary{}
	}
	top := volumes[0]
	return models.BranchSummary{
		BranchID:          top.branchID,
		BranchName:        s.branchName(ctx, top.branchID),
		TotalQueueNumbers: top.total,
		TotalCustomers:    len(top.customers),
	}
}

func (s *Service) rankBranches(ctx context.Context, dailies []models.DailyStats, limit int) []models.RankedBranchSummary {
	volumes := foldBranchVolumes(dailies)
	if len(volumes) > limit {
		volumes = volumes[:limit]
	}
	out := make([]models.RankedBranchSummary, 0, len(volumes))
	for i, v := range volumes {
		out = append(out, models.RankedBranchSummary{
			BranchSummary: models.BranchSummary{
				BranchID:          v.branchID,
				BranchName:        s.branchName(ctx, v.branchID),
				TotalQueueNumbers: v.total,
				TotalCustomers:    len(v.customers),
			},
			Rank: i + 1,
		})
	}
	return out
}

// branchName resolves the display name, falling back to the raw id.
func (s *Service) branchName(ctx context.Context, branchID string) string {
	b, err := s.ref.GetBranch(ctx, branchID)
	if err != nil {
		s.logger.Warn("branch lookup failed", map[string]interface{}{
			"branchId": branchID,
			"error":    err,
		})
		return branchID
	}
	if b == nil || b.BranchName == "" {
		return branchID
	}
	return b.BranchName
}
