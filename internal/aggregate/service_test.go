// internal/aggregate/service_test.go
package aggregate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperless-analytics/internal/common/clock"
	"paperless-analytics/internal/common/logger"
	"paperless-analytics/internal/models"
	"paperless-analytics/internal/store"
)

var testLoc = func() *time.Location {
	loc, err := time.LoadLocation("Africa/Addis_Ababa")
	if err != nil {
		panic(err)
	}
	return loc
}()

type fakeEvents struct {
	mu     sync.Mutex
	visits []models.Visit

	listErr error
}

func (f *fakeEvents) DistinctBranches(_ context.Context, from, to time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, v := range f.visits {
		if v.CreatedAt.Before(from) || v.CreatedAt.After(to) {
			continue
		}
		if !seen[v.BranchID] {
			seen[v.BranchID] = true
			ids = append(ids, v.BranchID)
		}
	}
	return ids, nil
}

func (f *fakeEvents) ListVisits(_ context.Context, branchID string, from, to time.Time) ([]models.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Visit
	for _, v := range f.visits {
		if v.BranchID == branchID && !v.CreatedAt.Before(from) && !v.CreatedAt.After(to) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeEvents) HasVisitBefore(_ context.Context, branchID, accountNumber string, before time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.visits {
		if v.BranchID == branchID && v.AccountNumber == accountNumber && v.CreatedAt.Before(before) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEvents) ListCustomerVisits(_ context.Context, branchID, accountNumber string) ([]models.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Visit
	for _, v := range f.visits {
		if v.BranchID == branchID && v.AccountNumber == accountNumber {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeEvents) AllTimeBranchTotals(_ context.Context, branchID string) (store.BranchTotals, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var t store.BranchTotals
	customers := map[string]bool{}
	for _, v := range f.visits {
		if v.BranchID != branchID {
			continue
		}
		t.TotalQueueNumbers++
		customers[v.AccountNumber] = true
		if t.FirstQueueDate.IsZero() || v.CreatedAt.Before(t.FirstQueueDate) {
			t.FirstQueueDate = v.CreatedAt
		}
		if v.CreatedAt.After(t.LastQueueDate) {
			t.LastQueueDate = v.CreatedAt
		}
	}
	t.TotalUniqueCustomers = len(customers)
	return t, t.TotalQueueNumbers > 0, nil
}

type fakeStats struct {
	mu sync.Mutex

	daily       map[string]models.DailyStats // key date|branch
	weekly      map[string]models.WeeklyStats
	monthly     map[string]models.MonthlyStats
	performance map[string]models.BranchPerformance
	engagement  map[string]models.CustomerEngagement // key account|branch
	perfOrder   []string                             // insertion order of activated branches

	upsertDailyErr error
	updateRankErr  error
	listDailiesErr error
	rankUpdates    []string
}

func newFakeStats() *fakeStats {
	return &fakeStats{
		daily:       map[string]models.DailyStats{},
		weekly:      map[string]models.WeeklyStats{},
		monthly:     map[string]models.MonthlyStats{},
		performance: map[string]models.BranchPerformance{},
		engagement:  map[string]models.CustomerEngagement{},
	}
}

func (f *fakeStats) UpsertDailyStats(_ context.Context, d models.DailyStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertDailyErr != nil {
		return f.upsertDailyErr
	}
	f.daily[d.Date+"|"+d.BranchID] = d
	return nil
}

func (f *fakeStats) ListDailyStats(_ context.Context, filter store.DailyFilter) ([]models.DailyStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listDailiesErr != nil {
		return nil, f.listDailiesErr
	}
	var out []models.DailyStats
	for _, d := range f.daily {
		if d.Date < filter.StartDate || d.Date > filter.EndDate {
			continue
		}
		if filter.BranchID != "" && d.BranchID != filter.BranchID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeStats) DistinctDailyBranches(_ context.Context, startDate, endDate string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, d := range f.daily {
		if d.Date >= startDate && d.Date <= endDate && !seen[d.BranchID] {
			seen[d.BranchID] = true
			ids = append(ids, d.BranchID)
		}
	}
	return ids, nil
}

func (f *fakeStats) UpsertWeeklyStats(_ context.Context, w models.WeeklyStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.weekly[w.WeekStart+"|"+w.BranchID] = w
	return nil
}

func (f *fakeStats) UpsertMonthlyStats(_ context.Context, m models.MonthlyStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monthly[m.Month+"|"+m.BranchID] = m
	return nil
}

func (f *fakeStats) UpsertBranchPerformance(_ context.Context, p models.BranchPerformance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.performance[p.BranchID]; ok {
		p.PerformanceRank = existing.PerformanceRank // rank is never replaced by upserts
	} else {
		f.perfOrder = append(f.perfOrder, p.BranchID)
	}
	f.performance[p.BranchID] = p
	return nil
}

func (f *fakeStats) ListActivatedPerformance(_ context.Context) ([]models.BranchPerformance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.BranchPerformance
	for _, id := range f.perfOrder {
		if p := f.performance[id]; p.IsActivated {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStats) UpdateBranchRank(_ context.Context, branchID string, rank int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateRankErr != nil {
		return f.updateRankErr
	}
	p := f.performance[branchID]
	p.PerformanceRank = rank
	f.performance[branchID] = p
	f.rankUpdates = append(f.rankUpdates, branchID)
	return nil
}

func (f *fakeStats) UpsertCustomerEngagement(_ context.Context, e models.CustomerEngagement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.engagement[e.AccountNumber+"|"+e.BranchID] = e
	return nil
}

type fakeBranches struct {
	branches map[string]*models.Branch
}

func (f *fakeBranches) GetBranch(_ context.Context, branchID string) (*models.Branch, error) {
	return f.branches[branchID], nil
}

func visitAt(branch, account, serviceID, serviceName string, channel models.Channel, ert int, at time.Time) models.Visit {
	return models.Visit{
		VisitEvent: models.VisitEvent{
			BranchID:      branch,
			Channel:       channel,
			AccountNumber: account,
			ServiceID:     serviceID,
			CreatedAt:     at,
		},
		ServiceName:          serviceName,
		ExpectedResponseTime: ert,
	}
}

func newTestService(t *testing.T, events *fakeEvents, stats *fakeStats, now time.Time) *Service {
	t.Helper()
	branches := &fakeBranches{branches: map[string]*models.Branch{
		"B1": {BranchID: "B1", BranchName: "Bole Branch", District: "Addis Ababa"},
		"B2": {BranchID: "B2", BranchName: "Hawassa Branch", District: "Sidama"},
	}}
	return NewService(events, stats, branches, clock.Fixed(now), testLoc,
		Config{BranchWorkers: 4, TopServices: 10}, logger.NewTestLogger(t))
}

func TestAggregateDaily_SingleBranch(t *testing.T) {
	day := time.Date(2024, 1, 10, 9, 0, 0, 0, testLoc)
	now := time.Date(2024, 1, 11, 1, 0, 0, 0, testLoc)

	events := &fakeEvents{visits: []models.Visit{
		// A visited the branch the week before: repeat customer.
		visitAt("B1", "ACC-A", "svc-1", "Account Opening", models.ChannelBranch, 10, day.AddDate(0, 0, -7)),
		visitAt("B1", "ACC-A", "svc-1", "Account Opening", models.ChannelBranch, 10, day),
		visitAt("B1", "ACC-B", "svc-2", "Loan Inquiry", models.ChannelMobile, 30, day.Add(10*time.Minute)),
		visitAt("B1", "ACC-C", "svc-1", "Account Opening", models.ChannelQR, 10, day.Add(20*time.Minute)),
		visitAt("B1", "ACC-A", "svc-2", "Loan Inquiry", models.ChannelBranch, 30, day.Add(30*time.Minute)),
		visitAt("B1", "ACC-D", "svc-1", "Account Opening", models.ChannelMobile, 10, day.Add(40*time.Minute)),
	}}
	stats := newFakeStats()
	svc := newTestService(t, events, stats, now)

	require.NoError(t, svc.AggregateDaily(context.Background(), "2024-01-10"))

	d, ok := stats.daily["2024-01-10|B1"]
	require.True(t, ok)
	assert.Equal(t, 5, d.TotalQueueNumbers)
	assert.Equal(t, 2, d.BankInitiatedQueues)
	assert.Equal(t, 2, d.SuperAppInitiatedQueues)
	assert.Equal(t, 1, d.QRInitiatedQueues)
	assert.Equal(t, []string{"ACC-A", "ACC-B", "ACC-C", "ACC-D"}, d.UniqueCustomers)
	assert.Equal(t, 4, d.UniqueCustomerCount)
	assert.Equal(t, 1, d.RepeatCustomers)
	assert.Equal(t, 3, d.NewCustomers)
	assert.Equal(t, "Addis Ababa", d.District)
	// (10+30+10+30+10)/5 = 18
	assert.Equal(t, 18, d.AvgResponseTime)

	require.Len(t, d.ServiceBreakdown, 2)
	assert.Equal(t, "svc-1", d.ServiceBreakdown[0].ServiceID)
	assert.Equal(t, 3, d.ServiceBreakdown[0].Count)
	assert.Equal(t, "svc-2", d.ServiceBreakdown[1].ServiceID)
	assert.Equal(t, 2, d.ServiceBreakdown[1].Count)
}

func TestAggregateDaily_Idempotent(t *testing.T) {
	day := time.Date(2024, 1, 10, 9, 0, 0, 0, testLoc)
	now := time.Date(2024, 1, 11, 1, 0, 0, 0, testLoc)

	events := &fakeEvents{visits: []models.Visit{
		visitAt("B1", "ACC-A", "svc-1", "Account Opening", models.ChannelBranch, 10, day),
	}}
	stats := newFakeStats()
	svc := newTestService(t, events, stats, now)

	require.NoError(t, svc.AggregateDaily(context.Background(), "2024-01-10"))
	first := stats.daily["2024-01-10|B1"]

	require.NoError(t, svc.AggregateDaily(context.Background(), "2024-01-10"))
	second := stats.daily["2024-01-10|B1"]

	assert.Equal(t, first, second)
	assert.Len(t, stats.daily, 1)
}

func TestAggregateDaily_DefaultsToYesterday(t *testing.T) {
	day := time.Date(2024, 1, 10, 9, 0, 0, 0, testLoc)
	now := time.Date(2024, 1, 11, 1, 0, 0, 0, testLoc)

	events := &fakeEvents{visits: []models.Visit{
		visitAt("B1", "ACC-A", "svc-1", "Account Opening", models.ChannelBranch, 10, day),
	}}
	stats := newFakeStats()
	svc := newTestService(t, events, stats, now)

	require.NoError(t, svc.AggregateDaily(context.Background(), ""))
	_, ok := stats.daily["2024-01-10|B1"]
	assert.True(t, ok)
}

func TestAggregateDaily_InvalidDate(t *testing.T) {
	svc := newTestService(t, &fakeEvents{}, newFakeStats(), time.Now())
	err := svc.AggregateDaily(context.Background(), "10-01-2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_DATE")
}

func TestAggregateDaily_BranchFailureIsolated(t *testing.T) {
	day := time.Date(2024, 1, 10, 9, 0, 0, 0, testLoc)
	now := time.Date(2024, 1, 11, 1, 0, 0, 0, testLoc)

	events := &fakeEvents{visits: []models.Visit{
		visitAt("B1", "ACC-A", "svc-1", "Account Opening", models.ChannelBranch, 10, day),
		visitAt("B2", "ACC-B", "svc-1", "Account Opening", models.ChannelMobile, 10, day),
	}}
	stats := newFakeStats()
	svc := newTestService(t, events, stats, now)
	// Fail only B2's writes.
	svc.stats = &failOneStats{fakeStats: stats, failBranch: "B2"}

	require.NoError(t, svc.AggregateDaily(context.Background(), "2024-01-10"))
	_, ok := stats.daily["2024-01-10|B1"]
	assert.True(t, ok)
	_, ok = stats.daily["2024-01-10|B2"]
	assert.False(t, ok)
}

// failOneStats wraps fakeStats and rejects daily upserts for one branch.
type failOneStats struct {
	*fakeStats
	failBranch string
}

func (f *failOneStats) UpsertDailyStats(ctx context.Context, d models.DailyStats) error {
	if d.BranchID == f.failBranch {
		return errors.New("write refused")
	}
	return f.fakeStats.UpsertDailyStats(ctx, d)
}

func TestAggregateDaily_AllBranchesFail(t *testing.T) {
	day := time.Date(2024, 1, 10, 9, 0, 0, 0, testLoc)
	now := time.Date(2024, 1, 11, 1, 0, 0, 0, testLoc)

	events := &fakeEvents{visits: []models.Visit{
		visitAt("B1", "ACC-A", "svc-1", "Account Opening", models.ChannelBranch, 10, day),
	}}
	stats := newFakeStats()
	stats.upsertDailyErr = errors.New("store down")
	svc := newTestService(t, events, stats, now)

	err := svc.AggregateDaily(context.Background(), "2024-01-10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AGGREGATION_FAILED")
}

func TestAggregateDaily_NoEventsIsNoOp(t *testing.T) {
	stats := newFakeStats()
	svc := newTestService(t, &fakeEvents{}, stats, time.Date(2024, 1, 11, 1, 0, 0, 0, testLoc))

	require.NoError(t, svc.AggregateDaily(context.Background(), "2024-01-10"))
	assert.Empty(t, stats.daily)
}

func TestAggregateDaily_UpdatesPerformanceAndEngagement(t *testing.T) {
	day := time.Date(2024, 1, 10, 9, 0, 0, 0, testLoc)
	now := time.Date(2024, 1, 12, 1, 0, 0, 0, testLoc)

	events := &fakeEvents{visits: []models.Visit{
		visitAt("B1", "ACC-A", "svc-1", "Account Opening", models.ChannelBranch, 10, day),
		visitAt("B1", "ACC-A", "svc-2", "Loan Inquiry", models.ChannelMobile, 30, day.Add(time.Hour)),
		visitAt("B1", "ACC-A", "svc-1", "Account Opening", models.ChannelBranch, 10, day.Add(2*time.Hour)),
	}}
	stats := newFakeStats()
	svc := newTestService(t, events, stats, now)

	require.NoError(t, svc.AggregateDaily(context.Background(), "2024-01-10"))

	p, ok := stats.performance["B1"]
	require.True(t, ok)
	assert.True(t, p.IsActivated)
	assert.Equal(t, "Bole Branch", p.BranchName)
	assert.Equal(t, 3, p.TotalQueueNumbers)
	assert.Equal(t, 1, p.TotalUniqueCustomers)
	assert.Equal(t, PerformanceScore(3, 1), p.PerformanceScore)
	assert.Zero(t, p.PerformanceRank)

	e, ok := stats.engagement["ACC-A|B1"]
	require.True(t, ok)
	assert.Equal(t, 3, e.TotalVisits)
	assert.Equal(t, "svc-1", e.MostUsedService.ServiceID)
	assert.Equal(t, 2, e.MostUsedService.Count)
	assert.Len(t, e.VisitDates, 3)
	// Last visit ~2 days before now: 3 visits -> 7.5, recency 30-1=29, diversity 2/5*20=8.
	assert.Equal(t, EngagementScore(3, 1, 2), e.EngagementScore)
}

func TestPerformanceScore(t *testing.T) {
	tests := []struct {
		name            string
		queues          int
		uniqueCustomers int
		want            int
	}{
		{"zero activity", 0, 0, 0},
		{"saturated both", 1000, 500, 100},
		{"beyond saturation caps", 5000, 9000, 100},
		{"half volume", 500, 250, 50},
		{"rounding", 333, 100, 28}, // 19.98 + 8 = 27.98
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PerformanceScore(tt.queues, tt.uniqueCustomers))
		})
	}
}

func TestEngagementScore(t *testing.T) {
	tests := []struct {
		name     string
		visits   int
		days     int
		services int
		want     int
	}{
		{"max everything", 20, 0, 5, 100},
		{"stale customer", 20, 400, 5, 70},
		{"single fresh visit", 1, 0, 1, 37}, // 2.5 + 30 + 4
		{"zero", 0, 100, 0, 0},
		{"recency clamps at 30", 1, -5, 1, 37},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EngagementScore(tt.visits, tt.days, tt.services))
		})
	}
}

func TestAggregateWeekly_UnionsCustomersAcrossDays(t *testing.T) {
	now := time.Date(2024, 1, 15, 2, 0, 0, 0, testLoc) // Monday
	stats := newFakeStats()
	stats.daily["2024-01-08|B1"] = models.DailyStats{
		Date: "2024-01-08", BranchID: "B1", District: "Addis Ababa",
		TotalQueueNumbers: 3,
		UniqueCustomers:   []string{"ACC-A", "ACC-B"},
		AvgResponseTime:   10,
		ServiceBreakdown: []models.ServiceBreakdownEntry{
			{ServiceID: "svc-1", ServiceName: "Account Opening", Count: 2},
			{ServiceID: "svc-2", ServiceName: "Loan Inquiry", Count: 1},
		},
	}
	stats.daily["2024-01-09|B1"] = models.DailyStats{
		Date: "2024-01-09", BranchID: "B1", District: "Addis Ababa",
		TotalQueueNumbers: 2,
		UniqueCustomers:   []string{"ACC-A", "ACC-C"},
		AvgResponseTime:   21,
		ServiceBreakdown: []models.ServiceBreakdownEntry{
			{ServiceID: "svc-2", ServiceName: "Loan Inquiry", Count: 2},
		},
	}
	svc := newTestService(t, &fakeEvents{}, stats, now)

	require.NoError(t, svc.AggregateWeekly(context.Background(), ""))

	w, ok := stats.weekly["2024-01-08|B1"]
	require.True(t, ok)
	assert.Equal(t, "2024-01-14", w.WeekEnd)
	assert.Equal(t, 5, w.TotalQueueNumbers)
	// ACC-A appears both days but counts once.
	assert.Equal(t, 3, w.UniqueCustomerCount)
	// Mean of daily means: (10+21)/2 = 15.5 -> 16.
	assert.Equal(t, 16, w.AvgResponseTime)
	assert.Equal(t, "Addis Ababa", w.District)

	require.Len(t, w.TopServices, 2)
	assert.Equal(t, "svc-2", w.TopServices[0].ServiceID)
	assert.Equal(t, 3, w.TopServices[0].Count)
	assert.Equal(t, "svc-1", w.TopServices[1].ServiceID)
	assert.Equal(t, 2, w.TopServices[1].Count)
}

func TestAggregateWeekly_StorageErrorFailsRun(t *testing.T) {
	stats := newFakeStats()
	stats.daily["2024-01-08|B1"] = models.DailyStats{Date: "2024-01-08", BranchID: "B1", AvgResponseTime: 5}
	stats.listDailiesErr = errors.New("store down")
	svc := newTestService(t, &fakeEvents{}, stats, time.Now())

	err := svc.AggregateWeekly(context.Background(), "2024-01-08")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROLLUP_FAILED")
	assert.Empty(t, stats.weekly)
}

func TestAggregateMonthly(t *testing.T) {
	now := time.Date(2024, 2, 1, 3, 0, 0, 0, testLoc)
	stats := newFakeStats()
	stats.daily["2024-01-05|B1"] = models.DailyStats{
		Date: "2024-01-05", BranchID: "B1", District: "Addis Ababa",
		TotalQueueNumbers: 4, UniqueCustomers: []string{"ACC-A"}, AvgResponseTime: 12,
	}
	stats.daily["2024-01-25|B1"] = models.DailyStats{
		Date: "2024-01-25", BranchID: "B1", District: "Addis Ababa",
		TotalQueueNumbers: 6, UniqueCustomers: []string{"ACC-A", "ACC-B"}, AvgResponseTime: 18,
	}
	// Outside the month, must be ignored.
	stats.daily["2024-02-01|B1"] = models.DailyStats{
		Date: "2024-02-01", BranchID: "B1", TotalQueueNumbers: 100, AvgResponseTime: 1,
	}
	svc := newTestService(t, &fakeEvents{}, stats, now)

	require.NoError(t, svc.AggregateMonthly(context.Background(), ""))

	m, ok := stats.monthly["2024-01|B1"]
	require.True(t, ok)
	assert.Equal(t, 10, m.TotalQueueNumbers)
	assert.Equal(t, 2, m.UniqueCustomerCount)
	assert.Equal(t, 15, m.AvgResponseTime)
}

func TestAggregateMonthly_InvalidMonth(t *testing.T) {
	svc := newTestService(t, &fakeEvents{}, newFakeStats(), time.Now())
	err := svc.AggregateMonthly(context.Background(), "January 2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_DATE")
}

func TestRollup_TopServicesTruncated(t *testing.T) {
	breakdown := make([]models.ServiceBreakdownEntry, 0, 12)
	for i := 0; i < 12; i++ {
		breakdown = append(breakdown, models.ServiceBreakdownEntry{
			ServiceID: string(rune('a' + i)),
			Count:     12 - i,
		})
	}
	r := foldDailies([]models.DailyStats{{District: "X", ServiceBreakdown: breakdown, AvgResponseTime: 5}}, 10)
	assert.Len(t, r.topServices, 10)
	assert.Equal(t, "a", r.topServices[0].ServiceID)
}

func TestUpdateBranchRankings(t *testing.T) {
	stats := newFakeStats()
	scores := []int{10, 90, 90, 5}
	ids := []string{"B1", "B2", "B3", "B4"}
	for i, id := range ids {
		require.NoError(t, stats.UpsertBranchPerformance(context.Background(), models.BranchPerformance{
			BranchID:         id,
			IsActivated:      true,
			PerformanceScore: scores[i],
		}))
	}
	// Not activated, must be excluded.
	require.NoError(t, stats.UpsertBranchPerformance(context.Background(), models.BranchPerformance{
		BranchID:         "B5",
		PerformanceScore: 100,
	}))

	svc := newTestService(t, &fakeEvents{}, stats, time.Now())
	require.NoError(t, svc.UpdateBranchRankings(context.Background()))

	assert.Equal(t, 3, stats.performance["B1"].PerformanceRank)
	// B2 precedes B3 on equal score because it was inserted first.
	assert.Equal(t, 1, stats.performance["B2"].PerformanceRank)
	assert.Equal(t, 2, stats.performance["B3"].PerformanceRank)
	assert.Equal(t, 4, stats.performance["B4"].PerformanceRank)
	assert.Zero(t, stats.performance["B5"].PerformanceRank)
}

func TestUpdateBranchRankings_StorageErrorFailsRun(t *testing.T) {
	stats := newFakeStats()
	require.NoError(t, stats.UpsertBranchPerformance(context.Background(), models.BranchPerformance{
		BranchID: "B1", IsActivated: true, PerformanceScore: 50,
	}))
	stats.updateRankErr = errors.New("store down")

	svc := newTestService(t, &fakeEvents{}, stats, time.Now())
	err := svc.UpdateBranchRankings(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RANKING_FAILED")
}

func TestPeriodHelpers(t *testing.T) {
	// Wednesday 2024-01-17 -> previous week started Monday 2024-01-08.
	now := time.Date(2024, 1, 17, 12, 0, 0, 0, testLoc)
	assert.Equal(t, "2024-01-08", previousWeekStart(now, testLoc))

	end, err := weekEnd("2024-01-08", testLoc)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-14", end)

	assert.Equal(t, "2023-12", previousMonth(time.Date(2024, 1, 1, 0, 0, 0, 0, testLoc), testLoc))

	start, monthEnd, err := monthBounds("2024-02", testLoc)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", start)
	assert.Equal(t, "2024-02-29", monthEnd)
}
