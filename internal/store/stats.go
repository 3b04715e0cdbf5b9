// internal/store/stats.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"paperless-analytics/internal/models"
)

// StatsStore owns the derived aggregate tables. Every write is a full-replace
// upsert keyed by the record's period key, so re-running any aggregation
// converges without compensating logic.
type StatsStore struct {
	db *sql.DB
}

func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

// DailyFilter narrows DailyStats reads. Dates are inclusive YYYY-MM-DD strings.
type DailyFilter struct {
	StartDate string
	EndDate   string
	District  string
	BranchID  string
}

// UpsertDailyStats replaces the record for (date, branch).
func (s *StatsStore) UpsertDailyStats(ctx context.Context, d models.DailyStats) error {
	customers, err := json.Marshal(d.UniqueCustomers)
	if err != nil {
		return fmt.Errorf("marshal unique customers: %w", err)
	}
	breakdown, err := json.Marshal(d.ServiceBreakdown)
	if err != nil {
		return fmt.Errorf("marshal service breakdown: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO daily_stats (
			date, branch_id, district, total_queue_numbers,
			bank_initiated_queues, super_app_initiated_queues, qr_initiated_queues,
			unique_customers, unique_customer_count, service_breakdown,
			avg_response_time, repeat_customers, new_customers
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (date, branch_id) DO UPDATE SET
			district = EXCLUDED.district,
			total_queue_numbers = EXCLUDED.total_queue_numbers,
			bank_initiated_queues = EXCLUDED.bank_initiated_queues,
			super_app_initiated_queues = EXCLUDED.super_app_initiated_queues,
			qr_initiated_queues = EXCLUDED.qr_initiated_queues,
			unique_customers = EXCLUDED.unique_customers,
			unique_customer_count = EXCLUDED.unique_customer_count,
			service_breakdown = EXCLUDED.service_breakdown,
			avg_response_time = EXCLUDED.avg_response_time,
			repeat_customers = EXCLUDED.repeat_customers,
			new_customers = EXCLUDED.new_customers`,
		d.Date, d.BranchID, d.District, d.TotalQueueNumbers,
		d.BankInitiatedQueues, d.SuperAppInitiatedQueues, d.QRInitiatedQueues,
		customers, d.UniqueCustomerCount, breakdown,
		d.AvgResponseTime, d.RepeatCustomers, d.NewCustomers,
	)
	if err != nil {
		return fmt.Errorf("upsert daily stats: %w", err)
	}
	return nil
}

// ListDailyStats returns records matching the filter, oldest date first.
func (s *StatsStore) ListDailyStats(ctx context.Context, f DailyFilter) ([]models.DailyStats, error) {
	query := `
		SELECT date, branch_id, district, total_queue_numbers,
		       bank_initiated_queues, super_app_initiated_queues, qr_initiated_queues,
		       unique_customers, unique_customer_count, service_breakdown,
		       avg_response_time, repeat_customers, new_customers
		FROM daily_stats
		WHERE date >= $1 AND date <= $2`
	args := []interface{}{f.StartDate, f.EndDate}

	if f.District != "" {
		args = append(args, f.District)
		query += fmt.Sprintf(" AND district = $%d", len(args))
	}
	if f.BranchID != "" {
		args = append(args, f.BranchID)
		query += fmt.Sprintf(" AND branch_id = $%d", len(args))
	}
	query += " ORDER BY date, branch_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list daily stats: %w", err)
	}
	defer rows.Close()

	var out []models.DailyStats
	for rows.Next() {
		var d models.DailyStats
		var customers, breakdown []byte
		if err := rows.Scan(
			&d.Date, &d.BranchID, &d.District, &d.TotalQueueNumbers,
			&d.BankInitiatedQueues, &d.SuperAppInitiatedQueues, &d.QRInitiatedQueues,
			&customers, &d.UniqueCustomerCount, &breakdown,
			&d.AvgResponseTime, &d.RepeatCustomers, &d.NewCustomers,
		); err != nil {
			return nil, fmt.Errorf("scan daily stats: %w", err)
		}
		if err := json.Unmarshal(customers, &d.UniqueCustomers); err != nil {
			return nil, fmt.Errorf("unmarshal unique customers: %w", err)
		}
		if err := json.Unmarshal(breakdown, &d.ServiceBreakdown); err != nil {
			return nil, fmt.Errorf("unmarshal service breakdown: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DistinctDailyBranches returns branch ids with at least one daily record in the period.
func (s *StatsStore) DistinctDailyBranches(ctx context.Context, startDate, endDate string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT branch_id FROM daily_stats
		WHERE date >= $1 AND date <= $2
		ORDER BY branch_id`,
		startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("distinct daily branches: %w", err)
	}
	defer rows.Close()

	var branches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan branch id: %w", err)
		}
		branches = append(branches, id)
	}
	return branches, rows.Err()
}

// UpsertWeeklyStats replaces the record for (weekStart, branch).
func (s *StatsStore) UpsertWeeklyStats(ctx context.Context, w models.WeeklyStats) error {
	top, err := json.Marshal(w.TopServices)
	if err != nil {
		return fmt.Errorf("marshal top services: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO weekly_stats (
			week_start, week_end, branch_id, district,
			total_queue_numbers, unique_customer_count, avg_response_time, top_services
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (week_start, branch_id) DO UPDATE SET
			week_end = EXCLUDED.week_end,
			district = EXCLUDED.district,
			total_queue_numbers = EXCLUDED.total_queue_numbers,
			unique_customer_count = EXCLUDED.unique_customer_count,
			avg_response_time = EXCLUDED.avg_response_time,
			top_services = EXCLUDED.top_services`,
		w.WeekStart, w.WeekEnd, w.BranchID, w.District,
		w.TotalQueueNumbers, w.UniqueCustomerCount, w.AvgResponseTime, top,
	)
	if err != nil {
		return fmt.Errorf("upsert weekly stats: %w", err)
	}
	return nil
}

// UpsertMonthlyStats replaces the record for (month, branch).
func (s *StatsStore) UpsertMonthlyStats(ctx context.Context, m models.MonthlyStats) error {
	top, err := json.Marshal(m.TopServices)
	if err != nil {
		return fmt.Errorf("marshal top services: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO monthly_stats (
			month, branch_id, district,
			total_queue_numbers, unique_customer_count, avg_response_time, top_services
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (month, branch_id) DO UPDATE SET
			district = EXCLUDED.district,
			total_queue_numbers = EXCLUDED.total_queue_numbers,
			unique_customer_count = EXCLUDED.unique_customer_count,
			avg_response_time = EXCLUDED.avg_response_time,
			top_services = EXCLUDED.top_services`,
		m.Month, m.BranchID, m.District,
		m.TotalQueueNumbers, m.UniqueCustomerCount, m.AvgResponseTime, top,
	)
	if err != nil {
		return fmt.Errorf("upsert monthly stats: %w", err)
	}
	return nil
}

// UpsertBranchPerformance replaces the branch's cumulative metrics. The
// performance_rank column is deliberately untouched; only the ranking engine
// writes it.
func (s *StatsStore) UpsertBranchPerformance(ctx context.Context, p models.BranchPerformance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO branch_performance (
			branch_id, branch_name, district, is_activated,
			first_queue_date, last_queue_date,
			total_queue_numbers, total_unique_customers, performance_score
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (branch_id) DO UPDATE SET
			branch_name = EXCLUDED.branch_name,
			district = EXCLUDED.district,
			is_activated = EXCLUDED.is_activated,
			first_queue_date = EXCLUDED.first_queue_date,
			last_queue_date = EXCLUDED.last_queue_date,
			total_queue_numbers = EXCLUDED.total_queue_numbers,
			total_unique_customers = EXCLUDED.total_unique_customers,
			performance_score = EXCLUDED.performance_score`,
		p.BranchID, p.BranchName, p.District, p.IsActivated,
		p.FirstQueueDate, p.LastQueueDate,
		p.TotalQueueNumbers, p.TotalUniqueCustomers, p.PerformanceScore,
	)
	if err != nil {
		return fmt.Errorf("upsert branch performance: %w", err)
	}
	return nil
}

// ListActivatedPerformance returns activated branches in insertion order, the
// stable base ordering the ranking engine sorts on.
func (s *StatsStore) ListActivatedPerformance(ctx context.Context) ([]models.BranchPerformance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT branch_id, branch_name, district, is_activated,
		       first_queue_date, last_queue_date,
		       total_queue_numbers, total_unique_customers,
		       performance_score, performance_rank
		FROM branch_performance
		WHERE is_activated
		ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list activated performance: %w", err)
	}
	defer rows.Close()

	return scanPerformance(rows)
}

// UpdateBranchRank persists the rank computed by the ranking engine.
func (s *StatsStore) UpdateBranchRank(ctx context.Context, branchID string, rank int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE branch_performance SET performance_rank = $2 WHERE branch_id = $1`,
		branchID, rank,
	)
	if err != nil {
		return fmt.Errorf("update branch rank: %w", err)
	}
	return nil
}

// CountActivatedBranches counts activated branches, optionally per district.
func (s *StatsStore) CountActivatedBranches(ctx context.Context, district string) (int, error) {
	query := `SELECT COUNT(*) FROM branch_performance WHERE is_activated`
	args := []interface{}{}
	if district != "" {
		query += ` AND district = $1`
		args = append(args, district)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count activated branches: %w", err)
	}
	return n, nil
}

// BestRankedBranch returns the branch holding rank 1 (lowest positive rank),
// optionally restricted to a district. Returns nil when no branch is ranked.
func (s *StatsStore) BestRankedBranch(ctx context.Context, district string) (*models.BranchPerformance, error) {
	query := `
		SELECT branch_id, branch_name, district, is_activated,
		       first_queue_date, last_queue_date,
		       total_queue_numbers, total_unique_customers,
		       performance_score, performance_rank
		FROM branch_performance
		WHERE performance_rank > 0`
	args := []interface{}{}
	if district != "" {
		query += ` AND district = $1`
		args = append(args, district)
	}
	query += ` ORDER BY performance_rank LIMIT 1`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("best ranked branch: %w", err)
	}
	defer rows.Close()

	list, err := scanPerformance(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// UpsertCustomerEngagement replaces the record for (account, branch).
func (s *StatsStore) UpsertCustomerEngagement(ctx context.Context, e models.CustomerEngagement) error {
	mostUsed, err := json.Marshal(e.MostUsedService)
	if err != nil {
		return fmt.Errorf("marshal most used service: %w", err)
	}
	dates, err := json.Marshal(e.VisitDates)
	if err != nil {
		return fmt.Errorf("marshal visit dates: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO customer_engagement (
			account_number, branch_id, total_visits,
			first_visit_date, last_visit_date,
			most_used_service, engagement_score, visit_dates
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (account_number, branch_id) DO UPDATE SET
			total_visits = EXCLUDED.total_visits,
			first_visit_date = EXCLUDED.first_visit_date,
			last_visit_date = EXCLUDED.last_visit_date,
			most_used_service = EXCLUDED.most_used_service,
			engagement_score = EXCLUDED.engagement_score,
			visit_dates = EXCLUDED.visit_dates`,
		e.AccountNumber, e.BranchID, e.TotalVisits,
		e.FirstVisitDate, e.LastVisitDate,
		mostUsed, e.EngagementScore, dates,
	)
	if err != nil {
		return fmt.Errorf("upsert customer engagement: %w", err)
	}
	return nil
}

// ListCustomerEngagement returns engagement records, optionally for one branch.
func (s *StatsStore) ListCustomerEngagement(ctx context.Context, branchID string) ([]models.CustomerEngagement, error) {
	query := `
		SELECT account_number, branch_id, total_visits,
		       first_visit_date, last_visit_date,
		       most_used_service, engagement_score, visit_dates
		FROM customer_engagement`
	args := []interface{}{}
	if branchID != "" {
		query += ` WHERE branch_id = $1`
		args = append(args, branchID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customer engagement: %w", err)
	}
	defer rows.Close()

	var out []models.CustomerEngagement
	for rows.Next() {
		var e models.CustomerEngagement
		var mostUsed, dates []byte
		if err := rows.Scan(
			&e.AccountNumber, &e.BranchID, &e.TotalVisits,
			&e.FirstVisitDate, &e.LastVisitDate,
			&mostUsed, &e.EngagementScore, &dates,
		); err != nil {
			return nil, fmt.Errorf("scan customer engagement: %w", err)
		}
		if err := json.Unmarshal(mostUsed, &e.MostUsedService); err != nil {
			return nil, fmt.Errorf("unmarshal most used service: %w", err)
		}
		if err := json.Unmarshal(dates, &e.VisitDates); err != nil {
			return nil, fmt.Errorf("unmarshal visit dates: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanPerformance(rows *sql.Rows) ([]models.BranchPerformance, error) {
	var out []models.BranchPerformance
	for rows.Next() {
		var p models.BranchPerformance
		var first, last sql.NullTime
		var rank sql.NullInt64
		if err := rows.Scan(
			&p.BranchID, &p.BranchName, &p.District, &p.IsActivated,
			&first, &last,
			&p.TotalQueueNumbers, &p.TotalUniqueCustomers,
			&p.PerformanceScore, &rank,
		); err != nil {
			return nil, fmt.Errorf("scan branch performance: %w", err)
		}
		p.FirstQueueDate = first.Time
		p.LastQueueDate = last.Time
		p.PerformanceRank = int(rank.Int64)
		out = append(out, p)
	}
	return out, rows.Err()
}
