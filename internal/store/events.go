// internal/store/events.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"paperless-analytics/internal/models"
)

// EventStore reads and appends visit events. The aggregation path only ever
// reads; the single writer is the visit intake handler.
type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// InsertVisit appends one visit event.
func (s *EventStore) InsertVisit(ctx context.Context, v models.VisitEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visit_events (id, branch_id, channel, account_number, service_id, category_id, queue_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		v.ID, v.BranchID, string(v.Channel), v.AccountNumber, v.ServiceID, v.CategoryID, v.QueueNumber, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// DistinctBranches returns branch ids with at least one visit in [from, to].
func (s *EventStore) DistinctBranches(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT branch_id FROM visit_events
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY branch_id`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("distinct branches: %w", err)
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

// ListVisits returns one branch's visits in [from, to], joined with the static
// service attributes the aggregator needs. Unknown services degrade to the raw
// identifier with a zero expected response time.
func (s *EventStore) ListVisits(ctx context.Context, branchID string, from, to time.Time) ([]models.Visit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.branch_id, e.channel, e.account_number, e.service_id, e.category_id,
		       e.queue_number, e.created_at,
		       COALESCE(sv.name, e.service_id),
		       COALESCE(sv.category_name, e.category_id),
		       COALESCE(sv.expected_response_time, 0)
		FROM visit_events e
		LEFT JOIN services sv ON sv.service_id = e.service_id
		WHERE e.branch_id = $1 AND e.created_at >= $2 AND e.created_at <= $3
		ORDER BY e.created_at`,
		branchID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	return scanVisits(rows)
}

// ListCustomerVisits returns every visit a customer made at a branch, oldest first.
func (s *EventStore) ListCustomerVisits(ctx context.Context, branchID, accountNumber string) ([]models.Visit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.branch_id, e.channel, e.account_number, e.service_id, e.category_id,
		       e.queue_number, e.created_at,
		       COALESCE(sv.name, e.service_id),
		       COALESCE(sv.category_name, e.category_id),
		       COALESCE(sv.expected_response_time, 0)
		FROM visit_events e
		LEFT JOIN services sv ON sv.service_id = e.service_id
		WHERE e.branch_id = $1 AND e.account_number = $2
		ORDER BY e.created_at`,
		branchID, accountNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("list customer visits: %w", err)
	}
	defer rows.Close()

	return scanVisits(rows)
}

// HasVisitBefore reports whether the customer visited the branch before the cutoff.
func (s *EventStore) HasVisitBefore(ctx context.Context, branchID, accountNumber string, before time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM visit_events
			WHERE branch_id = $1 AND account_number = $2 AND created_at < $3
		)`,
		branchID, accountNumber, before,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("prior visit check: %w", err)
	}
	return exists, nil
}

// BranchTotals is a branch's all-time event summary.
type BranchTotals struct {
	TotalQueueNumbers    int
	TotalUniqueCustomers int
	FirstQueueDate       time.Time
	LastQueueDate        time.Time
}

// AllTimeBranchTotals scans the branch's full history. Returns found=false when
// the branch has no events at all.
func (s *EventStore) AllTimeBranchTotals(ctx context.Context, branchID string) (BranchTotals, bool, error) {
	var t BranchTotals
	var first, last sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT account_number), MIN(created_at), MAX(created_at)
		FROM visit_events WHERE branch_id = $1`,
		branchID,
	).Scan(&t.TotalQueueNumbers, &t.TotalUniqueCustomers, &first, &last)
	if err != nil {
		return BranchTotals{}, false, fmt.Errorf("all-time branch totals: %w", err)
	}
	if t.TotalQueueNumbers == 0 {
		return BranchTotals{}, false, nil
	}
	t.FirstQueueDate = first.Time
	t.LastQueueDate = last.Time
	return t, true, nil
}

func scanVisits(rows *sql.Rows) ([]models.Visit, error) {
	var visits []models.Visit
	for rows.Next() {
		var v models.Visit
		var channel string
		if err := rows.Scan(
			&v.ID, &v.BranchID, &channel, &v.AccountNumber, &v.ServiceID, &v.CategoryID,
			&v.QueueNumber, &v.CreatedAt,
			&v.ServiceName, &v.CategoryName, &v.ExpectedResponseTime,
		); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		v.Channel = models.Channel(channel)
		visits = append(visits, v)
	}
	return visits, rows.Err()
}
