// internal/store/events_test.go
package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperless-analytics/internal/models"
)

func newEventStore(t *testing.T) (*EventStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewEventStore(db), mock
}

func TestInsertVisit(t *testing.T) {
	s, mock := newEventStore(t)
	created := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO visit_events")).
		WithArgs("evt-1", "B1", "mobile", "ACC-1", "svc-1", "cat-1", int64(4), created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.InsertVisit(context.Background(), models.VisitEvent{
		ID:            "evt-1",
		BranchID:      "B1",
		Channel:       models.ChannelMobile,
		AccountNumber: "ACC-1",
		ServiceID:     "svc-1",
		CategoryID:    "cat-1",
		QueueNumber:   4,
		CreatedAt:     created,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDistinctBranches(t *testing.T) {
	s, mock := newEventStore(t)
	from := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT branch_id FROM visit_events")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"branch_id"}).AddRow("B1").AddRow("B2"))

	branches, err := s.DistinctBranches(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, []string{"B1", "B2"}, branches)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListVisits_JoinsServiceAttributes(t *testing.T) {
	s, mock := newEventStore(t)
	from := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	created := from.Add(9 * time.Hour)

	cols := []string{
		"id", "branch_id", "channel", "account_number", "service_id", "category_id",
		"queue_number", "created_at", "name", "category_name", "expected_response_time",
	}
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN services sv ON sv.service_id = e.service_id")).
		WithArgs("B1", from, to).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("evt-1", "B1", "branch", "ACC-1", "svc-1", "cat-1", int64(1), created, "Account Opening", "Accounts", 10).
			// Service missing from the reference table: falls back to raw ids.
			AddRow("evt-2", "B1", "qr", "ACC-2", "svc-9", "cat-9", int64(2), created, "svc-9", "cat-9", 0))

	visits, err := s.ListVisits(context.Background(), "B1", from, to)
	require.NoError(t, err)
	require.Len(t, visits, 2)

	assert.Equal(t, models.ChannelBranch, visits[0].Channel)
	assert.Equal(t, "Account Opening", visits[0].ServiceName)
	assert.Equal(t, 10, visits[0].ExpectedResponseTime)

	assert.Equal(t, "svc-9", visits[1].ServiceName)
	assert.Zero(t, visits[1].ExpectedResponseTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHasVisitBefore(t *testing.T) {
	s, mock := newEventStore(t)
	cutoff := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("B1", "ACC-1", cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	prior, err := s.HasVisitBefore(context.Background(), "B1", "ACC-1", cutoff)
	require.NoError(t, err)
	assert.True(t, prior)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAllTimeBranchTotals(t *testing.T) {
	s, mock := newEventStore(t)
	first := time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC)
	last := time.Date(2024, 1, 10, 17, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT account_number)")).
		WithArgs("B1").
		WillReturnRows(sqlmock.NewRows([]string{"count", "distinct", "min", "max"}).
			AddRow(120, 45, first, last))

	totals, found, err := s.AllTimeBranchTotals(context.Background(), "B1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 120, totals.TotalQueueNumbers)
	assert.Equal(t, 45, totals.TotalUniqueCustomers)
	assert.Equal(t, first, totals.FirstQueueDate)
	assert.Equal(t, last, totals.LastQueueDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAllTimeBranchTotals_NoEvents(t *testing.T) {
	s, mock := newEventStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT account_number)")).
		WithArgs("B9").
		WillReturnRows(sqlmock.NewRows([]string{"count", "distinct", "min", "max"}).
			AddRow(0, 0, nil, nil))

	_, found, err := s.AllTimeBranchTotals(context.Background(), "B9")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}
