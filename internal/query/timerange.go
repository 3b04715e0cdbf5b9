// internal/query/timerange.go
package query

import (
	"time"

	"paperless-analytics/internal/models"
)

const dateLayout = "2006-01-02"

// resolveRange turns a relative time-range token into a concrete inclusive
// [startDate, endDate] pair anchored at now. An explicit start/end pair on the
// query wins over the token; an unknown or empty token falls back to the last
// 30 days.
func resolveRange(q models.StatsQuery, now time.Time, loc *time.Location) (string, string) {
	if q.StartDate != "" && q.EndDate != "" {
		return q.StartDate, q.EndDate
	}

	t := now.In(loc)
	end := t.Format(dateLayout)

	var start time.Time
	switch q.TimeRange {
	case models.RangeDaily:
		start = t
	case models.RangeWeekly:
		start = t.AddDate(0, 0, -7)
	case models.RangeOneMonth:
		start = t.AddDate(0, -1, 0)
	case models.Range3Months:
		start = t.AddDate(0, -3, 0)
	case models.Range6Months:
		start = t.AddDate(0, -6, 0)
	case models.RangeOneYear:
		start = t.AddDate(-1, 0, 0)
	default:
		start = t.AddDate(0, 0, -30)
	}
	return start.Format(dateLayout), end
}
