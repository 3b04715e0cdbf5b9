// internal/aggregate/periods.go
package aggregate

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// dayWindow returns the inclusive [start, end] instants of a calendar day.
func dayWindow(date string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end, nil
}

// yesterday returns the previous calendar day relative to now.
func yesterday(now time.Time, loc *time.Location) string {
	return now.In(loc).AddDate(0, 0, -1).Format(dateLayout)
}

// previousWeekStart returns the Monday of the last complete ISO week.
func previousWeekStart(now time.Time, loc *time.Location) string {
	t := now.In(loc)
	offset := (int(t.Weekday()) + 6) % 7 // days since Monday
	monday := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -offset)
	return monday.AddDate(0, 0, -7).Format(dateLayout)
}

// weekEnd returns the Sunday closing the ISO week beginning at weekStart.
func weekEnd(weekStart string, loc *time.Location) (string, error) {
	start, err := time.ParseInLocation(dateLayout, weekStart, loc)
	if err != nil {
		return "", fmt.Errorf("parse week start %q: %w", weekStart, err)
	}
	return start.AddDate(0, 0, 6).Format(dateLayout), nil
}

// previousMonth returns the last complete month as YYYY-MM.
func previousMonth(now time.Time, loc *time.Location) string {
	t := now.In(loc)
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return firstOfMonth.AddDate(0, -1, 0).Format("2006-01")
}

// monthBounds returns the first and last calendar day of a YYYY-MM month.
func monthBounds(month string, loc *time.Location) (string, string, error) {
	start, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return "", "", fmt.Errorf("parse month %q: %w", month, err)
	}
	end := start.AddDate(0, 1, -1)
	return start.Format(dateLayout), end.Format(dateLayout), nil
}
