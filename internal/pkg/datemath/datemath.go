package datemath

import (
	"errors"
	"time"
)

// ErrInvalidRange is returned when a range starts after it ends.
var ErrInvalidRange = errors.New("start date is after end date")

const (
	dateLayout    = "2006-01-02"
	secondsPerDay = 24 * 60 * 60

	// MaxRangeDays is the longest leave range accepted, one leap year.
	MaxRangeDays = 366
)

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "YYYY-MM-DD" string into a UTC day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// FormatDate formats t as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// CalendarDays returns the inclusive number of days between start and end.
func CalendarDays(start, end time.Time) (int, error) {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return 0, ErrInvalidRange
	}
	return daysBetween(start, end) + 1, nil
}

// BusinessDays returns the inclusive number of Monday-Friday days between start and end.
func BusinessDays(start, end time.Time) (int, error) {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return 0, ErrInvalidRange
	}

	total := daysBetween(start, end) + 1
	days := total / 7 * 5
	weekday := (int(start.Weekday()) + total/7*7) % 7
	for i := 0; i < total%7; i++ {
		wd := time.Weekday((weekday + i) % 7)
		if wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days, nil
}

// daysBetween counts whole days from start to end. Both must be UTC midnights.
func daysBetween(start, end time.Time) int {
	return int((end.Unix() - start.Unix()) / secondsPerDay)
}

// RangesOverlap reports whether the closed intervals [aStart, aEnd] and [bStart, bEnd] intersect.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !Day(aStart).After(Day(bEnd)) && !Day(bStart).After(Day(aEnd))
}

// FiscalYear returns the leave year containing the given calendar year's start month,
// i.e. [startMonth 1 of year, day before startMonth 1 of year+1].
func FiscalYear(year int, startMonth time.Month) (time.Time, time.Time) {
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, -1)
	return start, end
}
