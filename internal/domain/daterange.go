package domain

import (
	"errors"
	"time"
)

// DateLayout is the wire format for dates in query strings and reports.
const DateLayout = "2006-01-02"

// MaxRangeDays bounds dashboard and report ranges.
const MaxRangeDays = 366

// ErrInvalidRange is returned for inverted or oversized ranges.
var ErrInvalidRange = errors.New("invalid date range")

// DateRange is an inclusive range of calendar days (UTC midnight bounds).
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewDateRange truncates both bounds to UTC midnight.
func NewDateRange(from, to time.Time) DateRange {
	return DateRange{From: Day(from), To: Day(to)}
}

// LastNDays returns the n-day range ending on the day of now.
func LastNDays(now time.Time, n int) DateRange {
	to := Day(now)
	return DateRange{From: to.AddDate(0, 0, -(n - 1)), To: to}
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Validate rejects inverted ranges and ranges longer than MaxRangeDays.
func (r DateRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() || r.To.Before(r.From) {
		return ErrInvalidRange
	}
	if r.Days() > MaxRangeDays {
		return ErrInvalidRange
	}
	return nil
}

// Days returns the number of calendar days in the range, inclusive.
func (r DateRange) Days() int {
	return int(Day(r.To).Sub(Day(r.From)).Hours()/24) + 1
}

// Previous returns the range of equal length immediately before r.
func (r DateRange) Previous() DateRange {
	n := r.Days()
	to := Day(r.From).AddDate(0, 0, -1)
	return DateRange{From: to.AddDate(0, 0, -(n - 1)), To: to}
}

// Each calls fn for every day in the range in ascending order.
func (r DateRange) Each(fn func(day time.Time)) {
	for d := Day(r.From); !d.After(Day(r.To)); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(Day(r.From)) && !d.After(Day(r.To))
}

// String renders "from..to".
func (r DateRange) String() string {
	return r.From.Format(DateLayout) + ".." + r.To.Format(DateLayout)
}
