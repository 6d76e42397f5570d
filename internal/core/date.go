package core

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the fixed-width, zero-padded calendar date format used for
// storage and the wire. Lexicographic order on it equals calendar order.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component, held at UTC midnight.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, Validation("date", "date is required")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, Validation("date", "date must use the YYYY-MM-DD format")
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket key of the date.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return Validation("date", "date must be a string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange bounds a ledger listing. Empty bounds are open; both ends are
// inclusive.
type DateRange struct {
	Start string
	End   string
}

// NewDateRange validates both bounds so that string comparison on them is
// sound.
func NewDateRange(start, end string) (DateRange, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start != "" {
		if _, err := time.Parse(DateLayout, start); err != nil {
			return DateRange{}, Validation("startDate", "startDate must use the YYYY-MM-DD format")
		}
	}
	if end != "" {
		if _, err := time.Parse(DateLayout, end); err != nil {
			return DateRange{}, Validation("endDate", "endDate must use the YYYY-MM-DD format")
		}
	}
	return DateRange{Start: start, End: end}, nil
}

// IsOpen reports whether neither bound is set.
func (r DateRange) IsOpen() bool {
	return r.Start == "" && r.End == ""
}

// Contains compares the YYYY-MM-DD form of d against the bounds.
func (r DateRange) Contains(d Date) bool {
	s := d.String()
	if r.Start != "" && s < r.Start {
		return false
	}
	if r.End != "" && s > r.End {
		return false
	}
	return true
}
