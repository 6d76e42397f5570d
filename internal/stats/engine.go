// Package stats computes aggregates over the ledger. Nothing is cached:
// every call recomputes from the contributions it is given, so the same
// input always yields the same output regardless of call order.
package stats

import (
	"context"
	"sort"

	"fanatitra/internal/core"
	"fanatitra/internal/log"
)

// Bucket is a calendar-aligned window relative to a reference date.
type Bucket string

const (
	ThisWeek  Bucket = "thisWeek"
	ThisMonth Bucket = "thisMonth"
	ThisYear  Bucket = "thisYear"
	AllTime   Bucket = "allTime"
)

// ParsePeriod maps the short period names used by callers (week, month,
// year, all) and the bucket names themselves to a Bucket. Blank input
// selects AllTime.
func ParsePeriod(raw string) (Bucket, error) {
	switch raw {
	case "", "all", string(AllTime):
		return AllTime, nil
	case "week", string(ThisWeek):
		return ThisWeek, nil
	case "month", string(ThisMonth):
		return ThisMonth, nil
	case "year", string(ThisYear):
		return ThisYear, nil
	}
	return "", core.Validation("period", "period must be one of week, month, year, all")
}

type (
	// Totals holds the four bucket sums for one reference date.
	Totals struct {
		Today     core.Date
		ThisWeek  core.Money
		ThisMonth core.Money
		ThisYear  core.Money
		AllTime   core.Money
		Count     int
	}

	// Total is an amount with the number of contributions behind it.
	Total struct {
		Amount core.Money
		Count  int
	}

	// MonthTotal is one point of the monthly series.
	MonthTotal struct {
		Month string // YYYY-MM
		Total core.Money
		Count int
	}

	// Ranked is one row of the contributor ranking.
	Ranked struct {
		ContributorID string
		DisplayName   string
		Initials      string
		Total         core.Money
		Count         int
	}
)

// Engine holds only a logger for data-quality warnings.
type Engine struct {
	logger *log.Logger
}

func NewEngine(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{logger: logger.WithComponent(log.ComponentStats)}
}

// WeekOf returns Monday and Sunday of the ISO week containing d. Sunday
// belongs to the week that started six days earlier.
func WeekOf(d core.Date) (monday, sunday core.Date) {
	offset := (int(d.Weekday()) + 6) % 7
	monday = d.AddDays(-offset)
	return monday, monday.AddDays(6)
}

// InBucket reports whether date falls inside b for the reference date
// today. Month and year match field for field, not as rolling windows.
func InBucket(date core.Date, b Bucket, today core.Date) bool {
	switch b {
	case AllTime:
		return true
	case ThisYear:
		return date.Year() == today.Year()
	case ThisMonth:
		return date.Year() == today.Year() && date.Month() == today.Month()
	case ThisWeek:
		monday, sunday := WeekOf(today)
		s := date.String()
		return s >= monday.String() && s <= sunday.String()
	}
	return false
}

// usable filters out records that cannot be summed and reports each one.
func (e *Engine) usable(ctx context.Context, c core.Contribution) bool {
	if c.Amount.Cents > 0 {
		return true
	}
	e.logger.WarnContext(ctx, "Skipping contribution with unusable amount",
		log.FieldContribution, c.ID,
		log.FieldAmountCents, c.Amount.Cents,
		log.FieldOperation, log.OpAggregate)
	return false
}

// BucketSum adds up the contributions dated inside b.
func (e *Engine) BucketSum(ctx context.Context, cs []core.Contribution, b Bucket, today core.Date) core.Money {
	var sum core.Money
	for _, c := range cs {
		if !e.usable(ctx, c) {
			continue
		}
		if b != AllTime && c.Date.IsZero() {
			continue
		}
		if InBucket(c.Date, b, today) {
			sum = sum.Add(c.Amount)
		}
	}
	return sum
}

// Summarize computes every bucket in one pass.
func (e *Engine) Summarize(ctx context.Context, cs []core.Contribution, today core.Date) Totals {
	t := Totals{Today: today}
	monday, sunday := WeekOf(today)
	lo, hi := monday.String(), sunday.String()
	for _, c := range cs {
		if !e.usable(ctx, c) {
			continue
		}
		t.AllTime = t.AllTime.Add(c.Amount)
		t.Count++
		if c.Date.IsZero() {
			continue
		}
		// The week may straddle New Year, so it is checked before the
		// year gate.
		if s := c.Date.String(); s >= lo && s <= hi {
			t.ThisWeek = t.ThisWeek.Add(c.Amount)
		}
		if c.Date.Year() != today.Year() {
			continue
		}
		t.ThisYear = t.ThisYear.Add(c.Amount)
		if c.Date.Month() == today.Month() {
			t.ThisMonth = t.ThisMonth.Add(c.Amount)
		}
	}
	return t
}

// PerContributorTotal groups by the contributor id captured in each
// snapshot.
func (e *Engine) PerContributorTotal(ctx context.Context, cs []core.Contribution) map[string]Total {
	out := map[string]Total{}
	for _, c := range cs {
		if !e.usable(ctx, c) {
			continue
		}
		t := out[c.Contributor.ContributorID]
		t.Amount = t.Amount.Add(c.Amount)
		t.Count++
		out[c.Contributor.ContributorID] = t
	}
	return out
}

// MonthlyTimeSeries returns one point per month that has at least one
// contribution, ascending by month. Empty months are not synthesized.
func (e *Engine) MonthlyTimeSeries(ctx context.Context, cs []core.Contribution) []MonthTotal {
	byMonth := map[string]*MonthTotal{}
	for _, c := range cs {
		if !e.usable(ctx, c) {
			continue
		}
		if c.Date.IsZero() {
			e.logger.WarnContext(ctx, "Skipping undated contribution in monthly series",
				log.FieldContribution, c.ID)
			continue
		}
		key := c.Date.MonthKey()
		m, ok := byMonth[key]
		if !ok {
			m = &MonthTotal{Month: key}
			byMonth[key] = m
		}
		m.Total = m.Total.Add(c.Amount)
		m.Count++
	}
	out := make([]MonthTotal, 0, len(byMonth))
	for _, m := range byMonth {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// TopContributors ranks contributors by total, descending, with ties
// broken by display name and then id. Labels come from the directory when
// the contributor still exists and otherwise from the first snapshot met,
// which is the newest one when cs is in ledger order.
// n <= 0 returns the full ranking.
func (e *Engine) TopContributors(ctx context.Context, cs []core.Contribution, directory []core.Contributor, n int) []Ranked {
	live := make(map[string]core.Contributor, len(directory))
	for _, c := range directory {
		live[c.ID] = c
	}
	rows := map[string]*Ranked{}
	for _, c := range cs {
		if !e.usable(ctx, c) {
			continue
		}
		id := c.Contributor.ContributorID
		r, ok := rows[id]
		if !ok {
			r = &Ranked{ContributorID: id}
			if d, found := live[id]; found {
				r.DisplayName, r.Initials = d.FullName, d.Initials
			}
			rows[id] = r
		}
		if r.DisplayName == "" {
			r.DisplayName, r.Initials = c.Contributor.Name, c.Contributor.Initials
		}
		r.Total = r.Total.Add(c.Amount)
		r.Count++
	}
	out := make([]Ranked, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].ContributorID < out[j].ContributorID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Recent returns the n most recent contributions by date, then by creation
// time. The input is not modified.
func Recent(cs []core.Contribution, n int) []core.Contribution {
	out := append([]core.Contribution(nil), cs...)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Date.String(), out[j].Date.String()
		if di != dj {
			return di > dj
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// FilterBucket keeps the contributions dated inside b.
func FilterBucket(cs []core.Contribution, b Bucket, today core.Date) []core.Contribution {
	if b == AllTime {
		return cs
	}
	out := make([]core.Contribution, 0, len(cs))
	for _, c := range cs {
		if !c.Date.IsZero() && InBucket(c.Date, b, today) {
			out = append(out, c)
		}
	}
	return out
}
