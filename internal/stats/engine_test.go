package stats

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fanatitra/internal/core"
	"fanatitra/internal/log"
)

var ctx = context.Background()

func entry(id, date, who, name string, amount int64) core.Contribution {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Contribution{
		ID:          id,
		Date:        d,
		Contributor: core.Snapshot{ContributorID: who, Name: name, Initials: core.Initials(name)},
		Amount:      core.Ariary(amount),
		Category:    core.CategorySorona,
	}
}

func TestWeekOf(t *testing.T) {
	cases := []struct {
		today, monday, sunday string
	}{
		{"2024-06-05", "2024-06-03", "2024-06-09"}, // Wednesday
		{"2024-06-03", "2024-06-03", "2024-06-09"}, // Monday
		{"2024-06-09", "2024-06-03", "2024-06-09"}, // Sunday wraps back six days
		{"2024-01-01", "2024-01-01", "2024-01-07"},
		{"2023-12-31", "2023-12-25", "2023-12-31"}, // across a year boundary
	}
	for _, tc := range cases {
		d, _ := core.ParseDate(tc.today)
		mon, sun := WeekOf(d)
		assert.Equal(t, tc.monday, mon.String(), tc.today)
		assert.Equal(t, tc.sunday, sun.String(), tc.today)
	}
}

func TestBucketSum(t *testing.T) {
	e := NewEngine(log.Nop())
	today := core.NewDate(2024, 6, 5)
	cs := []core.Contribution{
		entry("1", "2024-06-03", "a", "A", 10),  // this week (Monday)
		entry("2", "2024-06-09", "a", "A", 20),  // this week (Sunday)
		entry("3", "2024-06-02", "a", "A", 40),  // previous Sunday, same month
		entry("4", "2024-05-31", "b", "B", 80),  // same year
		entry("5", "2023-06-05", "b", "B", 160), // a year ago, same month number
	}
	assert.Equal(t, core.Ariary(30), e.BucketSum(ctx, cs, ThisWeek, today))
	assert.Equal(t, core.Ariary(70), e.BucketSum(ctx, cs, ThisMonth, today))
	assert.Equal(t, core.Ariary(150), e.BucketSum(ctx, cs, ThisYear, today))
	assert.Equal(t, core.Ariary(310), e.BucketSum(ctx, cs, AllTime, today))

	sum := e.Summarize(ctx, cs, today)
	assert.Equal(t, core.Ariary(30), sum.ThisWeek)
	assert.Equal(t, core.Ariary(70), sum.ThisMonth)
	assert.Equal(t, core.Ariary(150), sum.ThisYear)
	assert.Equal(t, core.Ariary(310), sum.AllTime)
	assert.Equal(t, 5, sum.Count)
}

func TestWeekAcrossNewYear(t *testing.T) {
	e := NewEngine(log.Nop())
	today := core.NewDate(2025, 1, 1) // Wednesday; the week starts 2024-12-30
	cs := []core.Contribution{
		entry("1", "2024-12-30", "a", "A", 100),
		entry("2", "2024-12-29", "a", "A", 40), // previous week
		entry("3", "2025-01-05", "b", "B", 10), // Sunday of the same week
	}
	assert.Equal(t, core.Ariary(110), e.BucketSum(ctx, cs, ThisWeek, today))

	sum := e.Summarize(ctx, cs, today)
	assert.Equal(t, e.BucketSum(ctx, cs, ThisWeek, today), sum.ThisWeek)
	assert.Equal(t, e.BucketSum(ctx, cs, ThisMonth, today), sum.ThisMonth)
	assert.Equal(t, e.BucketSum(ctx, cs, ThisYear, today), sum.ThisYear)
	assert.Equal(t, core.Ariary(10), sum.ThisYear)
}

func TestAllTimeEqualsSumOfPerContributorTotals(t *testing.T) {
	e := NewEngine(log.Nop())
	cs := []core.Contribution{
		entry("1", "2024-01-05", "a", "A", 100),
		entry("2", "2024-03-02", "b", "B", 250),
		entry("3", "2024-01-20", "a", "A", 5),
		entry("4", "2022-12-31", "c", "C", 1),
		{ID: "bad", Date: core.NewDate(2024, 1, 1), Contributor: core.Snapshot{ContributorID: "a"}},
	}
	per := e.PerContributorTotal(ctx, cs)
	var total core.Money
	count := 0
	for _, v := range per {
		total = total.Add(v.Amount)
		count += v.Count
	}
	assert.Equal(t, e.BucketSum(ctx, cs, AllTime, core.NewDate(2024, 6, 1)), total)
	assert.Equal(t, 4, count)
	assert.Equal(t, Total{Amount: core.Ariary(105), Count: 2}, per["a"])
}

func TestMonthlyTimeSeries(t *testing.T) {
	e := NewEngine(log.Nop())
	cs := []core.Contribution{
		entry("1", "2024-01-05", "a", "A", 100),
		entry("2", "2024-03-02", "a", "A", 50),
		entry("3", "2024-01-20", "b", "B", 25),
	}
	got := e.MonthlyTimeSeries(ctx, cs)
	require.Len(t, got, 2)
	assert.Equal(t, MonthTotal{Month: "2024-01", Total: core.Ariary(125), Count: 2}, got[0])
	assert.Equal(t, MonthTotal{Month: "2024-03", Total: core.Ariary(50), Count: 1}, got[1])

	// same answer regardless of input order
	rev := []core.Contribution{cs[2], cs[1], cs[0]}
	assert.Equal(t, got, e.MonthlyTimeSeries(ctx, rev))

	assert.Empty(t, e.MonthlyTimeSeries(ctx, nil))
}

func TestTopContributorsTieBreakByName(t *testing.T) {
	e := NewEngine(log.Nop())
	cs := []core.Contribution{
		entry("1", "2024-01-01", "z", "Zo", 100),
		entry("2", "2024-01-02", "a", "Andry", 100),
		entry("3", "2024-01-03", "m", "Mamy", 300),
		entry("4", "2024-01-04", "b", "Bako", 50),
	}
	got := e.TopContributors(ctx, cs, nil, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "Mamy", got[0].DisplayName)
	assert.Equal(t, "Andry", got[1].DisplayName)
	assert.Equal(t, "Zo", got[2].DisplayName)
	assert.Equal(t, 1, got[0].Count)

	all := e.TopContributors(ctx, cs, nil, 0)
	assert.Len(t, all, 4)
}

func TestTopContributorsLabels(t *testing.T) {
	e := NewEngine(log.Nop())
	dir := []core.Contributor{{ID: "a", FullName: "Marie R.", Initials: "MR"}}
	cs := []core.Contribution{
		entry("2", "2024-02-01", "gone", "Newest Name", 10),
		entry("1", "2024-01-01", "a", "Marie Rakoto", 20),
		entry("0", "2023-01-01", "gone", "Old Name", 10),
	}
	got := e.TopContributors(ctx, cs, dir, 5)
	require.Len(t, got, 2)
	// live directory name for existing contributors
	assert.Equal(t, "Marie R.", got[0].DisplayName)
	// newest snapshot for deleted ones
	assert.Equal(t, "Newest Name", got[1].DisplayName)
	assert.Equal(t, core.Ariary(20), got[1].Total)
}

func TestUnusableAmountsAreSkippedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	e := NewEngine(log.New(log.Config{Output: &buf, Level: slog.LevelWarn}))
	cs := []core.Contribution{
		entry("ok", "2024-01-01", "a", "A", 10),
		{ID: "zero", Date: core.NewDate(2024, 1, 2), Contributor: core.Snapshot{ContributorID: "a"}},
		{ID: "neg", Date: core.NewDate(2024, 1, 3), Amount: core.Money{Cents: -5}},
	}
	assert.Equal(t, core.Ariary(10), e.BucketSum(ctx, cs, AllTime, core.NewDate(2024, 1, 1)))
	assert.Contains(t, buf.String(), "zero")
	assert.Contains(t, buf.String(), "neg")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestRecent(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := entry("a", "2024-01-10", "x", "X", 1)
	b := entry("b", "2024-01-10", "x", "X", 1)
	c := entry("c", "2024-02-01", "x", "X", 1)
	d := entry("d", "2023-12-31", "x", "X", 1)
	a.CreatedAt, b.CreatedAt = base, base.Add(time.Hour)
	in := []core.Contribution{d, a, c, b}

	got := Recent(in, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "d", in[0].ID)
}

func TestParsePeriodAndFilter(t *testing.T) {
	for raw, want := range map[string]Bucket{"": AllTime, "all": AllTime, "week": ThisWeek, "month": ThisMonth, "year": ThisYear, "thisYear": ThisYear} {
		got, err := ParsePeriod(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParsePeriod("decade")
	assert.Error(t, err)

	today := core.NewDate(2024, 6, 5)
	cs := []core.Contribution{
		entry("1", "2024-06-04", "a", "A", 1),
		entry("2", "2024-05-04", "a", "A", 1),
	}
	assert.Len(t, FilterBucket(cs, ThisWeek, today), 1)
	assert.Len(t, FilterBucket(cs, ThisYear, today), 2)
	assert.Len(t, FilterBucket(cs, AllTime, today), 2)
}
