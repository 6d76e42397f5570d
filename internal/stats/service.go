package stats

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"fanatitra/internal/core"
	"fanatitra/internal/ledger"
	"fanatitra/internal/log"
)

// LedgerReader is the read side of the ledger.
type LedgerReader interface {
	List(ctx context.Context, q ledger.Query) ([]core.Contribution, error)
}

// DirectoryReader is the read side of the directory.
type DirectoryReader interface {
	Get(ctx context.Context, id string) (core.Contributor, error)
	List(ctx context.Context) ([]core.Contributor, error)
}

const (
	DefaultTopN   = 5
	DefaultRecent = 5
)

type (
	// Dashboard is the landing overview.
	Dashboard struct {
		Totals  Totals
		Monthly []MonthTotal
		Recent  []core.Contribution
	}

	// ContributorTotals annotates a directory entry with its ledger total.
	ContributorTotals struct {
		Contributor core.Contributor
		Total       Total
	}

	// ContributorSummary is one contributor's page: bucket totals over all
	// of their contributions plus their history, optionally narrowed to a
	// period.
	ContributorSummary struct {
		Contributor core.Contributor
		Totals      Totals
		Period      Bucket
		History     []core.Contribution
	}
)

// Service serves the reporting views. It fetches a point-in-time copy of
// the ledger (and directory where labels are needed) on every call and
// hands it to the Engine.
type Service struct {
	ledger    LedgerReader
	directory DirectoryReader
	engine    *Engine
	logger    *log.Logger
	now       func() time.Time
	loc       *time.Location
}

type Option func(*Service)

// WithClock overrides the time source used to compute "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone in which "today" is the current calendar date.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(l LedgerReader, d DirectoryReader, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	s := &Service{
		ledger:    l,
		directory: d,
		engine:    NewEngine(logger),
		logger:    logger.WithComponent(log.ComponentStats),
		now:       time.Now,
		loc:       time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the reference date for bucket sums.
func (s *Service) Today() core.Date {
	return core.DateOf(s.now().In(s.loc))
}

// ResolveToday parses an optional caller-supplied reference date.
func (s *Service) ResolveToday(raw string) (core.Date, error) {
	if raw == "" {
		return s.Today(), nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, core.Validation("today", "today must use the YYYY-MM-DD format")
	}
	return d, nil
}

func (s *Service) contributions(ctx context.Context) ([]core.Contribution, error) {
	cs, err := s.ledger.List(ctx, ledger.Query{})
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "Ledger fetched for aggregation", log.FieldCount, len(cs))
	return cs, nil
}

// snapshot fetches ledger and directory concurrently.
func (s *Service) snapshot(ctx context.Context) ([]core.Contribution, []core.Contributor, error) {
	var (
		cs   []core.Contribution
		dirs []core.Contributor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cs, err = s.ledger.List(gctx, ledger.Query{})
		return err
	})
	g.Go(func() error {
		var err error
		dirs, err = s.directory.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	s.logger.DebugContext(ctx, "Ledger and directory fetched for aggregation",
		log.FieldCount, len(cs),
		"contributors", len(dirs))
	return cs, dirs, nil
}

// Summary returns the four bucket sums for today.
func (s *Service) Summary(ctx context.Context, today core.Date) (Totals, error) {
	cs, err := s.contributions(ctx)
	if err != nil {
		return Totals{}, err
	}
	return s.engine.Summarize(ctx, cs, today), nil
}

func (s *Service) Monthly(ctx context.Context) ([]MonthTotal, error) {
	cs, err := s.contributions(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.MonthlyTimeSeries(ctx, cs), nil
}

func (s *Service) Top(ctx context.Context, n int) ([]Ranked, error) {
	cs, dirs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.TopContributors(ctx, cs, dirs, n), nil
}

func (s *Service) Dashboard(ctx context.Context, today core.Date, recent int) (Dashboard, error) {
	cs, err := s.contributions(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Totals:  s.engine.Summarize(ctx, cs, today),
		Monthly: s.engine.MonthlyTimeSeries(ctx, cs),
		Recent:  Recent(cs, recent),
	}, nil
}

// DirectoryWithTotals lists every contributor with the sum of the
// contributions attributed to them. Contributors with no contribution
// report zero.
func (s *Service) DirectoryWithTotals(ctx context.Context) ([]ContributorTotals, error) {
	cs, dirs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	totals := s.engine.PerContributorTotal(ctx, cs)
	out := make([]ContributorTotals, len(dirs))
	for i, c := range dirs {
		out[i] = ContributorTotals{Contributor: c, Total: totals[c.ID]}
	}
	return out, nil
}

// ContributorSummary builds one contributor's page.
func (s *Service) ContributorSummary(ctx context.Context, rawID string, period Bucket, today core.Date) (ContributorSummary, error) {
	c, err := s.directory.Get(ctx, rawID)
	if err != nil {
		return ContributorSummary{}, err
	}
	cs, err := s.ledger.List(ctx, ledger.Query{ContributorID: c.ID})
	if err != nil {
		return ContributorSummary{}, err
	}
	return ContributorSummary{
		Contributor: c,
		Totals:      s.engine.Summarize(ctx, cs, today),
		Period:      period,
		History:     FilterBucket(cs, period, today),
	}, nil
}
