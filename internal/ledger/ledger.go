// Package ledger owns contribution records. Every write that names a
// contributor goes through the guard first, so a failed resolution never
// leaves a partial record.
package ledger

import (
	"context"
	"time"

	"fanatitra/internal/core"
	"fanatitra/internal/log"
	"fanatitra/internal/ports"
)

// Resolver produces the contributor snapshot embedded in a contribution.
type Resolver interface {
	ResolveAndSnapshot(ctx context.Context, contributorName string) (core.Snapshot, error)
}

type Service struct {
	store     ports.ContributionStore
	guard     Resolver
	publisher ports.EventPublisher
	logger    *log.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithPublisher(p ports.EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store ports.ContributionStore, guard Resolver, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	s := &Service{
		store:  store,
		guard:  guard,
		logger: logger.WithComponent(log.ComponentLedger),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query selects contributions for List. All fields are optional raw input.
type Query struct {
	StartDate     string
	EndDate       string
	ContributorID string
}

func (s *Service) Create(ctx context.Context, draft core.ContributionDraft) (core.Contribution, error) {
	in, err := draft.Parse()
	if err != nil {
		return core.Contribution{}, err
	}
	snap, err := s.guard.ResolveAndSnapshot(ctx, in.ContributorName)
	if err != nil {
		return core.Contribution{}, err
	}
	c := in.Build(core.NewID(), snap, s.now())
	if err := s.store.CreateContribution(ctx, c); err != nil {
		return core.Contribution{}, s.fail(ctx, log.OpCreate, err)
	}
	s.logger.InfoContext(ctx, "Contribution recorded",
		log.FieldContribution, c.ID,
		log.FieldContributorID, snap.ContributorID,
		log.FieldAmountCents, c.Amount.Cents,
		log.FieldCategory, string(c.Category),
		log.FieldDate, c.Date.String())
	s.publish(ctx, core.EventContributionCreated, c.ID)
	return c, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (core.Contribution, error) {
	id, err := core.ParseID(rawID)
	if err != nil {
		return core.Contribution{}, err
	}
	c, err := s.store.GetContribution(ctx, id)
	if err != nil {
		return core.Contribution{}, s.fail(ctx, log.OpRead, err)
	}
	return c, nil
}

// List returns contributions newest first. Date bounds are inclusive and
// compared as YYYY-MM-DD strings.
func (s *Service) List(ctx context.Context, q Query) ([]core.Contribution, error) {
	r, err := core.NewDateRange(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	f := ports.ContributionFilter{Range: r}
	if q.ContributorID != "" {
		if f.ContributorID, err = core.ParseID(q.ContributorID); err != nil {
			return nil, err
		}
	}
	list, err := s.store.ListContributions(ctx, f)
	if err != nil {
		return nil, s.fail(ctx, log.OpList, err)
	}
	return list, nil
}

// Update applies a partial update. Naming a contributor re-runs the guard
// and replaces id, name and initials together.
func (s *Service) Update(ctx context.Context, rawID string, patch core.ContributionPatch) (core.Contribution, error) {
	id, err := core.ParseID(rawID)
	if err != nil {
		return core.Contribution{}, err
	}
	current, err := s.store.GetContribution(ctx, id)
	if err != nil {
		return core.Contribution{}, s.fail(ctx, log.OpUpdate, err)
	}
	if patch.IsEmpty() {
		return current, nil
	}
	updated, err := patch.Apply(current, nil, s.now())
	if err != nil {
		return core.Contribution{}, err
	}
	if name := patch.ResolveName(); name != "" {
		snap, err := s.guard.ResolveAndSnapshot(ctx, name)
		if err != nil {
			return core.Contribution{}, err
		}
		updated.Contributor = snap
	}
	if err := s.store.UpdateContribution(ctx, updated); err != nil {
		return core.Contribution{}, s.fail(ctx, log.OpUpdate, err)
	}
	s.logger.InfoContext(ctx, "Contribution updated",
		log.FieldContribution, id,
		log.FieldContributorID, updated.Contributor.ContributorID)
	s.publish(ctx, core.EventContributionUpdated, id)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := core.ParseID(rawID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteContribution(ctx, id); err != nil {
		return s.fail(ctx, log.OpDelete, err)
	}
	s.logger.InfoContext(ctx, "Contribution deleted", log.FieldContribution, id)
	s.publish(ctx, core.EventContributionDeleted, id)
	return nil
}

func (s *Service) fail(ctx context.Context, op string, err error) error {
	if core.CodeOf(err) == core.CodeServer {
		s.logger.ErrorContext(ctx, "Ledger operation failed",
			log.FieldOperation, op,
			log.FieldError, err)
	}
	return core.Wrap("ledger "+op+" failed", err)
}

func (s *Service) publish(ctx context.Context, t core.EventType, id string) {
	if s.publisher == nil {
		return
	}
	ev := core.ChangeEvent{Type: t, ID: id, At: s.now()}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish change event",
			log.FieldEventType, string(t),
			log.FieldContribution, id,
			log.FieldError, err)
	}
}
