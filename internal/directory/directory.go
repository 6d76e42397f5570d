// Package directory owns contributor identity records.
package directory

import (
	"context"
	"strings"
	"time"

	"fanatitra/internal/core"
	"fanatitra/internal/log"
	"fanatitra/internal/ports"
)

// Service is the contributor directory. Uniqueness of card numbers and
// names is enforced by the store, not by a read-then-write check here.
type Service struct {
	store     ports.ContributorStore
	publisher ports.EventPublisher
	logger    *log.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithPublisher announces committed writes through p.
func WithPublisher(p ports.EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store ports.ContributorStore, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	s := &Service{
		store:  store,
		logger: logger.WithComponent(log.ComponentDirectory),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, in core.NewContributor) (core.Contributor, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Contributor{}, err
	}
	c := in.Build(core.NewID(), s.now())
	if err := s.store.CreateContributor(ctx, c); err != nil {
		return core.Contributor{}, s.fail(ctx, log.OpCreate, err)
	}
	s.logger.InfoContext(ctx, "Contributor created",
		log.FieldContributorID, c.ID,
		log.FieldCardNumber, c.CardNumber)
	s.publish(ctx, core.EventContributorCreated, c.ID)
	return c, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (core.Contributor, error) {
	id, err := core.ParseID(rawID)
	if err != nil {
		return core.Contributor{}, err
	}
	c, err := s.store.GetContributor(ctx, id)
	if err != nil {
		return core.Contributor{}, s.fail(ctx, log.OpRead, err)
	}
	return c, nil
}

// List returns every contributor. The order carries no meaning.
func (s *Service) List(ctx context.Context) ([]core.Contributor, error) {
	list, err := s.store.ListContributors(ctx)
	if err != nil {
		return nil, s.fail(ctx, log.OpList, err)
	}
	return list, nil
}

// Update applies a partial update. An empty patch returns the stored record
// untouched.
func (s *Service) Update(ctx context.Context, rawID string, patch core.ContributorPatch) (core.Contributor, error) {
	id, err := core.ParseID(rawID)
	if err != nil {
		return core.Contributor{}, err
	}
	if err := patch.Validate(); err != nil {
		return core.Contributor{}, err
	}
	current, err := s.store.GetContributor(ctx, id)
	if err != nil {
		return core.Contributor{}, s.fail(ctx, log.OpUpdate, err)
	}
	if patch.IsEmpty() {
		return current, nil
	}
	updated := patch.Apply(current, s.now())
	if err := s.store.UpdateContributor(ctx, updated); err != nil {
		return core.Contributor{}, s.fail(ctx, log.OpUpdate, err)
	}
	s.logger.InfoContext(ctx, "Contributor updated", log.FieldContributorID, id)
	s.publish(ctx, core.EventContributorUpdated, id)
	return updated, nil
}

// Delete removes the contributor. Contributions that reference it keep
// their snapshots and are left in place.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := core.ParseID(rawID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteContributor(ctx, id); err != nil {
		return s.fail(ctx, log.OpDelete, err)
	}
	s.logger.InfoContext(ctx, "Contributor deleted", log.FieldContributorID, id)
	s.publish(ctx, core.EventContributorDeleted, id)
	return nil
}

// FindByName is an exact, case-sensitive match on the trimmed full name.
func (s *Service) FindByName(ctx context.Context, fullName string) (core.Contributor, error) {
	name := strings.TrimSpace(fullName)
	if name == "" {
		return core.Contributor{}, core.NotFound("contributor name is empty")
	}
	c, err := s.store.FindContributorByName(ctx, name)
	if err != nil {
		return core.Contributor{}, s.fail(ctx, log.OpRead, err)
	}
	return c, nil
}

// fail logs unexpected failures with their cause and passes domain errors
// through unchanged.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	if core.CodeOf(err) == core.CodeServer {
		s.logger.ErrorContext(ctx, "Directory operation failed",
			log.FieldOperation, op,
			log.FieldError, err)
	}
	return core.Wrap("directory "+op+" failed", err)
}

func (s *Service) publish(ctx context.Context, t core.EventType, id string) {
	if s.publisher == nil {
		return
	}
	ev := core.ChangeEvent{Type: t, ID: id, At: s.now()}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish change event",
			log.FieldEventType, string(t),
			log.FieldContributorID, id,
			log.FieldError, err)
	}
}
