package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fanatitra/internal/core"
	"fanatitra/internal/log"
	"fanatitra/internal/storage/memory"
)

type recorder struct {
	mu     sync.Mutex
	events []core.ChangeEvent
	err    error
}

func (r *recorder) Publish(_ context.Context, ev core.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func strPtr(s string) *string { return &s }

func newService(opts ...Option) *Service {
	return New(memory.New(), log.Nop(), opts...)
}

func TestCreateRoundTrip(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s := newService(WithClock(func() time.Time { return fixed }))

	c, err := s.Create(ctx, core.NewContributor{FullName: "Jean Paul", CardNumber: "C1"})
	require.NoError(t, err)
	assert.Equal(t, "JP", c.Initials)
	assert.Equal(t, fixed, c.CreatedAt)

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	s := newService()
	_, err := s.Create(ctx, core.NewContributor{FullName: "", CardNumber: "C1"})
	assert.True(t, errors.Is(err, core.ErrValidation))
	_, err = s.Create(ctx, core.NewContributor{FullName: "Jean", CardNumber: "  "})
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestDuplicateCardNumber(t *testing.T) {
	ctx := context.Background()
	s := newService()
	_, err := s.Create(ctx, core.NewContributor{FullName: "Jean Paul", CardNumber: "C1"})
	require.NoError(t, err)
	_, err = s.Create(ctx, core.NewContributor{FullName: "Someone Else", CardNumber: "C1"})
	assert.True(t, errors.Is(err, core.ErrDuplicateKey))
}

func TestCardNumbersStayUniqueUnderUpdates(t *testing.T) {
	ctx := context.Background()
	s := newService()
	a, err := s.Create(ctx, core.NewContributor{FullName: "A", CardNumber: "C1"})
	require.NoError(t, err)
	b, err := s.Create(ctx, core.NewContributor{FullName: "B", CardNumber: "C2"})
	require.NoError(t, err)

	_, err = s.Update(ctx, b.ID, core.ContributorPatch{CardNumber: strPtr("C1")})
	assert.True(t, errors.Is(err, core.ErrDuplicateKey))

	// own card number is not a collision
	_, err = s.Update(ctx, a.ID, core.ContributorPatch{CardNumber: strPtr("C1"), Address: strPtr("Lot")})
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, c := range list {
		assert.False(t, seen[c.CardNumber], "duplicate card %s", c.CardNumber)
		seen[c.CardNumber] = true
	}
}

func TestUpdateReDerivesInitialsOnlyOnRename(t *testing.T) {
	ctx := context.Background()
	s := newService()
	c, err := s.Create(ctx, core.NewContributor{FullName: "Marie Rakoto", CardNumber: "C1"})
	require.NoError(t, err)

	got, err := s.Update(ctx, c.ID, core.ContributorPatch{PhoneNumber: strPtr("034")})
	require.NoError(t, err)
	assert.Equal(t, "MR", got.Initials)

	got, err = s.Update(ctx, c.ID, core.ContributorPatch{FullName: strPtr("Hery Be Nirina")})
	require.NoError(t, err)
	assert.Equal(t, "HBN", got.Initials)

	unchanged, err := s.Update(ctx, c.ID, core.ContributorPatch{})
	require.NoError(t, err)
	assert.Equal(t, got, unchanged)
}

func TestIdentifierHandling(t *testing.T) {
	ctx := context.Background()
	s := newService()
	_, err := s.Get(ctx, "not-an-id")
	assert.True(t, errors.Is(err, core.ErrInvalidIdentifier))
	_, err = s.Get(ctx, core.NewID())
	assert.True(t, errors.Is(err, core.ErrNotFound))
	_, err = s.Update(ctx, core.NewID(), core.ContributorPatch{Address: strPtr("x")})
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, "12"), core.ErrInvalidIdentifier))
	assert.True(t, errors.Is(s.Delete(ctx, core.NewID()), core.ErrNotFound))
}

func TestFindByNameIsExact(t *testing.T) {
	ctx := context.Background()
	s := newService()
	c, err := s.Create(ctx, core.NewContributor{FullName: "Jean Paul", CardNumber: "C1"})
	require.NoError(t, err)

	got, err := s.FindByName(ctx, " Jean Paul ")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = s.FindByName(ctx, "Jean")
	assert.True(t, errors.Is(err, core.ErrNotFound))
	_, err = s.FindByName(ctx, "")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestDuplicateNameRejected(t *testing.T) {
	ctx := context.Background()
	s := newService()
	_, err := s.Create(ctx, core.NewContributor{FullName: "Jean Paul", CardNumber: "C1"})
	require.NoError(t, err)
	_, err = s.Create(ctx, core.NewContributor{FullName: "Jean Paul", CardNumber: "C2"})
	var de *core.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, core.CodeDuplicateKey, de.Code)
	assert.Equal(t, "fullName", de.Field)
}

func TestPublishesEventsAndToleratesFailures(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{err: errors.New("broker down")}
	s := newService(WithPublisher(rec))

	c, err := s.Create(ctx, core.NewContributor{FullName: "Jean Paul", CardNumber: "C1"})
	require.NoError(t, err)
	_, err = s.Update(ctx, c.ID, core.ContributorPatch{Address: strPtr("Lot")})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, c.ID))

	require.Len(t, rec.events, 3)
	assert.Equal(t, core.EventContributorCreated, rec.events[0].Type)
	assert.Equal(t, core.EventContributorUpdated, rec.events[1].Type)
	assert.Equal(t, core.EventContributorDeleted, rec.events[2].Type)
	assert.Equal(t, c.ID, rec.events[2].ID)
}
