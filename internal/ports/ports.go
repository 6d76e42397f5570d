package ports

import (
	"context"

	"fanatitra/internal/core"
)

// Ports for outbound adapters.
type (
	// ContributorStore persists contributor records. Implementations enforce
	// uniqueness of card number and full name atomically and report
	// violations as core.ErrDuplicateKey.
	ContributorStore interface {
		CreateContributor(ctx context.Context, c core.Contributor) error
		GetContributor(ctx context.Context, id string) (core.Contributor, error)
		ListContributors(ctx context.Context) ([]core.Contributor, error)
		// UpdateContributor replaces the stored record with the same id.
		UpdateContributor(ctx context.Context, c core.Contributor) error
		DeleteContributor(ctx context.Context, id string) error
		// FindContributorByName is an exact match on the full name.
		FindContributorByName(ctx context.Context, fullName string) (core.Contributor, error)
	}

	// ContributionStore persists ledger records.
	ContributionStore interface {
		CreateContribution(ctx context.Context, c core.Contribution) error
		GetContribution(ctx context.Context, id string) (core.Contribution, error)
		// ListContributions returns matches ordered by creation time, newest first.
		ListContributions(ctx context.Context, f ContributionFilter) ([]core.Contribution, error)
		UpdateContribution(ctx context.Context, c core.Contribution) error
		DeleteContribution(ctx context.Context, id string) error
	}

	// Store is the full persistence collaborator.
	Store interface {
		ContributorStore
		ContributionStore
		Ping(ctx context.Context) error
		Close() error
	}

	// EventPublisher announces committed writes. Publishing is best effort;
	// callers log failures and never roll back.
	EventPublisher interface {
		Publish(ctx context.Context, ev core.ChangeEvent) error
	}
)

// ContributionFilter narrows a ledger listing. Zero values match everything.
type ContributionFilter struct {
	Range         core.DateRange
	ContributorID string
}

// Matches applies the filter to a single record.
func (f ContributionFilter) Matches(c core.Contribution) bool {
	if f.ContributorID != "" && c.Contributor.ContributorID != f.ContributorID {
		return false
	}
	return f.Range.Contains(c.Date)
}
