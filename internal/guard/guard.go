// Package guard resolves the contributor a ledger write names and captures
// an immutable snapshot of it.
package guard

import (
	"context"

	"fanatitra/internal/core"
	"fanatitra/internal/log"
)

// ContributorFinder is the slice of the directory the guard needs.
type ContributorFinder interface {
	FindByName(ctx context.Context, fullName string) (core.Contributor, error)
}

// Guard holds no state between calls; every resolution reads the directory
// afresh.
type Guard struct {
	directory ContributorFinder
	logger    *log.Logger
}

func New(directory ContributorFinder, logger *log.Logger) *Guard {
	if logger == nil {
		logger = log.Nop()
	}
	return &Guard{
		directory: directory,
		logger:    logger.WithComponent(log.ComponentGuard),
	}
}

// ResolveAndSnapshot looks the contributor up by exact name and copies its
// id, name and initials as they are at this instant.
func (g *Guard) ResolveAndSnapshot(ctx context.Context, contributorName string) (core.Snapshot, error) {
	c, err := g.directory.FindByName(ctx, contributorName)
	if err != nil {
		if core.CodeOf(err) == core.CodeNotFound {
			g.logger.WarnContext(ctx, "Contributor name did not resolve",
				log.FieldFullName, contributorName)
			return core.Snapshot{}, core.NotFound("no contributor named " + `"` + contributorName + `"`)
		}
		return core.Snapshot{}, err
	}
	g.logger.DebugContext(ctx, "Contributor resolved",
		log.FieldContributorID, c.ID,
		log.FieldOperation, log.OpResolve)
	return core.Snapshot{
		ContributorID: c.ID,
		Name:          c.FullName,
		Initials:      c.Initials,
	}, nil
}
