package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fanatitra/internal/core"
	"fanatitra/internal/log"
	"fanatitra/internal/ports"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout is fixed width so that ORDER BY on the text column is
// chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger = logger.WithComponent(log.ComponentStorage)
	logger.Info("SQLite storage ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return core.Server("storage unavailable", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateContributor(ctx context.Context, c core.Contributor) error {
	if err := r.queries.CreateContributor(ctx, fromContributor(c)); err != nil {
		return translate(err, "create contributor")
	}
	r.logger.DebugContext(ctx, "Contributor row inserted", log.FieldContributorID, c.ID)
	return nil
}

func (r *SQLiteRepository) GetContributor(ctx context.Context, id string) (core.Contributor, error) {
	row, err := r.queries.GetContributor(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Contributor{}, core.NotFound("contributor not found")
		}
		return core.Contributor{}, translate(err, "get contributor")
	}
	return toContributor(row), nil
}

func (r *SQLiteRepository) ListContributors(ctx context.Context) ([]core.Contributor, error) {
	rows, err := r.queries.ListContributors(ctx)
	if err != nil {
		return nil, translate(err, "list contributors")
	}
	out := make([]core.Contributor, len(rows))
	for i, row := range rows {
		out[i] = toContributor(row)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateContributor(ctx context.Context, c core.Contributor) error {
	n, err := r.queries.UpdateContributor(ctx, fromContributor(c))
	if err != nil {
		return translate(err, "update contributor")
	}
	if n == 0 {
		return core.NotFound("contributor not found")
	}
	return nil
}

func (r *SQLiteRepository) DeleteContributor(ctx context.Context, id string) error {
	n, err := r.queries.DeleteContributor(ctx, id)
	if err != nil {
		return translate(err, "delete contributor")
	}
	if n == 0 {
		return core.NotFound("contributor not found")
	}
	return nil
}

func (r *SQLiteRepository) FindContributorByName(ctx context.Context, fullName string) (core.Contributor, error) {
	row, err := r.queries.GetContributorByName(ctx, fullName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Contributor{}, core.NotFound("no contributor named " + `"` + fullName + `"`)
		}
		return core.Contributor{}, translate(err, "find contributor by name")
	}
	return toContributor(row), nil
}

func (r *SQLiteRepository) CreateContribution(ctx context.Context, c core.Contribution) error {
	if err := r.queries.CreateContribution(ctx, fromContribution(c)); err != nil {
		return translate(err, "create contribution")
	}
	r.logger.DebugContext(ctx, "Contribution row inserted",
		log.FieldContribution, c.ID,
		log.FieldContributorID, c.Contributor.ContributorID)
	return nil
}

func (r *SQLiteRepository) GetContribution(ctx context.Context, id string) (core.Contribution, error) {
	row, err := r.queries.GetContribution(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Contribution{}, core.NotFound("contribution not found")
		}
		return core.Contribution{}, translate(err, "get contribution")
	}
	return r.toContribution(ctx, row), nil
}

func (r *SQLiteRepository) ListContributions(ctx context.Context, f ports.ContributionFilter) ([]core.Contribution, error) {
	rows, err := r.queries.ListContributions(ctx, ListContributionsParams{
		StartDate:     f.Range.Start,
		EndDate:       f.Range.End,
		ContributorID: f.ContributorID,
	})
	if err != nil {
		return nil, translate(err, "list contributions")
	}
	out := make([]core.Contribution, len(rows))
	for i, row := range rows {
		out[i] = r.toContribution(ctx, row)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateContribution(ctx context.Context, c core.Contribution) error {
	n, err := r.queries.UpdateContribution(ctx, fromContribution(c))
	if err != nil {
		return translate(err, "update contribution")
	}
	if n == 0 {
		return core.NotFound("contribution not found")
	}
	return nil
}

func (r *SQLiteRepository) DeleteContribution(ctx context.Context, id string) error {
	n, err := r.queries.DeleteContribution(ctx, id)
	if err != nil {
		return translate(err, "delete contribution")
	}
	if n == 0 {
		return core.NotFound("contribution not found")
	}
	return nil
}

// translate maps driver failures onto the domain error taxonomy. Unique
// index violations name the offending column in the driver message.
func translate(err error, op string) error {
	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			msg := se.Error()
			switch {
			case strings.Contains(msg, "card_number"):
				return core.DuplicateKey("cardNumber", "card number is already registered")
			case strings.Contains(msg, "full_name"):
				return core.DuplicateKey("fullName", "a contributor with this name already exists")
			default:
				return core.DuplicateKey("id", "record already exists")
			}
		}
	}
	return core.Server(op+" failed", err)
}

func fromContributor(c core.Contributor) Contributor {
	return Contributor{
		ID:          c.ID,
		FullName:    c.FullName,
		CardNumber:  c.CardNumber,
		Initials:    c.Initials,
		Address:     c.Address,
		PhoneNumber: c.PhoneNumber,
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	}
}

func toContributor(row Contributor) core.Contributor {
	return core.Contributor{
		ID:          row.ID,
		FullName:    row.FullName,
		CardNumber:  row.CardNumber,
		Initials:    row.Initials,
		Address:     row.Address,
		PhoneNumber: row.PhoneNumber,
		CreatedAt:   parseTime(row.CreatedAt),
		UpdatedAt:   parseTime(row.UpdatedAt),
	}
}

func fromContribution(c core.Contribution) Contribution {
	return Contribution{
		ID:                  c.ID,
		Date:                c.Date.String(),
		ContributorID:       c.Contributor.ContributorID,
		ContributorName:     c.Contributor.Name,
		ContributorInitials: c.Contributor.Initials,
		Amount:              c.Amount.String(),
		AccountNumber:       c.AccountNumber,
		Category:            string(c.Category),
		CreatedAt:           formatTime(c.CreatedAt),
		UpdatedAt:           formatTime(c.UpdatedAt),
	}
}

// toContribution never fails: a row with an unreadable amount or date is
// returned with the zero value in that field so that aggregation can skip
// it and report it.
func (r *SQLiteRepository) toContribution(ctx context.Context, row Contribution) core.Contribution {
	c := core.Contribution{
		ID: row.ID,
		Contributor: core.Snapshot{
			ContributorID: row.ContributorID,
			Name:          row.ContributorName,
			Initials:      row.ContributorInitials,
		},
		AccountNumber: row.AccountNumber,
		Category:      core.Category(row.Category),
		CreatedAt:     parseTime(row.CreatedAt),
		UpdatedAt:     parseTime(row.UpdatedAt),
	}
	if cents, err := core.ParseDecimalToCents(row.Amount); err == nil {
		c.Amount = core.Money{Cents: cents}
	} else {
		r.logger.WarnContext(ctx, "Stored contribution has an unreadable amount",
			log.FieldContribution, row.ID,
			"amount", row.Amount)
	}
	if d, err := core.ParseDate(row.Date); err == nil {
		c.Date = d
	} else {
		r.logger.WarnContext(ctx, "Stored contribution has an unreadable date",
			log.FieldContribution, row.ID,
			log.FieldDate, row.Date)
	}
	return c
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}
