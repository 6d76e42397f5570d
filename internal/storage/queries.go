package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Contributor mirrors a contributors row.
type Contributor struct {
	ID          string
	FullName    string
	CardNumber  string
	Initials    string
	Address     string
	PhoneNumber string
	CreatedAt   string
	UpdatedAt   string
}

// Contribution mirrors a contributions row. Amount is kept as text so that
// unreadable legacy values surface at conversion instead of failing the scan.
type Contribution struct {
	ID                  string
	Date                string
	ContributorID       string
	ContributorName     string
	ContributorInitials string
	Amount              string
	AccountNumber       string
	Category            string
	CreatedAt           string
	UpdatedAt           string
}

const contributorColumns = `id, full_name, card_number, initials, address, phone_number, created_at, updated_at`

const contributionColumns = `id, date, contributor_id, contributor_name, contributor_initials, amount, account_number, category, created_at, updated_at`

const createContributor = `INSERT INTO contributors (` + contributorColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateContributor(ctx context.Context, arg Contributor) error {
	_, err := q.db.ExecContext(ctx, createContributor,
		arg.ID, arg.FullName, arg.CardNumber, arg.Initials,
		arg.Address, arg.PhoneNumber, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const getContributor = `SELECT ` + contributorColumns + ` FROM contributors WHERE id = ?`

func (q *Queries) GetContributor(ctx context.Context, id string) (Contributor, error) {
	return scanContributor(q.db.QueryRowContext(ctx, getContributor, id))
}

const getContributorByName = `SELECT ` + contributorColumns + ` FROM contributors WHERE full_name = ?`

func (q *Queries) GetContributorByName(ctx context.Context, fullName string) (Contributor, error) {
	return scanContributor(q.db.QueryRowContext(ctx, getContributorByName, fullName))
}

const listContributors = `SELECT ` + contributorColumns + ` FROM contributors ORDER BY created_at, rowid`

func (q *Queries) ListContributors(ctx context.Context) ([]Contributor, error) {
	rows, err := q.db.QueryContext(ctx, listContributors)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Contributor
	for rows.Next() {
		i, err := scanContributor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateContributor = `UPDATE contributors
SET full_name = ?, card_number = ?, initials = ?, address = ?, phone_number = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateContributor(ctx context.Context, arg Contributor) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateContributor,
		arg.FullName, arg.CardNumber, arg.Initials, arg.Address,
		arg.PhoneNumber, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteContributor = `DELETE FROM contributors WHERE id = ?`

func (q *Queries) DeleteContributor(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteContributor, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createContribution = `INSERT INTO contributions (` + contributionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateContribution(ctx context.Context, arg Contribution) error {
	_, err := q.db.ExecContext(ctx, createContribution,
		arg.ID, arg.Date, arg.ContributorID, arg.ContributorName, arg.ContributorInitials,
		arg.Amount, arg.AccountNumber, arg.Category, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const getContribution = `SELECT ` + contributionColumns + ` FROM contributions WHERE id = ?`

func (q *Queries) GetContribution(ctx context.Context, id string) (Contribution, error) {
	return scanContribution(q.db.QueryRowContext(ctx, getContribution, id))
}

// Empty filter values disable their predicate. Dates are fixed-width
// YYYY-MM-DD text, so string comparison is calendar comparison.
const listContributions = `SELECT ` + contributionColumns + ` FROM contributions
WHERE (? = '' OR date >= ?)
  AND (? = '' OR date <= ?)
  AND (? = '' OR contributor_id = ?)
ORDER BY created_at DESC, rowid DESC`

type ListContributionsParams struct {
	StartDate     string
	EndDate       string
	ContributorID string
}

func (q *Queries) ListContributions(ctx context.Context, arg ListContributionsParams) ([]Contribution, error) {
	rows, err := q.db.QueryContext(ctx, listContributions,
		arg.StartDate, arg.StartDate,
		arg.EndDate, arg.EndDate,
		arg.ContributorID, arg.ContributorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Contribution
	for rows.Next() {
		i, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateContribution = `UPDATE contributions
SET date = ?, contributor_id = ?, contributor_name = ?, contributor_initials = ?,
    amount = ?, account_number = ?, category = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateContribution(ctx context.Context, arg Contribution) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateContribution,
		arg.Date, arg.ContributorID, arg.ContributorName, arg.ContributorInitials,
		arg.Amount, arg.AccountNumber, arg.Category, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteContribution = `DELETE FROM contributions WHERE id = ?`

func (q *Queries) DeleteContribution(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteContribution, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanContributor(row scanner) (Contributor, error) {
	var i Contributor
	err := row.Scan(
		&i.ID,
		&i.FullName,
		&i.CardNumber,
		&i.Initials,
		&i.Address,
		&i.PhoneNumber,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanContribution(row scanner) (Contribution, error) {
	var i Contribution
	err := row.Scan(
		&i.ID,
		&i.Date,
		&i.ContributorID,
		&i.ContributorName,
		&i.ContributorInitials,
		&i.Amount,
		&i.AccountNumber,
		&i.Category,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
