package core

import (
	"strings"
	"time"
)

// Category is the fixed set of contribution kinds.
type Category string

const (
	CategoryAmpafolokarena  Category = "Ampafolokarena"
	CategoryFanatitraTsotra Category = "Fanatitra Tsotra"
	CategorySorona          Category = "Sorona"
	CategoryFanatitraProjet Category = "Fanatitra Projet"
	CategoryHafa            Category = "Hafa"

	DefaultCategory = CategoryAmpafolokarena
)

// Categories lists every accepted category in display order.
func Categories() []Category {
	return []Category{
		CategoryAmpafolokarena,
		CategoryFanatitraTsotra,
		CategorySorona,
		CategoryFanatitraProjet,
		CategoryHafa,
	}
}

// ParseCategory maps raw input to a Category. Blank input selects the
// default category.
func ParseCategory(raw string) (Category, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultCategory, nil
	}
	for _, c := range Categories() {
		if string(c) == raw {
			return c, nil
		}
	}
	return "", Validation("paymentType", "unknown payment type "+`"`+raw+`"`)
}

type (
	// Snapshot is a copy of a contributor's identity taken when a
	// contribution is written. It is never re-read from the directory.
	Snapshot struct {
		ContributorID string
		Name          string
		Initials      string
	}

	// Contribution is a dated, categorized amount attributed to a contributor.
	Contribution struct {
		ID            string
		Date          Date
		Contributor   Snapshot
		Amount        Money
		AccountNumber string
		Category      Category
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// ContributionDraft is the unparsed input of a ledger create.
	ContributionDraft struct {
		Date            string
		ContributorName string
		Amount          string
		AccountNumber   string
		Category        string
	}

	// ContributionInput is a validated draft awaiting its snapshot.
	ContributionInput struct {
		Date            Date
		ContributorName string
		Amount          Money
		AccountNumber   string
		Category        Category
	}

	// ContributionPatch is the unparsed input of a ledger update; nil fields
	// are left untouched.
	ContributionPatch struct {
		Date            *string
		ContributorName *string
		Amount          *string
		AccountNumber   *string
		Category        *string
	}
)

// Parse validates every field of the draft.
func (d ContributionDraft) Parse() (ContributionInput, error) {
	date, err := ParseDate(d.Date)
	if err != nil {
		return ContributionInput{}, err
	}
	name := strings.TrimSpace(d.ContributorName)
	if name == "" {
		return ContributionInput{}, Validation("personName", "contributor name is required")
	}
	amount, err := ParseMoney(d.Amount)
	if err != nil {
		return ContributionInput{}, err
	}
	account := strings.TrimSpace(d.AccountNumber)
	if account == "" {
		return ContributionInput{}, Validation("numeroDeCompte", "account number is required")
	}
	category, err := ParseCategory(d.Category)
	if err != nil {
		return ContributionInput{}, err
	}
	return ContributionInput{
		Date:            date,
		ContributorName: name,
		Amount:          amount,
		AccountNumber:   account,
		Category:        category,
	}, nil
}

// Build materializes the record a ledger create stores.
func (in ContributionInput) Build(id string, snap Snapshot, now time.Time) Contribution {
	return Contribution{
		ID:            id,
		Date:          in.Date,
		Contributor:   snap,
		Amount:        in.Amount,
		AccountNumber: in.AccountNumber,
		Category:      in.Category,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p ContributionPatch) IsEmpty() bool {
	return p.Date == nil && p.ContributorName == nil && p.Amount == nil &&
		p.AccountNumber == nil && p.Category == nil
}

// ResolveName returns the trimmed name to resolve, or "" when the patch
// does not move the contribution to another contributor.
func (p ContributionPatch) ResolveName() string {
	if p.ContributorName == nil {
		return ""
	}
	return strings.TrimSpace(*p.ContributorName)
}

// Apply parses the present fields and returns c updated. A non-nil snap
// replaces the whole snapshot: name, initials and id always move together.
func (p ContributionPatch) Apply(c Contribution, snap *Snapshot, now time.Time) (Contribution, error) {
	if p.Date != nil {
		date, err := ParseDate(*p.Date)
		if err != nil {
			return Contribution{}, err
		}
		c.Date = date
	}
	if p.ContributorName != nil && strings.TrimSpace(*p.ContributorName) == "" {
		return Contribution{}, Validation("personName", "contributor name cannot be empty")
	}
	if p.Amount != nil {
		amount, err := ParseMoney(*p.Amount)
		if err != nil {
			return Contribution{}, err
		}
		c.Amount = amount
	}
	if p.AccountNumber != nil {
		account := strings.TrimSpace(*p.AccountNumber)
		if account == "" {
			return Contribution{}, Validation("numeroDeCompte", "account number cannot be empty")
		}
		c.AccountNumber = account
	}
	if p.Category != nil {
		category, err := ParseCategory(*p.Category)
		if err != nil {
			return Contribution{}, err
		}
		c.Category = category
	}
	if snap != nil {
		c.Contributor = *snap
	}
	c.UpdatedAt = now
	return c, nil
}
