package core

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

type (
	// Contributor is a named individual identified by a unique card number.
	Contributor struct {
		ID          string
		FullName    string
		CardNumber  string
		Initials    string
		Address     string // empty when unknown, never null
		PhoneNumber string // empty when unknown, never null
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// NewContributor carries the fields accepted by directory create.
	NewContributor struct {
		FullName    string
		CardNumber  string
		Address     string
		PhoneNumber string
	}

	// ContributorPatch is a partial update; nil fields are left untouched.
	ContributorPatch struct {
		FullName    *string
		CardNumber  *string
		Address     *string
		PhoneNumber *string
	}
)

// Initials takes the first character of every whitespace-separated token of
// fullName, uppercased, in order. A token starting with an invalid UTF-8
// byte contributes nothing.
func Initials(fullName string) string {
	var b strings.Builder
	for _, token := range strings.Fields(fullName) {
		r, size := utf8.DecodeRuneInString(token)
		if r == utf8.RuneError && size == 1 {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Normalize trims every field.
func (n NewContributor) Normalize() NewContributor {
	return NewContributor{
		FullName:    strings.TrimSpace(n.FullName),
		CardNumber:  strings.TrimSpace(n.CardNumber),
		Address:     strings.TrimSpace(n.Address),
		PhoneNumber: strings.TrimSpace(n.PhoneNumber),
	}
}

func (n NewContributor) Validate() error {
	if strings.TrimSpace(n.FullName) == "" {
		return Validation("fullName", "full name is required")
	}
	if strings.TrimSpace(n.CardNumber) == "" {
		return Validation("cardNumber", "card number is required")
	}
	return nil
}

// Build materializes the record a directory create stores.
func (n NewContributor) Build(id string, now time.Time) Contributor {
	n = n.Normalize()
	return Contributor{
		ID:          id,
		FullName:    n.FullName,
		CardNumber:  n.CardNumber,
		Initials:    Initials(n.FullName),
		Address:     n.Address,
		PhoneNumber: n.PhoneNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p ContributorPatch) IsEmpty() bool {
	return p.FullName == nil && p.CardNumber == nil && p.Address == nil && p.PhoneNumber == nil
}

func (p ContributorPatch) Validate() error {
	if p.FullName != nil && strings.TrimSpace(*p.FullName) == "" {
		return Validation("fullName", "full name cannot be empty")
	}
	if p.CardNumber != nil && strings.TrimSpace(*p.CardNumber) == "" {
		return Validation("cardNumber", "card number cannot be empty")
	}
	return nil
}

// Apply returns c with the patch applied. Initials are re-derived only when
// the full name is part of the patch.
func (p ContributorPatch) Apply(c Contributor, now time.Time) Contributor {
	if p.FullName != nil {
		c.FullName = strings.TrimSpace(*p.FullName)
		c.Initials = Initials(c.FullName)
	}
	if p.CardNumber != nil {
		c.CardNumber = strings.TrimSpace(*p.CardNumber)
	}
	if p.Address != nil {
		c.Address = strings.TrimSpace(*p.Address)
	}
	if p.PhoneNumber != nil {
		c.PhoneNumber = strings.TrimSpace(*p.PhoneNumber)
	}
	c.UpdatedAt = now
	return c
}
