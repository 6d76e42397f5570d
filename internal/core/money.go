// Package core provides the domain types of the contributor ledger.
//
// This file contains money parsing and formatting. Amounts are held as
// exact hundredths of the currency unit; the ariary has no subdivision in
// practice, so most amounts are whole multiples of 100.
package core

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is an exact amount in hundredths of an ariary.
type Money struct {
	Cents int64
}

// Ariary builds a Money from whole currency units.
func Ariary(units int64) Money {
	return Money{Cents: units * 100}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return Validation("amount", "amount must be a positive number")
	}
	return nil
}

// Add returns m+o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// ParseMoney parses a caller-supplied amount into a positive Money.
func ParseMoney(s string) (Money, error) {
	if strings.TrimSpace(s) == "" {
		return Money{}, Validation("amount", "amount is required")
	}
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, Validation("amount", "amount must be a positive number")
	}
	return Money{Cents: cents}, nil
}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, errInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, errInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if !asciiDigits(intPart) || !asciiDigits(fracPart) {
		return 0, errInvalidAmount
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, errInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv >= maxSafeInt64 {
		return 0, errInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, errInvalidAmount
	}
	return cents, nil
}

var errInvalidAmount = Validation("amount", "invalid amount")

// asciiDigits rejects every rune outside 0-9, including other Unicode
// decimal digits.
func asciiDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String renders the amount as a plain decimal: "1500" or "1500.5".
func (m Money) String() string {
	neg := m.Cents < 0
	cents := m.Cents
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10)
	if rem := cents % 100; rem != 0 {
		frac := strconv.FormatInt(rem+100, 10)[1:]
		s += "." + strings.TrimRight(frac, "0")
	}
	if neg {
		return "-" + s
	}
	return s
}

// MarshalJSON emits the amount as a JSON number literal.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

var displayPrinter = message.NewPrinter(language.Make("fr-MG"))

// Display formats the amount for people, grouped the way the ledger's
// users read it, e.g. "1 500 ariary".
func (m Money) Display() string {
	if m.Cents%100 == 0 {
		return displayPrinter.Sprintf("%d ariary", m.Cents/100)
	}
	return displayPrinter.Sprintf("%.2f ariary", float64(m.Cents)/100)
}
