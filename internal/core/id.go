package core

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a fresh opaque record identifier.
func NewID() string {
	return uuid.NewString()
}

// ParseID normalizes an identifier received from a caller. Anything that
// is not a UUID cannot name a stored record and is rejected as
// InvalidIdentifier rather than NotFound.
func ParseID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", InvalidIdentifier("identifier is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", InvalidIdentifier("malformed identifier " + `"` + raw + `"`)
	}
	return id.String(), nil
}
