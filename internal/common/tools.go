package common

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Address identifies an account, a token or the engine itself.
type Address string

func (a Address) String() string {
	return string(a)
}

// IsZero reports whether the address is empty.
func (a Address) IsZero() bool {
	return strings.TrimSpace(string(a)) == ""
}

// GenerateUUID generates a UUID with an optional prefix
func GenerateUUID(prefix string) string {
	id := uuid.New()
	if prefix != "" {
		return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(id.String(), "-", ""))
	}
	return id.String()
}

// GenerateEventID generates an event ID with "evt" prefix
func GenerateEventID() string {
	return GenerateUUID("evt")
}
