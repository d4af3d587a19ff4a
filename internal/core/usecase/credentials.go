package usecase

import (
	"strings"

	"github.com/google/uuid"
)

// KeyLength is the length of a generated token key.
const KeyLength = 32

// NewTokenKey returns a collision-resistant opaque credential: a random
// UUID with the dashes stripped, 32 hex characters.
func NewTokenKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
