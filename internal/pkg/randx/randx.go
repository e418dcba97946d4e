/*
Package randx provides functions for generating cryptographically secure identifiers
and random choices.

Room, user, snippet, and message identifiers are all UUID v4 strings: room ids double
as public shareable path segments, so they must be safe against both collision and
enumeration, which rules out short random tokens.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// EntityID generates a UUID v4 string used as the identifier for rooms, users,
// snippets, and messages. The id is both the store key and the entity's id field.
func EntityID() string {
	return uuid.New().String()
}

// IsValidEntityID checks whether the given string is a well-formed UUID.
// Handlers use it to reject malformed path parameters before touching the store.
func IsValidEntityID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// PickIndex returns a uniformly random index in [0, n) using crypto/rand.
// It returns an error for non-positive n.
func PickIndex(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("pick index range must be positive, got %d", n)
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random index: %v", err)
	}

	return int(num.Int64()), nil
}
