// Package util holds small helpers shared across the API.
package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random identifier such as "art_3f9c…": an entity-type
// prefix joined to 32 hex characters from crypto/rand. At this system's
// scale collisions are not a concern, so no uniqueness check backs it.
func NewID(prefix string) string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	id := hex.EncodeToString(buf)
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
