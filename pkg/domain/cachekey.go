package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CacheKey derives the dependency-cache key from the runner OS class and the
// raw contents of the dependency lockfiles. Identical inputs always yield the
// identical key; any byte of difference yields a different key, which is what
// makes a stale cache impossible to hit.
func CacheKey(osID string, lockfiles ...[]byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "os=%s\n", osID)
	for _, content := range lockfiles {
		// Length prefix keeps concatenation unambiguous across files.
		fmt.Fprintf(h, "%d:", len(content))
		h.Write(content)
	}
	return osID + "-" + hex.EncodeToString(h.Sum(nil))[:32]
}
