// Package hash computes content-addressed identifiers for uploaded audio.
// The digest is the cache and notification key, so identical uploads reuse
// prior results regardless of filename or submission order.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the SHA-256 digest of data as a lowercase hex string.
func Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
