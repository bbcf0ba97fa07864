// Package sha256 fingerprints downloaded documents.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Hasher implements citation.Hasher using SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the hex digest of a downloaded document. Empty input has no fingerprint.
func (h *Hasher) Hash(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("hash: empty document")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
