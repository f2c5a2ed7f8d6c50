// Package sha256 provides content fingerprinting for deduplication.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprinter implements radar.Fingerprinter using SHA-256.
type Fingerprinter struct{}

// New returns a SHA-256 fingerprinter.
func New() *Fingerprinter {
	return &Fingerprinter{}
}

// Fingerprint hashes the post content concatenated with the source id and
// returns a hex digest. Mixing in the id keeps two link-only posts with
// empty content distinguishable.
func (Fingerprinter) Fingerprint(content, sourceID string) string {
	sum := sha256.Sum256([]byte(content + sourceID))
	return hex.EncodeToString(sum[:])
}
