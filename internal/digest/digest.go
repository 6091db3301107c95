// Package digest computes streaming content digests over reconstructed
// assets and compares them against Packing List declarations.
package digest

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
)

var algorithms = map[string]func() hash.Hash{
	"sha1":    sha1.New,
	"sha-1":   sha1.New,
	"sha256":  sha256.New,
	"sha-256": sha256.New,
	"sha512":  sha512.New,
	"sha-512": sha512.New,
}

// Supported reports whether the named Packing List algorithm is available.
func Supported(algorithm string) bool {
	_, ok := algorithms[strings.ToLower(strings.TrimSpace(algorithm))]
	return ok
}

// Verifier accumulates reconstructed bytes and produces the content digest.
// Feeding it chunk by chunk is indistinguishable from hashing the whole
// asset in one call.
type Verifier struct {
	algorithm string
	hash      hash.Hash
}

// Start returns a Verifier for the given Packing List algorithm name
// ("sha1" is the 429-8 standard; sha256/sha512 cover newer deliveries).
func Start(algorithm string) (*Verifier, error) {
	key := strings.ToLower(strings.TrimSpace(algorithm))
	constructor, ok := algorithms[key]
	if !ok {
		return nil, fmt.Errorf("unsupported digest algorithm %q", algorithm)
	}
	return &Verifier{algorithm: key, hash: constructor()}, nil
}

// Write feeds reconstructed bytes in chunk order. It never fails.
func (v *Verifier) Write(p []byte) (int, error) {
	return v.hash.Write(p)
}

// Algorithm returns the normalized algorithm name.
func (v *Verifier) Algorithm() string {
	return v.algorithm
}

// Sum finishes the computation and returns the raw digest bytes.
func (v *Verifier) Sum() []byte {
	return v.hash.Sum(nil)
}

// SumBase64 finishes the computation in the Packing List's native encoding.
func (v *Verifier) SumBase64() string {
	return base64.StdEncoding.EncodeToString(v.Sum())
}

// Matches compares a declared digest against computed raw bytes. The
// declared form may be base64 (the PKL native encoding) or hex; hex
// comparison is case-insensitive. Raw forms are compared with a
// constant-structure equality check.
func Matches(declared string, computed []byte) bool {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return false
	}
	// A hex digest of the right length is also decodable base64, so both
	// decodings are tried rather than trusting the first that succeeds.
	if raw, err := base64.StdEncoding.DecodeString(declared); err == nil && equalDigests(raw, computed) {
		return true
	}
	if raw, err := hex.DecodeString(strings.ToLower(declared)); err == nil && equalDigests(raw, computed) {
		return true
	}
	return false
}

func equalDigests(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Receipt computes the local BLAKE3 digest recorded for each successfully
// reconstructed asset. It is not part of the SMPTE verification; it gives
// downstream tooling a stable content address for the reconstructed file.
type Receipt struct {
	hasher *blake3.Hasher
}

// NewReceipt returns an empty receipt hasher.
func NewReceipt() *Receipt {
	return &Receipt{hasher: blake3.New()}
}

// Write feeds reconstructed bytes. It never fails.
func (r *Receipt) Write(p []byte) (int, error) {
	return r.hasher.Write(p)
}

// SumHex finishes the computation and returns the lowercase hex digest.
func (r *Receipt) SumHex() string {
	return hex.EncodeToString(r.hasher.Sum(nil))
}
