// Package hasher computes content digests of plugin files.
//
// SHA-1 is what the registry expects for identity lookups, SHA-512 is used to
// verify downloaded files against the digest the registry declares.
package hasher

import (
	"crypto/sha1"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// ErrUnsupportedAlgorithm is returned for an algorithm the hasher does not know
var ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")

// Algorithm names a digest algorithm using the registry's spelling.
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	SHA512 Algorithm = "sha512"
)

// New returns a fresh hash.Hash for the algorithm.
func New(alg Algorithm) (hash.Hash, error) {
	switch alg {
	case SHA1:
		return sha1.New(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
}

// Hash reads r to the end and returns the lower-case hex digest.
func Hash(r io.Reader, alg Algorithm) (string, error) {
	h, err := New(alg)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to read stream: %w", err)
	}
	return Sum(h), nil
}

// HashFile hashes the file at path.
func HashFile(path string, alg Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return Hash(f, alg)
}

// Sum hex-encodes the current digest of h.
func Sum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// Equal compares two hex digests ignoring case.
func Equal(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
