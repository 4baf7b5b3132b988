package digest

import (
	"crypto/md5"  // #nosec G501 -- used for file integrity verification only
	"crypto/sha1" // #nosec G505 -- used for file integrity verification only
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"strings"
)

// ErrUnknownAlgorithm is returned when an algorithm name is not one of
// the supported digests. It is a configuration error and must be handled
// before any file is scheduled for hashing.
var ErrUnknownAlgorithm = errors.New("unknown hashing algorithm")

// Algorithm is one of the closed set of supported digests.
type Algorithm int

const (
	SHA1 Algorithm = iota + 1
	MD5
	SHA224
	SHA256
	SHA384
	SHA512
)

var algorithmNames = map[Algorithm]string{
	SHA1:   "sha1",
	MD5:    "md5",
	SHA224: "sha224",
	SHA256: "sha256",
	SHA384: "sha384",
	SHA512: "sha512",
}

// Algorithms lists every supported algorithm in a stable order.
func Algorithms() []Algorithm {
	return []Algorithm{SHA1, MD5, SHA224, SHA256, SHA384, SHA512}
}

// ParseAlgorithm resolves a case-insensitive algorithm name such as
// "sha256" or "MD5".
func ParseAlgorithm(name string) (Algorithm, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, a := range Algorithms() {
		if algorithmNames[a] == want {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Valid reports whether a is one of the supported algorithms.
func (a Algorithm) Valid() bool {
	_, ok := algorithmNames[a]
	return ok
}

// Size is the digest length in bytes.
func (a Algorithm) Size() int {
	switch a {
	case SHA1:
		return sha1.Size
	case MD5:
		return md5.Size
	case SHA224:
		return sha256.Size224
	case SHA256:
		return sha256.Size
	case SHA384:
		return sha512.Size384
	case SHA512:
		return sha512.Size
	default:
		return 0
	}
}

// HexWidth is the number of hex characters a rendered digest occupies.
func (a Algorithm) HexWidth() int { return a.Size() * 2 }

// New returns a fresh accumulator. It panics on an invalid algorithm;
// callers obtain Algorithm values from ParseAlgorithm.
func (a Algorithm) New() hash.Hash {
	switch a {
	case SHA1:
		return sha1.New() // #nosec G401 -- used for file integrity verification only
	case MD5:
		return md5.New() // #nosec G401 -- used for file integrity verification only
	case SHA224:
		return sha256.New224()
	case SHA256:
		return sha256.New()
	case SHA384:
		return sha512.New384()
	case SHA512:
		return sha512.New()
	default:
		panic(fmt.Sprintf("digest: invalid algorithm %d", int(a)))
	}
}
