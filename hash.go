package srp6

import (
	"crypto"
	"fmt"
	"sort"
	"strings"

	_ "crypto/sha1" //#nosec
	_ "crypto/sha256"
	_ "crypto/sha512"

	_ "golang.org/x/crypto/blake2b"
	_ "golang.org/x/crypto/sha3"
)

// Hash functions that can be selected by name.
var registeredHashes = map[string]crypto.Hash{
	"SHA-1":       crypto.SHA1,
	"SHA-256":     crypto.SHA256,
	"SHA-384":     crypto.SHA384,
	"SHA-512":     crypto.SHA512,
	"SHA3-256":    crypto.SHA3_256,
	"SHA3-512":    crypto.SHA3_512,
	"BLAKE2b-256": crypto.BLAKE2b_256,
	"BLAKE2b-512": crypto.BLAKE2b_512,
}

// ParseHash returns the hash function registered under name.
// The lookup is case-insensitive.
func ParseHash(name string) (crypto.Hash, error) {
	for n, h := range registeredHashes {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return h, nil
		}
	}
	return 0, fmt.Errorf("unsupported hash %q (supported: %s)", name, strings.Join(HashNames(), ", "))
}

// HashName returns the name under which h can be
// parsed with ParseHash.
func HashName(h crypto.Hash) string {
	for n, v := range registeredHashes {
		if v == h {
			return n
		}
	}
	return h.String()
}

// checkHash returns an error if h can't be used by a session.
func checkHash(h crypto.Hash) error {
	if !h.Available() {
		return fmt.Errorf("%w: %s", ErrHashUnavailable, HashName(h))
	}
	for _, v := range registeredHashes {
		if v == h {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnregisteredHash, h)
}

// HashNames returns the sorted names accepted by ParseHash.
func HashNames() []string {
	names := make([]string, 0, len(registeredHashes))
	for n := range registeredHashes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
