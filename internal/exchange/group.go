// Package exchange implements the SRP-6a key agreement that precedes
// the evidence exchange: group parameters, password verifiers, and the
// computation of A, B and the shared secret S by each side.
//
// It's the collaborator the srp6 package expects to be handed its
// inputs by, and is used by tests and the srp6-handshake program.
package exchange

import (
	"crypto"
	"crypto/sha512"
	"errors"
	"math/big"
	"strings"

	_ "crypto/sha1" //#nosec
	_ "crypto/sha256"
	_ "embed" // Embedding RFC5054 groups

	"golang.org/x/crypto/pbkdf2"
)

var (
	//go:embed groups/1024.txt
	hex1024 string

	//go:embed groups/2048.txt
	hex2048 string
)

// KDF is the signature of a key derivation function.
type KDF func(username, password string, salt []byte) ([]byte, error)

// PBKDF2 is a KDF function that uses the PBKDF2 algorithm.
func PBKDF2(username, password string, salt []byte) ([]byte, error) {
	k := pbkdf2.Key([]byte(username+":"+password), salt, 100000, 32, sha512.New512_256)
	return k, nil
}

// RFC5054KDF is the key derivation function defined in RFC 5054.
//
// 	x = SHA1(s | SHA1(I | ":" | P))
//
// Deprecated: Only provided for the RFC 5054 test vectors.
// Use PBKDF2 instead.
func RFC5054KDF(username, password string, salt []byte) ([]byte, error) {
	h := crypto.SHA1.New()
	h.Write([]byte(username + ":" + password))
	digest := h.Sum(nil)[:h.Size()]

	h.Reset()
	h.Write(salt)
	h.Write(digest)
	return h.Sum(nil)[:h.Size()], nil
}

// mustParseHex returns a *big.Int instance
// from the given hex string, or panics.
func mustParseHex(str string) *big.Int {
	str = strings.Join(strings.Fields(str), "")
	n, ok := new(big.Int).SetString(str, 16)
	if !ok {
		panic(errors.New("failed to load group N"))
	}
	return n
}

// Group represents an SRP group, with the hash function
// used for k and u and the KDF used for x.
type Group struct {
	Name         string
	Generator    *big.Int
	N            *big.Int
	ExponentSize int // RFC 3526 §8

	Hash   crypto.Hash
	Derive KDF
}

// String returns the name of this group.
func (g *Group) String() string {
	return g.Name
}

// Groups from RFC 5054, Appendix A.
var (
	// RFC5054Group1024 is the group of the RFC 5054 test vectors.
	//
	// Deprecated: This group is not recommended
	// for production-use.
	RFC5054Group1024 = &Group{
		Name:         "1024",
		Generator:    big.NewInt(2),
		N:            mustParseHex(hex1024),
		ExponentSize: 32,
		Hash:         crypto.SHA1,
		Derive:       RFC5054KDF,
	}

	RFC5054Group2048 = &Group{
		Name:         "2048",
		Generator:    big.NewInt(2),
		N:            mustParseHex(hex2048),
		ExponentSize: 27,
		Hash:         crypto.SHA256,
		Derive:       PBKDF2,
	}
)

// Groups lists the groups by name.
var Groups = map[string]*Group{
	RFC5054Group1024.Name: RFC5054Group1024,
	RFC5054Group2048.Name: RFC5054Group2048,
}
