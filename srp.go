// Package srp6 implements the evidence messages and session key
// derivation of the Secure Remote Password protocol ([SRP-6]), on top
// of an already completed key agreement.
//
// The key agreement (group parameters, the public ephemerals A and B,
// and the shared secret S) is computed elsewhere and handed to a
// [Client] or a [Server]. Both sides then exchange proofs:
//
// 	Client                                Server
// 	M1 = H(A | B | S)        -- M1 -->    M1 == H(A | B | S) ?
// 	M2 == H(A | M1 | S) ?    <-- M2 --    M2 = H(A | M1 | S)
// 	K  = H(S)                             K  = H(S)
//
// Each integer is fed to the hash as its minimal unsigned big-endian
// representation (big.Int.Bytes), without padding or delimiters. Both
// peers must agree on that convention, and on the hash function, for
// the proofs to match.
//
// [SRP-6]: http://srp.stanford.edu/design.html
package srp6

import (
	"crypto"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// ComputeM1 computes the value of the client proof M1.
//
// Formula:
// 	M1 = H(A | B | S)
func ComputeM1(h crypto.Hash, A, B, S *big.Int) (*big.Int, error) {
	return hashInts(h, namedInt{"A", A}, namedInt{"B", B}, namedInt{"S", S})
}

// ComputeM2 computes the value of the server proof M2.
//
// Formula:
// 	M2 = H(A | M1 | S)
func ComputeM2(h crypto.Hash, A, M1, S *big.Int) (*big.Int, error) {
	return hashInts(h, namedInt{"A", A}, namedInt{"M1", M1}, namedInt{"S", S})
}

// ComputeKey computes the session key shared by
// both peers.
//
// Formula:
// 	K = H(S)
func ComputeKey(h crypto.Hash, S *big.Int) (*big.Int, error) {
	return hashInts(h, namedInt{"S", S})
}

type namedInt struct {
	name  string
	value *big.Int
}

// hashInts writes the byte representation of each value to a fresh
// instance of h, and returns the digest as an unsigned integer.
func hashInts(h crypto.Hash, values ...namedInt) (*big.Int, error) {
	if !h.Available() {
		return nil, fmt.Errorf("%w: %s", ErrHashUnavailable, HashName(h))
	}

	hasher := h.New()
	for _, v := range values {
		if v.value == nil || v.value.Sign() < 0 {
			return nil, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidValue, v.name)
		}
		if _, err := hasher.Write(v.value.Bytes()); err != nil {
			return nil, fmt.Errorf("failed to write %s to hasher: %w", v.name, err)
		}
	}

	digest := hasher.Sum(nil)[:hasher.Size()]
	return new(big.Int).SetBytes(digest), nil
}

// checkProof returns true if Mx (M1 or M2) is
// equal to proof.
func checkProof(Mx, proof *big.Int) bool {
	if Mx == nil || proof == nil || proof.Sign() < 0 {
		return false
	}
	result := subtle.ConstantTimeCompare(Mx.Bytes(), proof.Bytes())
	return (result == 1)
}
