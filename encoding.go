package srp6

import "math/big"

// Encode returns the unsigned big-endian representation of x, without
// sign byte or padding. It's the representation fed to the hash
// function, and the one peers should put on the wire.
func Encode(x *big.Int) []byte {
	if x == nil {
		return nil
	}
	return x.Bytes()
}

// Decode interprets b as an unsigned big-endian integer.
func Decode(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}
