package exchange

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

var bigOne = big.NewInt(1)

// Smallest ephemeral key size allowed.
const minEphemeralKeySize = 32

// ErrInvalidPublicKey is returned when the peer's public ephemeral key
// is zero modulo N.
var ErrInvalidPublicKey = errors.New("invalid public ephemeral key")

// errInvalidU is returned when the scrambling parameter u is zero.
var errInvalidU = errors.New("invalid u value")

// Client computes the client side of the key agreement.
type Client struct {
	group *Group
	x     *big.Int // User's derived secret
	a     *big.Int // Client private ephemeral
	xA    *big.Int // Client public ephemeral
}

// NewClient returns a client with a new random ephemeral key pair.
func NewClient(group *Group, username, password string, salt []byte) (*Client, error) {
	return newClientWithKey(group, username, password, salt, randomExponent(group))
}

func newClientWithKey(group *Group, username, password string, salt []byte, a *big.Int) (*Client, error) {
	x, err := group.Derive(NFKD(username), NFKD(password), salt)
	if err != nil {
		return nil, err
	}

	return &Client{
		group: group,
		x:     new(big.Int).SetBytes(x),
		a:     a,
		xA:    new(big.Int).Exp(group.Generator, a, group.N),
	}, nil
}

// A returns the public ephemeral key
// (A) of this client.
func (c *Client) A() *big.Int {
	return new(big.Int).Set(c.xA)
}

// Secret returns the premaster secret S computed from the server's
// public ephemeral key B.
//
// Formula:
// 	S = (B - (k * g^x)) ^ (a + (u * x)) % N
func (c *Client) Secret(B *big.Int) (*big.Int, error) {
	if !isValidEphemeralKey(c.group, B) {
		return nil, fmt.Errorf("B: %w", ErrInvalidPublicKey)
	}

	k, err := computeLittleK(c.group)
	if err != nil {
		return nil, err
	}
	u, err := computeLittleU(c.group, c.xA, B)
	if err != nil {
		return nil, err
	}

	N := c.group.N

	// (B - (k * g^x)) % N
	base := new(big.Int).Exp(c.group.Generator, c.x, N)
	base.Mul(base, k)
	base.Sub(B, base)
	base.Mod(base, N)

	// a + (u * x)
	exp := new(big.Int).Mul(u, c.x)
	exp.Add(exp, c.a)

	return base.Exp(base, exp, N), nil
}

// Server computes the server side of the key agreement
// for the user stored in a Record.
type Server struct {
	group  *Group
	record Record
	v      *big.Int // Password verifier
	b      *big.Int // Server private ephemeral
	xB     *big.Int // Server public ephemeral
}

// NewServer returns a server with a new random ephemeral key pair.
func NewServer(group *Group, record Record) (*Server, error) {
	return newServerWithKey(group, record, randomExponent(group))
}

func newServerWithKey(group *Group, record Record, b *big.Int) (*Server, error) {
	if err := record.validate(); err != nil {
		return nil, err
	}

	k, err := computeLittleK(group)
	if err != nil {
		return nil, err
	}

	// B = (k*v + g^b) % N
	v := new(big.Int).SetBytes(record.Verifier())
	B := new(big.Int).Mul(k, v)
	B.Add(B, new(big.Int).Exp(group.Generator, b, group.N))
	B.Mod(B, group.N)

	return &Server{
		group:  group,
		record: record,
		v:      v,
		b:      b,
		xB:     B,
	}, nil
}

// B returns the public ephemeral key
// (B) of this server.
func (s *Server) B() *big.Int {
	return new(big.Int).Set(s.xB)
}

// Salt returns the salt the client needs to derive x.
func (s *Server) Salt() []byte {
	return s.record.Salt()
}

// Secret returns the premaster secret S computed from the client's
// public ephemeral key A.
//
// Formula:
// 	S = (A * v^u) ^ b % N
func (s *Server) Secret(A *big.Int) (*big.Int, error) {
	if !isValidEphemeralKey(s.group, A) {
		return nil, fmt.Errorf("A: %w", ErrInvalidPublicKey)
	}

	u, err := computeLittleU(s.group, A, s.xB)
	if err != nil {
		return nil, err
	}

	base := new(big.Int).Exp(s.v, u, s.group.N)
	base.Mul(base, A)
	return base.Exp(base, s.b, s.group.N), nil
}

// computeLittleK computes the value of k.
//
// Formula:
// 	k = H(N | PAD(g))
func computeLittleK(group *Group) (*big.Int, error) {
	g, err := pad(group.Generator, group.N)
	if err != nil {
		return nil, fmt.Errorf("failed to pad g: %w", err)
	}
	return hashToInt(group, group.N.Bytes(), g), nil
}

// computeLittleU computes the value of u.
//
// Formula:
// 	u = H(PAD(A) | PAD(B))
func computeLittleU(group *Group, A, B *big.Int) (*big.Int, error) {
	bA, err := pad(A, group.N)
	if err != nil {
		return nil, fmt.Errorf("failed to pad A: %w", err)
	}
	bB, err := pad(B, group.N)
	if err != nil {
		return nil, fmt.Errorf("failed to pad B: %w", err)
	}
	u := hashToInt(group, bA, bB)
	if err := checkLittleU(u); err != nil {
		return nil, err
	}
	return u, nil
}

// checkLittleU rejects u = 0, which would let S be computed without
// the password. Both sides abort on it.
func checkLittleU(u *big.Int) error {
	if u.Sign() == 0 {
		return errInvalidU
	}
	return nil
}

func hashToInt(group *Group, parts ...[]byte) *big.Int {
	h := group.Hash.New()
	for _, p := range parts {
		h.Write(p)
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

// isValidEphemeralKey returns true if i is a valid
// public ephemeral key for the given group.
func isValidEphemeralKey(group *Group, i *big.Int) bool {
	if i == nil || i.Sign() <= 0 {
		return false
	}

	r := new(big.Int)
	if r.Mod(i, group.N); r.Sign() == 0 {
		return false
	}
	return r.GCD(nil, nil, i, group.N).Cmp(bigOne) == 0
}

// randomExponent returns a new random private ephemeral key.
func randomExponent(group *Group) *big.Int {
	size := group.ExponentSize
	if size < minEphemeralKeySize {
		size = minEphemeralKeySize
	}

	b := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(fmt.Errorf("failed to get random bytes: %v", err))
	}
	return new(big.Int).SetBytes(b)
}

// pad left-pads the bytes of x with zeros to the byte length of N.
func pad(x, N *big.Int) ([]byte, error) {
	length := (N.BitLen() + 7) / 8
	if x.Sign() < 0 || (x.BitLen()+7)/8 > length {
		return nil, errors.New("value doesn't fit in the group")
	}
	return x.FillBytes(make([]byte, length)), nil
}

// NewSalt returns a new random salt of the given length.
func NewSalt(length int) []byte {
	b := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(fmt.Errorf("failed to get random bytes: %v", err))
	}
	return b
}
