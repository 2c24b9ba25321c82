package srp6

import (
	"crypto"
	"fmt"
	"math/big"
)

// Client represents the client-side perspective of the
// evidence exchange of an SRP session.
//
// A Client is used for a single authentication attempt, by a single
// goroutine. The key agreement layer sets A, B and S, after which the
// methods must be called in this order:
//
// 	M1, err := c.CalculateClientEvidenceMessage()    // send M1
// 	ok, err := c.VerifyServerEvidenceMessage(M2)     // received M2
// 	K, err := c.CalculateSessionKey()
type Client struct {
	hash crypto.Hash
	session
}

// NewClient returns a client using h as the hash function H.
// h must be one of the functions accepted by ParseHash.
func NewClient(h crypto.Hash) (*Client, error) {
	if err := checkHash(h); err != nil {
		return nil, err
	}
	return &Client{hash: h}, nil
}

// SetA configures the client's public ephemeral key (A).
func (c *Client) SetA(A *big.Int) error {
	return c.setPublic(fieldA, A)
}

// SetB configures the server's public ephemeral key (B).
func (c *Client) SetB(B *big.Int) error {
	return c.setPublic(fieldB, B)
}

// SetS configures the shared secret (S) computed by the
// client. A and B must be set first.
func (c *Client) SetS(S *big.Int) error {
	return c.setSecret(S)
}

// CalculateClientEvidenceMessage computes the proof (M1) which should
// be sent to the server. A, B and S must be set first.
func (c *Client) CalculateClientEvidenceMessage() (*big.Int, error) {
	if err := c.require("compute M1", fieldA|fieldB|fieldS); err != nil {
		return nil, err
	}
	if c.failed {
		return nil, ErrSessionFailed
	}
	if c.has(fieldM1) {
		return nil, fmt.Errorf("%w: M1", ErrAlreadySet)
	}

	M1, err := ComputeM1(c.hash, c.xA, c.xB, c.xS)
	if err != nil {
		return nil, err
	}
	if err := c.assign(fieldM1, M1); err != nil {
		return nil, err
	}
	return M1, nil
}

// VerifyServerEvidenceMessage returns true if the server proof M2 is
// verified, in which case M2 is retained.
//
// If the proof doesn't match, false is returned, nothing is retained
// and the session is marked as failed: no session key can be derived
// from it.
func (c *Client) VerifyServerEvidenceMessage(M2 *big.Int) (bool, error) {
	if err := c.require("verify M2", fieldA|fieldM1|fieldS); err != nil {
		return false, err
	}
	if c.failed {
		return false, ErrSessionFailed
	}
	if c.has(fieldM2) {
		return false, fmt.Errorf("%w: M2", ErrAlreadySet)
	}

	expected, err := ComputeM2(c.hash, c.xA, c.m1, c.xS)
	if err != nil {
		return false, err
	}
	if !checkProof(expected, M2) {
		c.failed = true
		return false, nil
	}

	if err := c.assign(fieldM2, M2); err != nil {
		return false, err
	}
	return true, nil
}

// CalculateSessionKey returns the session key shared with the
// server. It's only available once the server proof
// has been verified.
func (c *Client) CalculateSessionKey() (*big.Int, error) {
	return calculateSessionKey(c.hash, &c.session)
}

// State returns the current state of the session.
func (c *Client) State() State {
	return c.state(fieldM2)
}

// Hash returns the hash function used by c.
func (c *Client) Hash() crypto.Hash { return c.hash }

// A returns the client's public ephemeral key, or nil.
func (c *Client) A() *big.Int { return c.get(fieldA) }

// B returns the server's public ephemeral key, or nil.
func (c *Client) B() *big.Int { return c.get(fieldB) }

// M1 returns the client proof, or nil.
func (c *Client) M1() *big.Int { return c.get(fieldM1) }

// M2 returns the verified server proof, or nil.
func (c *Client) M2() *big.Int { return c.get(fieldM2) }

// Key returns the session key, or nil.
func (c *Client) Key() *big.Int { return c.get(fieldKey) }

// calculateSessionKey derives and stores K = H(S) once S, M1 and M2
// are all present.
func calculateSessionKey(h crypto.Hash, s *session) (*big.Int, error) {
	if err := s.require("compute Key", fieldS|fieldM1|fieldM2); err != nil {
		return nil, err
	}
	if s.failed {
		return nil, ErrSessionFailed
	}
	if s.has(fieldKey) {
		return nil, fmt.Errorf("%w: Key", ErrAlreadySet)
	}

	K, err := ComputeKey(h, s.xS)
	if err != nil {
		return nil, err
	}
	if err := s.assign(fieldKey, K); err != nil {
		return nil, err
	}
	return K, nil
}
