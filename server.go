package srp6

import (
	"crypto"
	"encoding/json"
	"fmt"
	"math/big"
)

// savedServer holds information that would
// allow a server instance to be restored.
type savedServer struct {
	Hash string `json:"hash"`
	BigA []byte `json:"A"`
	BigB []byte `json:"B"`
	S    []byte `json:"S"`
	M1   []byte `json:"M1"`
	M2   []byte `json:"M2"`
	Key  []byte `json:"K"`
}

// Server represents the server-side perspective of the
// evidence exchange of an SRP session.
//
// A Server is used for a single authentication attempt, by a single
// goroutine. The key agreement layer sets A, B and S, after which the
// methods must be called in this order:
//
// 	ok, err := s.VerifyClientEvidenceMessage(M1)    // received M1
// 	M2, err := s.CalculateServerEvidenceMessage()   // send M2
// 	K, err := s.CalculateSessionKey()
//
// Between two requests of a stateless transport, a Server can be
// saved with json.Marshal (or gob) and restored with json.Unmarshal.
type Server struct {
	hash crypto.Hash
	session
}

// NewServer returns a server using h as the hash function H.
// h must be one of the functions accepted by ParseHash.
func NewServer(h crypto.Hash) (*Server, error) {
	if err := checkHash(h); err != nil {
		return nil, err
	}
	return &Server{hash: h}, nil
}

// SetA configures the client's public ephemeral key (A).
func (s *Server) SetA(A *big.Int) error {
	return s.setPublic(fieldA, A)
}

// SetB configures the server's public ephemeral key (B).
func (s *Server) SetB(B *big.Int) error {
	return s.setPublic(fieldB, B)
}

// SetS configures the shared secret (S) computed by the
// server. A and B must be set first.
func (s *Server) SetS(S *big.Int) error {
	return s.setSecret(S)
}

// VerifyClientEvidenceMessage returns true if the client proof M1 is
// verified, in which case M1 is retained.
//
// If the proof doesn't match, false is returned, nothing is retained
// and the session is marked as failed: the server must abort without
// showing its own proof.
func (s *Server) VerifyClientEvidenceMessage(M1 *big.Int) (bool, error) {
	if err := s.require("verify M1", fieldA|fieldB|fieldS); err != nil {
		return false, err
	}
	if s.failed {
		return false, ErrSessionFailed
	}
	if s.has(fieldM1) {
		return false, fmt.Errorf("%w: M1", ErrAlreadySet)
	}

	expected, err := ComputeM1(s.hash, s.xA, s.xB, s.xS)
	if err != nil {
		return false, err
	}
	if !checkProof(expected, M1) {
		s.failed = true
		return false, nil
	}

	if err := s.assign(fieldM1, M1); err != nil {
		return false, err
	}
	return true, nil
}

// CalculateServerEvidenceMessage returns the proof (M2) which should
// be sent to the client.
//
// An error is returned if the client's proof (M1) has
// not been verified by calling s.VerifyClientEvidenceMessage first.
func (s *Server) CalculateServerEvidenceMessage() (*big.Int, error) {
	if err := s.require("compute M2", fieldA|fieldM1|fieldS); err != nil {
		return nil, err
	}
	if s.failed {
		return nil, ErrSessionFailed
	}
	if s.has(fieldM2) {
		return nil, fmt.Errorf("%w: M2", ErrAlreadySet)
	}

	M2, err := ComputeM2(s.hash, s.xA, s.m1, s.xS)
	if err != nil {
		return nil, err
	}
	if err := s.assign(fieldM2, M2); err != nil {
		return nil, err
	}
	return M2, nil
}

// CalculateSessionKey returns the session key shared with the
// client. It's only available once the server proof
// has been computed.
func (s *Server) CalculateSessionKey() (*big.Int, error) {
	return calculateSessionKey(s.hash, &s.session)
}

// State returns the current state of the session.
func (s *Server) State() State {
	return s.state(fieldM1)
}

// Hash returns the hash function used by s.
func (s *Server) Hash() crypto.Hash { return s.hash }

// A returns the client's public ephemeral key, or nil.
func (s *Server) A() *big.Int { return s.get(fieldA) }

// B returns the server's public ephemeral key, or nil.
func (s *Server) B() *big.Int { return s.get(fieldB) }

// M1 returns the verified client proof, or nil.
func (s *Server) M1() *big.Int { return s.get(fieldM1) }

// M2 returns the server proof, or nil.
func (s *Server) M2() *big.Int { return s.get(fieldM2) }

// Key returns the session key, or nil.
func (s *Server) Key() *big.Int { return s.get(fieldKey) }

// MarshalJSON returns a JSON object representing
// the current state of s.
//
// A failed server cannot be saved.
func (s *Server) MarshalJSON() ([]byte, error) {
	if s.failed {
		return nil, ErrSessionFailed
	}

	saved := &savedServer{
		Hash: HashName(s.hash),
		BigA: s.encoded(fieldA),
		BigB: s.encoded(fieldB),
		S:    s.encoded(fieldS),
		M1:   s.encoded(fieldM1),
		M2:   s.encoded(fieldM2),
		Key:  s.encoded(fieldKey),
	}
	return json.Marshal(saved)
}

// UnmarshalJSON restores from an existing state object
// obtained with MarshalJSON.
//
// Values are replayed in protocol order, so a state object that skips
// a step is rejected.
func (s *Server) UnmarshalJSON(data []byte) error {
	saved := &savedServer{}
	if err := json.Unmarshal(data, saved); err != nil {
		return err
	}

	h, err := ParseHash(saved.Hash)
	if err != nil {
		return err
	}
	restored, err := NewServer(h)
	if err != nil {
		return err
	}

	values := []struct {
		f field
		b []byte
	}{
		{fieldA, saved.BigA},
		{fieldB, saved.BigB},
		{fieldS, saved.S},
		{fieldM1, saved.M1},
		{fieldM2, saved.M2},
		{fieldKey, saved.Key},
	}
	for _, v := range values {
		if v.b == nil {
			continue
		}
		if err := restored.restore(v.f, Decode(v.b)); err != nil {
			return fmt.Errorf("failed to restore %s: %w", v.f, err)
		}
	}

	*s = *restored
	return nil
}

// restore assigns f after checking the values it depends on. Proofs
// and key are recomputed and must match the saved values.
func (s *Server) restore(f field, v *big.Int) error {
	var (
		expected *big.Int
		err      error
	)
	switch f {
	case fieldS:
		return s.SetS(v)
	case fieldM1:
		if err := s.require("restore M1", fieldA|fieldB|fieldS); err != nil {
			return err
		}
		expected, err = ComputeM1(s.hash, s.xA, s.xB, s.xS)
	case fieldM2:
		if err := s.require("restore M2", fieldA|fieldM1|fieldS); err != nil {
			return err
		}
		expected, err = ComputeM2(s.hash, s.xA, s.m1, s.xS)
	case fieldKey:
		if err := s.require("restore Key", fieldS|fieldM1|fieldM2); err != nil {
			return err
		}
		expected, err = ComputeKey(s.hash, s.xS)
	}
	if err != nil {
		return err
	}
	if expected != nil && !checkProof(expected, v) {
		return fmt.Errorf("%w: saved %s doesn't match", ErrInvalidValue, f)
	}
	return s.assign(f, v)
}

// encoded returns the bytes of f, or nil if it's not set.
func (s *Server) encoded(f field) []byte {
	if !s.has(f) {
		return nil
	}
	return Encode(*s.ptr(f))
}

// GobEncode implements gob.GobEncoder.
func (s *Server) GobEncode() ([]byte, error) {
	return s.MarshalJSON()
}

// GobDecode implements gob.GobDecoder.
func (s *Server) GobDecode(data []byte) error {
	return s.UnmarshalJSON(data)
}
