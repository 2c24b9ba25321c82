package srp6

import (
	"fmt"
	"math/big"
)

// State is the position of a session in the evidence protocol.
//
// 	New → Init → SecretEstablished → EvidenceVerified → KeyEstablished
//
// Failed is reachable from SecretEstablished and EvidenceVerified and is
// terminal.
type State int

const (
	StateNew               State = iota // A or B still missing
	StateInit                           // A and B set
	StateSecretEstablished              // S set
	StateEvidenceVerified               // peer evidence checked
	StateKeyEstablished                 // Key derived
	StateFailed                         // peer evidence rejected
)

var stateNames = [...]string{
	StateNew:               "New",
	StateInit:              "Init",
	StateSecretEstablished: "SecretEstablished",
	StateEvidenceVerified:  "EvidenceVerified",
	StateKeyEstablished:    "KeyEstablished",
	StateFailed:            "Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// field identifies one write-once value of a session.
type field uint8

const (
	fieldA field = 1 << iota
	fieldB
	fieldS
	fieldM1
	fieldM2
	fieldKey
)

// protocol order, used to name missing fields
var fieldOrder = [...]field{fieldA, fieldB, fieldS, fieldM1, fieldM2, fieldKey}

func (f field) String() string {
	switch f {
	case fieldA:
		return "A"
	case fieldB:
		return "B"
	case fieldS:
		return "S"
	case fieldM1:
		return "M1"
	case fieldM2:
		return "M2"
	case fieldKey:
		return "Key"
	}
	return fmt.Sprintf("field(%d)", uint8(f))
}

// session holds the values shared by the client and server
// perspectives. Every value is write-once; set tracks which ones have
// been assigned.
type session struct {
	xA     *big.Int // Client public ephemeral
	xB     *big.Int // Server public ephemeral
	xS     *big.Int // Shared secret
	m1     *big.Int // Client proof
	m2     *big.Int // Server proof
	key    *big.Int // Session key
	set    field    // Assigned values
	failed bool     // Peer evidence was rejected
}

func (s *session) has(f field) bool {
	return s.set&f == f
}

// require returns a *MissingPrerequisiteError naming every field of
// want that has not been set yet.
func (s *session) require(op string, want field) error {
	if s.has(want) {
		return nil
	}
	var missing []string
	for _, f := range fieldOrder {
		if want&f != 0 && !s.has(f) {
			missing = append(missing, f.String())
		}
	}
	return &MissingPrerequisiteError{Op: op, Missing: missing}
}

// ptr returns the storage slot of f.
func (s *session) ptr(f field) **big.Int {
	switch f {
	case fieldA:
		return &s.xA
	case fieldB:
		return &s.xB
	case fieldS:
		return &s.xS
	case fieldM1:
		return &s.m1
	case fieldM2:
		return &s.m2
	case fieldKey:
		return &s.key
	}
	panic(fmt.Sprintf("srp6: unknown field %d", uint8(f)))
}

// assign stores a copy of v in f, once.
func (s *session) assign(f field, v *big.Int) error {
	if v == nil || v.Sign() < 0 {
		return fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidValue, f)
	}
	if s.has(f) {
		return fmt.Errorf("%w: %s", ErrAlreadySet, f)
	}
	*s.ptr(f) = new(big.Int).Set(v)
	s.set |= f
	return nil
}

// get returns a copy of f, or nil if it's not set.
func (s *session) get(f field) *big.Int {
	if !s.has(f) {
		return nil
	}
	return new(big.Int).Set(*s.ptr(f))
}

// setPublic assigns A or B. S depends on both, so neither may change
// once the secret exists.
func (s *session) setPublic(f field, v *big.Int) error {
	if s.failed {
		return ErrSessionFailed
	}
	return s.assign(f, v)
}

func (s *session) setSecret(S *big.Int) error {
	if err := s.require("set S", fieldA|fieldB); err != nil {
		return err
	}
	if s.failed {
		return ErrSessionFailed
	}
	return s.assign(fieldS, S)
}

// state derives the protocol state; verified is the field whose
// presence means the peer's evidence has been checked.
func (s *session) state(verified field) State {
	switch {
	case s.failed:
		return StateFailed
	case s.has(fieldKey):
		return StateKeyEstablished
	case s.has(verified):
		return StateEvidenceVerified
	case s.has(fieldS):
		return StateSecretEstablished
	case s.has(fieldA | fieldB):
		return StateInit
	}
	return StateNew
}
