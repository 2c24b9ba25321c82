package srp6

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingPrerequisite is matched by every *MissingPrerequisiteError
	// through errors.Is.
	ErrMissingPrerequisite = errors.New("srp6: missing prerequisite")

	// ErrSessionFailed is returned when an operation is invoked on a
	// session whose evidence verification already failed. A failed
	// session cannot be retried; start a new handshake instead.
	ErrSessionFailed = errors.New("srp6: session failed verification")

	// ErrAlreadySet is returned when a write-once value is assigned
	// a second time.
	ErrAlreadySet = errors.New("srp6: value already set")

	// ErrInvalidValue is returned for nil or negative integers.
	ErrInvalidValue = errors.New("srp6: invalid value")

	// ErrHashUnavailable is returned when the selected hash function
	// is not linked into the binary.
	ErrHashUnavailable = errors.New("srp6: hash function unavailable")

	// ErrUnregisteredHash is returned when a session is created with a
	// hash function that ParseHash cannot select, and that a saved
	// server could therefore not be restored with.
	ErrUnregisteredHash = errors.New("srp6: hash function not registered")
)

// MissingPrerequisiteError is returned when an operation is invoked
// before the values it depends on have been set.
type MissingPrerequisiteError struct {
	Op      string   // Operation that was attempted
	Missing []string // Names of the absent values, in protocol order
}

func (e *MissingPrerequisiteError) Error() string {
	return fmt.Sprintf("srp6: cannot %s: missing %s", e.Op, strings.Join(e.Missing, ", "))
}

// Is reports whether target is ErrMissingPrerequisite.
func (e *MissingPrerequisiteError) Is(target error) bool {
	return target == ErrMissingPrerequisite
}
