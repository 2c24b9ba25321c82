package exchange

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// errMalformedRecord is returned when a Record is too short
// for the lengths it declares.
var errMalformedRecord = errors.New("malformed verifier record")

// Record holds what the server stores for a user, in a single byte
// array.
//
// Record implements the interfaces of Go's sql package, and can
// therefore be stored as-is in any compatible database.
//
// A record is structured as follows:
//
// 	+------------------------+
// 	| usernameLen (1)        |
// 	+------------------------+
// 	| username (usernameLen) |
// 	+------------------------+
// 	| saltLen (1)            |
// 	+------------------------+
// 	| salt (saltLen)         |
// 	+------------------------+
// 	| verifier               |
// 	+------------------------+
type Record []byte

// NewRecord returns a new Record from the given username, salt and
// verifier.
func NewRecord(username string, salt, verifier []byte) (Record, error) {
	if len(username) > math.MaxUint8 {
		return nil, fmt.Errorf("length of username cannot exceed %d bytes", math.MaxUint8)
	}
	if len(salt) > math.MaxUint8 {
		return nil, fmt.Errorf("length of salt cannot exceed %d bytes", math.MaxUint8)
	}

	b := new(bytes.Buffer)
	b.WriteByte(byte(len(username)))
	b.WriteString(username)
	b.WriteByte(byte(len(salt)))
	b.Write(salt)
	b.Write(verifier)
	return b.Bytes(), nil
}

// ComputeVerifier computes the record of a user from their
// username, password and salt.
//
// 	x = KDF(I, P, s)
// 	v = g^x % N
func ComputeVerifier(group *Group, username, password string, salt []byte) (Record, error) {
	x, err := group.Derive(NFKD(username), NFKD(password), salt)
	if err != nil {
		return nil, err
	}

	v := new(big.Int).Exp(group.Generator, new(big.Int).SetBytes(x), group.N)
	return NewRecord(NFKD(username), salt, v.Bytes())
}

// Value implements driver.Valuer.
func (r Record) Value() (driver.Value, error) {
	return []byte(r), nil
}

// Scan implements sql.Scanner.
func (r *Record) Scan(v any) error {
	if v == nil {
		*r = nil
		return nil
	}

	b, ok := v.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into Record", v)
	}

	*r = append(Record(nil), b...)
	return r.validate()
}

func (r Record) validate() error {
	if len(r) < 1 {
		return errMalformedRecord
	}
	usernameLen := int(r[0])
	if len(r) < usernameLen+2 {
		return errMalformedRecord
	}
	saltLen := int(r[usernameLen+1])
	if len(r) < usernameLen+saltLen+2 {
		return errMalformedRecord
	}
	return nil
}

// Username returns the username stored in r.
func (r Record) Username() string {
	usernameLen := int(r[0])
	return string(r[1 : 1+usernameLen])
}

// Salt returns the salt stored in r.
func (r Record) Salt() []byte {
	usernameLen := int(r[0])
	saltLen := int(r[usernameLen+1])
	return r[usernameLen+2 : usernameLen+2+saltLen]
}

// Verifier returns the verifier stored in r.
func (r Record) Verifier() []byte {
	usernameLen := int(r[0])
	saltLen := int(r[usernameLen+1])
	return r[usernameLen+saltLen+2:]
}

// NFKD returns str as a NFKD-normalized unicode string, stripped of
// all leading and trailing spaces.
func NFKD(str string) string {
	return strings.TrimFunc(norm.NFKD.String(str), unicode.IsSpace)
}
