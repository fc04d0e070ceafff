package models

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordUnreadable is returned by any attempt to serialize a stored password
var ErrPasswordUnreadable = errors.New("password is not a readable attribute")

// HashPassword returns a salted bcrypt digest of secret
func HashPassword(secret string, cost int) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether secret matches digest
func VerifyPassword(digest, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}

// PasswordHash stores a bcrypt digest. It can be set and verified but never read back.
type PasswordHash struct {
	digest string
}

func (p *PasswordHash) Set(secret string, cost int) error {
	digest, err := HashPassword(secret, cost)
	if err != nil {
		return err
	}
	p.digest = digest
	return nil
}

func (p PasswordHash) Verify(secret string) bool {
	if p.digest == "" {
		return false
	}
	return VerifyPassword(p.digest, secret)
}

func (p PasswordHash) IsSet() bool {
	return p.digest != ""
}

func (p PasswordHash) String() string {
	return "[REDACTED]"
}

func (p PasswordHash) MarshalJSON() ([]byte, error) {
	return nil, ErrPasswordUnreadable
}

func (p PasswordHash) MarshalText() ([]byte, error) {
	return nil, ErrPasswordUnreadable
}

// Value implements driver.Valuer
func (p PasswordHash) Value() (driver.Value, error) {
	return p.digest, nil
}

// Scan implements sql.Scanner
func (p *PasswordHash) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		p.digest = v
	case []byte:
		p.digest = string(v)
	case nil:
		p.digest = ""
	default:
		return fmt.Errorf("cannot scan %T into PasswordHash", src)
	}
	return nil
}

// GormDataType maps the column to a string type on every dialect
func (PasswordHash) GormDataType() string {
	return "string"
}
