package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch = errors.New("password does not match")
)

// MinPasswordLength is enforced here and mirrored by the register payload
// validation.
const MinPasswordLength = 8

// bcryptCost is the work factor for new password hashes
const bcryptCost = 12

// HashPassword hashes a plaintext password for storage. Too-short passwords
// are rejected before any hashing work.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a stored hash against a login attempt. A mismatch
// is reported as ErrPasswordMismatch; anything else is an internal bcrypt
// failure.
func VerifyPassword(hash, password string) error {
	switch err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return err
	}
}
