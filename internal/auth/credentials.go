package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Verifier checks a plaintext password against a stored hash.
type Verifier interface {
	// Verify returns true when the password matches the hash. A mismatch
	// is not an error; errors indicate a malformed hash or comparison
	// failure.
	Verify(password, hash string) (bool, error)
}

// BcryptVerifier verifies passwords against bcrypt hashes.
type BcryptVerifier struct{}

var _ Verifier = BcryptVerifier{}

func (BcryptVerifier) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("comparing password hash: %w", err)
	}
	return true, nil
}

// HashPassword produces a bcrypt hash suitable for seeding user records.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
