package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"shoplist/internal/common"
)

// HashPassword derives a bcrypt hash for storage.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// VerifyPassword checks password against a stored hash. A mismatch maps to
// common.ErrUnauthorized.
func VerifyPassword(hash []byte, password string) error {
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return common.ErrUnauthorized
	}
	return err
}
