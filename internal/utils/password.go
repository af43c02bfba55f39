package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// ErrWeakPassword is returned by CheckPassword for passwords that are too
// short or too long for bcrypt.
var ErrWeakPassword = errors.New("password must be 8 to 72 bytes")

// CheckPassword applies the registration password rules. bcrypt ignores
// input past 72 bytes, so longer passwords are refused rather than silently
// truncated.
func CheckPassword(plain string) error {
	if len(plain) < MinPasswordLength || len(plain) > 72 {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword hashes plain with bcrypt. Costs outside bcrypt's range fall
// back to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
