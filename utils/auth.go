package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// NormalizePhoneNumber strips spaces, dashes and parentheses. An optional
// leading + is kept.
func NormalizePhoneNumber(phoneNumber string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phoneNumber) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidatePhoneNumber accepts 10 to 15 digits after normalization.
func ValidatePhoneNumber(phoneNumber string) bool {
	digits := strings.TrimPrefix(NormalizePhoneNumber(phoneNumber), "+")
	return len(digits) >= 10 && len(digits) <= 15
}
