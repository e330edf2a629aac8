package security

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPINLength = 4
	maxPINLength = 8
)

// ValidatePIN checks the manager PIN shape: 4 to 8 digits.
func ValidatePIN(pin string) error {
	if len(pin) < minPINLength || len(pin) > maxPINLength {
		return fmt.Errorf("pin must be between %d and %d digits", minPINLength, maxPINLength)
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return fmt.Errorf("pin must contain only digits")
		}
	}
	return nil
}

// HashPIN returns a bcrypt hash of the manager PIN.
func HashPIN(pin string) (string, error) {
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}

// VerifyPIN reports whether the PIN matches the stored hash.
func VerifyPIN(pin, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

// GenerateTempPIN produces a random numeric PIN for first-time provisioning.
func GenerateTempPIN(length int) (string, error) {
	if length < minPINLength || length > maxPINLength {
		return "", fmt.Errorf("pin length must be between %d and %d", minPINLength, maxPINLength)
	}
	digits := make([]byte, length)
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate pin: %w", err)
	}
	for i, b := range buf {
		digits[i] = '0' + b%10
	}
	return string(digits), nil
}
