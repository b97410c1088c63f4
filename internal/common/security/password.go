package security

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const specialChars = "@$!%*?&"

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsValidPassword enforces the registration policy: at least 8 characters,
// one uppercase and lowercase letter, one digit and one special character,
// drawn only from those classes.
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= '0' && c <= '9':
			hasDigit = true
		case strings.ContainsRune(specialChars, c):
			hasSpecial = true
		default:
			return false
		}
	}
	return hasLower && hasUpper && hasDigit && hasSpecial
}
