package password

import (
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	customErrors "tasknest/internal/domain/errors"
)

const specialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// Hasher wraps bcrypt with the service's cost and failure policy.
type Hasher struct {
	cost   int
	logger *zap.Logger
}

func NewHasher(cost int, logger *zap.Logger) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost, logger: logger}
}

func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", customErrors.WrapInternal(err, "hash password")
	}
	return string(hashed), nil
}

// Verify fails closed: a malformed stored hash is logged and treated as a
// mismatch, never surfaced as an error.
func (h *Hasher) Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true
	case err == bcrypt.ErrMismatchedHashAndPassword:
		return false
	default:
		h.logger.Error("password verification failed on malformed hash", zap.Error(err))
		return false
	}
}

// ValidatePolicy checks every rule and reports the complete unmet list.
func ValidatePolicy(password string) error {
	var unmet []string

	if len(password) < 8 {
		unmet = append(unmet, "password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
		if strings.ContainsRune(specialChars, r) {
			hasSpecial = true
		}
	}

	if !hasUpper {
		unmet = append(unmet, "password must contain at least one uppercase letter")
	}
	if !hasLower {
		unmet = append(unmet, "password must contain at least one lowercase letter")
	}
	if !hasDigit {
		unmet = append(unmet, "password must contain at least one number")
	}
	if !hasSpecial {
		unmet = append(unmet, "password must contain at least one special character")
	}

	if len(unmet) > 0 {
		return &customErrors.PasswordPolicyError{Unmet: unmet}
	}
	return nil
}
