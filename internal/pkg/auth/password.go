// internal/pkg/auth/password.go
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/your-org/farmmarket-backend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// PasswordManager handles password hashing and verification.
//
// Passwords are pre-hashed with SHA-256 before bcrypt is applied: bcrypt only
// consumes the first 72 bytes of its input, so hashing the raw password would
// silently truncate anything longer. Hashes written by the old raw-bcrypt
// scheme still verify during the migration window.
type PasswordManager struct {
	config *config.Config
}

// NewPasswordManager creates a new password manager
func NewPasswordManager(cfg *config.Config) *PasswordManager {
	return &PasswordManager{
		config: cfg,
	}
}

// HashPassword hashes a password of arbitrary byte length.
func (p *PasswordManager) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword(prehash(password), p.config.Security.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// VerifyPassword verifies a password against its stored hash. Malformed
// hashes and mismatches both report false; this never panics or errors.
func (p *PasswordManager) VerifyPassword(password, hash string) bool {
	if bcrypt.CompareHashAndPassword([]byte(hash), prehash(password)) == nil {
		return true
	}

	// Legacy hashes were produced from the raw password.
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// prehash reduces a password of any length to a fixed-size hex digest.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}
