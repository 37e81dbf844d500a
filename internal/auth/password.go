package auth

import (
	"fmt"
	"time"
	"unicode"

	"bazaar/infrastructure"
	"bazaar/internal/user"

	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
)

const (
	PasswordMinLength      = 8
	PasswordMinEntropyBits = 30
	PasswordLifetime       = 90 * 24 * time.Hour

	bcryptCost = 10
)

// PasswordPolicy validates complexity and reuse and applies accepted
// passwords to the user record. It never persists; callers own that.
type PasswordPolicy struct{}

// Validate enforces minimum length plus at least one uppercase, lowercase,
// digit and special character, then an entropy floor on top.
func (PasswordPolicy) Validate(password string) error {
	if len(password) < PasswordMinLength {
		return fmt.Errorf("%w: must be at least %d characters", infrastructure.ErrPasswordPolicy, PasswordMinLength)
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
		default:
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return fmt.Errorf("%w: must include uppercase, lowercase, numbers, and special characters", infrastructure.ErrPasswordPolicy)
	}

	if err := passwordvalidator.Validate(password, PasswordMinEntropyBits); err != nil {
		return fmt.Errorf("%w: %v", infrastructure.ErrPasswordPolicy, err)
	}
	return nil
}

// CheckReuse compares the candidate against every historical hash.
func (PasswordPolicy) CheckReuse(password string, history []user.PasswordHistoryEntry) error {
	for _, entry := range history {
		if bcrypt.CompareHashAndPassword([]byte(entry.PasswordHash), []byte(password)) == nil {
			return infrastructure.ErrPasswordReused
		}
	}
	return nil
}

// Apply validates the candidate, rejects reuse, hashes it and mutates the
// user: new hash, history append, expiry at now + 90 days.
func (p PasswordPolicy) Apply(u *user.User, password string) error {
	if err := p.Validate(password); err != nil {
		return err
	}
	if err := p.CheckReuse(password, u.PasswordHistory); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	u.PasswordHash = string(hash)
	u.PasswordHistory = append(u.PasswordHistory, user.PasswordHistoryEntry{
		PasswordHash: string(hash),
		CreatedAt:    now,
	})
	u.PasswordExpiresAt.Time = now.Add(PasswordLifetime)
	u.PasswordExpiresAt.Valid = true
	return nil
}

func verifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// PasswordExpired reports whether the stored expiry has passed.
func PasswordExpired(u *user.User, now time.Time) bool {
	return u.PasswordExpiresAt.Valid && u.PasswordExpiresAt.Time.Before(now)
}
