package auth

import (
	"time"

	"bazaar/internal/user"
)

const (
	LockoutThreshold = 5
	LockoutDuration  = 15 * time.Minute
)

// Locked reports whether the account is under an active lock. An expired
// lock timestamp counts as unlocked; the row is cleaned up on the next
// successful sign-in.
func Locked(u *user.User, now time.Time) bool {
	return u.LockedUntil.Valid && u.LockedUntil.Time.After(now)
}
