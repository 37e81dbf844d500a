package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// SellerProfile is read by downstream authorization and the storefront;
// the account flows never mutate rating or reviews.
type SellerProfile struct {
	Name        sql.NullString `json:"name,omitempty"`
	Logo        sql.NullString `json:"logo,omitempty"`
	Description sql.NullString `json:"description,omitempty"`
	Rating      float64        `json:"rating"`
	Reviews     int            `json:"reviews"`
}

type PasswordHistoryEntry struct {
	PasswordHash string
	CreatedAt    time.Time
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`

	// PasswordHistory is append-only; loaded on demand for reuse checks.
	PasswordHistory   []PasswordHistoryEntry `json:"-"`
	PasswordExpiresAt sql.NullTime           `json:"-"`

	IsAdmin          bool `json:"is_admin"`
	IsSeller         bool `json:"is_seller"`
	IsVerified       bool `json:"is_verified"`
	TwoFactorEnabled bool `json:"two_factor_enabled"`

	LoginAttempts int          `json:"-"`
	LockedUntil   sql.NullTime `json:"-"`

	Seller SellerProfile `json:"seller"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
