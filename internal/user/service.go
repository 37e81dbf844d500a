package user

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"bazaar/infrastructure"

	"github.com/google/uuid"
)

// PasswordChanger applies a new password to the user in memory after the
// complexity and reuse checks pass. Implemented by the auth policy engine.
type PasswordChanger interface {
	Apply(u *User, password string) error
}

type UpdateUserInput struct {
	Name              *string
	Email             *string
	IsAdmin           *bool
	IsSeller          *bool
	SellerName        *string
	SellerLogo        *string
	SellerDescription *string
}

type UpdateProfileInput struct {
	Name     *string
	Email    *string
	Password *string
}

// Service covers account administration and profile self-service. The
// sign-in flows live in the auth package.
type Service struct {
	db         *sql.DB
	saver      Saver
	updater    Updater
	users      Provider
	deleter    Deleter
	passwords  PasswordChanger
	tokens     *infrastructure.TokenManager
	adminEmail string
	logger     *slog.Logger
}

func NewService(
	db *sql.DB,
	saver Saver,
	updater Updater,
	users Provider,
	deleter Deleter,
	passwords PasswordChanger,
	tokens *infrastructure.TokenManager,
	adminEmail string,
	logger *slog.Logger,
) *Service {
	return &Service{
		db:         db,
		saver:      saver,
		updater:    updater,
		users:      users,
		deleter:    deleter,
		passwords:  passwords,
		tokens:     tokens,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

func (s *Service) AllUsers(ctx context.Context) ([]*User, error) {
	return s.users.AllUsers()
}

func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.UserByID(id)
}

// UpdateUser applies an admin edit: identity, role flags and the seller
// profile.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*User, error) {
	u, err := s.users.UserByID(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		u.Name = *input.Name
	}
	if input.Email != nil {
		u.Email = *input.Email
	}
	if input.IsAdmin != nil {
		u.IsAdmin = *input.IsAdmin
	}
	if input.IsSeller != nil {
		u.IsSeller = *input.IsSeller
	}
	if input.SellerName != nil {
		u.Seller.Name = sql.NullString{String: *input.SellerName, Valid: true}
	}
	if input.SellerLogo != nil {
		u.Seller.Logo = sql.NullString{String: *input.SellerLogo, Valid: true}
	}
	if input.SellerDescription != nil {
		u.Seller.Description = sql.NullString{String: *input.SellerDescription, Valid: true}
	}

	err = infrastructure.WithTransaction(s.db, ctx, func(tx *sql.Tx) error {
		return s.updater.UpdateUser(tx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes an account. The bootstrap admin account cannot be
// deleted.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	u, err := s.users.UserByID(id)
	if err != nil {
		return err
	}
	if u.Email == s.adminEmail {
		return infrastructure.ErrForbidden
	}

	return infrastructure.WithTransaction(s.db, ctx, func(tx *sql.Tx) error {
		return s.deleter.DeleteUser(tx, id)
	})
}

// UpdateProfile lets a user change their own name, email and password.
// A password change runs through the policy engine against the stored
// history and re-issues the access token so the embedded identity stays
// current.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*User, string, error) {
	u, err := s.users.UserByID(id)
	if err != nil {
		return nil, "", err
	}

	if input.Name != nil {
		u.Name = *input.Name
	}
	if input.Email != nil {
		u.Email = *input.Email
	}

	passwordChanged := false
	if input.Password != nil && *input.Password != "" {
		history, err := s.users.PasswordHistory(id)
		if err != nil {
			return nil, "", err
		}
		u.PasswordHistory = history
		if err := s.passwords.Apply(u, *input.Password); err != nil {
			return nil, "", err
		}
		passwordChanged = true
	}

	err = infrastructure.WithTransaction(s.db, ctx, func(tx *sql.Tx) error {
		if err := s.updater.UpdateUser(tx, u); err != nil {
			return err
		}
		if passwordChanged {
			if err := s.updater.UpdatePassword(tx, id, u.PasswordHash, u.PasswordExpiresAt.Time); err != nil {
				return err
			}
			last := u.PasswordHistory[len(u.PasswordHistory)-1]
			return s.saver.AddPasswordHistory(tx, id, last.PasswordHash, last.CreatedAt)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	accessToken, err := s.tokens.GenerateAccessToken(infrastructure.TokenIdentity{
		UserID:   u.ID,
		Name:     u.Name,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
		IsSeller: u.IsSeller,
	})
	if err != nil {
		return nil, "", err
	}

	if passwordChanged {
		s.logger.Info("password changed", "user_id", id, "expires_at", u.PasswordExpiresAt.Time.Format(time.RFC3339))
	}
	return u, accessToken, nil
}

// ToggleTwoFactor flips the 2FA flag and returns the new state.
func (s *Service) ToggleTwoFactor(ctx context.Context, id uuid.UUID) (bool, error) {
	u, err := s.users.UserByID(id)
	if err != nil {
		return false, err
	}

	enabled := !u.TwoFactorEnabled
	err = infrastructure.WithTransaction(s.db, ctx, func(tx *sql.Tx) error {
		return s.updater.UpdateTwoFactorEnabled(tx, id, enabled)
	})
	if err != nil {
		return false, err
	}
	return enabled, nil
}
