package auth

import (
	"context"
	"database/sql"
	"time"

	"bazaar/infrastructure"
	"bazaar/internal/user"

	"github.com/google/uuid"
)

// UserRepository is the slice of the user store the sign-in/sign-up flows
// need. Write operations run inside a transaction.
type UserRepository interface {
	UserByEmail(ctx context.Context, email string) (*user.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	CreateUser(ctx context.Context, u *user.User) error
	MarkVerified(ctx context.Context, userID uuid.UUID) error
	RecordFailedLogin(ctx context.Context, userID uuid.UUID, threshold int, lockUntil time.Time) (int, sql.NullTime, error)
	RecordSuccessfulLogin(ctx context.Context, userID uuid.UUID) error
}

type PostgresRepository struct {
	db      *sql.DB
	saver   user.Saver
	updater user.Updater
	users   user.Provider
}

func NewPostgresRepository(
	db *sql.DB,
	saver user.Saver,
	updater user.Updater,
	users user.Provider,
) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		saver:   saver,
		updater: updater,
		users:   users,
	}
}

func (r *PostgresRepository) UserByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.users.UserByEmail(email)
}

func (r *PostgresRepository) UserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.users.UserByID(id)
}

// CreateUser inserts the user row and the first password-history entry in
// one transaction so a rejected insert leaves no history behind.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *user.User) error {
	return infrastructure.TimeOperation(ctx, "CreateUser", func() error {
		return infrastructure.WithTransaction(r.db, ctx, func(tx *sql.Tx) error {
			if err := r.saver.SaveUser(tx, u); err != nil {
				return err
			}
			for _, entry := range u.PasswordHistory {
				if err := r.saver.AddPasswordHistory(tx, u.ID, entry.PasswordHash, entry.CreatedAt); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, userID uuid.UUID) error {
	return infrastructure.TimeOperation(ctx, "MarkVerified", func() error {
		return infrastructure.WithTransaction(r.db, ctx, func(tx *sql.Tx) error {
			return r.updater.UpdateVerificationStatus(tx, userID, true)
		})
	})
}

func (r *PostgresRepository) RecordFailedLogin(ctx context.Context, userID uuid.UUID, threshold int, lockUntil time.Time) (int, sql.NullTime, error) {
	var attempts int
	var lockedUntil sql.NullTime
	err := infrastructure.WithTransaction(r.db, ctx, func(tx *sql.Tx) error {
		var err error
		attempts, lockedUntil, err = r.updater.RecordFailedLogin(tx, userID, threshold, lockUntil)
		return err
	})
	return attempts, lockedUntil, err
}

func (r *PostgresRepository) RecordSuccessfulLogin(ctx context.Context, userID uuid.UUID) error {
	return infrastructure.WithTransaction(r.db, ctx, func(tx *sql.Tx) error {
		return r.updater.RecordSuccessfulLogin(tx, userID)
	})
}
