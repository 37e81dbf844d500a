package user

import (
	"database/sql"
	"errors"
	"time"

	"bazaar/infrastructure"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Saver interface {
	SaveUser(tx *sql.Tx, user *User) error
	AddPasswordHistory(tx *sql.Tx, userID uuid.UUID, passwordHash string, createdAt time.Time) error
}

type Updater interface {
	UpdateUser(tx *sql.Tx, user *User) error
	UpdatePassword(tx *sql.Tx, userID uuid.UUID, passwordHash string, expiresAt time.Time) error
	UpdateVerificationStatus(tx *sql.Tx, userID uuid.UUID, verified bool) error
	UpdateTwoFactorEnabled(tx *sql.Tx, userID uuid.UUID, enabled bool) error

	// RecordFailedLogin increments the persisted counter atomically and sets
	// the lock timestamp in the same statement once the threshold is hit, so
	// concurrent failures cannot undercount.
	RecordFailedLogin(tx *sql.Tx, userID uuid.UUID, threshold int, lockUntil time.Time) (int, sql.NullTime, error)
	RecordSuccessfulLogin(tx *sql.Tx, userID uuid.UUID) error
}

type Provider interface {
	UserByEmail(email string) (*User, error)
	UserByID(id uuid.UUID) (*User, error)
	AllUsers() ([]*User, error)
	PasswordHistory(userID uuid.UUID) ([]PasswordHistoryEntry, error)
}

type Deleter interface {
	DeleteUser(tx *sql.Tx, id uuid.UUID) error
}

type PostgresStorage struct {
	db *sql.DB
}

func NewUserPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

const userColumns = `id, name, email, password_hash, password_expires_at, is_admin, is_seller,
	is_verified, two_factor_enabled, login_attempts, locked_until,
	seller_name, seller_logo, seller_description, seller_rating, seller_reviews,
	created_at, updated_at`

func (r *PostgresStorage) SaveUser(tx *sql.Tx, user *User) error {
	_, err := tx.Exec(`
		INSERT INTO users (id, name, email, password_hash, password_expires_at, is_admin, is_seller,
		                   is_verified, two_factor_enabled, login_attempts, locked_until,
		                   seller_name, seller_logo, seller_description, seller_rating, seller_reviews,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.PasswordExpiresAt,
		user.IsAdmin, user.IsSeller, user.IsVerified, user.TwoFactorEnabled,
		user.LoginAttempts, user.LockedUntil,
		user.Seller.Name, user.Seller.Logo, user.Seller.Description,
		user.Seller.Rating, user.Seller.Reviews,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return infrastructure.ErrUserAlreadyExists
		}
	}
	return err
}

func (r *PostgresStorage) AddPasswordHistory(tx *sql.Tx, userID uuid.UUID, passwordHash string, createdAt time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO password_history (user_id, password_hash, created_at)
		VALUES ($1, $2, $3)`,
		userID, passwordHash, createdAt)
	return err
}

func (r *PostgresStorage) UpdateUser(tx *sql.Tx, user *User) error {
	_, err := tx.Exec(`
		UPDATE users SET
		name = $2, email = $3, is_admin = $4, is_seller = $5, is_verified = $6,
		two_factor_enabled = $7, seller_name = $8, seller_logo = $9, seller_description = $10,
		updated_at = $11
		WHERE id = $1`,
		user.ID, user.Name, user.Email, user.IsAdmin, user.IsSeller, user.IsVerified,
		user.TwoFactorEnabled, user.Seller.Name, user.Seller.Logo, user.Seller.Description,
		time.Now())
	return err
}

func (r *PostgresStorage) UpdatePassword(tx *sql.Tx, userID uuid.UUID, passwordHash string, expiresAt time.Time) error {
	_, err := tx.Exec(`
		UPDATE users SET password_hash = $2, password_expires_at = $3, updated_at = $4
		WHERE id = $1`,
		userID, passwordHash, expiresAt, time.Now())
	return err
}

func (r *PostgresStorage) UpdateVerificationStatus(tx *sql.Tx, userID uuid.UUID, verified bool) error {
	_, err := tx.Exec("UPDATE users SET is_verified = $1, updated_at = $2 WHERE id = $3",
		verified, time.Now(), userID)
	return err
}

func (r *PostgresStorage) UpdateTwoFactorEnabled(tx *sql.Tx, userID uuid.UUID, enabled bool) error {
	_, err := tx.Exec("UPDATE users SET two_factor_enabled = $1, updated_at = $2 WHERE id = $3",
		enabled, time.Now(), userID)
	return err
}

func (r *PostgresStorage) RecordFailedLogin(tx *sql.Tx, userID uuid.UUID, threshold int, lockUntil time.Time) (int, sql.NullTime, error) {
	var attempts int
	var lockedUntil sql.NullTime
	err := tx.QueryRow(`
		UPDATE users SET
		login_attempts = login_attempts + 1,
		locked_until = CASE WHEN login_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
		updated_at = now()
		WHERE id = $1
		RETURNING login_attempts, locked_until`,
		userID, threshold, lockUntil).Scan(&attempts, &lockedUntil)
	return attempts, lockedUntil, err
}

func (r *PostgresStorage) RecordSuccessfulLogin(tx *sql.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(`
		UPDATE users SET login_attempts = 0, locked_until = NULL, updated_at = now()
		WHERE id = $1`, userID)
	return err
}

func (r *PostgresStorage) UserByEmail(email string) (*User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *PostgresStorage) UserByID(id uuid.UUID) (*User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *PostgresStorage) AllUsers() ([]*User, error) {
	rows, err := r.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *PostgresStorage) PasswordHistory(userID uuid.UUID) ([]PasswordHistoryEntry, error) {
	rows, err := r.db.Query(`
		SELECT password_hash, created_at FROM password_history
		WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []PasswordHistoryEntry
	for rows.Next() {
		var entry PasswordHistoryEntry
		if err := rows.Scan(&entry.PasswordHash, &entry.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

func (r *PostgresStorage) DeleteUser(tx *sql.Tx, id uuid.UUID) error {
	_, err := tx.Exec("DELETE FROM users WHERE id = $1", id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.PasswordExpiresAt,
		&user.IsAdmin, &user.IsSeller, &user.IsVerified, &user.TwoFactorEnabled,
		&user.LoginAttempts, &user.LockedUntil,
		&user.Seller.Name, &user.Seller.Logo, &user.Seller.Description,
		&user.Seller.Rating, &user.Seller.Reviews,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, infrastructure.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
