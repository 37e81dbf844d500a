package activity

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Recorder appends audit entries. Failures are the caller's to log; the
// account flows never fail because of the audit trail.
type Recorder interface {
	Record(ctx context.Context, userID uuid.UUID, action, ipAddress string) error
}

type Provider interface {
	EntriesForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Entry, error)
}

type PostgresStorage struct {
	db *sql.DB
}

func NewActivityPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (r *PostgresStorage) Record(ctx context.Context, userID uuid.UUID, action, ipAddress string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_logs (user_id, action, ip_address, created_at)
		VALUES ($1, $2, $3, $4)`,
		userID, action, ipAddress, time.Now())
	return err
}

func (r *PostgresStorage) EntriesForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, ip_address, created_at
		FROM activity_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		var ip sql.NullString
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &ip, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.IPAddress = ip.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
