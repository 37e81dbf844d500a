package activity

import (
	"time"

	"github.com/google/uuid"
)

type Entry struct {
	ID        int64
	UserID    uuid.UUID
	Action    string
	IPAddress string
	CreatedAt time.Time
}
