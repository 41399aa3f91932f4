package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        int64     `db:"id"`
	ServerID  int64     `db:"server_id"`
	UserID    uuid.UUID `db:"user_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`

	// Joined author fields for listing responses.
	Nick  string `db:"nick"`
	Photo string `db:"photo"`
}

type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) (*Comment, error)
	// ListByServer returns comments newest-first with author fields joined.
	ListByServer(ctx context.Context, serverID int64) ([]Comment, error)
}
