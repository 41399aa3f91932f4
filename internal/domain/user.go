package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role values stored on users.role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        uuid.UUID `db:"id"`
	Snowflake string    `db:"snowflake"`
	Nick      string    `db:"nick"`
	Photo     string    `db:"photo"`
	Prime     bool      `db:"prime"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	// UpsertBySnowflake creates or refreshes a user from an OAuth identity.
	UpsertBySnowflake(ctx context.Context, snowflake, nick, photo string) (*User, error)
	// UpdatePhoto is best-effort: callers log failures and continue.
	UpdatePhoto(ctx context.Context, userID uuid.UUID, photo string) error
}

type SavedServer struct {
	ID        int64     `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	ServerID  int64     `db:"server_id"`
	CreatedAt time.Time `db:"created_at"`

	Server *Server
}

type SavedServerRepository interface {
	Save(ctx context.Context, userID uuid.UUID, serverID int64) error
	Remove(ctx context.Context, userID uuid.UUID, serverID int64) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]SavedServer, error)
}
