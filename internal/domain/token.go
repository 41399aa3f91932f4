package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Token is a per-integration API credential. Checks recorded through the
// bot API are attributed to a token for usage accounting. Validity is
// binary: the row exists or it does not.
type Token struct {
	ID        int64      `db:"id"`
	Token     string     `db:"token"`
	OwnerID   *uuid.UUID `db:"owner_id"`
	CreatedAt time.Time  `db:"created_at"`
}

type TokenRepository interface {
	GetByToken(ctx context.Context, token string) (*Token, error)
	Create(ctx context.Context, ownerID *uuid.UUID) (*Token, error)
}
