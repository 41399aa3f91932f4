package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Vote struct {
	ID        int64      `db:"id"`
	ServerID  int64      `db:"server_id"`
	Nick      string     `db:"nick"`
	UserID    *uuid.UUID `db:"user_id"`
	CreatedAt time.Time  `db:"created_at"`

	Address string `db:"address"`
}

type VoteRepository interface {
	Create(ctx context.Context, vote *Vote) error
	// ServerIDForVoteToken resolves the per-server vote token a plugin
	// submits with. Distinct from the API tokens in TokenRepository.
	ServerIDForVoteToken(ctx context.Context, token string) (int64, error)
	CountByServer(ctx context.Context, serverID int64) (int64, error)
}

// VoteEvent is the payload published on a vote channel and serialized into
// the SSE frame.
type VoteEvent struct {
	ServerID int64     `json:"serverId"`
	Nick     string    `json:"nick"`
	VotedAt  time.Time `json:"votedAt"`
}
