package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/craftpulse/craftpulse/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VoteRepo implements domain.VoteRepository backed by PostgreSQL.
type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

func (r *VoteRepo) Create(ctx context.Context, vote *domain.Vote) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO votes (server_id, nick, user_id, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`, vote.ServerID, vote.Nick, vote.UserID).Scan(&vote.ID, &vote.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create vote: %w", err)
	}
	return nil
}

func (r *VoteRepo) ServerIDForVoteToken(ctx context.Context, token string) (int64, error) {
	var serverID int64
	err := r.pool.QueryRow(ctx,
		`SELECT server_id FROM vote_tokens WHERE token = $1`, token).Scan(&serverID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrVoteTokenNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve vote token: %w", err)
	}
	return serverID, nil
}

func (r *VoteRepo) CountByServer(ctx context.Context, serverID int64) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM votes WHERE server_id = $1`, serverID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}
