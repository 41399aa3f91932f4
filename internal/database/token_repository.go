package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/craftpulse/craftpulse/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepo implements domain.TokenRepository backed by PostgreSQL.
type TokenRepo struct {
	pool *pgxpool.Pool
}

func NewTokenRepo(pool *pgxpool.Pool) *TokenRepo {
	return &TokenRepo{pool: pool}
}

func (r *TokenRepo) GetByToken(ctx context.Context, token string) (*domain.Token, error) {
	var t domain.Token
	err := r.pool.QueryRow(ctx,
		`SELECT id, token, owner_id, created_at FROM tokens WHERE token = $1`, token).
		Scan(&t.ID, &t.Token, &t.OwnerID, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &t, nil
}

func (r *TokenRepo) Create(ctx context.Context, ownerID *uuid.UUID) (*domain.Token, error) {
	t := domain.Token{Token: uuid.NewString(), OwnerID: ownerID}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tokens (token, owner_id, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`, t.Token, t.OwnerID).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	return &t, nil
}

// CheckRepo implements domain.CheckRepository backed by PostgreSQL.
type CheckRepo struct {
	pool *pgxpool.Pool
}

func NewCheckRepo(pool *pgxpool.Pool) *CheckRepo {
	return &CheckRepo{pool: pool}
}

func (r *CheckRepo) Insert(ctx context.Context, check *domain.Check) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO checks (server_id, online, players, source, token_id, checked_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, checked_at
	`, check.ServerID, check.Online, check.Players, check.Source, check.TokenID).
		Scan(&check.ID, &check.CheckedAt)
	if err != nil {
		return fmt.Errorf("failed to insert check: %w", err)
	}
	return nil
}

func (r *CheckRepo) CountByToken(ctx context.Context, tokenID int64) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM checks WHERE token_id = $1`, tokenID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count checks for token: %w", err)
	}
	return count, nil
}
