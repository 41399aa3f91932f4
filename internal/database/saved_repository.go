package database

import (
	"context"
	"fmt"

	"github.com/craftpulse/craftpulse/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SavedServerRepo implements domain.SavedServerRepository backed by PostgreSQL.
type SavedServerRepo struct {
	pool *pgxpool.Pool
}

func NewSavedServerRepo(pool *pgxpool.Pool) *SavedServerRepo {
	return &SavedServerRepo{pool: pool}
}

func (r *SavedServerRepo) Save(ctx context.Context, userID uuid.UUID, serverID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO saved_servers (user_id, server_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, server_id) DO NOTHING
	`, userID, serverID)
	if err != nil {
		return fmt.Errorf("failed to save server: %w", err)
	}
	return nil
}

func (r *SavedServerRepo) Remove(ctx context.Context, userID uuid.UUID, serverID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM saved_servers WHERE user_id = $1 AND server_id = $2`, userID, serverID)
	if err != nil {
		return fmt.Errorf("failed to remove saved server: %w", err)
	}
	return nil
}

func (r *SavedServerRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SavedServer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ss.id, ss.user_id, ss.server_id, ss.created_at, `+prefixedServerColumns("s")+`
		FROM saved_servers ss
		JOIN servers s ON s.id = ss.server_id
		WHERE ss.user_id = $1
		ORDER BY ss.created_at DESC, ss.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved servers: %w", err)
	}
	defer rows.Close()

	var saved []domain.SavedServer
	for rows.Next() {
		var ss domain.SavedServer
		var s domain.Server
		err := rows.Scan(
			&ss.ID, &ss.UserID, &ss.ServerID, &ss.CreatedAt,
			&s.ID, &s.Address, &s.Bedrock, &s.OwnerID, &s.Favicon,
			&s.Tags, &s.VotesMonth, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		ss.Server = &s
		saved = append(saved, ss)
	}
	return saved, rows.Err()
}

func prefixedServerColumns(alias string) string {
	return alias + `.id, ` + alias + `.address, ` + alias + `.bedrock, ` + alias + `.owner_id, ` +
		alias + `.favicon, ` + alias + `.tags, ` + alias + `.votes_month, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}
