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

// userColumns must match the Scan order in scanUser.
const userColumns = `id, snowflake, nick, photo, prime, role, created_at, updated_at`

// UserRepo implements domain.UserRepository backed by PostgreSQL.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Snowflake, &u.Nick, &u.Photo, &u.Prime, &u.Role,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

func (r *UserRepo) UpsertBySnowflake(ctx context.Context, snowflake, nick, photo string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (snowflake, nick, photo, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (snowflake) DO UPDATE SET
			nick = EXCLUDED.nick,
			photo = EXCLUDED.photo,
			updated_at = NOW()
		RETURNING `+userColumns+`
	`, snowflake, nick, photo))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) UpdatePhoto(ctx context.Context, userID uuid.UUID, photo string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET photo = $1, updated_at = NOW() WHERE id = $2`, photo, userID)
	return err
}
