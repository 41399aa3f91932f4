// Package database implements the repositories over PostgreSQL.
package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected", "min_conns", poolCfg.MinConns, "max_conns", poolCfg.MaxConns)
	return pool, nil
}

func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			snowflake TEXT UNIQUE NOT NULL,
			nick TEXT NOT NULL,
			photo TEXT NOT NULL DEFAULT '',
			prime BOOLEAN NOT NULL DEFAULT FALSE,
			role TEXT NOT NULL DEFAULT 'user',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS servers (
			id BIGSERIAL PRIMARY KEY,
			address TEXT NOT NULL,
			bedrock BOOLEAN NOT NULL DEFAULT FALSE,
			owner_id UUID REFERENCES users(id) ON DELETE SET NULL,
			favicon TEXT,
			tags TEXT[] NOT NULL DEFAULT '{}',
			votes_month INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (address, bedrock)
		)`,
		`CREATE TABLE IF NOT EXISTS tokens (
			id BIGSERIAL PRIMARY KEY,
			token TEXT UNIQUE NOT NULL,
			owner_id UUID REFERENCES users(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS checks (
			id BIGSERIAL PRIMARY KEY,
			server_id BIGINT NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
			online BOOLEAN NOT NULL,
			players INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL DEFAULT 'web',
			token_id BIGINT REFERENCES tokens(id) ON DELETE SET NULL,
			checked_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checks_token_id ON checks(token_id)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id BIGSERIAL PRIMARY KEY,
			server_id BIGINT NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_server_id ON comments(server_id)`,
		`CREATE TABLE IF NOT EXISTS saved_servers (
			id BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			server_id BIGINT NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, server_id)
		)`,
		`CREATE TABLE IF NOT EXISTS votes (
			id BIGSERIAL PRIMARY KEY,
			server_id BIGINT NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
			nick TEXT NOT NULL,
			user_id UUID REFERENCES users(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_server_id ON votes(server_id)`,
		`CREATE TABLE IF NOT EXISTS vote_tokens (
			server_id BIGINT PRIMARY KEY REFERENCES servers(id) ON DELETE CASCADE,
			token TEXT UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sample_servers (
			id BIGSERIAL PRIMARY KEY,
			server_id BIGINT NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	slog.Info("Database migrations completed")
	return nil
}
