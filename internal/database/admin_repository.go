package database

import (
	"context"
	"fmt"

	"github.com/craftpulse/craftpulse/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminRepo implements domain.AdminRepository backed by PostgreSQL.
type AdminRepo struct {
	pool *pgxpool.Pool
}

func NewAdminRepo(pool *pgxpool.Pool) *AdminRepo {
	return &AdminRepo{pool: pool}
}

func (r *AdminRepo) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	var stats domain.DashboardStats

	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM servers),
			(SELECT COUNT(*) FROM checks),
			(SELECT COUNT(*) FROM comments),
			(SELECT COUNT(*) FROM saved_servers)
	`).Scan(&stats.Users, &stats.Servers, &stats.Checks, &stats.Comments, &stats.SavedServers)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard counts: %w", err)
	}

	if stats.RecentChecks, err = r.recentChecks(ctx); err != nil {
		return nil, err
	}
	if stats.RecentComments, err = r.recentComments(ctx); err != nil {
		return nil, err
	}
	if stats.RecentVotes, err = r.recentVotes(ctx); err != nil {
		return nil, err
	}
	if stats.RecentUsers, err = r.recentUsers(ctx); err != nil {
		return nil, err
	}
	if stats.RecentSaved, err = r.recentSaved(ctx); err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *AdminRepo) recentChecks(ctx context.Context) ([]domain.Check, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.server_id, c.online, c.players, c.source, c.token_id, c.checked_at, s.address
		FROM checks c
		JOIN servers s ON s.id = c.server_id
		ORDER BY c.checked_at DESC, c.id DESC
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent checks: %w", err)
	}
	defer rows.Close()

	var checks []domain.Check
	for rows.Next() {
		var c domain.Check
		if err := rows.Scan(&c.ID, &c.ServerID, &c.Online, &c.Players, &c.Source, &c.TokenID, &c.CheckedAt, &c.Address); err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

func (r *AdminRepo) recentComments(ctx context.Context) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.server_id, c.user_id, c.content, c.created_at, u.nick, u.photo
		FROM comments c
		JOIN users u ON u.id = c.user_id
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.ServerID, &c.UserID, &c.Content, &c.CreatedAt, &c.Nick, &c.Photo); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *AdminRepo) recentVotes(ctx context.Context) ([]domain.Vote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT v.id, v.server_id, v.nick, v.user_id, v.created_at, s.address
		FROM votes v
		JOIN servers s ON s.id = v.server_id
		ORDER BY v.created_at DESC, v.id DESC
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent votes: %w", err)
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		var v domain.Vote
		if err := rows.Scan(&v.ID, &v.ServerID, &v.Nick, &v.UserID, &v.CreatedAt, &v.Address); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func (r *AdminRepo) recentUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *AdminRepo) recentSaved(ctx context.Context) ([]domain.SavedServer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ss.id, ss.user_id, ss.server_id, ss.created_at, `+prefixedServerColumns("s")+`
		FROM saved_servers ss
		JOIN servers s ON s.id = ss.server_id
		ORDER BY ss.created_at DESC, ss.id DESC
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent saved servers: %w", err)
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

// MigrationReset wipes every table in foreign-key order inside a single
// transaction. Administrative, destructive, guarded by the admin token at
// the HTTP layer.
func (r *AdminRepo) MigrationReset(ctx context.Context) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	// Order matters: children before parents.
	tables := []string{
		"comments",
		"sample_servers",
		"saved_servers",
		"checks",
		"vote_tokens",
		"votes",
		"servers",
		"tokens",
		"users",
	}
	for _, table := range tables {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
