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

// serverColumns must match the Scan order in scanServer.
const serverColumns = `id, address, bedrock, owner_id, favicon, tags, votes_month, created_at, updated_at`

// ServerRepo implements domain.ServerRepository backed by PostgreSQL.
type ServerRepo struct {
	pool *pgxpool.Pool
}

func NewServerRepo(pool *pgxpool.Pool) *ServerRepo {
	return &ServerRepo{pool: pool}
}

func scanServer(row pgx.Row) (*domain.Server, error) {
	var s domain.Server
	err := row.Scan(
		&s.ID, &s.Address, &s.Bedrock, &s.OwnerID, &s.Favicon,
		&s.Tags, &s.VotesMonth, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrServerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectServers(rows pgx.Rows) ([]domain.Server, error) {
	defer rows.Close()

	var servers []domain.Server
	for rows.Next() {
		s, err := scanServer(rows)
		if err != nil {
			return nil, err
		}
		servers = append(servers, *s)
	}
	return servers, rows.Err()
}

func (r *ServerRepo) GetByID(ctx context.Context, id int64) (*domain.Server, error) {
	return scanServer(r.pool.QueryRow(ctx,
		`SELECT `+serverColumns+` FROM servers WHERE id = $1`, id))
}

func (r *ServerRepo) GetByAddress(ctx context.Context, address string, bedrock bool) (*domain.Server, error) {
	return scanServer(r.pool.QueryRow(ctx,
		`SELECT `+serverColumns+` FROM servers WHERE address = $1 AND bedrock = $2`, address, bedrock))
}

// Autocomplete keeps the legacy character-AND contract: every rune of q must
// appear somewhere in the address, top five rows by ascending id. Not a
// prefix search; see DESIGN.md before "fixing" this.
func (r *ServerRepo) Autocomplete(ctx context.Context, q string) ([]domain.Server, error) {
	seen := make(map[rune]struct{}, len(q))
	query := `SELECT ` + serverColumns + ` FROM servers WHERE TRUE`
	args := []any{}
	for _, ch := range q {
		if _, dup := seen[ch]; dup {
			continue
		}
		seen[ch] = struct{}{}
		args = append(args, "%"+string(ch)+"%")
		query += fmt.Sprintf(" AND address LIKE $%d", len(args))
	}
	query += ` ORDER BY id ASC LIMIT 5`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to autocomplete servers: %w", err)
	}
	return collectServers(rows)
}

func (r *ServerRepo) List(ctx context.Context, page int) ([]domain.Server, error) {
	if page < 1 {
		page = 1
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+serverColumns+` FROM servers ORDER BY votes_month DESC, id ASC LIMIT $1 OFFSET $2`,
		domain.PageSize, (page-1)*domain.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return collectServers(rows)
}

func (r *ServerRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM servers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count servers: %w", err)
	}
	return count, nil
}

func (r *ServerRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Server, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+serverColumns+` FROM servers WHERE owner_id = $1 ORDER BY id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers by owner: %w", err)
	}
	return collectServers(rows)
}

func (r *ServerRepo) SetOwner(ctx context.Context, serverID int64, ownerID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE servers SET owner_id = $1, updated_at = NOW() WHERE id = $2`, ownerID, serverID)
	if err != nil {
		return fmt.Errorf("failed to set server owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrServerNotFound
	}
	return nil
}

func (r *ServerRepo) UpdateFavicon(ctx context.Context, serverID int64, favicon string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE servers SET favicon = $1, updated_at = NOW() WHERE id = $2`, favicon, serverID)
	return err
}

func (r *ServerRepo) BulkReplace(ctx context.Context, batch []domain.ServerReplacement) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `DELETE FROM servers`); err != nil {
		return fmt.Errorf("failed to clear servers: %w", err)
	}

	for _, s := range batch {
		var serverID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO servers (address, bedrock, favicon, tags, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NOW(), NOW())
			RETURNING id
		`, s.Address, s.Bedrock, s.Favicon, s.Tags).Scan(&serverID)
		if err != nil {
			return fmt.Errorf("failed to insert server %q: %w", s.Address, err)
		}

		if len(s.Sample) > 0 {
			_, err := tx.Exec(ctx, `
				INSERT INTO sample_servers (server_id, payload, created_at)
				VALUES ($1, $2, NOW())
			`, serverID, s.Sample)
			if err != nil {
				return fmt.Errorf("failed to insert sample for %q: %w", s.Address, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
