package database

import (
	"context"
	"fmt"

	"github.com/craftpulse/craftpulse/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CommentRepo implements domain.CommentRepository backed by PostgreSQL.
type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

func (r *CommentRepo) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	created := *comment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO comments (server_id, user_id, content, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`, comment.ServerID, comment.UserID, comment.Content).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return &created, nil
}

func (r *CommentRepo) ListByServer(ctx context.Context, serverID int64) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.server_id, c.user_id, c.content, c.created_at, u.nick, u.photo
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.server_id = $1
		ORDER BY c.created_at DESC, c.id DESC
	`, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
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
