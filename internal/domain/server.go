package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PageSize is the fixed number of servers per listing page.
const PageSize = 10

// LastPage computes the final 1-indexed page for a row count using ceiling
// division. Never less than 1.
func LastPage(count int64) int {
	if count <= 0 {
		return 1
	}
	return int((count + PageSize - 1) / PageSize)
}

type Server struct {
	ID         int64      `db:"id"`
	Address    string     `db:"address"`
	Bedrock    bool       `db:"bedrock"`
	OwnerID    *uuid.UUID `db:"owner_id"`
	Favicon    *string    `db:"favicon"`
	Tags       []string   `db:"tags"`
	VotesMonth int        `db:"votes_month"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

// ServerReplacement is one row of an administrative bulk replace batch.
type ServerReplacement struct {
	Address string   `json:"address"`
	Bedrock bool     `json:"bedrock"`
	Favicon *string  `json:"favicon"`
	Tags    []string `json:"tags"`
	Sample  []byte   `json:"sample,omitempty"`
}

type ServerRepository interface {
	GetByID(ctx context.Context, id int64) (*Server, error)
	GetByAddress(ctx context.Context, address string, bedrock bool) (*Server, error)
	// Autocomplete returns up to five servers whose address contains every
	// rune of q as a substring, ordered by ascending id.
	Autocomplete(ctx context.Context, q string) ([]Server, error)
	List(ctx context.Context, page int) ([]Server, error)
	Count(ctx context.Context) (int64, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Server, error)
	SetOwner(ctx context.Context, serverID int64, ownerID uuid.UUID) error
	UpdateFavicon(ctx context.Context, serverID int64, favicon string) error
	// BulkReplace drops every server row and inserts the batch in a single
	// transaction. A failing insert must leave the previous rows intact.
	BulkReplace(ctx context.Context, batch []ServerReplacement) error
}

type Check struct {
	ID        int64     `db:"id"`
	ServerID  int64     `db:"server_id"`
	Online    bool      `db:"online"`
	Players   int       `db:"players"`
	Source    string    `db:"source"`
	TokenID   *int64    `db:"token_id"`
	CheckedAt time.Time `db:"checked_at"`

	// Address is joined in for admin listings.
	Address string `db:"address"`
}

type CheckRepository interface {
	Insert(ctx context.Context, check *Check) error
	CountByToken(ctx context.Context, tokenID int64) (int64, error)
}
