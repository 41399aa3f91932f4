package domain

import (
	"context"

	"github.com/google/uuid"
)

// Verifier issues and checks short-lived ownership verification codes.
// A user starts a claim for a server; the external bot later reports the
// code it observed in the server MOTD and the claim is confirmed.
type Verifier interface {
	// Start stores a fresh code for (serverID, userID) and returns it.
	Start(ctx context.Context, serverID int64, userID uuid.UUID) (string, error)
	// Confirm checks the code and returns the claiming user. The code is
	// consumed on success. Returns ErrCodeMismatch when it does not match
	// or has expired.
	Confirm(ctx context.Context, serverID int64, code string) (uuid.UUID, error)
}
