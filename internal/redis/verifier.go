package redis

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/craftpulse/craftpulse/internal/domain"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	codeTTL    = 10 * time.Minute
	codeLength = 6
	// no 0/O or 1/I: the code is read back from a server MOTD by a human
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Verifier implements domain.Verifier on Redis. Codes live under
// verify:<serverID> with a JSON-free "userID:code" value and a 10 minute TTL.
type Verifier struct {
	rdb *goredis.Client
}

func NewVerifier(rdb *goredis.Client) *Verifier {
	return &Verifier{rdb: rdb}
}

func codeKey(serverID int64) string {
	return fmt.Sprintf("verify:%d", serverID)
}

func (v *Verifier) Start(ctx context.Context, serverID int64, userID uuid.UUID) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	value := userID.String() + ":" + code
	if err := v.rdb.Set(ctx, codeKey(serverID), value, codeTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}
	return code, nil
}

func (v *Verifier) Confirm(ctx context.Context, serverID int64, code string) (uuid.UUID, error) {
	value, err := v.rdb.Get(ctx, codeKey(serverID)).Result()
	if err == goredis.Nil {
		return uuid.Nil, domain.ErrCodeMismatch
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load verification code: %w", err)
	}

	userIDStr, storedCode, found := strings.Cut(value, ":")
	if !found || storedCode != code {
		return uuid.Nil, domain.ErrCodeMismatch
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, domain.ErrCodeMismatch
	}

	// consume the code so it cannot be replayed
	if err := v.rdb.Del(ctx, codeKey(serverID)).Err(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to consume verification code: %w", err)
	}
	return userID, nil
}

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
