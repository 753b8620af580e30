// Package session answers whether an access token's session is still live.
// Sessions are opened and revoked by the identity service; this service
// only reads the revocation state it leaves in Redis.
package session

import (
	"context"
	"errors"
	"strings"

	redisclient "github.com/angelmondragon/shoptab-backend/pkg/redis"
)

// AccessSessionChecker is the surface the auth middleware depends on.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

type sessionStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	AccessSessionKey(accessID string) string
}

// Checker looks sessions up by the token's jti.
type Checker struct {
	store sessionStore
}

func NewChecker(client *redisclient.Client) (*Checker, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &Checker{store: client}, nil
}

// HasSession reports whether accessID still maps to an open session. A
// revoked or expired session is simply absent.
func (c *Checker) HasSession(ctx context.Context, accessID string) (bool, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return false, errors.New("access id is required")
	}
	return c.store.Exists(ctx, c.store.AccessSessionKey(accessID))
}
