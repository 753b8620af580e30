package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/shoptab-backend/pkg/redis"
)

const (
	markerPending = "pending"
	markerDone    = "done"
)

// Outcome is the result of claiming an event for a consumer.
type Outcome int

const (
	// Claimed means the caller owns the event and must Complete or Release it.
	Claimed Outcome = iota
	// InFlight means another delivery holds an unexpired claim.
	InFlight
	// Done means the event was already handled.
	Done
)

func (o Outcome) String() string {
	switch o {
	case Claimed:
		return "claimed"
	case InFlight:
		return "in_flight"
	case Done:
		return "done"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Manager records per-consumer event handling under
// `st:idempotency:evt:processed:<consumer>:<event_id>`. A claim holds a short
// lease so a crashed handler frees the event; completion keeps the marker for
// the retention TTL.
type Manager struct {
	store redis.IdempotencyStore
	lease time.Duration
	ttl   time.Duration
}

// NewManager validates that lease is positive and no longer than ttl.
func NewManager(store redis.IdempotencyStore, lease, ttl time.Duration) (*Manager, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case lease <= 0:
		return nil, errors.New("claim lease must be positive")
	case ttl < lease:
		return nil, errors.New("ttl must be at least the claim lease")
	}
	return &Manager{store: store, lease: lease, ttl: ttl}, nil
}

// Claim tries to take ownership of eventID for consumer.
func (m *Manager) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (Outcome, error) {
	key, err := processedKey(m.store, consumer, eventID)
	if err != nil {
		return 0, err
	}
	ok, err := m.store.SetNX(ctx, key, markerPending, m.lease)
	if err != nil {
		return 0, fmt.Errorf("claim %s: %w", key, err)
	}
	if ok {
		return Claimed, nil
	}

	marker, err := m.store.Get(ctx, key)
	switch {
	case errors.Is(err, goredis.Nil):
		// lease lapsed between SETNX and GET; let redelivery retry the claim
		return InFlight, nil
	case err != nil:
		return 0, fmt.Errorf("read claim %s: %w", key, err)
	case marker == markerDone:
		return Done, nil
	}
	return InFlight, nil
}

// Complete marks a claimed event as handled for the retention TTL.
func (m *Manager) Complete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := processedKey(m.store, consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, key, markerDone, m.ttl)
}

// Release drops a claim so the next delivery can retry.
func (m *Manager) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := processedKey(m.store, consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func processedKey(store redis.IdempotencyStore, consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return store.IdempotencyKey("evt:processed:"+consumer, eventID.String()), nil
}
