package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// EventGuard drops exact redeliveries of a Stripe event. It is an
// optimisation only: handlers stay correct without it because every
// transition is status-guarded.
type EventGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

func NewEventGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*EventGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &EventGuard{store: store, ttl: ttl, scope: scope}, nil
}

// Claim marks the event as seen. claimed is false when another delivery
// already holds it.
func (g *EventGuard) Claim(ctx context.Context, eventID string) (claimed bool, err error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	claimed, err = g.store.SetNX(ctx, g.store.IdempotencyKey(g.scope, eventID), time.Now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		return false, fmt.Errorf("claim stripe event %s: %w", eventID, err)
	}
	return claimed, nil
}

// Release forgets the event so a later redelivery is processed again.
func (g *EventGuard) Release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(g.scope, eventID))
}
