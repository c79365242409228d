package fulfillment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClaimStore guards against two concurrent fulfillment runs on one order.
// The claim expires on its own so a crashed run never wedges an order.
type ClaimStore interface {
	Acquire(ctx context.Context, orderID uuid.UUID, ttl time.Duration) (bool, error)
	Release(ctx context.Context, orderID uuid.UUID) error
}

// RedisClaims implements the claim with SET NX and a TTL.
type RedisClaims struct {
	client *redis.Client
}

func NewRedisClaims(client *redis.Client) *RedisClaims {
	return &RedisClaims{client: client}
}

func claimKey(orderID uuid.UUID) string {
	return "fulfillment:claim:" + orderID.String()
}

func (c *RedisClaims) Acquire(ctx context.Context, orderID uuid.UUID, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, claimKey(orderID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire fulfillment claim: %w", err)
	}
	return ok, nil
}

func (c *RedisClaims) Release(ctx context.Context, orderID uuid.UUID) error {
	if err := c.client.Del(ctx, claimKey(orderID)).Err(); err != nil {
		return fmt.Errorf("release fulfillment claim: %w", err)
	}
	return nil
}

// MemoryClaims is the in-process claim store for tests and single-node runs.
type MemoryClaims struct {
	mu     sync.Mutex
	claims map[uuid.UUID]time.Time
}

func NewMemoryClaims() *MemoryClaims {
	return &MemoryClaims{claims: make(map[uuid.UUID]time.Time)}
}

func (c *MemoryClaims) Acquire(_ context.Context, orderID uuid.UUID, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if expiry, held := c.claims[orderID]; held && time.Now().Before(expiry) {
		return false, nil
	}
	c.claims[orderID] = time.Now().Add(ttl)
	return true, nil
}

func (c *MemoryClaims) Release(_ context.Context, orderID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.claims, orderID)
	return nil
}
