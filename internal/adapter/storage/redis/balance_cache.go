package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"multiledger/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// BalanceCache implements ports.BalanceCache using Redis. It caches the
// all-balances projection per user; the engine invalidates the key after
// every committed movement.
type BalanceCache struct {
	client *goredis.Client
	prefix string
}

// NewBalanceCache creates a new Redis-backed balance cache.
func NewBalanceCache(client *goredis.Client) *BalanceCache {
	return &BalanceCache{
		client: client,
		prefix: "balances:",
	}
}

var _ ports.BalanceCache = (*BalanceCache)(nil)

func (c *BalanceCache) key(userID int64) string {
	return c.prefix + strconv.FormatInt(userID, 10)
}

// Get retrieves cached balances for a user. Returns nil, nil on a miss.
func (c *BalanceCache) Get(ctx context.Context, userID int64) (map[string]decimal.Decimal, error) {
	val, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis balance get: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(val, &raw); err != nil {
		return nil, fmt.Errorf("redis balance decode: %w", err)
	}

	out := make(map[string]decimal.Decimal, len(raw))
	for currency, s := range raw {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("redis balance decode %q: %w", currency, err)
		}
		out[currency] = d
	}
	return out, nil
}

// Set stores the user's balances with a TTL.
func (c *BalanceCache) Set(ctx context.Context, userID int64, balances map[string]decimal.Decimal, ttl time.Duration) error {
	raw := make(map[string]string, len(balances))
	for currency, d := range balances {
		raw[currency] = d.StringFixed(2)
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("redis balance encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(userID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis balance set: %w", err)
	}
	return nil
}

// Invalidate drops the user's cached balances.
func (c *BalanceCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis balance del: %w", err)
	}
	return nil
}
