package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"ratepilot/internal/app/policies"
	"ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
)

const defaultTTL = 6 * time.Hour

// QuoteCache stores the last good quote per property and day as JSON.
type QuoteCache struct {
	Client *goredis.Client
	TTL    time.Duration
	Prefix string
}

func NewClient(ctx context.Context, addr string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: connect %s: %w", addr, err)
	}
	return client, nil
}

func (c *QuoteCache) key(id property.ID, date time.Time) string {
	prefix := c.Prefix
	if prefix == "" {
		prefix = "ratepilot"
	}
	return fmt.Sprintf("%s:quote:%s:%s", prefix, id, date.UTC().Format(time.DateOnly))
}

func (c *QuoteCache) Get(ctx context.Context, id property.ID, date time.Time) (pricing.PriceQuote, bool, error) {
	raw, err := c.Client.Get(ctx, c.key(id, date)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return pricing.PriceQuote{}, false, nil
		}
		return pricing.PriceQuote{}, false, err
	}
	var q pricing.PriceQuote
	if err := json.Unmarshal(raw, &q); err != nil {
		return pricing.PriceQuote{}, false, fmt.Errorf("redis: decode quote: %w", err)
	}
	return q, true, nil
}

func (c *QuoteCache) Put(ctx context.Context, q pricing.PriceQuote) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return c.Client.Set(ctx, c.key(q.PropertyID, q.Date), raw, ttl).Err()
}

// Ping backs the readiness probe.
func (c *QuoteCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

var _ policies.QuoteCache = (*QuoteCache)(nil)
