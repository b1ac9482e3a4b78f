package marketdata

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantfolio/paper-trading-service/internal/models"
)

// CachedProvider is a read-through Redis cache in front of a PriceProvider.
// One upstream request per symbol per TTL window, which keeps the portfolio
// refresh loop within the provider's rate limits. Cache failures fall through
// to the upstream provider; a broken cache never makes a quote unavailable.
type CachedProvider struct {
	upstream PriceProvider
	client   *redis.Client
	ttl      time.Duration
}

// NewCachedProvider wraps upstream with a Redis quote cache.
func NewCachedProvider(upstream PriceProvider, client *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		upstream: upstream,
		client:   client,
		ttl:      ttl,
	}
}

func quoteKey(symbol string) string {
	return "quote:" + symbol
}

// Quote returns a cached quote when fresh, otherwise fetches from upstream
// and stores the result.
func (c *CachedProvider) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	data, err := c.client.Get(ctx, quoteKey(symbol)).Bytes()
	if err == nil {
		var q models.Quote
		if err := json.Unmarshal(data, &q); err == nil {
			return q, nil
		}
		// Corrupt entry: treat as a miss.
	} else if err != redis.Nil {
		log.Printf("Quote cache read failed for %s, falling through: %v", symbol, err)
	}

	q, err := c.upstream.Quote(ctx, symbol)
	if err != nil {
		return models.Quote{}, err
	}

	if data, err := json.Marshal(q); err == nil {
		if err := c.client.Set(ctx, quoteKey(q.Symbol), data, c.ttl).Err(); err != nil {
			log.Printf("Quote cache write failed for %s: %v", q.Symbol, err)
		}
	}

	return q, nil
}
