package token

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/providertoken/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// DefaultValidity is the token lifetime providers typically accept.
	DefaultValidity = 1 * time.Hour

	// DefaultRefreshMargin is how long before expiry a cached token is replaced.
	DefaultRefreshMargin = 10 * time.Minute

	// DefaultMaxTries bounds issuance attempts when the clock is unusable.
	DefaultMaxTries = 3
)

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithIssuer sets the Issuer used to sign tokens.
func WithIssuer(issuer *Issuer) CacheOption {
	return func(c *Cache) {
		c.issuer = issuer
	}
}

// WithRefreshMargin sets how long before expiry a token stops being served.
func WithRefreshMargin(margin time.Duration) CacheOption {
	return func(c *Cache) {
		c.refreshMargin = margin
	}
}

// WithRetryBackOff sets the backoff between issuance attempts after a clock error.
func WithRetryBackOff(b backoff.BackOff) CacheOption {
	return func(c *Cache) {
		c.backOff = b
	}
}

// WithMaxTries sets the maximum number of issuance attempts per miss.
func WithMaxTries(n uint) CacheOption {
	return func(c *Cache) {
		c.maxTries = n
	}
}

// WithMetrics sets the metric instruments the cache records to.
func WithMetrics(m *telemetry.Metrics) CacheOption {
	return func(c *Cache) {
		c.metrics = m
	}
}

// Cache hands out one token per identity and reuses it until refreshMargin
// before it expires. Providers throttle clients that sign a new token for
// every request.
//
// Cache is safe for concurrent use.
type Cache struct {
	issuer        *Issuer
	validity      time.Duration
	refreshMargin time.Duration
	backOff       backoff.BackOff
	maxTries      uint
	metrics       *telemetry.Metrics

	// mu serializes issuance so concurrent misses sign once.
	mu     sync.Mutex
	tokens *gocache.Cache
}

// NewCache creates a Cache issuing tokens valid for validity.
func NewCache(validity time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{
		issuer:        defaultIssuer,
		validity:      validity,
		refreshMargin: DefaultRefreshMargin,
		backOff:       backoff.NewExponentialBackOff(),
		maxTries:      DefaultMaxTries,
		tokens:        gocache.New(gocache.NoExpiration, time.Minute),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.metrics == nil {
		c.metrics = telemetry.GetMetrics()
	}

	return c
}

// Token returns a cached token for id, signing a new one if none is cached or
// the cached one is within the refresh margin of expiry.
//
// Clock errors are retried with backoff; every other error is returned after
// the first attempt.
func (c *Cache) Token(ctx context.Context, id Identity) (string, error) {
	key := id.cacheKey()

	if tok, ok := c.lookup(key); ok {
		c.metrics.CacheHitsTotal.Add(ctx, 1)
		return tok, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have signed while we waited for the lock.
	if tok, ok := c.lookup(key); ok {
		c.metrics.CacheHitsTotal.Add(ctx, 1)
		return tok, nil
	}

	c.metrics.CacheMissesTotal.Add(ctx, 1)

	started := time.Now()
	tok, err := backoff.Retry(ctx, func() (string, error) {
		tok, err := c.issuer.Issue(id, c.validity)
		if err != nil {
			c.metrics.TokenIssueErrorsTotal.Add(ctx, 1,
				metric.WithAttributes(attribute.String("error.kind", ErrorKind(err))))

			if !Retryable(err) {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		return tok, nil
	},
		backoff.WithBackOff(c.backOff),
		backoff.WithMaxTries(c.maxTries),
	)
	c.metrics.TokenIssueDuration.Record(ctx, float64(time.Since(started).Microseconds())/1000)

	if err != nil {
		log.Debug().
			Err(err).
			Str("kid", id.KeyID()).
			Str("iss", id.IssuerID()).
			Msg("failed to issue provider token")
		return "", err
	}

	c.metrics.TokensIssuedTotal.Add(ctx, 1)

	ttl := c.validity - c.refreshMargin
	if ttl > 0 {
		c.tokens.Set(key, tok, ttl)
	}

	log.Debug().
		Str("kid", id.KeyID()).
		Str("iss", id.IssuerID()).
		Dur("ttl", ttl).
		Msg("issued provider token")

	return tok, nil
}

// Invalidate drops the cached token for id so the next call to Token signs a
// new one, e.g. after the provider rejected the token as expired.
func (c *Cache) Invalidate(id Identity) {
	c.tokens.Delete(id.cacheKey())

	log.Debug().
		Str("kid", id.KeyID()).
		Str("iss", id.IssuerID()).
		Msg("invalidated provider token")
}

func (c *Cache) lookup(key string) (string, bool) {
	v, ok := c.tokens.Get(key)
	if !ok {
		return "", false
	}
	tok, ok := v.(string)
	return tok, ok
}
