// Package redis caches finished scan reports in Redis so repeated scans
// over the same universe within the freshness window skip the refetch.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"signalscan/internal/scanner"
)

const (
	defaultTTL       = 2 * time.Hour
	defaultTripAfter = 5
	defaultCooldown  = 10 * time.Second
)

// Config configures the report cache.
type Config struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // key expiry, default 2h; freshness is enforced per Get
}

// Cache implements scanner.ResultCache on Redis, behind a circuit
// breaker so a down Redis degrades to cache-miss instead of stalling
// every scan.
type Cache struct {
	client *goredis.Client
	cb     *Breaker
	ttl    time.Duration
}

// envelope wraps a report with its write time so freshness is judged
// against the caller's maxAge, not the key TTL.
type envelope struct {
	CachedAt time.Time       `json:"cached_at"`
	Report   *scanner.Report `json:"report"`
}

// New creates a Cache and pings the server.
func New(cfg Config) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Cache{
		client: client,
		cb:     NewBreaker(defaultTripAfter, defaultCooldown),
		ttl:    ttl,
	}, nil
}

// Client returns the underlying client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// Get returns the cached report for key if it is younger than maxAge.
func (c *Cache) Get(ctx context.Context, key string, maxAge time.Duration) (*scanner.Report, bool) {
	var env envelope
	err := c.cb.Do(func() error {
		raw, err := c.client.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, &env)
	})
	if err != nil {
		if err != goredis.Nil && err != ErrBreakerOpen {
			log.Printf("[redis] cache read %s: %v", key, err)
		}
		return nil, false
	}
	if env.Report == nil || time.Since(env.CachedAt) > maxAge {
		return nil, false
	}
	return env.Report, true
}

// Put stores the report under key with the configured TTL.
func (c *Cache) Put(ctx context.Context, key string, rep *scanner.Report) error {
	raw, err := json.Marshal(envelope{CachedAt: time.Now().UTC(), Report: rep})
	if err != nil {
		return fmt.Errorf("redis: marshal report: %w", err)
	}
	return c.cb.Do(func() error {
		return c.client.Set(ctx, key, raw, c.ttl).Err()
	})
}

// Close releases the client connection.
func (c *Cache) Close() error { return c.client.Close() }
