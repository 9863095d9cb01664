package cache

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "chat:"
	defaultTTL = 30 * time.Second
)

// Module owns the Redis connection used for hot history reads. Redis is an
// optional accelerator: when the server is unreachable the module starts in
// degraded mode and every read falls through to the database.
type Module struct {
	cache     *Cache
	client    *redis.Client
	redisAddr string
	available bool
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new cache module. The cache handle exists from
// construction so other modules can hold it before Start attaches the
// Redis client; until then every read is a miss.
func NewModule() *Module {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	return &Module{
		redisAddr: addr,
		cache:     New(nil, keyPrefix, defaultTTL),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Start connects to Redis. Connection failure is not fatal.
func (m *Module) Start(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         m.redisAddr,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[cache] Redis unavailable at %s, running without cache: %v", m.redisAddr, err)
		_ = client.Close()
		return nil
	}

	m.client = client
	m.available = true
	m.cache.client = client
	log.Printf("[cache] Connected to Redis at %s (prefix: %s, TTL: %s)", m.redisAddr, keyPrefix, defaultTTL)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			log.Printf("[cache] Error closing Redis connection: %v", err)
		}
	}
	log.Println("[cache] Module stopped")
	return nil
}

// Health reports the Redis connection state. Degraded mode is still healthy
// because the application functions without the cache.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	details := map[string]any{
		"available": m.available,
		"addr":      m.redisAddr,
	}

	if !m.available {
		return mono.HealthStatus{Healthy: true, Message: "degraded (no redis)", Details: details}
	}

	if err := m.cache.Ping(ctx); err != nil {
		details["error"] = err.Error()
		return mono.HealthStatus{Healthy: true, Message: "degraded (redis unreachable)", Details: details}
	}

	stats := m.cache.GetStats()
	details["hits"] = stats.Hits
	details["misses"] = stats.Misses
	details["hit_rate"] = stats.HitRate
	return mono.HealthStatus{Healthy: true, Message: "operational", Details: details}
}

// Cache returns the cache instance. Valid after Start.
func (m *Module) Cache() *Cache {
	return m.cache
}
