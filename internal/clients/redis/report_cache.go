package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/oelv/crm-funnel-backend/internal/domain"
	"github.com/oelv/crm-funnel-backend/internal/platform/envutil"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
)

// ReportCache stores extracted reports in redis. Payloads carry their own
// extraction timestamp; staleness is decided by the caller against its
// configured max age, with the redis TTL as a backstop.
type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.CachedReport, error)
	Put(ctx context.Context, key string, payload *domain.CachedReport) error
	Close() error
}

type reportCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewReportCache(log *logger.Logger) (ReportCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(envutil.String("REDIS_ADDR", ""))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttl := envutil.Duration("REPORT_CACHE_TTL", 24*time.Hour)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &reportCache{
		log: log.With("service", "ReportCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

// Get returns the cached payload, or nil when the key is absent. A payload
// that fails to decode is treated as absent and evicted.
func (c *reportCache) Get(ctx context.Context, key string) (*domain.CachedReport, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var payload domain.CachedReport
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.log.Warn("evicting undecodable cache payload", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return nil, nil
	}
	return &payload, nil
}

func (c *reportCache) Put(ctx context.Context, key string, payload *domain.CachedReport) error {
	if payload == nil {
		return fmt.Errorf("nil cache payload")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode cache payload: %w", err)
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *reportCache) Close() error {
	return c.rdb.Close()
}
