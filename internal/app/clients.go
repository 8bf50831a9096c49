package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/oelv/crm-funnel-backend/internal/clients/redis"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
)

type Clients struct {
	ReportCache redis.ReportCache
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis is optional: without it the service recomputes on every request.
	var cache redis.ReportCache
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		c, err := redis.NewReportCache(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis report cache: %w", err)
		}
		cache = c
	}

	return Clients{ReportCache: cache}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.ReportCache != nil {
		_ = c.ReportCache.Close()
	}
}
