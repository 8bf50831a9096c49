package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/oelv/crm-funnel-backend/internal/platform/envutil"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string
	Port        string

	// SiteIDs scopes extraction to the stores this deployment owns.
	SiteIDs []int

	DefaultFrom  time.Time
	CacheMaxAge  time.Duration
	RefreshEvery time.Duration
	LeadPageSize int

	RulesPath string

	PasswordHash   string
	JWTSecretKey   string
	AccessTokenTTL time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	defaultFromRaw := envutil.String("DEFAULT_FROM", "2025-01-01")
	defaultFrom, err := time.Parse("2006-01-02", defaultFromRaw)
	if err != nil {
		log.Warn("Invalid DEFAULT_FROM, falling back to 2025-01-01", "value", defaultFromRaw, "error", err)
		defaultFrom = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	return Config{
		ServiceName: envutil.String("SERVICE_NAME", "crm-funnel-backend"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
		Port:        envutil.String("PORT", "8080"),

		SiteIDs: parseSiteIDs(log, envutil.String("SITE_IDS", "13,337,327,378")),

		DefaultFrom:  defaultFrom.UTC(),
		CacheMaxAge:  envutil.Duration("REPORT_MAX_AGE", 6*time.Hour),
		RefreshEvery: envutil.Duration("REPORT_REFRESH_INTERVAL", time.Hour),
		LeadPageSize: envutil.Int("LEAD_PAGE_SIZE", 100),

		RulesPath: envutil.String("RULES_PATH", ""),

		PasswordHash:   envutil.String("DASHBOARD_PASSWORD_HASH", ""),
		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL: envutil.Duration("ACCESS_TOKEN_TTL", time.Hour),
	}
}

func parseSiteIDs(log *logger.Logger, raw string) []int {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			log.Warn("Skipping malformed site id", "value", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
