package app

import (
	"fmt"

	"github.com/oelv/crm-funnel-backend/internal/analytics"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
	"github.com/oelv/crm-funnel-backend/internal/services"
)

type Services struct {
	Auth   services.AuthService
	Report services.ReportService
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	rules := analytics.DefaultRules()
	if cfg.RulesPath != "" {
		loaded, err := analytics.LoadRules(cfg.RulesPath)
		if err != nil {
			return Services{}, fmt.Errorf("load rules %q: %w", cfg.RulesPath, err)
		}
		rules = loaded
	}
	analyzer := analytics.NewAnalyzer(rules, analytics.DefaultChannelMap)

	authService, err := services.NewAuthService(log, services.AuthConfig{
		PasswordHash: cfg.PasswordHash,
		JWTSecretKey: cfg.JWTSecretKey,
		AccessTTL:    cfg.AccessTokenTTL,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	reportService := services.NewReportService(
		log,
		reposet.FollowRows,
		reposet.Snapshots,
		clients.ReportCache,
		analyzer,
		services.ReportConfig{
			DefaultFrom:     cfg.DefaultFrom,
			CacheMaxAge:     cfg.CacheMaxAge,
			RefreshEvery:    cfg.RefreshEvery,
			DefaultPageSize: cfg.LeadPageSize,
		},
	)

	return Services{
		Auth:   authService,
		Report: reportService,
	}, nil
}
