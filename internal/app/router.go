package app

import (
	internalhttp "github.com/oelv/crm-funnel-backend/internal/http"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlerset Handlers, mw Middleware) *internalhttp.Server {
	log.Info("Wiring router...")
	return internalhttp.NewServer(internalhttp.RouterConfig{
		Log:            log,
		ServiceName:    cfg.ServiceName,
		AuthHandler:    handlerset.Auth,
		AuthMiddleware: mw.Auth,
		ReportHandler:  handlerset.Report,
		LeadHandler:    handlerset.Lead,
		HealthHandler:  handlerset.Health,
	})
}
