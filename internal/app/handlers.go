package app

import (
	httpH "github.com/oelv/crm-funnel-backend/internal/http/handlers"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
)

type Handlers struct {
	Auth   *httpH.AuthHandler
	Report *httpH.ReportHandler
	Lead   *httpH.LeadHandler
	Health *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:   httpH.NewAuthHandler(log, serviceset.Auth),
		Report: httpH.NewReportHandler(log, serviceset.Report),
		Lead:   httpH.NewLeadHandler(log, serviceset.Report),
		Health: httpH.NewHealthHandler(),
	}
}
