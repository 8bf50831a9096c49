package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/oelv/crm-funnel-backend/internal/http/handlers"
	httpMW "github.com/oelv/crm-funnel-backend/internal/http/middleware"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	ReportHandler  *httpH.ReportHandler
	LeadHandler    *httpH.LeadHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Funnel report
		if cfg.ReportHandler != nil {
			protected.GET("/report", cfg.ReportHandler.GetReport)
			protected.GET("/snapshots", cfg.ReportHandler.ListSnapshots)
		}

		// Leads
		if cfg.LeadHandler != nil {
			protected.GET("/leads", cfg.LeadHandler.ListLeads)
			protected.GET("/leads/:id", cfg.LeadHandler.GetLead)
		}
	}

	return r
}
