package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oelv/crm-funnel-backend/internal/http/response"
	"github.com/oelv/crm-funnel-backend/internal/platform/apierr"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
	"github.com/oelv/crm-funnel-backend/internal/services"
)

type ReportHandler struct {
	log           *logger.Logger
	reportService services.ReportService
}

func NewReportHandler(log *logger.Logger, reportService services.ReportService) *ReportHandler {
	return &ReportHandler{
		log:           log.With("handler", "ReportHandler"),
		reportService: reportService,
	}
}

// parseReportQuery reads from/to as YYYY-MM-DD plus the refresh flag.
// Bad date strings are rejected rather than silently defaulted.
func parseReportQuery(c *gin.Context) (services.ReportQuery, bool) {
	var q services.ReportQuery
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_from", err)
			return q, false
		}
		q.From = t.UTC()
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_to", err)
			return q, false
		}
		// Inclusive end of day.
		q.To = t.UTC().Add(24*time.Hour - time.Second)
	}
	q.Refresh = c.Query("refresh") == "1" || c.Query("refresh") == "true"
	return q, true
}

func (h *ReportHandler) GetReport(c *gin.Context) {
	q, ok := parseReportQuery(c)
	if !ok {
		return
	}
	report, err := h.reportService.GetReport(c.Request.Context(), q)
	if err != nil {
		h.log.Error("GetReport failed", "error", err)
		response.RespondError(c, apierr.StatusOf(err), apierr.CodeOf(err), err)
		return
	}
	response.RespondOK(c, report)
}

func (h *ReportHandler) ListSnapshots(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	snaps, err := h.reportService.ListSnapshots(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("ListSnapshots failed", "error", err)
		response.RespondError(c, apierr.StatusOf(err), apierr.CodeOf(err), err)
		return
	}
	response.RespondOK(c, gin.H{"snapshots": snaps})
}
