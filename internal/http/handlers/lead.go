package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oelv/crm-funnel-backend/internal/http/response"
	"github.com/oelv/crm-funnel-backend/internal/platform/apierr"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
	"github.com/oelv/crm-funnel-backend/internal/services"
)

type LeadHandler struct {
	log           *logger.Logger
	reportService services.ReportService
}

func NewLeadHandler(log *logger.Logger, reportService services.ReportService) *LeadHandler {
	return &LeadHandler{
		log:           log.With("handler", "LeadHandler"),
		reportService: reportService,
	}
}

func (h *LeadHandler) ListLeads(c *gin.Context) {
	q, ok := parseReportQuery(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	// Absent page_size stays zero so the service default applies.
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	filter := services.LeadFilter{
		Store:    c.Query("store"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		Page:     page,
		PageSize: pageSize,
	}
	leads, err := h.reportService.GetLeads(c.Request.Context(), q, filter)
	if err != nil {
		h.log.Error("ListLeads failed", "error", err)
		response.RespondError(c, apierr.StatusOf(err), apierr.CodeOf(err), err)
		return
	}
	response.RespondOK(c, leads)
}

func (h *LeadHandler) GetLead(c *gin.Context) {
	memberID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lead_id", err)
		return
	}
	q, ok := parseReportQuery(c)
	if !ok {
		return
	}
	lead, err := h.reportService.GetLead(c.Request.Context(), q, memberID)
	if err != nil {
		h.log.Error("GetLead failed", "member_id", memberID, "error", err)
		response.RespondError(c, apierr.StatusOf(err), apierr.CodeOf(err), err)
		return
	}
	response.RespondOK(c, lead)
}
