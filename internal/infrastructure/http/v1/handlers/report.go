package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"cartera/internal/core/apperror"
	"cartera/internal/core/id"
	"cartera/internal/domain/authz"
	"cartera/internal/domain/reports"
)

// ReportHandler serves the collections reporting endpoints.
type ReportHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportHandler creates a new report handler.
func NewReportHandler(service *reports.Service) *ReportHandler {
	return &ReportHandler{BaseHandler: NewBaseHandler(), service: service}
}

// filter builds the report filter from query parameters. Sellers without the
// manager role only ever see their own book, whatever the query says.
func (h *ReportHandler) filter(c *gin.Context) (reports.Filter, bool) {
	var f reports.Filter

	for param, target := range map[string]**id.ID{
		"sellerId": &f.SellerID,
		"clientId": &f.ClientID,
	} {
		if val := c.Query(param); val != "" {
			parsed, err := id.Parse(val)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid id format").WithDetail("param", param))
				return f, false
			}
			*target = &parsed
		}
	}

	actor, ok := h.Actor(c)
	if !ok {
		return f, false
	}
	if !actor.HasRole(authz.RoleManager) {
		own, err := id.Parse(actor.UserID)
		if err != nil {
			h.Error(c, apperror.NewForbidden("portfolio access denied"))
			return f, false
		}
		f.SellerID = &own
	}
	return f, true
}

// Portfolio handles GET /reports/portfolio.
func (h *ReportHandler) Portfolio(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}

	summary, err := h.service.Portfolio(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// Aging handles GET /reports/aging.
func (h *ReportHandler) Aging(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}

	buckets, err := h.service.Aging(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, buckets)
}

// Accounts handles GET /reports/accounts.
func (h *ReportHandler) Accounts(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}

	accounts, err := h.service.Accounts(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, accounts)
}

// Dashboard handles GET /reports/dashboard. Defaults to the last 30 days.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if parsed, ok := h.ParseDateQuery(c, "from"); !ok {
		return
	} else if parsed != nil {
		from = *parsed
	}
	if parsed, ok := h.ParseDateQuery(c, "to"); !ok {
		return
	} else if parsed != nil {
		to = *parsed
	}

	d, err := h.service.Dashboard(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}
