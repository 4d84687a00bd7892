package handlers

import (
	"github.com/gin-gonic/gin"

	"cartera/internal/domain/alert"
	"cartera/internal/domain/authz"
	"cartera/internal/infrastructure/http/v1/dto"
)

// AlertHandler serves the collections alert endpoints.
type AlertHandler struct {
	*BaseHandler
	service *alert.Service
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(service *alert.Service) *AlertHandler {
	return &AlertHandler{BaseHandler: NewBaseHandler(), service: service}
}

// ListOpen handles GET /alerts. Managers see every open alert; everyone else
// sees only the alerts addressed to them.
func (h *AlertHandler) ListOpen(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	recipientID := actor.UserID
	if actor.HasRole(authz.RoleManager) {
		recipientID = ""
	}

	alerts, err := h.service.ListOpen(c.Request.Context(), recipientID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, alerts)
}

// Resolve handles POST /alerts/:id/resolve.
func (h *AlertHandler) Resolve(c *gin.Context) {
	alertID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Resolve(c.Request.Context(), alertID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "alert resolved")
}

// Scan handles POST /alerts/scan.
func (h *AlertHandler) Scan(c *gin.Context) {
	created, err := h.service.Scan(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CountResponse{Count: created})
}
