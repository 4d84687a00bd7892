package handlers

import (
	"github.com/gin-gonic/gin"

	"cartera/internal/domain/account"
	"cartera/internal/infrastructure/http/v1/dto"
)

// AccountHandler serves the payment account endpoints.
type AccountHandler struct {
	*BaseHandler
	service *account.Service
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(service *account.Service) *AccountHandler {
	return &AccountHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Create handles POST /accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	a := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), a); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, a.ID.String())
}

// Get handles GET /accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	accountID, ok := h.ParseID(c)
	if !ok {
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromAccount(a))
}

// List handles GET /accounts.
func (h *AccountHandler) List(c *gin.Context) {
	filter, ok := h.ListFilter(c)
	if !ok {
		return
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res, dto.FromAccount))
}

// Deactivate handles POST /accounts/:id/deactivate.
func (h *AccountHandler) Deactivate(c *gin.Context) {
	accountID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), accountID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "account deactivated")
}
