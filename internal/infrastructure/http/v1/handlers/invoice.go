package handlers

import (
	"github.com/gin-gonic/gin"

	"cartera/internal/domain/invoice"
	"cartera/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler serves the invoice lifecycle endpoints.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), inv); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, inv.ID.String())
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// Update handles PUT /invoices/:id.
func (h *InvoiceHandler) Update(c *gin.Context) {
	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := req.ApplyTo(inv); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(c.Request.Context(), inv); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// List handles GET /invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	filter, ok := h.ListFilter(c)
	if !ok {
		return
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res, dto.FromInvoice))
}

// Balance handles GET /invoices/:id/balance.
func (h *InvoiceHandler) Balance(c *gin.Context) {
	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	view, err := h.service.Balance(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// Cancel handles POST /invoices/:id/cancel.
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), invoiceID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "invoice cancelled")
}

// UpdateDelivery handles PUT /invoices/:id/delivery.
func (h *InvoiceHandler) UpdateDelivery(c *gin.Context) {
	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateDeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	err := h.service.UpdateDelivery(c.Request.Context(), invoiceID,
		invoice.DeliveryStatus(req.DeliveryStatus), actor.UserID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "delivery status updated")
}

// SweepOverdue handles POST /invoices/sweep-overdue.
func (h *InvoiceHandler) SweepOverdue(c *gin.Context) {
	count, err := h.service.SweepOverdue(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CountResponse{Count: count})
}

// Delete handles DELETE /invoices/:id.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), invoiceID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
