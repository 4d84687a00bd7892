package handlers

import (
	"github.com/gin-gonic/gin"

	"cartera/internal/domain/payment"
	"cartera/internal/infrastructure/http/v1/dto"
)

// PaymentHandler serves the payment lifecycle endpoints.
type PaymentHandler struct {
	*BaseHandler
	service *payment.Service
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service *payment.Service) *PaymentHandler {
	return &PaymentHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Register handles POST /payments.
func (h *PaymentHandler) Register(c *gin.Context) {
	var req dto.RegisterPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Register(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPayment(p))
}

// Get handles GET /payments/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	paymentID, ok := h.ParseID(c)
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), paymentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPayment(p))
}

// Confirm handles POST /payments/:id/confirm.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	paymentID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Confirm(c.Request.Context(), paymentID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "payment confirmed")
}

// Void handles POST /payments/:id/void.
func (h *PaymentHandler) Void(c *gin.Context) {
	paymentID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.VoidPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Void(c.Request.Context(), paymentID, req.Reason); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "payment voided")
}

// Delete handles DELETE /payments/:id.
func (h *PaymentHandler) Delete(c *gin.Context) {
	paymentID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), paymentID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// List handles GET /payments.
func (h *PaymentHandler) List(c *gin.Context) {
	filter, ok := h.ListFilter(c)
	if !ok {
		return
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res, dto.FromPayment))
}

// ListByInvoice handles GET /invoices/:id/payments.
func (h *PaymentHandler) ListByInvoice(c *gin.Context) {
	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	payments, err := h.service.ListByInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		items = append(items, dto.FromPayment(p))
	}
	h.OK(c, items)
}

// Methods handles GET /payments/methods.
func (h *PaymentHandler) Methods(c *gin.Context) {
	h.OK(c, dto.PaymentMethods())
}
