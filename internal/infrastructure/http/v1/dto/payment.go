package dto

import (
	"time"

	"cartera/internal/core/apperror"
	"cartera/internal/core/id"
	"cartera/internal/core/types"
	"cartera/internal/domain/payment"
)

// RegisterPaymentRequest for capturing a new payment.
type RegisterPaymentRequest struct {
	InvoiceID   string    `json:"invoiceId" binding:"required,uuid"`
	PaymentDate time.Time `json:"paymentDate" binding:"required"`

	PaidAmount           types.Money `json:"paidAmount"`
	Discount             types.Money `json:"discount"`
	LocalTaxWithholding  types.Money `json:"localTaxWithholding"`
	IncomeTaxWithholding types.Money `json:"incomeTaxWithholding"`
	NoteAdjustment       types.Money `json:"noteAdjustment"`

	Method    string  `json:"method" binding:"required"`
	AccountID *string `json:"accountId,omitempty"`
	Reference string  `json:"reference,omitempty"`
	Notes     string  `json:"notes,omitempty"`
}

// ToEntity converts the request to a domain payment.
func (r *RegisterPaymentRequest) ToEntity() (*payment.Payment, error) {
	invoiceID, err := id.Parse(r.InvoiceID)
	if err != nil {
		return nil, apperror.NewValidation("invalid invoice id")
	}

	p := payment.New()
	p.InvoiceID = invoiceID
	p.PaymentDate = r.PaymentDate
	p.PaidAmount = r.PaidAmount
	p.Discount = r.Discount
	p.LocalTaxWithholding = r.LocalTaxWithholding
	p.IncomeTaxWithholding = r.IncomeTaxWithholding
	p.NoteAdjustment = r.NoteAdjustment
	p.Method = payment.Method(r.Method)
	p.Reference = r.Reference
	p.Notes = r.Notes

	if p.AccountID, err = parseOptionalID(r.AccountID, "accountId"); err != nil {
		return nil, err
	}
	return p, nil
}

// VoidPaymentRequest for voiding a payment.
type VoidPaymentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	InvoiceID string `json:"invoiceId"`

	PaymentDate time.Time `json:"paymentDate"`

	PaidAmount           types.Money `json:"paidAmount"`
	Discount             types.Money `json:"discount"`
	LocalTaxWithholding  types.Money `json:"localTaxWithholding"`
	IncomeTaxWithholding types.Money `json:"incomeTaxWithholding"`
	NoteAdjustment       types.Money `json:"noteAdjustment"`
	Total                types.Money `json:"total"`

	Method    string  `json:"method"`
	AccountID *string `json:"accountId,omitempty"`
	Reference string  `json:"reference,omitempty"`

	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`

	RegisteredBy string     `json:"registeredBy"`
	ConfirmedBy  string     `json:"confirmedBy,omitempty"`
	ConfirmedAt  *time.Time `json:"confirmedAt,omitempty"`
	VoidedBy     string     `json:"voidedBy,omitempty"`
	VoidedAt     *time.Time `json:"voidedAt,omitempty"`
	VoidReason   string     `json:"voidReason,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromPayment creates a response from a domain payment.
func FromPayment(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:                   p.ID.String(),
		Code:                 p.Code,
		InvoiceID:            p.InvoiceID.String(),
		PaymentDate:          p.PaymentDate,
		PaidAmount:           p.PaidAmount,
		Discount:             p.Discount,
		LocalTaxWithholding:  p.LocalTaxWithholding,
		IncomeTaxWithholding: p.IncomeTaxWithholding,
		NoteAdjustment:       p.NoteAdjustment,
		Total:                p.Total(),
		Method:               string(p.Method),
		AccountID:            optionalIDString(p.AccountID),
		Reference:            p.Reference,
		Status:               string(p.Status),
		Notes:                p.Notes,
		RegisteredBy:         p.RegisteredBy,
		ConfirmedBy:          p.ConfirmedBy,
		ConfirmedAt:          p.ConfirmedAt,
		VoidedBy:             p.VoidedBy,
		VoidedAt:             p.VoidedAt,
		VoidReason:           p.VoidReason,
		Version:              p.Version,
		CreatedAt:            p.CreatedAt,
	}
}

// MethodResponse describes one payment method's capture requirements.
type MethodResponse struct {
	Method            string `json:"method"`
	Label             string `json:"label"`
	RequiresAccount   bool   `json:"requiresAccount"`
	RequiresReference bool   `json:"requiresReference"`
}

// PaymentMethods lists the supported methods.
func PaymentMethods() []MethodResponse {
	out := make([]MethodResponse, 0, len(payment.Methods))
	for m, info := range payment.Methods {
		out = append(out, MethodResponse{
			Method:            string(m),
			Label:             info.Label,
			RequiresAccount:   info.RequiresAccount,
			RequiresReference: info.RequiresReference,
		})
	}
	return out
}
