package dto

import (
	"time"

	"cartera/internal/core/apperror"
	"cartera/internal/core/id"
	"cartera/internal/core/types"
	"cartera/internal/domain/invoice"
)

// CreateInvoiceRequest for registering a new invoice.
type CreateInvoiceRequest struct {
	Number        string      `json:"number" binding:"required"`
	Type          string      `json:"type" binding:"required"`
	ClientID      string      `json:"clientId" binding:"required,uuid"`
	BranchID      *string     `json:"branchId,omitempty"`
	SellerID      *string     `json:"sellerId,omitempty"`
	DistributorID *string     `json:"distributorId,omitempty"`
	IssueDate     time.Time   `json:"issueDate" binding:"required" time_format:"2006-01-02"`
	DueDate       time.Time   `json:"dueDate" binding:"required" time_format:"2006-01-02"`
	GrossTotal    types.Money `json:"grossTotal" binding:"required"`
	Notes         string      `json:"notes,omitempty"`
}

// ToEntity converts the request to a domain invoice.
func (r *CreateInvoiceRequest) ToEntity() (*invoice.Invoice, error) {
	clientID, err := id.Parse(r.ClientID)
	if err != nil {
		return nil, apperror.NewValidation("invalid client id")
	}

	inv := invoice.New(r.Number, clientID, invoice.Type(r.Type), r.IssueDate, r.DueDate, r.GrossTotal)
	inv.Notes = r.Notes

	if inv.BranchID, err = parseOptionalID(r.BranchID, "branchId"); err != nil {
		return nil, err
	}
	if inv.SellerID, err = parseOptionalID(r.SellerID, "sellerId"); err != nil {
		return nil, err
	}
	if inv.DistributorID, err = parseOptionalID(r.DistributorID, "distributorId"); err != nil {
		return nil, err
	}
	return inv, nil
}

// UpdateInvoiceRequest for modifying an invoice. Omitted fields are kept.
type UpdateInvoiceRequest struct {
	SellerID      *string      `json:"sellerId,omitempty"`
	DistributorID *string      `json:"distributorId,omitempty"`
	BranchID      *string      `json:"branchId,omitempty"`
	IssueDate     *time.Time   `json:"issueDate,omitempty"`
	DueDate       *time.Time   `json:"dueDate,omitempty"`
	GrossTotal    *types.Money `json:"grossTotal,omitempty"`
	Notes         *string      `json:"notes,omitempty"`
	Version       int          `json:"version" binding:"required,min=1"`
}

// ApplyTo overlays the request onto an existing invoice.
func (r *UpdateInvoiceRequest) ApplyTo(inv *invoice.Invoice) error {
	var err error
	if r.SellerID != nil {
		if inv.SellerID, err = parseOptionalID(r.SellerID, "sellerId"); err != nil {
			return err
		}
	}
	if r.DistributorID != nil {
		if inv.DistributorID, err = parseOptionalID(r.DistributorID, "distributorId"); err != nil {
			return err
		}
	}
	if r.BranchID != nil {
		if inv.BranchID, err = parseOptionalID(r.BranchID, "branchId"); err != nil {
			return err
		}
	}
	if r.IssueDate != nil {
		inv.IssueDate = *r.IssueDate
	}
	if r.DueDate != nil {
		inv.DueDate = *r.DueDate
	}
	if r.GrossTotal != nil {
		inv.GrossTotal = *r.GrossTotal
	}
	if r.Notes != nil {
		inv.Notes = *r.Notes
	}
	inv.SetVersion(r.Version)
	return nil
}

// UpdateDeliveryRequest for recording physical delivery.
type UpdateDeliveryRequest struct {
	DeliveryStatus string `json:"deliveryStatus" binding:"required"`
}

// InvoiceResponse represents an invoice in API responses.
type InvoiceResponse struct {
	ID             string      `json:"id"`
	Number         string      `json:"number"`
	Type           string      `json:"type"`
	ClientID       string      `json:"clientId"`
	BranchID       *string     `json:"branchId,omitempty"`
	SellerID       *string     `json:"sellerId,omitempty"`
	DistributorID  *string     `json:"distributorId,omitempty"`
	IssueDate      time.Time   `json:"issueDate"`
	DueDate        time.Time   `json:"dueDate"`
	GrossTotal     types.Money `json:"grossTotal"`
	Status         string      `json:"status"`
	DeliveryStatus string      `json:"deliveryStatus"`
	Notes          string      `json:"notes,omitempty"`
	Version        int         `json:"version"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// FromInvoice creates a response from a domain invoice.
func FromInvoice(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:             inv.ID.String(),
		Number:         inv.Number,
		Type:           string(inv.Type),
		ClientID:       inv.ClientID.String(),
		BranchID:       optionalIDString(inv.BranchID),
		SellerID:       optionalIDString(inv.SellerID),
		DistributorID:  optionalIDString(inv.DistributorID),
		IssueDate:      inv.IssueDate,
		DueDate:        inv.DueDate,
		GrossTotal:     inv.GrossTotal,
		Status:         string(inv.Status),
		DeliveryStatus: string(inv.DeliveryStatus),
		Notes:          inv.Notes,
		Version:        inv.Version,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

func parseOptionalID(s *string, field string) (*id.ID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := id.Parse(*s)
	if err != nil {
		return nil, apperror.NewValidation("invalid id format").WithDetail("field", field)
	}
	return &parsed, nil
}

func optionalIDString(i *id.ID) *string {
	if i == nil {
		return nil
	}
	s := i.String()
	return &s
}
