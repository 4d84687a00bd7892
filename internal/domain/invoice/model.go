// Package invoice provides the Invoice document and its financial-state
// engine: outstanding balance, overdue detection, and status recomputation
// from confirmed payment totals.
package invoice

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"cartera/internal/core/apperror"
	"cartera/internal/core/entity"
	"cartera/internal/core/id"
	"cartera/internal/core/types"
)

// Type distinguishes electronic invoices from delivery notes.
// Withholding components apply to electronic invoices only.
type Type string

const (
	TypeElectronic   Type = "FE" // factura electrónica
	TypeDeliveryNote Type = "R"  // remisión
)

// Status is the invoice lifecycle state. It is derived from the balance and
// due date by DetermineStatus, except for Cancelled which is set externally.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// DeliveryStatus tracks physical delivery, independent of the financial state.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryReturned  DeliveryStatus = "returned"
)

// numberRE matches the external invoice number format: <TYPE>-<digits>.
var numberRE = regexp.MustCompile(`^(FE|R)-\d+$`)

// Invoice is a billable document owed by a client.
//
// GrossTotal, the dates, and the party references are fixed at creation;
// Status is a cached value kept consistent with the confirmed payment totals
// by RecomputeStatus.
type Invoice struct {
	entity.Document

	// Number is the unique external invoice number (<TYPE>-<digits>)
	Number string `db:"number" json:"number"`

	ClientID id.ID  `db:"client_id" json:"clientId"`
	BranchID *id.ID `db:"branch_id" json:"branchId,omitempty"`

	// Assigned seller and distributor (either may be unset)
	SellerID      *id.ID `db:"seller_id" json:"sellerId,omitempty"`
	DistributorID *id.ID `db:"distributor_id" json:"distributorId,omitempty"`

	Type Type `db:"type" json:"type"`

	IssueDate time.Time `db:"issue_date" json:"issueDate"`
	DueDate   time.Time `db:"due_date" json:"dueDate"`

	// GrossTotal is the full billed amount (positive)
	GrossTotal types.Money `db:"gross_total" json:"grossTotal"`

	Status Status `db:"status" json:"status"`

	DeliveryStatus DeliveryStatus `db:"delivery_status" json:"deliveryStatus"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// New creates an invoice in the pending state.
func New(number string, clientID id.ID, invType Type, issueDate, dueDate time.Time, grossTotal types.Money) *Invoice {
	return &Invoice{
		Document:       entity.NewDocument(),
		Number:         number,
		ClientID:       clientID,
		Type:           invType,
		IssueDate:      issueDate,
		DueDate:        dueDate,
		GrossTotal:     grossTotal,
		Status:         StatusPending,
		DeliveryStatus: DeliveryPending,
	}
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if !numberRE.MatchString(inv.Number) {
		return apperror.NewValidation("invoice number must match <TYPE>-<digits> with TYPE one of FE, R").
			WithDetail("field", "number").
			WithDetail("value", inv.Number)
	}

	if !isValidType(inv.Type) {
		return apperror.NewValidation("invalid invoice type").
			WithDetail("field", "type").
			WithDetail("value", string(inv.Type))
	}

	// The number prefix and the typed field must agree.
	if prefix, _, _ := strings.Cut(inv.Number, "-"); prefix != string(inv.Type) {
		return apperror.NewValidation("invoice number prefix does not match invoice type").
			WithDetail("field", "number").
			WithDetail("number", inv.Number).
			WithDetail("type", string(inv.Type))
	}

	if id.IsNil(inv.ClientID) {
		return apperror.NewValidation("client is required").
			WithDetail("field", "clientId")
	}

	if inv.IssueDate.IsZero() || inv.DueDate.IsZero() {
		return apperror.NewValidation("issue date and due date are required").
			WithDetail("field", "issueDate")
	}

	if inv.IssueDate.After(inv.DueDate) {
		return apperror.NewValidation("issue date cannot be after due date").
			WithDetail("issueDate", inv.IssueDate.Format("2006-01-02")).
			WithDetail("dueDate", inv.DueDate.Format("2006-01-02"))
	}

	if !inv.GrossTotal.IsPositive() {
		return apperror.NewValidation("gross total must be greater than zero").
			WithDetail("field", "grossTotal").
			WithDetail("value", inv.GrossTotal.String())
	}

	if !isValidStatus(inv.Status) {
		return apperror.NewValidation("invalid invoice status").
			WithDetail("field", "status").
			WithDetail("value", string(inv.Status))
	}

	return nil
}

// AppliedTotals are the sums over an invoice's confirmed payments.
// Registered and voided payments never contribute.
type AppliedTotals struct {
	Paid                 types.Money `db:"paid" json:"paid"`
	Discount             types.Money `db:"discount" json:"discount"`
	LocalTaxWithholding  types.Money `db:"local_tax_withholding" json:"localTaxWithholding"`
	IncomeTaxWithholding types.Money `db:"income_tax_withholding" json:"incomeTaxWithholding"`
	NoteAdjustment       types.Money `db:"note_adjustment" json:"noteAdjustment"`
}

// Discounts is the sum of the four non-cash components.
func (t AppliedTotals) Discounts() types.Money {
	return types.SumMoney(t.Discount, t.LocalTaxWithholding, t.IncomeTaxWithholding, t.NoteAdjustment)
}

// Applied is the full amount counted against the gross total.
func (t AppliedTotals) Applied() types.Money {
	return t.Paid.Add(t.Discounts())
}

// OutstandingBalance returns gross total minus the confirmed applied total.
// A negative result means the balance-ceiling invariant was bypassed; it is
// surfaced as an integrity error, never clamped.
func (inv *Invoice) OutstandingBalance(totals AppliedTotals) (types.Money, error) {
	balance := inv.GrossTotal.Sub(totals.Applied())
	if balance.IsNegative() {
		return balance, apperror.NewIntegrity("outstanding balance is negative for confirmed payments").
			WithDetail("invoice_number", inv.Number).
			WithDetail("gross_total", inv.GrossTotal.String()).
			WithDetail("applied", totals.Applied().String())
	}
	return balance, nil
}

// IsOverdueAt reports whether the invoice is overdue on the given day.
// Paid and cancelled invoices are never overdue.
func (inv *Invoice) IsOverdueAt(today time.Time) bool {
	switch inv.Status {
	case StatusPending, StatusPartial, StatusOverdue:
	default:
		return false
	}
	return dateOnly(today).After(dateOnly(inv.DueDate))
}

// IsPastDueAt reports whether the due date has passed, regardless of status.
// Input to DetermineStatus.
func (inv *Invoice) IsPastDueAt(today time.Time) bool {
	return dateOnly(today).After(dateOnly(inv.DueDate))
}

// DaysPastDueAt returns the signed day count since the due date
// (negative if not yet due).
func (inv *Invoice) DaysPastDueAt(today time.Time) int {
	return int(dateOnly(today).Sub(dateOnly(inv.DueDate)).Hours() / 24)
}

// CanAcceptPayment checks whether a cash amount could be applied right now.
// This is an advisory pre-check for the registration UI; the authoritative
// ceiling enforcement happens at confirmation time.
func (inv *Invoice) CanAcceptPayment(amount types.Money, totals AppliedTotals) (bool, string) {
	if inv.Status == StatusCancelled {
		return false, "payments cannot be registered on cancelled invoices"
	}
	if inv.Status == StatusPaid {
		return false, "invoice is already fully paid"
	}
	if !amount.IsPositive() {
		return false, "payment amount must be greater than zero"
	}
	balance, err := inv.OutstandingBalance(totals)
	if err != nil {
		return false, err.Error()
	}
	if amount.GreaterThan(balance) {
		return false, fmt.Sprintf("amount exceeds the outstanding balance of %s", balance)
	}
	return true, ""
}

func isValidType(t Type) bool {
	switch t {
	case TypeElectronic, TypeDeliveryNote:
		return true
	}
	return false
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPartial, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// dateOnly truncates to the calendar day in UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
