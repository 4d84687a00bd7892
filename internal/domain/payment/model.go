package payment

import (
	"context"
	"time"

	"cartera/internal/core/apperror"
	"cartera/internal/core/entity"
	"cartera/internal/core/id"
	"cartera/internal/core/types"
)

// Status is the payment lifecycle state.
type Status string

const (
	// StatusRegistered is the initial state: the payment is captured but has
	// no financial effect yet.
	StatusRegistered Status = "registered"
	// StatusConfirmed means the payment counts toward the invoice balance.
	StatusConfirmed Status = "confirmed"
	// StatusVoided is terminal; the payment is kept for audit but ignored.
	StatusVoided Status = "voided"
)

// Method identifies how the money moved.
type Method string

const (
	MethodCash     Method = "cash"
	MethodTransfer Method = "transfer"
	MethodCheck    Method = "check"
	MethodDeposit  Method = "deposit"
	MethodCard     Method = "card"
	MethodOther    Method = "other"
)

// MethodInfo describes the capture requirements of a payment method.
type MethodInfo struct {
	Label             string
	RequiresAccount   bool
	RequiresReference bool
}

// Methods maps each supported payment method to its capture requirements.
// Cash needs neither a destination account nor an external reference; bank
// movements need both.
var Methods = map[Method]MethodInfo{
	MethodCash:     {Label: "Cash", RequiresAccount: false, RequiresReference: false},
	MethodTransfer: {Label: "Bank transfer", RequiresAccount: true, RequiresReference: true},
	MethodCheck:    {Label: "Check", RequiresAccount: true, RequiresReference: true},
	MethodDeposit:  {Label: "Bank deposit", RequiresAccount: true, RequiresReference: true},
	MethodCard:     {Label: "Card", RequiresAccount: true, RequiresReference: false},
	MethodOther:    {Label: "Other", RequiresAccount: false, RequiresReference: false},
}

// Payment records money (or an equivalent concession) applied against one
// invoice. The five amount components are summed together when computing the
// invoice balance; only paid_amount represents actual cash received.
type Payment struct {
	entity.BaseEntity

	Code      string `db:"code" json:"code"`
	InvoiceID id.ID  `db:"invoice_id" json:"invoiceId"`

	PaymentDate time.Time `db:"payment_date" json:"paymentDate"`

	PaidAmount           types.Money `db:"paid_amount" json:"paidAmount"`
	Discount             types.Money `db:"discount" json:"discount"`
	LocalTaxWithholding  types.Money `db:"local_tax_withholding" json:"localTaxWithholding"`
	IncomeTaxWithholding types.Money `db:"income_tax_withholding" json:"incomeTaxWithholding"`
	NoteAdjustment       types.Money `db:"note_adjustment" json:"noteAdjustment"`

	Method    Method `db:"method" json:"method"`
	AccountID *id.ID `db:"account_id" json:"accountId,omitempty"`
	Reference string `db:"reference" json:"reference,omitempty"`

	Status Status `db:"status" json:"status"`
	Notes  string `db:"notes" json:"notes,omitempty"`

	RegisteredBy string     `db:"registered_by" json:"registeredBy"`
	ConfirmedBy  string     `db:"confirmed_by" json:"confirmedBy,omitempty"`
	ConfirmedAt  *time.Time `db:"confirmed_at" json:"confirmedAt,omitempty"`
	VoidedBy     string     `db:"voided_by" json:"voidedBy,omitempty"`
	VoidedAt     *time.Time `db:"voided_at" json:"voidedAt,omitempty"`
	VoidReason   string     `db:"void_reason" json:"voidReason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a payment in the registered state.
func New() *Payment {
	return &Payment{
		BaseEntity: entity.NewBaseEntity(),
		Status:     StatusRegistered,
	}
}

// TableName returns the database table name.
func (p *Payment) TableName() string {
	return "payments"
}

// Total sums every amount component of the payment.
func (p *Payment) Total() types.Money {
	return p.PaidAmount.
		Add(p.Discount).
		Add(p.LocalTaxWithholding).
		Add(p.IncomeTaxWithholding).
		Add(p.NoteAdjustment)
}

// HasLocalTaxWithholding reports whether the ICA component is present.
func (p *Payment) HasLocalTaxWithholding() bool {
	return p.LocalTaxWithholding.IsPositive()
}

// HasIncomeTaxWithholding reports whether the retención component is present.
func (p *Payment) HasIncomeTaxWithholding() bool {
	return p.IncomeTaxWithholding.IsPositive()
}

// IsTerminal reports whether the payment reached a final state.
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusConfirmed || p.Status == StatusVoided
}

// ValidateAt checks the intrinsic rules of the payment against the given
// current time. Rules that depend on the invoice or sibling payments live in
// the service.
func (p *Payment) ValidateAt(ctx context.Context, now time.Time) error {
	if p.InvoiceID == id.Nil() {
		return apperror.NewValidation("payment must reference an invoice")
	}

	if p.PaymentDate.IsZero() {
		return apperror.NewValidation("payment date is required")
	}
	if dateOnly(p.PaymentDate).After(dateOnly(now)) {
		return apperror.NewValidation("payment date cannot be in the future").
			WithDetail("payment_date", p.PaymentDate.Format("2006-01-02"))
	}

	for name, amount := range map[string]types.Money{
		"paid_amount":            p.PaidAmount,
		"discount":               p.Discount,
		"local_tax_withholding":  p.LocalTaxWithholding,
		"income_tax_withholding": p.IncomeTaxWithholding,
		"note_adjustment":        p.NoteAdjustment,
	} {
		if amount.IsNegative() {
			return apperror.NewValidation("payment components cannot be negative").
				WithDetail("component", name).
				WithDetail("value", amount.String())
		}
	}

	if !p.Total().IsPositive() {
		return apperror.NewValidation("payment total must be greater than zero")
	}

	info, ok := Methods[p.Method]
	if !ok {
		return apperror.NewValidation("unknown payment method").
			WithDetail("method", string(p.Method))
	}
	if info.RequiresAccount && p.AccountID == nil {
		return apperror.NewValidation("payment method requires a destination account").
			WithDetail("method", string(p.Method))
	}
	if info.RequiresReference && p.Reference == "" {
		return apperror.NewValidation("payment method requires a bank reference").
			WithDetail("method", string(p.Method))
	}

	switch p.Status {
	case StatusRegistered, StatusConfirmed, StatusVoided:
	default:
		return apperror.NewValidation("invalid payment status").
			WithDetail("status", string(p.Status))
	}

	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
