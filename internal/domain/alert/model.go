package alert

import (
	"time"

	"cartera/internal/core/entity"
	"cartera/internal/core/id"
)

// Kind classifies what triggered the alert.
type Kind string

const (
	// KindDueSoon fires when an unpaid invoice is within the warning window
	// before its due date.
	KindDueSoon Kind = "due_soon"
	// KindOverdue fires when an invoice passes its due date unpaid.
	KindOverdue Kind = "overdue"
)

// Priority orders alerts for the collections inbox.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
)

// Status is the alert lifecycle state.
type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
)

// DueSoonWindowDays is how many days before the due date warnings start.
const DueSoonWindowDays = 5

// HighPriorityThresholdDays marks the cutoff below which a due-soon alert is
// raised to high priority.
const HighPriorityThresholdDays = 3

// Alert is a collections notification attached to one invoice. At most one
// open alert per invoice and kind exists at a time.
type Alert struct {
	entity.BaseEntity

	InvoiceID     id.ID    `db:"invoice_id" json:"invoiceId"`
	InvoiceNumber string   `db:"invoice_number" json:"invoiceNumber"`
	Kind          Kind     `db:"kind" json:"kind"`
	Priority      Priority `db:"priority" json:"priority"`
	Message       string   `db:"message" json:"message"`
	Status        Status   `db:"status" json:"status"`

	// RecipientIDs are the users the alert is addressed to: every manager
	// plus the invoice's assigned seller.
	RecipientIDs []string `db:"recipient_ids" json:"recipientIds"`

	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// New creates an open alert.
func New(invoiceID id.ID, invoiceNumber string, kind Kind, priority Priority, message string) *Alert {
	return &Alert{
		BaseEntity:    entity.NewBaseEntity(),
		InvoiceID:     invoiceID,
		InvoiceNumber: invoiceNumber,
		Kind:          kind,
		Priority:      priority,
		Message:       message,
		Status:        StatusOpen,
		CreatedAt:     time.Now(),
	}
}

// TableName returns the database table name.
func (a *Alert) TableName() string {
	return "alerts"
}

// PriorityForDaysUntilDue maps days remaining to a due-soon priority.
// Negative days mean the invoice is already past due.
func PriorityForDaysUntilDue(days int) Priority {
	switch {
	case days < 0:
		return PriorityCritical
	case days <= HighPriorityThresholdDays:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}
