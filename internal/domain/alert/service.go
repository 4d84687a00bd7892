package alert

import (
	"context"
	"fmt"
	"time"

	"cartera/internal/core/id"
	"cartera/internal/domain"
	"cartera/internal/domain/auth"
	"cartera/internal/domain/authz"
	"cartera/internal/domain/invoice"
	"cartera/pkg/logger"
)

// Repository is the persistence port for alerts.
type Repository interface {
	Create(ctx context.Context, a *Alert) error

	// OpenExists reports whether an open alert of the given kind already
	// references the invoice. Backs scan deduplication.
	OpenExists(ctx context.Context, invoiceID id.ID, kind Kind) (bool, error)

	GetByID(ctx context.Context, alertID id.ID) (*Alert, error)
	ListOpen(ctx context.Context, recipientID string) ([]*Alert, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Alert], error)

	Resolve(ctx context.Context, alertID id.ID, at time.Time) error
	ResolveByInvoice(ctx context.Context, invoiceID id.ID, at time.Time) (int, error)
}

// UserDirectory resolves alert recipients.
type UserDirectory interface {
	ManagerIDs(ctx context.Context) ([]string, error)
}

// Service generates and manages collections alerts. It implements
// invoice.StatusObserver so overdue transitions raise alerts immediately and
// paid transitions resolve them.
type Service struct {
	repo     Repository
	invoices invoice.Repository
	users    UserDirectory

	now func() time.Time
}

// NewService creates a new alert service.
func NewService(repo Repository, invoices invoice.Repository, users UserDirectory) *Service {
	return &Service{
		repo:     repo,
		invoices: invoices,
		users:    users,
		now:      time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// InvoiceStatusChanged reacts to invoice transitions: entering overdue raises
// a critical alert, reaching paid or cancelled resolves whatever is open.
func (s *Service) InvoiceStatusChanged(ctx context.Context, inv *invoice.Invoice, from, to invoice.Status) {
	switch to {
	case invoice.StatusOverdue:
		if err := s.raiseOverdue(ctx, inv); err != nil {
			logger.Error(ctx, "raise overdue alert failed",
				"invoice", inv.Number, "error", err)
		}
	case invoice.StatusPaid, invoice.StatusCancelled:
		n, err := s.repo.ResolveByInvoice(ctx, inv.ID, s.now())
		if err != nil {
			logger.Error(ctx, "resolve alerts failed",
				"invoice", inv.Number, "error", err)
			return
		}
		if n > 0 {
			logger.Info(ctx, "alerts resolved", "invoice", inv.Number, "count", n)
		}
	}
}

// Scan walks unpaid invoices around their due date and creates the missing
// alerts. Idempotent: invoices that already carry an open alert of the same
// kind are skipped, so repeated runs add nothing.
func (s *Service) Scan(ctx context.Context) (int, error) {
	today := s.now()
	horizon := today.AddDate(0, 0, DueSoonWindowDays)

	candidates, err := s.invoices.ListUnpaidDueBetween(ctx, today.AddDate(0, 0, -365), horizon)
	if err != nil {
		return 0, fmt.Errorf("list alert candidates: %w", err)
	}

	created := 0
	for _, inv := range candidates {
		kind := KindDueSoon
		if inv.IsPastDueAt(today) {
			kind = KindOverdue
		}

		exists, err := s.repo.OpenExists(ctx, inv.ID, kind)
		if err != nil {
			return created, fmt.Errorf("check open alert: %w", err)
		}
		if exists {
			continue
		}

		var a *Alert
		if kind == KindOverdue {
			a = s.buildOverdue(inv, today)
		} else {
			a = s.buildDueSoon(inv, today)
		}
		if err := s.deliver(ctx, inv, a); err != nil {
			return created, err
		}
		created++
	}

	logger.Info(ctx, "alert scan finished",
		"candidates", len(candidates), "created", created)
	return created, nil
}

// ListOpen returns the open alerts addressed to a recipient, or every open
// alert when recipientID is empty.
func (s *Service) ListOpen(ctx context.Context, recipientID string) ([]*Alert, error) {
	return s.repo.ListOpen(ctx, recipientID)
}

// Resolve closes one alert by hand.
func (s *Service) Resolve(ctx context.Context, alertID id.ID) error {
	return s.repo.Resolve(ctx, alertID, s.now())
}

func (s *Service) raiseOverdue(ctx context.Context, inv *invoice.Invoice) error {
	exists, err := s.repo.OpenExists(ctx, inv.ID, KindOverdue)
	if err != nil {
		return fmt.Errorf("check open alert: %w", err)
	}
	if exists {
		return nil
	}
	return s.deliver(ctx, inv, s.buildOverdue(inv, s.now()))
}

func (s *Service) buildOverdue(inv *invoice.Invoice, today time.Time) *Alert {
	days := inv.DaysPastDueAt(today)
	msg := fmt.Sprintf("Invoice %s is %d day(s) past due", inv.Number, days)
	return New(inv.ID, inv.Number, KindOverdue, PriorityCritical, msg)
}

func (s *Service) buildDueSoon(inv *invoice.Invoice, today time.Time) *Alert {
	daysLeft := -inv.DaysPastDueAt(today)
	msg := fmt.Sprintf("Invoice %s is due in %d day(s)", inv.Number, daysLeft)
	return New(inv.ID, inv.Number, KindDueSoon, PriorityForDaysUntilDue(daysLeft), msg)
}

func (s *Service) deliver(ctx context.Context, inv *invoice.Invoice, a *Alert) error {
	managers, err := s.users.ManagerIDs(ctx)
	if err != nil {
		return fmt.Errorf("resolve alert recipients: %w", err)
	}
	a.RecipientIDs = managers
	if inv.SellerID != nil {
		a.RecipientIDs = appendUnique(a.RecipientIDs, inv.SellerID.String())
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	logger.Info(ctx, "alert created",
		"invoice", inv.Number, "kind", string(a.Kind), "priority", string(a.Priority))
	return nil
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// AuthDirectory adapts the user service's role listing to recipient lookup.
type AuthDirectory struct {
	Users interface {
		ListByRole(ctx context.Context, role string) ([]*auth.User, error)
	}
}

func (d AuthDirectory) ManagerIDs(ctx context.Context) ([]string, error) {
	users, err := d.Users.ListByRole(ctx, authz.RoleManager)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID.String())
	}
	return ids, nil
}
