// Package account holds the catalog of destination accounts money can be
// paid into: bank accounts and cash boxes.
package account

import (
	"context"
	"fmt"

	"cartera/internal/core/apperror"
	"cartera/internal/core/entity"
	"cartera/internal/core/id"
	"cartera/internal/core/tx"
	"cartera/internal/domain"
	"cartera/pkg/logger"
)

// Kind distinguishes bank accounts from cash boxes.
type Kind string

const (
	KindBank Kind = "bank"
	KindCash Kind = "cash"
)

// Account is a destination for payment funds.
type Account struct {
	entity.Catalog

	Kind     Kind   `db:"kind" json:"kind"`
	BankName string `db:"bank_name" json:"bankName,omitempty"`
	Number   string `db:"number" json:"number,omitempty"`
	Holder   string `db:"holder" json:"holder,omitempty"`
	Active   bool   `db:"active" json:"active"`
}

// New creates an active account.
func New(code, name string, kind Kind) *Account {
	return &Account{
		Catalog: entity.NewCatalog(code, name),
		Kind:    kind,
		Active:  true,
	}
}

// TableName returns the database table name.
func (a *Account) TableName() string {
	return "payment_accounts"
}

// Validate checks account business rules.
func (a *Account) Validate(ctx context.Context) error {
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}
	switch a.Kind {
	case KindBank:
		if a.BankName == "" || a.Number == "" {
			return apperror.NewValidation("bank accounts require a bank name and number")
		}
	case KindCash:
	default:
		return apperror.NewValidation("invalid account kind").
			WithDetail("kind", string(a.Kind))
	}
	return nil
}

// Repository is the persistence port for accounts.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	Update(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, accountID id.ID) (*Account, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Account], error)
}

// Service provides business operations for payment accounts.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new account service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create validates and persists a new account.
func (s *Service) Create(ctx context.Context, a *Account) error {
	if err := a.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.repo.ExistsByCode(ctx, a.Code)
	if err != nil {
		return fmt.Errorf("check account code: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("account", "code", a.Code)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "payment account created", "code", a.Code, "kind", string(a.Kind))
	return nil
}

// Update modifies an account.
func (s *Service) Update(ctx context.Context, a *Account) error {
	if err := a.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, a)
	})
}

// GetByID retrieves an account.
func (s *Service) GetByID(ctx context.Context, accountID id.ID) (*Account, error) {
	return s.repo.GetByID(ctx, accountID)
}

// Deactivate retires an account from new payments without deleting history.
func (s *Service) Deactivate(ctx context.Context, accountID id.ID) error {
	a, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !a.Active {
		return nil
	}
	a.Active = false
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, a)
	})
}

// List retrieves accounts with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Account], error) {
	return s.repo.List(ctx, filter)
}
