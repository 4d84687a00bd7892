package client

import (
	"context"
	"fmt"

	"cartera/internal/core/apperror"
	"cartera/internal/core/id"
	"cartera/internal/core/tx"
	"cartera/internal/domain"
	"cartera/pkg/logger"
)

// Repository is the persistence port for clients and their branches.
type Repository interface {
	Create(ctx context.Context, c *Client) error
	Update(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, clientID id.ID) (*Client, error)
	GetByCode(ctx context.Context, code string) (*Client, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Client], error)
	Delete(ctx context.Context, clientID id.ID) error

	CreateBranch(ctx context.Context, b *Branch) error
	UpdateBranch(ctx context.Context, b *Branch) error
	GetBranch(ctx context.Context, branchID id.ID) (*Branch, error)
	ListBranches(ctx context.Context, clientID id.ID) ([]*Branch, error)
	DeleteBranch(ctx context.Context, branchID id.ID) error

	// HasInvoices guards deletion: clients referenced by invoices are kept.
	HasInvoices(ctx context.Context, clientID id.ID) (bool, error)
}

// Service provides business operations for the client directory.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new client service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create validates and persists a new client.
func (s *Service) Create(ctx context.Context, c *Client) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.repo.ExistsByCode(ctx, c.Code)
	if err != nil {
		return fmt.Errorf("check client code: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("client", "code", c.Code)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "client created", "code", c.Code, "name", c.Name)
	return nil
}

// Update modifies an existing client.
func (s *Service) Update(ctx context.Context, c *Client) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, c)
	})
}

// GetByID retrieves a client.
func (s *Service) GetByID(ctx context.Context, clientID id.ID) (*Client, error) {
	return s.repo.GetByID(ctx, clientID)
}

// GetByCode retrieves a client by code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Client, error) {
	return s.repo.GetByCode(ctx, code)
}

// List retrieves clients with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Client], error) {
	return s.repo.List(ctx, filter)
}

// Delete marks a client deleted. Clients referenced by invoices are kept.
func (s *Service) Delete(ctx context.Context, clientID id.ID) error {
	hasInvoices, err := s.repo.HasInvoices(ctx, clientID)
	if err != nil {
		return fmt.Errorf("check client invoices: %w", err)
	}
	if hasInvoices {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"clients with invoices cannot be deleted")
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, clientID)
	})
}

// AddBranch validates and persists a branch.
func (s *Service) AddBranch(ctx context.Context, b *Branch) error {
	if err := b.Validate(ctx); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, b.ClientID); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.CreateBranch(ctx, b)
	})
}

// UpdateBranch modifies a branch.
func (s *Service) UpdateBranch(ctx context.Context, b *Branch) error {
	if err := b.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.UpdateBranch(ctx, b)
	})
}

// Branches lists the branches of a client.
func (s *Service) Branches(ctx context.Context, clientID id.ID) ([]*Branch, error) {
	return s.repo.ListBranches(ctx, clientID)
}

// DeleteBranch removes a branch.
func (s *Service) DeleteBranch(ctx context.Context, branchID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.DeleteBranch(ctx, branchID)
	})
}
