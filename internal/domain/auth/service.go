package auth

import (
	"context"
	"fmt"

	"cartera/internal/core/apperror"
	"cartera/internal/core/id"
	"cartera/internal/core/tx"
	"cartera/internal/domain"
	"cartera/pkg/logger"
)

// Repository is the persistence port for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*User], error)

	// ListByRole backs alert recipient resolution.
	ListByRole(ctx context.Context, role string) ([]*User, error)
}

// Service handles authentication and user management.
type Service struct {
	repo      Repository
	tokens    *TokenService
	txManager tx.Manager
}

// NewService creates a new auth service.
func NewService(repo Repository, tokens *TokenService, txManager tx.Manager) *Service {
	return &Service{repo: repo, tokens: tokens, txManager: txManager}
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Same answer as a bad password so emails cannot be probed.
			return "", nil, apperror.NewUnauthorized("invalid credentials")
		}
		return "", nil, err
	}

	if !u.Active {
		return "", nil, apperror.NewUnauthorized("account is disabled")
	}
	if !u.CheckPassword(password) {
		logger.Warn(ctx, "failed login attempt", "email", email)
		return "", nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "user logged in", "user_id", u.ID, "email", u.Email)
	return token, u, nil
}

// CreateUser registers a new operator.
func (s *Service) CreateUser(ctx context.Context, u *User, password string) error {
	if err := u.Validate(ctx); err != nil {
		return err
	}
	if err := u.SetPassword(password); err != nil {
		return err
	}

	exists, err := s.repo.ExistsByEmail(ctx, u.Email)
	if err != nil {
		return fmt.Errorf("check user email: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("user", "email", u.Email)
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, u)
	})
}

// ChangePassword sets a new password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID id.ID, current, next string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.CheckPassword(current) {
		return apperror.NewUnauthorized("current password is incorrect")
	}
	if err := u.SetPassword(next); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, u)
	})
}

// GetByID retrieves a user.
func (s *Service) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// ListByRole returns the active users holding a role.
func (s *Service) ListByRole(ctx context.Context, role string) ([]*User, error) {
	return s.repo.ListByRole(ctx, role)
}

// List retrieves users with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*User], error) {
	return s.repo.List(ctx, filter)
}
