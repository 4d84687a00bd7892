// Package auth_repo provides the PostgreSQL user repository.
package auth_repo

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"

	"cartera/internal/domain"
	"cartera/internal/domain/auth"
	"cartera/internal/infrastructure/storage/postgres"
)

// Compile-time check.
var _ auth.Repository = (*Repo)(nil)

// Repo implements auth.Repository on PostgreSQL. Roles are stored in a
// text[] column.
type Repo struct {
	*postgres.BaseRepo[*auth.User]
}

// New creates the user repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{
		BaseRepo: postgres.NewBaseRepo(txm, "users", func() *auth.User {
			return &auth.User{}
		}),
	}
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *Repo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	q := r.Select().
		Where(squirrel.Eq{"email": strings.ToLower(email)}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)
	return r.FindOne(ctx, q, email)
}

// ExistsByEmail checks for a live user with the given email.
func (r *Repo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.ExistsWhere(ctx,
		squirrel.Eq{"email": strings.ToLower(email)},
		squirrel.Eq{"deletion_mark": false},
	)
}

// ListByRole returns the active users holding a role.
func (r *Repo) ListByRole(ctx context.Context, role string) ([]*auth.User, error) {
	q := r.Select().
		Where(squirrel.Expr("? = ANY(roles)", role)).
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name ASC")
	return r.FindMany(ctx, q)
}

// List retrieves users with filtering and pagination.
func (r *Repo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*auth.User], error) {
	q := r.Select()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"email": pattern},
		})
	}

	return r.ListWith(ctx, q, filter, "name ASC")
}
