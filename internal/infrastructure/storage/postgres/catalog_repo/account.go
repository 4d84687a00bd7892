package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"cartera/internal/domain"
	"cartera/internal/domain/account"
	"cartera/internal/infrastructure/storage/postgres"
)

// Compile-time check.
var _ account.Repository = (*AccountRepo)(nil)

// AccountRepo implements account.Repository on PostgreSQL.
type AccountRepo struct {
	*postgres.BaseRepo[*account.Account]
}

// NewAccountRepo creates the payment account repository.
func NewAccountRepo(txm *postgres.TxManager) *AccountRepo {
	return &AccountRepo{
		BaseRepo: postgres.NewBaseRepo(txm, "payment_accounts", func() *account.Account {
			return &account.Account{}
		}),
	}
}

// ExistsByCode checks for a live account with the given code.
func (r *AccountRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.ExistsWhere(ctx,
		squirrel.Eq{"code": code},
		squirrel.Eq{"deletion_mark": false},
	)
}

// List retrieves accounts with filtering and pagination.
func (r *AccountRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*account.Account], error) {
	q := r.Select()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		})
	}
	if filter.Status == "active" {
		q = q.Where(squirrel.Eq{"active": true})
	}

	return r.ListWith(ctx, q, filter, "name ASC")
}
