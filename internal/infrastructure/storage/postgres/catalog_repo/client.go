// Package catalog_repo provides PostgreSQL repositories for the catalogs:
// clients with their branches, and payment accounts.
package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"cartera/internal/core/id"
	"cartera/internal/domain"
	"cartera/internal/domain/client"
	"cartera/internal/infrastructure/storage/postgres"
)

// Compile-time check.
var _ client.Repository = (*ClientRepo)(nil)

// ClientRepo implements client.Repository on PostgreSQL.
type ClientRepo struct {
	*postgres.BaseRepo[*client.Client]
	branches *postgres.BaseRepo[*client.Branch]
}

// NewClientRepo creates the client repository.
func NewClientRepo(txm *postgres.TxManager) *ClientRepo {
	return &ClientRepo{
		BaseRepo: postgres.NewBaseRepo(txm, "clients", func() *client.Client {
			return &client.Client{}
		}),
		branches: postgres.NewBaseRepo(txm, "client_branches", func() *client.Branch {
			return &client.Branch{}
		}),
	}
}

// GetByCode retrieves a client by code.
func (r *ClientRepo) GetByCode(ctx context.Context, code string) (*client.Client, error) {
	q := r.Select().
		Where(squirrel.Eq{"code": code}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)
	return r.FindOne(ctx, q, code)
}

// ExistsByCode checks for a live client with the given code.
func (r *ClientRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.ExistsWhere(ctx,
		squirrel.Eq{"code": code},
		squirrel.Eq{"deletion_mark": false},
	)
}

// List retrieves clients with filtering and pagination.
func (r *ClientRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*client.Client], error) {
	q := r.Select()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"tax_id": pattern},
		})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	if filter.SellerID != nil {
		q = q.Where(squirrel.Eq{"seller_id": *filter.SellerID})
	}

	return r.ListWith(ctx, q, filter, "name ASC")
}

// Delete soft-deletes a client. The service checks HasInvoices first.
func (r *ClientRepo) Delete(ctx context.Context, clientID id.ID) error {
	return r.SetDeletionMark(ctx, clientID, true)
}

// HasInvoices reports whether any invoice references the client.
func (r *ClientRepo) HasInvoices(ctx context.Context, clientID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From("invoices").
		Where(squirrel.Eq{"client_id": clientID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if postgres.IsNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateBranch inserts a branch.
func (r *ClientRepo) CreateBranch(ctx context.Context, b *client.Branch) error {
	return r.branches.Create(ctx, b)
}

// UpdateBranch modifies a branch.
func (r *ClientRepo) UpdateBranch(ctx context.Context, b *client.Branch) error {
	return r.branches.Update(ctx, b)
}

// GetBranch retrieves a branch.
func (r *ClientRepo) GetBranch(ctx context.Context, branchID id.ID) (*client.Branch, error) {
	return r.branches.GetByID(ctx, branchID)
}

// ListBranches lists the live branches of a client.
func (r *ClientRepo) ListBranches(ctx context.Context, clientID id.ID) ([]*client.Branch, error) {
	q := r.branches.Select().
		Where(squirrel.Eq{"client_id": clientID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name ASC")
	return r.branches.FindMany(ctx, q)
}

// DeleteBranch removes a branch.
func (r *ClientRepo) DeleteBranch(ctx context.Context, branchID id.ID) error {
	return r.branches.Delete(ctx, branchID)
}
