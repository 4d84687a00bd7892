package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"cartera/internal/core/apperror"
	"cartera/internal/core/id"
	"cartera/internal/domain"
)

// IsNoRows reports whether the error is pgx.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// BaseRepo provides common CRUD operations for entities persisted by their
// "db" tags. Embed it in concrete repositories and extend with the queries
// the domain interface requires.
type BaseRepo[T any] struct {
	txm        *TxManager
	tableName  string
	selectCols []string
	newFn      func() T
}

// NewBaseRepo creates a base repository bound to a transaction manager.
func NewBaseRepo[T any](txm *TxManager, tableName string, newFn func() T) *BaseRepo[T] {
	return &BaseRepo[T]{
		txm:        txm,
		tableName:  tableName,
		selectCols: ExtractDBColumns[T](),
		newFn:      newFn,
	}
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (r *BaseRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Querier returns the ambient transaction or the pool.
func (r *BaseRepo[T]) Querier(ctx context.Context) Querier {
	return r.txm.GetQuerier(ctx)
}

// TableName returns the bound table.
func (r *BaseRepo[T]) TableName() string {
	return r.tableName
}

// Create inserts a new entity using its "db" tags.
func (r *BaseRepo[T]) Create(ctx context.Context, entity T) error {
	data := StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	q := r.Builder().
		Insert(r.tableName).
		SetMap(r.filterColumns(data, nil))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict("entity already exists").
				WithDetail("entity", r.tableName).
				WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// Update modifies an existing entity with optimistic locking on the version
// column.
func (r *BaseRepo[T]) Update(ctx context.Context, entity T) error {
	data := StructToMap(entity)
	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field with db tag")
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	q := r.Builder().
		Update(r.tableName).
		SetMap(r.filterColumns(data, map[string]bool{"id": true, "version": true, "created_at": true})).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.tableName, entityID)
	}
	return nil
}

// Select creates a SELECT builder over the entity's columns.
func (r *BaseRepo[T]) Select() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves an entity by ID.
func (r *BaseRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	q := r.Select().
		Where(squirrel.Eq{"id": entityID}).
		Limit(1)
	return r.FindOne(ctx, q, entityID.String())
}

// GetForUpdate retrieves an entity by ID with a row lock. Must run inside a
// transaction.
func (r *BaseRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	q := r.Select().
		Where(squirrel.Eq{"id": entityID}).
		Suffix("FOR UPDATE")
	return r.FindOne(ctx, q, entityID.String())
}

// FindOne executes a SELECT and scans a single entity.
func (r *BaseRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, ref string) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.tableName, ref)
		}
		return entity, fmt.Errorf("query %s: %w", r.tableName, err)
	}
	return entity, nil
}

// FindMany executes a SELECT and scans all rows.
func (r *BaseRepo[T]) FindMany(ctx context.Context, q squirrel.SelectBuilder) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []T
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", r.tableName, err)
	}
	return items, nil
}

// ExistsWhere checks for at least one row matching the conditions.
func (r *BaseRepo[T]) ExistsWhere(ctx context.Context, conds ...squirrel.Sqlizer) (bool, error) {
	q := r.Builder().
		Select("1").
		From(r.tableName).
		Limit(1)
	for _, c := range conds {
		q = q.Where(c)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.tableName, err)
	}
	return true, nil
}

// ListWith runs the standard paginated listing over a prepared SELECT: count
// first, then order and page.
func (r *BaseRepo[T]) ListWith(ctx context.Context, q squirrel.SelectBuilder, filter domain.ListFilter, defaultOrder string) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	countQ := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := r.Querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy, defaultOrder)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.Querier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return result, nil
}

// Delete physically removes an entity.
func (r *BaseRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	q := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		// 23503: referenced by other rows
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NewConflict("entity is referenced by other records").
				WithDetail("entity", r.tableName).
				WithDetail("id", entityID.String()).
				WithCause(err)
		}
		return fmt.Errorf("execute delete %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, entityID.String())
	}
	return nil
}

// SetDeletionMark sets or clears the soft-delete mark.
func (r *BaseRepo[T]) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	q := r.Builder().
		Update(r.tableName).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("execute set deletion mark: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, entityID.String())
	}
	return nil
}

func (r *BaseRepo[T]) filterColumns(data map[string]any, exclude map[string]bool) map[string]any {
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if exclude[col] {
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return filtered
}

// parseOrderBy validates an "field" / "-field" ordering against the entity's
// columns.
func (r *BaseRepo[T]) parseOrderBy(orderBy, defaultOrder string) (string, error) {
	if orderBy == "" {
		return defaultOrder, nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}
	field = strings.TrimSpace(field)

	for _, col := range r.selectCols {
		if col == field {
			return field + " " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid orderBy").
		WithDetail("orderBy", orderBy).
		WithDetail("field", field)
}
