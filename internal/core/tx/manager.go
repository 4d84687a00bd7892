// Package tx provides transaction management abstractions.
// The interfaces here decouple domain logic from the specific database
// implementation; the Postgres implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested transaction
// support.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context, so a payment
	// confirmation can lock the invoice row and re-sum confirmed payments
	// inside one atomic unit.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
// Use for aggregation queries that don't modify data.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	// Attempts to modify data will fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
