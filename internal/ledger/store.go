// Package ledger is the transaction service's system of record (spec §4.1,
// C1): every transaction row, immutable once FAILED/REVERSED (a COMPLETED
// row changes only to REVERSED), searchable and paginated. Grounded on the
// teacher's pgx pool usage in
// internal/infrastructure/database/postgres/postgres.go, generalized from
// account-balance rows to transaction rows; concurrent updates are guarded
// by an optimistic version check, not row locks. Also grounded on the ledger/store
// interface shape in AntoineToussaint-timeoff's generic ledger package.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"transaction-service/internal/domain/transaction"
)

// Store is the persistence contract the engine, API handlers, and
// scheduler depend on.
type Store interface {
	Insert(ctx context.Context, tx *transaction.Transaction) error
	Update(ctx context.Context, tx *transaction.Transaction) error

	FindByID(ctx context.Context, id string) (*transaction.Transaction, error)
	PageByAccount(ctx context.Context, accountID string, page, size int) (transaction.Page[transaction.Transaction], error)
	PageByUser(ctx context.Context, userID string, page, size int) (transaction.Page[transaction.Transaction], error)
	PageByStatus(ctx context.Context, status transaction.Status, page, size int) (transaction.Page[transaction.Transaction], error)

	FindStaleProcessing(ctx context.Context, olderThan time.Duration) ([]transaction.Transaction, error)
	FindReversalOf(ctx context.Context, originalTransactionID string) (*transaction.Transaction, error)
	IsReversed(ctx context.Context, transactionID string) (bool, error)

	Search(ctx context.Context, filter transaction.SearchFilter, page, size int) (transaction.Page[transaction.Transaction], error)
	Stats(ctx context.Context, start, end time.Time) (transaction.Stats, error)
	AccountStats(ctx context.Context, accountID string, start, end time.Time) (transaction.Stats, error)
	UserStats(ctx context.Context, userID string, start, end time.Time) (transaction.Stats, error)

	// SumAccountActivity returns the total debited/credited amount and
	// count of COMPLETED transactions an account took part in within a
	// window, the building block the limits evaluator uses for its
	// daily/monthly dimensions (spec §4.2).
	SumAccountActivity(ctx context.Context, accountID string, accountSide AccountSide, txType transaction.Type, from, to time.Time) (ActivitySummary, error)
}

// AccountSide distinguishes the debit leg from the credit leg of a
// transaction when aggregating per-account activity.
type AccountSide string

const (
	SideDebit  AccountSide = "debit"
	SideCredit AccountSide = "credit"
)

// ActivitySummary is the aggregation the limits evaluator consumes.
type ActivitySummary struct {
	TotalAmount decimal.Decimal
	Count       int
}

// ErrNotFound is returned by FindByID/FindReversalOf when no row matches.
var ErrNotFound = storeError("transaction not found")

type storeError string

func (e storeError) Error() string { return string(e) }
