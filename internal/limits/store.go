// Package limits implements the transaction limits evaluator (spec §4.2,
// C2): a (account_type, transaction_type) limit row bounds per-transaction,
// daily, and monthly amount/count, checked in PER_TXN -> DAILY_* ->
// MONTHLY_* precedence. Grounded on the teacher's pgx query style in
// internal/infrastructure/database/postgres/postgres.go. Limit rows are
// read from the repository on every evaluation; they are not cached.
package limits

import (
	"context"

	"transaction-service/internal/domain/transaction"
)

// Repository resolves the active limit row for an (account type, tx type)
// pair, if one exists.
type Repository interface {
	Find(ctx context.Context, accountType transaction.AccountType, txType transaction.Type) (*transaction.Limit, error)
}
