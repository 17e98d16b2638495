package limits

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"transaction-service/internal/domain/transaction"
)

// PostgresRepository reads limit rows from the transaction_limits table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Find(ctx context.Context, accountType transaction.AccountType, txType transaction.Type) (*transaction.Limit, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT account_type, transaction_type,
			per_transaction_limit, daily_limit, monthly_limit, daily_count, monthly_count, active
		FROM transaction_limits
		WHERE account_type = $1 AND transaction_type = $2`, accountType, txType)

	var limit transaction.Limit
	err := row.Scan(
		&limit.AccountType, &limit.TransactionType,
		&limit.PerTransactionLimit, &limit.DailyLimit, &limit.MonthlyLimit,
		&limit.DailyCount, &limit.MonthlyCount, &limit.Active,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find limit row for %s/%s: %w", accountType, txType, err)
	}
	return &limit, nil
}
