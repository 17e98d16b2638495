package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"transaction-service/internal/domain/transaction"
)

// PostgresStore is the production Store, grounded on the teacher's
// pgxpool.Pool usage, generalized to transaction rows instead of
// account-balance rows. It takes no row locks and opens no explicit
// transactions; Update relies on the version check instead.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const txColumns = `
	id, type, from_account_id, to_account_id, amount, currency, status,
	description, reference, created_at, processed_at, reversed_at,
	created_by, processed_by, reversed_by,
	from_balance_before, from_balance_after, to_balance_before, to_balance_after,
	original_transaction_id, reversal_transaction_id, reversal_reason, failure_reason,
	version`

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var t transaction.Transaction
	var description, reference, createdBy, originalTxID, reversalTxID, reversalReason, failureReason *string
	var processedBy, reversedBy *string
	var processedAt, reversedAt *time.Time
	var fromBefore, fromAfter, toBefore, toAfter *decimal.Decimal

	err := row.Scan(
		&t.ID, &t.Type, &t.FromAccountID, &t.ToAccountID, &t.Amount, &t.Currency, &t.Status,
		&description, &reference, &t.CreatedAt, &processedAt, &reversedAt,
		&createdBy, &processedBy, &reversedBy,
		&fromBefore, &fromAfter, &toBefore, &toAfter,
		&originalTxID, &reversalTxID, &reversalReason, &failureReason,
		&t.Version,
	)
	if err != nil {
		return nil, err
	}

	if description != nil {
		t.Description = *description
	}
	if reference != nil {
		t.Reference = *reference
	}
	if createdBy != nil {
		t.CreatedBy = *createdBy
	}
	t.ProcessedBy = processedBy
	t.ReversedBy = reversedBy
	t.ProcessedAt = processedAt
	t.ReversedAt = reversedAt
	t.FromBalanceBefore = fromBefore
	t.FromBalanceAfter = fromAfter
	t.ToBalanceBefore = toBefore
	t.ToBalanceAfter = toAfter
	if originalTxID != nil {
		t.OriginalTransactionID = *originalTxID
	}
	if reversalTxID != nil {
		t.ReversalTransactionID = *reversalTxID
	}
	if reversalReason != nil {
		t.ReversalReason = *reversalReason
	}
	if failureReason != nil {
		t.FailureReason = *failureReason
	}
	return &t, nil
}

func (s *PostgresStore) Insert(ctx context.Context, t *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, type, from_account_id, to_account_id, amount, currency, status,
			description, reference, created_at, created_by,
			original_transaction_id, reversal_reason, version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,1)`

	_, err := s.pool.Exec(ctx, query,
		t.ID, t.Type, t.FromAccountID, t.ToAccountID, t.Amount, t.Currency, t.Status,
		nullable(t.Description), nullable(t.Reference), t.CreatedAt, t.CreatedBy,
		nullable(t.OriginalTransactionID), nullable(t.ReversalReason),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	t.Version = 1
	return nil
}

// Update performs an optimistic-concurrency write: it only succeeds if
// the row's version still matches what the caller loaded, so two
// concurrent transitions of the same transaction (e.g. a timeout sweep
// racing a slow engine call) can't silently clobber one another.
func (s *PostgresStore) Update(ctx context.Context, t *transaction.Transaction) error {
	query := `
		UPDATE transactions SET
			status = $1, processed_at = $2, reversed_at = $3,
			processed_by = $4, reversed_by = $5,
			from_balance_before = $6, from_balance_after = $7,
			to_balance_before = $8, to_balance_after = $9,
			reversal_transaction_id = $10, failure_reason = $11,
			version = version + 1
		WHERE id = $12 AND version = $13`

	tag, err := s.pool.Exec(ctx, query,
		t.Status, t.ProcessedAt, t.ReversedAt,
		t.ProcessedBy, t.ReversedBy,
		t.FromBalanceBefore, t.FromBalanceAfter,
		t.ToBalanceBefore, t.ToBalanceAfter,
		nullable(t.ReversalTransactionID), nullable(t.FailureReason),
		t.ID, t.Version,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update transaction %s: %w", t.ID, ErrVersionConflict)
	}
	t.Version++
	return nil
}

var ErrVersionConflict = errors.New("transaction version conflict")

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+txColumns+" FROM transactions WHERE id = $1", id)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction %s: %w", id, err)
	}
	return t, nil
}

func (s *PostgresStore) pageQuery(ctx context.Context, where string, args []interface{}, page, size int) (transaction.Page[transaction.Transaction], error) {
	var total int
	countQuery := "SELECT count(*) FROM transactions WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return transaction.Page[transaction.Transaction]{}, fmt.Errorf("count transactions: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM transactions WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		txColumns, where, len(args)+1, len(args)+2)
	args = append(args, size, page*size)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return transaction.Page[transaction.Transaction]{}, fmt.Errorf("page transactions: %w", err)
	}
	defer rows.Close()

	var content []transaction.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return transaction.Page[transaction.Transaction]{}, fmt.Errorf("scan transaction: %w", err)
		}
		content = append(content, *t)
	}
	return transaction.NewPage(content, page, size, total), rows.Err()
}

func (s *PostgresStore) PageByAccount(ctx context.Context, accountID string, page, size int) (transaction.Page[transaction.Transaction], error) {
	return s.pageQuery(ctx, "from_account_id = $1 OR to_account_id = $1", []interface{}{accountID}, page, size)
}

func (s *PostgresStore) PageByUser(ctx context.Context, userID string, page, size int) (transaction.Page[transaction.Transaction], error) {
	return s.pageQuery(ctx, "created_by = $1", []interface{}{userID}, page, size)
}

func (s *PostgresStore) PageByStatus(ctx context.Context, status transaction.Status, page, size int) (transaction.Page[transaction.Transaction], error) {
	return s.pageQuery(ctx, "status = $1", []interface{}{string(status)}, page, size)
}

// FindStaleProcessing finds rows stuck in PROCESSING past olderThan, the
// scheduler's stale-sweep source (spec §5, §4.4 step 8).
func (s *PostgresStore) FindStaleProcessing(ctx context.Context, olderThan time.Duration) ([]transaction.Transaction, error) {
	cutoff := time.Now().Add(-olderThan)
	rows, err := s.pool.Query(ctx, "SELECT "+txColumns+" FROM transactions WHERE status = $1 AND created_at < $2",
		transaction.StatusProcessing, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find stale processing transactions: %w", err)
	}
	defer rows.Close()

	var out []transaction.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stale transaction: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindReversalOf(ctx context.Context, originalTransactionID string) (*transaction.Transaction, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+txColumns+" FROM transactions WHERE original_transaction_id = $1", originalTransactionID)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find reversal of %s: %w", originalTransactionID, err)
	}
	return t, nil
}

// IsReversed reports whether transactionID has already been reversed. It
// consults both the row's own status and the reversal linkage (its own
// reversal_transaction_id, or a COMPLETED row pointing back via
// original_transaction_id) so a crash that completes the reversal but
// never commits the original's status update to REVERSED still reads as
// reversed, closing the partial-write gap spec §4.1 calls out.
func (s *PostgresStore) IsReversed(ctx context.Context, transactionID string) (bool, error) {
	const query = `
		SELECT
			t.status = 'REVERSED'
			OR t.reversal_transaction_id IS NOT NULL
			OR EXISTS (
				SELECT 1 FROM transactions r
				WHERE r.original_transaction_id = t.id AND r.status = 'COMPLETED'
			)
		FROM transactions t
		WHERE t.id = $1`

	var reversed bool
	err := s.pool.QueryRow(ctx, query, transactionID).Scan(&reversed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("check reversed status of %s: %w", transactionID, err)
	}
	return reversed, nil
}

// Search builds a dynamic WHERE clause from the supplied filter, matching
// the teacher's preference for explicit parameterized SQL over an ORM.
func (s *PostgresStore) Search(ctx context.Context, filter transaction.SearchFilter, page, size int) (transaction.Page[transaction.Transaction], error) {
	var clauses []string
	var args []interface{}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.AccountID != "" {
		args = append(args, filter.AccountID, filter.AccountID)
		clauses = append(clauses, fmt.Sprintf("(from_account_id = $%d OR to_account_id = $%d)", len(args)-1, len(args)))
	}
	if filter.CreatedBy != "" {
		add("created_by = $%d", filter.CreatedBy)
	}
	if filter.Type != "" {
		add("type = $%d", string(filter.Type))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= $%d", *filter.To)
	}
	if filter.MinAmount != nil {
		add("amount >= $%d", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		add("amount <= $%d", *filter.MaxAmount)
	}
	if filter.DescriptionLike != "" {
		add("description ILIKE $%d", "%"+filter.DescriptionLike+"%")
	}
	if filter.ReferenceLike != "" {
		add("reference ILIKE $%d", "%"+filter.ReferenceLike+"%")
	}

	where := "1=1"
	if len(clauses) > 0 {
		where = strings.Join(clauses, " AND ")
	}
	return s.pageQuery(ctx, where, args, page, size)
}

// Stats aggregates transactions in [start, end) for the reporting
// endpoint (spec §4.6). Zero activity still returns a fully-populated,
// never-null Stats.
func (s *PostgresStore) Stats(ctx context.Context, start, end time.Time) (transaction.Stats, error) {
	return s.statsWhere(ctx, "1=1", nil, start, end)
}

// AccountStats scopes the same aggregation to rows involving accountID,
// either leg, backing GET /api/transactions/account/{id}/stats.
func (s *PostgresStore) AccountStats(ctx context.Context, accountID string, start, end time.Time) (transaction.Stats, error) {
	return s.statsWhere(ctx, "(from_account_id = $3 OR to_account_id = $3)", []interface{}{accountID}, start, end)
}

// UserStats scopes the same aggregation to rows created_by userID,
// backing GET /api/transactions/user/{id}/stats.
func (s *PostgresStore) UserStats(ctx context.Context, userID string, start, end time.Time) (transaction.Stats, error) {
	return s.statsWhere(ctx, "created_by = $3", []interface{}{userID}, start, end)
}

// statsWhere is the shared aggregation behind Stats/AccountStats/UserStats:
// a group-by pass for counts/totals-by-type, plus a second pass for
// min/max/avg and in/out totals restricted to COMPLETED rows.
func (s *PostgresStore) statsWhere(ctx context.Context, where string, scopeArgs []interface{}, start, end time.Time) (transaction.Stats, error) {
	stats := transaction.ZeroStats(start, end)
	args := append([]interface{}{start, end}, scopeArgs...)

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT type, status, count(*), coalesce(sum(amount), 0)
		FROM transactions
		WHERE created_at >= $1 AND created_at < $2 AND %s
		GROUP BY type, status`, where), args...)
	if err != nil {
		return stats, fmt.Errorf("aggregate stats: %w", err)
	}
	defer rows.Close()

	var totalCount, completedCount int
	for rows.Next() {
		var txType transaction.Type
		var status transaction.Status
		var count int
		var sum decimal.Decimal
		if err := rows.Scan(&txType, &status, &count, &sum); err != nil {
			return stats, fmt.Errorf("scan stats row: %w", err)
		}

		stats.CountByType[txType] += count
		stats.TotalAmount = stats.TotalAmount.Add(sum)
		totalCount += count

		switch status {
		case transaction.StatusCompleted:
			completedCount += count
			if txType == transaction.TypeDeposit {
				stats.TotalDeposits = stats.TotalDeposits.Add(sum)
			}
		case transaction.StatusProcessing:
			stats.PendingTransactions += count
		case transaction.StatusFailed:
			stats.FailedTransactions += count
		case transaction.StatusReversed:
			stats.ReversedTransactions += count
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	stats.TotalTransactions = totalCount
	stats.CompletedTransactions = completedCount
	if totalCount > 0 {
		stats.SuccessRate = float64(completedCount) / float64(totalCount)
	}

	completedArgs := append(append([]interface{}{}, args...), transaction.StatusCompleted)
	completedStatusParam := len(args) + 1
	if err := s.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT coalesce(min(amount), 0), coalesce(max(amount), 0), coalesce(avg(amount), 0),
			coalesce(sum(amount) FILTER (WHERE type IN ('WITHDRAWAL','TRANSFER')), 0),
			coalesce(sum(amount) FILTER (WHERE type = 'DEPOSIT'), 0)
		FROM transactions
		WHERE created_at >= $1 AND created_at < $2 AND %s AND status = $%d`, where, completedStatusParam),
		completedArgs...,
	).Scan(&stats.MinAmount, &stats.MaxAmount, &stats.AvgAmount, &stats.AmountOut, &stats.AmountIn); err != nil {
		return stats, fmt.Errorf("aggregate amount stats: %w", err)
	}

	return stats, nil
}

func (s *PostgresStore) SumAccountActivity(ctx context.Context, accountID string, side AccountSide, txType transaction.Type, from, to time.Time) (ActivitySummary, error) {
	column := "from_account_id"
	if side == SideCredit {
		column = "to_account_id"
	}

	query := fmt.Sprintf(`
		SELECT count(*), coalesce(sum(amount), 0)
		FROM transactions
		WHERE %s = $1 AND type = $2 AND status = $3 AND created_at >= $4 AND created_at < $5`, column)

	var summary ActivitySummary
	err := s.pool.QueryRow(ctx, query, accountID, string(txType), string(transaction.StatusCompleted), from, to).
		Scan(&summary.Count, &summary.TotalAmount)
	if err != nil {
		return ActivitySummary{}, fmt.Errorf("sum account activity: %w", err)
	}
	return summary, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
