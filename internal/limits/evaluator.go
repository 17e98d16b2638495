package limits

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"transaction-service/internal/domain/transaction"
	"transaction-service/internal/ledger"
	apierrors "transaction-service/internal/pkg/errors"
	"transaction-service/internal/pkg/logging"
)

// Evaluator checks a prospective transaction against its limit row,
// running the ordered checks spec §4.2 lists: per-transaction, then
// daily amount/count, then monthly amount/count, reporting the most
// specific dimension that rejected it.
type Evaluator struct {
	repo   Repository
	ledger ledger.Store
}

func NewEvaluator(repo Repository, store ledger.Store) *Evaluator {
	return &Evaluator{repo: repo, ledger: store}
}

// Evaluate returns the limits decision for a debit-side amount, or a
// ServiceUnavailable *errors.Error if the evaluator itself could not run
// (spec §4.2: errors reject conservatively, fail-safe, as a distinct
// error class rather than a business rejection).
func (e *Evaluator) Evaluate(ctx context.Context, accountID string, accountType transaction.AccountType, txType transaction.Type, amount decimal.Decimal) (transaction.Decision, error) {
	limit, err := e.repo.Find(ctx, accountType, txType)
	if err != nil {
		logging.Error("limits evaluator lookup failed, rejecting conservatively", err, map[string]interface{}{
			"accountId": accountID, "accountType": accountType, "txType": txType,
		})
		return transaction.Decision{}, apierrors.ServiceUnavailable("limits evaluator is unavailable", 5)
	}
	if limit == nil || !limit.Active {
		return transaction.Allow(), nil
	}

	if limit.PerTransactionLimit != nil && amount.GreaterThan(*limit.PerTransactionLimit) {
		return transaction.Reject(transaction.LimitReasonPerTxn), nil
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	daily, err := e.ledger.SumAccountActivity(ctx, accountID, ledger.SideDebit, txType, dayStart, now)
	if err != nil {
		logging.Error("limits evaluator daily aggregation failed, rejecting conservatively", err, map[string]interface{}{"accountId": accountID})
		return transaction.Decision{}, apierrors.ServiceUnavailable("limits evaluator is unavailable", 5)
	}
	if limit.DailyLimit != nil && daily.TotalAmount.Add(amount).GreaterThan(*limit.DailyLimit) {
		return transaction.Reject(transaction.LimitReasonDailyAmount), nil
	}
	if limit.DailyCount != nil && daily.Count >= *limit.DailyCount {
		return transaction.Reject(transaction.LimitReasonDailyCount), nil
	}

	monthly, err := e.ledger.SumAccountActivity(ctx, accountID, ledger.SideDebit, txType, monthStart, now)
	if err != nil {
		logging.Error("limits evaluator monthly aggregation failed, rejecting conservatively", err, map[string]interface{}{"accountId": accountID})
		return transaction.Decision{}, apierrors.ServiceUnavailable("limits evaluator is unavailable", 5)
	}
	if limit.MonthlyLimit != nil && monthly.TotalAmount.Add(amount).GreaterThan(*limit.MonthlyLimit) {
		return transaction.Reject(transaction.LimitReasonMonthlyAmount), nil
	}
	if limit.MonthlyCount != nil && monthly.Count >= *limit.MonthlyCount {
		return transaction.Reject(transaction.LimitReasonMonthlyCount), nil
	}

	return transaction.Allow(), nil
}

// RemainingDaily reports the unused daily amount and count for a
// dimension, for the limits-introspection endpoint (spec §4.2).
func (e *Evaluator) RemainingDaily(ctx context.Context, accountID string, accountType transaction.AccountType, txType transaction.Type) (amount decimal.Decimal, count int, err error) {
	limit, err := e.repo.Find(ctx, accountType, txType)
	if err != nil {
		return decimal.Zero, 0, apierrors.ServiceUnavailable("limits evaluator is unavailable", 5)
	}
	if limit == nil || !limit.Active || limit.DailyLimit == nil {
		return decimal.Zero, 0, nil
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	used, err := e.ledger.SumAccountActivity(ctx, accountID, ledger.SideDebit, txType, dayStart, now)
	if err != nil {
		return decimal.Zero, 0, apierrors.ServiceUnavailable("limits evaluator is unavailable", 5)
	}

	remainingAmount := limit.DailyLimit.Sub(used.TotalAmount)
	if remainingAmount.IsNegative() {
		remainingAmount = decimal.Zero
	}
	remainingCount := 0
	if limit.DailyCount != nil {
		remainingCount = *limit.DailyCount - used.Count
		if remainingCount < 0 {
			remainingCount = 0
		}
	}
	return remainingAmount, remainingCount, nil
}
