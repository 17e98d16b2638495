package limits_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transaction-service/internal/domain/transaction"
	"transaction-service/internal/ledger"
	"transaction-service/internal/limits"
)

type fakeRepository struct {
	limit *transaction.Limit
	err   error
}

func (f *fakeRepository) Find(ctx context.Context, accountType transaction.AccountType, txType transaction.Type) (*transaction.Limit, error) {
	return f.limit, f.err
}

type fakeLedgerStore struct {
	ledger.Store
	activity ledger.ActivitySummary
	err      error
}

func (f *fakeLedgerStore) SumAccountActivity(ctx context.Context, accountID string, side ledger.AccountSide, txType transaction.Type, from, to time.Time) (ledger.ActivitySummary, error) {
	return f.activity, f.err
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(i int) *int { return &i }

func TestEvaluate_NoLimitRowAllows(t *testing.T) {
	eval := limits.NewEvaluator(&fakeRepository{}, &fakeLedgerStore{})

	decision, err := eval.Evaluate(context.Background(), "acct-1", transaction.AccountTypeDebit, transaction.TypeWithdrawal, decimal.NewFromInt(100))

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestEvaluate_PerTransactionLimitRejects(t *testing.T) {
	repo := &fakeRepository{limit: &transaction.Limit{Active: true, PerTransactionLimit: amount("50.00")}}
	eval := limits.NewEvaluator(repo, &fakeLedgerStore{})

	decision, err := eval.Evaluate(context.Background(), "acct-1", transaction.AccountTypeDebit, transaction.TypeWithdrawal, decimal.RequireFromString("100.00"))

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, transaction.LimitReasonPerTxn, decision.Reason)
}

func TestEvaluate_DailyAmountRejects(t *testing.T) {
	repo := &fakeRepository{limit: &transaction.Limit{Active: true, DailyLimit: amount("1000.00")}}
	store := &fakeLedgerStore{activity: ledger.ActivitySummary{TotalAmount: decimal.RequireFromString("950.00")}}
	eval := limits.NewEvaluator(repo, store)

	decision, err := eval.Evaluate(context.Background(), "acct-1", transaction.AccountTypeDebit, transaction.TypeWithdrawal, decimal.RequireFromString("100.00"))

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, transaction.LimitReasonDailyAmount, decision.Reason)
}

func TestEvaluate_DailyCountRejectsBeforeMonthlyChecksRun(t *testing.T) {
	repo := &fakeRepository{limit: &transaction.Limit{Active: true, DailyCount: intPtr(5), MonthlyLimit: amount("1.00")}}
	store := &fakeLedgerStore{activity: ledger.ActivitySummary{TotalAmount: decimal.RequireFromString("5.00"), Count: 5}}
	eval := limits.NewEvaluator(repo, store)

	decision, err := eval.Evaluate(context.Background(), "acct-1", transaction.AccountTypeDebit, transaction.TypeWithdrawal, decimal.RequireFromString("0.01"))

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, transaction.LimitReasonDailyCount, decision.Reason)
}

func TestEvaluate_InactiveLimitRowAllows(t *testing.T) {
	repo := &fakeRepository{limit: &transaction.Limit{Active: false, PerTransactionLimit: amount("1.00")}}
	eval := limits.NewEvaluator(repo, &fakeLedgerStore{})

	decision, err := eval.Evaluate(context.Background(), "acct-1", transaction.AccountTypeDebit, transaction.TypeWithdrawal, decimal.RequireFromString("1000.00"))

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestEvaluate_RepositoryErrorFailsSafe(t *testing.T) {
	repo := &fakeRepository{err: assert.AnError}
	eval := limits.NewEvaluator(repo, &fakeLedgerStore{})

	_, err := eval.Evaluate(context.Background(), "acct-1", transaction.AccountTypeDebit, transaction.TypeWithdrawal, decimal.NewFromInt(1))

	require.Error(t, err)
}

func TestEvaluate_LedgerErrorFailsSafe(t *testing.T) {
	repo := &fakeRepository{limit: &transaction.Limit{Active: true, DailyLimit: amount("100.00")}}
	store := &fakeLedgerStore{err: assert.AnError}
	eval := limits.NewEvaluator(repo, store)

	_, err := eval.Evaluate(context.Background(), "acct-1", transaction.AccountTypeDebit, transaction.TypeWithdrawal, decimal.NewFromInt(1))

	require.Error(t, err)
}
