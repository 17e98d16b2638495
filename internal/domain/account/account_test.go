package account_test

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transaction-service/internal/domain/account"
	"transaction-service/internal/domain/models"
	"transaction-service/internal/domain/transaction"
)

func newTestAccount(balance string) *models.Account {
	return &models.Account{
		ID:          "acct-1",
		AccountType: transaction.AccountTypeDebit,
		Active:      true,
		Balance:     decimal.RequireFromString(balance),
	}
}

func TestApplyDelta_Credit(t *testing.T) {
	acc := newTestAccount("1000.00")

	newBalance, err := account.ApplyDelta(acc, decimal.RequireFromString("500.00"), false)

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1500.00").Equal(newBalance))
	assert.Equal(t, int64(1), acc.Version)
}

func TestApplyDelta_DebitWithinBalance(t *testing.T) {
	acc := newTestAccount("1000.00")

	newBalance, err := account.ApplyDelta(acc, decimal.RequireFromString("-300.00"), false)

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("700.00").Equal(newBalance))
}

func TestApplyDelta_RejectsNegativeWithoutAllowance(t *testing.T) {
	acc := newTestAccount("200.00")

	_, err := account.ApplyDelta(acc, decimal.RequireFromString("-500.00"), false)

	require.Error(t, err)
	assert.True(t, decimal.RequireFromString("200.00").Equal(account.GetBalance(acc)))
}

func TestApplyDelta_AllowsNegativeForCreditAccounts(t *testing.T) {
	acc := newTestAccount("0.00")
	acc.AccountType = transaction.AccountTypeCredit

	newBalance, err := account.ApplyDelta(acc, decimal.RequireFromString("-50.00"), true)

	require.NoError(t, err)
	assert.True(t, newBalance.IsNegative())
}

func TestGetBalance(t *testing.T) {
	acc := newTestAccount("500.00")
	assert.True(t, decimal.RequireFromString("500.00").Equal(account.GetBalance(acc)))
}

func TestConcurrentApplyDelta(t *testing.T) {
	acc := newTestAccount("0.00")
	var wg sync.WaitGroup
	n := 100
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := account.ApplyDelta(acc, decimal.NewFromInt(1), false)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, decimal.NewFromInt(int64(n)).Equal(account.GetBalance(acc)))
	assert.Equal(t, int64(n), acc.Version)
}
