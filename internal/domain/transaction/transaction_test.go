package transaction_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transaction-service/internal/domain/transaction"
)

func TestStatus_TerminalReportsOnlyFailedAndReversed(t *testing.T) {
	assert.False(t, transaction.StatusProcessing.Terminal())
	assert.False(t, transaction.StatusCompleted.Terminal())
	assert.True(t, transaction.StatusFailed.Terminal())
	assert.True(t, transaction.StatusReversed.Terminal())
}

func TestTransaction_InvolvesAccount(t *testing.T) {
	tx := &transaction.Transaction{FromAccountID: "acct-1", ToAccountID: "acct-2"}

	assert.True(t, tx.InvolvesAccount("acct-1"))
	assert.True(t, tx.InvolvesAccount("acct-2"))
	assert.False(t, tx.InvolvesAccount("acct-3"))
}

func TestTransaction_DebitAndCreditAccountIDByType(t *testing.T) {
	cases := []struct {
		name          string
		txType        transaction.Type
		wantDebitAcct string
		wantCredAcct  string
	}{
		{"deposit has no debit leg", transaction.TypeDeposit, "", "acct-to"},
		{"withdrawal debits the source", transaction.TypeWithdrawal, "acct-from", ""},
		{"transfer moves both legs", transaction.TypeTransfer, "acct-from", "acct-to"},
		{"reversal replays both legs", transaction.TypeReversal, "acct-from", "acct-to"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := &transaction.Transaction{FromAccountID: "acct-from", ToAccountID: "acct-to", Type: tc.txType}
			assert.Equal(t, tc.wantDebitAcct, tx.DebitAccountID())
			assert.Equal(t, tc.wantCredAcct, tx.CreditAccountID())
		})
	}
}

func TestTransaction_JSONRoundTripPreservesFieldsAndDropsVersion(t *testing.T) {
	original := &transaction.Transaction{
		ID:       "tx-1",
		Type:     transaction.TypeDeposit,
		ToAccountID: "acct-1",
		FromAccountID: transaction.ExternalAccount,
		Amount:   decimal.RequireFromString("12.50"),
		Currency: "USD",
		Status:   transaction.StatusCompleted,
		Version:  3,
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"Version"`)

	var decoded transaction.Transaction
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, original.ID, decoded.ID)
	assert.True(t, original.Amount.Equal(decoded.Amount))
	assert.Equal(t, 0, decoded.Version)
}

func TestNewPage_ComputesTotalPagesAndNeverReturnsNilContent(t *testing.T) {
	page := transaction.NewPage[int](nil, 0, 10, 25)

	assert.NotNil(t, page.Content)
	assert.Equal(t, 3, page.TotalPages)
}

func TestNewPage_ZeroSizeYieldsZeroTotalPages(t *testing.T) {
	page := transaction.NewPage[int]([]int{1, 2}, 0, 0, 2)

	assert.Equal(t, 0, page.TotalPages)
}

func TestZeroStats_NeverHasNilDecimalsOrMaps(t *testing.T) {
	now := time.Now().UTC()
	stats := transaction.ZeroStats(now, now)

	assert.True(t, stats.TotalAmount.Equal(decimal.Zero))
	assert.True(t, stats.AvgAmount.Equal(decimal.Zero))
	assert.NotNil(t, stats.CountByType)
}
