// Package account holds the lock-then-mutate balance operations
// cmd/fakeaccounts applies to its in-memory accounts, adapted from the
// teacher's AddAmount/RemoveAmount/GetBalance (int cents) to decimal
// deltas signed by direction, matching the real Accounts service's
// balance-op contract (spec §4.3: a signed delta, optionally allowed to
// go negative for credit-type accounts).
package account

import (
	"github.com/shopspring/decimal"

	"transaction-service/internal/domain/models"
	apierrors "transaction-service/internal/pkg/errors"
)

func withAccountLock(acc *models.Account, fn func()) {
	acc.Mu.Lock()
	defer acc.Mu.Unlock()
	fn()
}

// ApplyDelta adds delta (negative for a debit) to the account's balance,
// rejecting the mutation unless allowNegative or the resulting balance
// would stay non-negative.
func ApplyDelta(acc *models.Account, delta decimal.Decimal, allowNegative bool) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	var err error

	withAccountLock(acc, func() {
		newBalance = acc.Balance.Add(delta)
		if !allowNegative && newBalance.IsNegative() {
			err = apierrors.New(apierrors.KindInsufficientFunds, "insufficient balance")
			return
		}
		acc.Balance = newBalance
		acc.Version++
	})

	return newBalance, err
}

func GetBalance(acc *models.Account) decimal.Decimal {
	var balance decimal.Decimal
	withAccountLock(acc, func() {
		balance = acc.Balance
	})
	return balance
}
