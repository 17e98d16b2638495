// Package models holds the account record cmd/fakeaccounts serves: a
// minimal stand-in for the real Accounts service's storage, adapted from
// the teacher's in-memory Account (cents-as-int balance, sync.Mutex
// locking) to the decimal money and account-type/active flags the
// transaction engine's AccountSnapshot contract requires.
package models

import (
	"sync"

	"github.com/shopspring/decimal"

	"transaction-service/internal/domain/transaction"
)

// Account is a fake Accounts-service record: enough fields for the
// transaction engine's resolve/validate/apply-balance-op flow to
// exercise against, nothing more.
type Account struct {
	ID              string
	AccountType     transaction.AccountType
	Active          bool
	Balance         decimal.Decimal
	AvailableCredit decimal.Decimal
	Version         int64

	Mu sync.Mutex `json:"-"`
}
