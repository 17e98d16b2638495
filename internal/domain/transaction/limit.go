package transaction

import "github.com/shopspring/decimal"

// AccountType mirrors the Accounts service's classification; limits are
// keyed on it because a CREDIT account is evaluated against available
// credit rather than balance (spec §4.3).
type AccountType string

const (
	AccountTypeDebit  AccountType = "DEBIT"
	AccountTypeCredit AccountType = "CREDIT"
)

// LimitReason identifies which dimension of a TransactionLimit rejected a
// transaction. Order matters: evaluators must report the most specific
// reason first (PER_TXN > DAILY_* > MONTHLY_*, spec §4.2 step 5).
type LimitReason string

const (
	LimitReasonNone          LimitReason = ""
	LimitReasonPerTxn        LimitReason = "PER_TXN"
	LimitReasonDailyAmount   LimitReason = "DAILY_AMOUNT"
	LimitReasonDailyCount    LimitReason = "DAILY_COUNT"
	LimitReasonMonthlyAmount LimitReason = "MONTHLY_AMOUNT"
	LimitReasonMonthlyCount  LimitReason = "MONTHLY_COUNT"
)

// Limit is a (account_type, transaction_type) row bounding per-transaction,
// daily, and monthly amount/count. A nil field means that dimension is
// uncapped; a missing row altogether means no limits apply at all.
type Limit struct {
	AccountType     AccountType
	TransactionType Type

	PerTransactionLimit *decimal.Decimal
	DailyLimit          *decimal.Decimal
	MonthlyLimit        *decimal.Decimal
	DailyCount          *int
	MonthlyCount        *int

	Active bool
}

// Decision is the result of evaluating a transaction against its limit row.
type Decision struct {
	Allowed bool
	Reason  LimitReason
}

// Allow is the zero-friction decision used when no limit row applies.
func Allow() Decision { return Decision{Allowed: true} }

// Reject builds a rejecting decision carrying the dimension that failed.
func Reject(reason LimitReason) Decision { return Decision{Allowed: false, Reason: reason} }
