// Package transaction holds the ledger row and supporting enums that the
// whole service is built around: every component (ledger, limits, engine,
// API) speaks this type rather than its own ad-hoc shape.
package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExternalAccount is the sentinel counter-leg for deposits and withdrawals.
const ExternalAccount = "EXTERNAL"

// Type is the business operation a ledger row records.
type Type string

const (
	TypeDeposit    Type = "DEPOSIT"
	TypeWithdrawal Type = "WITHDRAWAL"
	TypeTransfer   Type = "TRANSFER"
	TypeReversal   Type = "REVERSAL"
)

// Status is the lifecycle state of a ledger row.
//
// Transitions only ever go PROCESSING -> COMPLETED | FAILED, and
// COMPLETED -> REVERSED (at most once). FAILED and REVERSED are terminal.
type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusReversed   Status = "REVERSED"
)

// Terminal reports whether no further status transition is legal.
func (s Status) Terminal() bool {
	return s == StatusFailed || s == StatusReversed
}

// Transaction is a single row in the immutable ledger.
type Transaction struct {
	ID   string `json:"transactionId"`
	Type Type   `json:"type"`

	FromAccountID string `json:"fromAccountId"`
	ToAccountID   string `json:"toAccountId"`

	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`

	Status Status `json:"status"`

	Description string `json:"description,omitempty"`
	Reference   string `json:"reference,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	ReversedAt  *time.Time `json:"reversedAt,omitempty"`

	CreatedBy   string  `json:"createdBy"`
	ProcessedBy *string `json:"processedBy,omitempty"`
	ReversedBy  *string `json:"reversedBy,omitempty"`

	FromBalanceBefore *decimal.Decimal `json:"fromAccountBalanceBefore,omitempty"`
	FromBalanceAfter  *decimal.Decimal `json:"fromAccountBalanceAfter,omitempty"`
	ToBalanceBefore   *decimal.Decimal `json:"toAccountBalanceBefore,omitempty"`
	ToBalanceAfter    *decimal.Decimal `json:"toAccountBalanceAfter,omitempty"`

	OriginalTransactionID string  `json:"originalTransactionId,omitempty"`
	ReversalTransactionID string  `json:"reversalTransactionId,omitempty"`
	ReversalReason        string  `json:"reversalReason,omitempty"`
	FailureReason         string  `json:"failureReason,omitempty"`

	Version int `json:"-"`
}

// InvolvesAccount reports whether id is either leg of the transaction.
func (t *Transaction) InvolvesAccount(id string) bool {
	return t.FromAccountID == id || t.ToAccountID == id
}

// DebitAccountID returns the account that funds leave, or "" when the
// transaction has no debit leg (a pure external deposit has none).
func (t *Transaction) DebitAccountID() string {
	switch t.Type {
	case TypeWithdrawal, TypeTransfer:
		return t.FromAccountID
	case TypeReversal:
		return t.FromAccountID
	default:
		return ""
	}
}

// CreditAccountID returns the account that funds land in.
func (t *Transaction) CreditAccountID() string {
	switch t.Type {
	case TypeDeposit, TypeTransfer:
		return t.ToAccountID
	case TypeReversal:
		return t.ToAccountID
	default:
		return ""
	}
}

// Page is a generic paginated result, matching the `page&size&sort` query
// parameters the REST surface accepts.
type Page[T any] struct {
	Content       []T `json:"content"`
	Page          int `json:"page"`
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
}

// NewPage builds a Page, computing TotalPages from size/total.
func NewPage[T any](content []T, page, size, total int) Page[T] {
	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}
	if content == nil {
		content = []T{}
	}
	return Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

// SearchFilter is the composite filter accepted by GET /api/transactions/search.
type SearchFilter struct {
	AccountID        string
	CreatedBy        string
	Type             Type
	Status           Status
	From             *time.Time
	To               *time.Time
	MinAmount        *decimal.Decimal
	MaxAmount        *decimal.Decimal
	DescriptionLike  string
	ReferenceLike    string
}

// Stats is the aggregation returned by the account/user statistics endpoints.
type Stats struct {
	TotalTransactions     int             `json:"totalTransactions"`
	CompletedTransactions int             `json:"completedTransactions"`
	PendingTransactions   int             `json:"pendingTransactions"`
	FailedTransactions    int             `json:"failedTransactions"`
	ReversedTransactions  int             `json:"reversedTransactions"`

	TotalAmount decimal.Decimal `json:"totalAmount"`
	AmountIn    decimal.Decimal `json:"amountIn"`
	AmountOut   decimal.Decimal `json:"amountOut"`
	MinAmount   decimal.Decimal `json:"minAmount"`
	MaxAmount   decimal.Decimal `json:"maxAmount"`
	AvgAmount   decimal.Decimal `json:"avgAmount"`

	CountByType map[Type]int `json:"countByType"`

	SuccessRate   float64         `json:"successRate"`
	TotalDeposits decimal.Decimal `json:"totalDeposits"`

	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
}

// ZeroStats returns a Stats value with every numeric field at its zero
// value rather than nil/null, per the "never null" rule in spec §4.6.
func ZeroStats(start, end time.Time) Stats {
	return Stats{
		CountByType:   map[Type]int{},
		TotalAmount:   decimal.Zero,
		AmountIn:      decimal.Zero,
		AmountOut:     decimal.Zero,
		MinAmount:     decimal.Zero,
		MaxAmount:     decimal.Zero,
		AvgAmount:     decimal.Zero,
		TotalDeposits: decimal.Zero,
		PeriodStart:   start,
		PeriodEnd:     end,
	}
}
