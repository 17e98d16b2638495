// Package engine implements the transaction state machine (spec §4.4,
// C4): process_deposit, process_withdrawal, process_transfer, and
// reverse_transaction, each synchronous from the caller's standpoint.
// Grounded on the teacher's AtomicWithdraw/AtomicTransfer methods in
// internal/infrastructure/database/postgres/postgres.go for the
// lock-then-mutate shape, generalized from locally-owned account rows to
// remote balance mutations brokered through internal/accountclient.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"transaction-service/internal/accountclient"
	"transaction-service/internal/domain/transaction"
	"transaction-service/internal/ledger"
	"transaction-service/internal/limits"
	"transaction-service/internal/observability/audit"
	"transaction-service/internal/observability/metrics"
	apierrors "transaction-service/internal/pkg/errors"
	"transaction-service/internal/pkg/idempotency"
	"transaction-service/internal/pkg/logging"
)

// Engine wires the ledger, limits evaluator, and account client into the
// state machine spec §4.4 describes.
type Engine struct {
	ledger   ledger.Store
	accounts accountclient.Client
	limits   *limits.Evaluator
	audit    *audit.Recorder

	reversalWindow time.Duration

	reversalLocks sync.Map // originalTransactionID -> *sync.Mutex
}

func New(store ledger.Store, accounts accountclient.Client, evaluator *limits.Evaluator, recorder *audit.Recorder, reversalWindow time.Duration) *Engine {
	return &Engine{
		ledger:         store,
		accounts:       accounts,
		limits:         evaluator,
		audit:          recorder,
		reversalWindow: reversalWindow,
	}
}

// Request is the caller-supplied shape for the three primary operations;
// From/To carry transaction.ExternalAccount for the leg that has none.
type Request struct {
	Type        transaction.Type
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
	Currency    string
	Description string
	Reference   string
	ActorID     string
	UserToken   string
}

func (e *Engine) ProcessDeposit(ctx context.Context, req Request) (*transaction.Transaction, error) {
	req.Type = transaction.TypeDeposit
	req.FromAccount = transaction.ExternalAccount
	return e.process(ctx, req)
}

func (e *Engine) ProcessWithdrawal(ctx context.Context, req Request) (*transaction.Transaction, error) {
	req.Type = transaction.TypeWithdrawal
	req.ToAccount = transaction.ExternalAccount
	return e.process(ctx, req)
}

func (e *Engine) ProcessTransfer(ctx context.Context, req Request) (*transaction.Transaction, error) {
	req.Type = transaction.TypeTransfer
	return e.process(ctx, req)
}

func (e *Engine) process(ctx context.Context, req Request) (*transaction.Transaction, error) {
	txID := uuid.NewString()
	txTypeLabel := string(req.Type)

	metrics.RecordInitiated(txTypeLabel)
	metrics.ActiveTransactions.Inc()
	defer metrics.ActiveTransactions.Dec()

	e.audit.Record(txID, audit.EventTransaction, "initiate_"+strings.ToLower(txTypeLabel), audit.OutcomeSuccess, req.ActorID, txID, map[string]interface{}{
		"fromAccountId": req.FromAccount, "toAccountId": req.ToAccount, "amount": req.Amount.String(),
	})

	start := time.Now()
	defer func() {
		metrics.ProcessingDuration.WithLabelValues(txTypeLabel).Observe(time.Since(start).Seconds())
	}()

	fromSnapshot, toSnapshot, err := e.resolveAccounts(ctx, req)
	if err != nil {
		e.recordFailure(txID, req, "", err)
		return nil, err
	}

	if req.Type == transaction.TypeWithdrawal || req.Type == transaction.TypeTransfer {
		decision, err := e.limits.Evaluate(ctx, req.FromAccount, fromSnapshot.AccountType, req.Type, req.Amount)
		if err != nil {
			e.recordFailure(txID, req, "", err)
			return nil, err
		}
		if !decision.Allowed {
			e.audit.Record(txID, audit.EventLimitCheck, "limit_check", audit.OutcomeFailure, req.ActorID, txID, map[string]interface{}{"reason": decision.Reason})
			metrics.RecordFailed(txTypeLabel, metrics.ReasonLimitExceeded)
			return nil, apierrors.LimitExceeded(decision.Reason)
		}
	}

	if req.Type != transaction.TypeDeposit {
		checkStart := time.Now()
		sufficient := e.accounts.HasSufficientFunds(fromSnapshot, req.Amount)
		metrics.BalanceCheckDuration.Observe(time.Since(checkStart).Seconds())
		if !sufficient {
			e.audit.Record(txID, audit.EventBalanceCheck, "balance_check", audit.OutcomeFailure, req.ActorID, txID, nil)
			metrics.RecordFailed(txTypeLabel, metrics.ReasonInsufficientFunds)
			return nil, apierrors.InsufficientFunds()
		}
	}

	tx := &transaction.Transaction{
		ID:            txID,
		Type:          req.Type,
		FromAccountID: req.FromAccount,
		ToAccountID:   req.ToAccount,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Status:        transaction.StatusProcessing,
		Description:   req.Description,
		Reference:     req.Reference,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     req.ActorID,
	}
	if fromSnapshot != nil {
		tx.FromBalanceBefore = &fromSnapshot.Balance
	}
	if toSnapshot != nil {
		tx.ToBalanceBefore = &toSnapshot.Balance
	}

	if err := e.ledger.Insert(ctx, tx); err != nil {
		logging.Error("failed to insert processing row", err, map[string]interface{}{"transactionId": txID})
		metrics.RecordFailed(txTypeLabel, metrics.ReasonInternal)
		return nil, apierrors.Internal(txID)
	}

	if err := e.applyLegs(ctx, tx, req); err != nil {
		e.recordFailure(txID, req, tx.Status, err)
		return nil, err
	}

	now := time.Now().UTC()
	tx.Status = transaction.StatusCompleted
	tx.ProcessedAt = &now
	processedBy := req.ActorID
	tx.ProcessedBy = &processedBy

	if err := e.ledger.Update(ctx, tx); err != nil {
		logging.Error("failed to persist completed transaction", err, map[string]interface{}{"transactionId": txID})
		metrics.RecordFailed(txTypeLabel, metrics.ReasonInternal)
		return nil, apierrors.Internal(txID)
	}

	metrics.RecordCompleted(txTypeLabel)
	if amountFloat, ok := req.Amount.Float64(); ok {
		metrics.AddDailyVolume(amountFloat)
	}
	metrics.DailyVolumeCount.Inc()

	e.audit.Record(txID, audit.EventTransaction, "complete_"+strings.ToLower(txTypeLabel), audit.OutcomeSuccess, req.ActorID, txID, nil)
	return tx, nil
}

// resolveAccounts resolves the legs a request needs via C3, classifying
// NotFound vs Unavailable before any row is persisted (spec §4.4 step 3).
func (e *Engine) resolveAccounts(ctx context.Context, req Request) (from, to *accountclient.AccountSnapshot, err error) {
	validateStart := time.Now()
	defer func() { metrics.AccountValidationDuration.Observe(time.Since(validateStart).Seconds()) }()

	if req.FromAccount != transaction.ExternalAccount {
		from, err = e.accounts.GetAccount(ctx, req.FromAccount, req.UserToken)
		if err != nil {
			return nil, nil, err
		}
		if !from.Active {
			return nil, nil, apierrors.AccountNotFound(req.FromAccount)
		}
	}
	if req.ToAccount != transaction.ExternalAccount {
		to, err = e.accounts.GetAccount(ctx, req.ToAccount, req.UserToken)
		if err != nil {
			return nil, nil, err
		}
		if !to.Active {
			return nil, nil, apierrors.AccountNotFound(req.ToAccount)
		}
	}
	return from, to, nil
}

// applyLegs runs step 7 of the state machine: the balance mutations for
// each transaction type, with transfer compensation on partial failure.
func (e *Engine) applyLegs(ctx context.Context, tx *transaction.Transaction, req Request) error {
	switch tx.Type {
	case transaction.TypeDeposit:
		result, err := e.accounts.ApplyBalanceOp(ctx, tx.ToAccountID, idempotency.BalanceOpID(tx.ID, "credit"), tx.Amount, tx.ID, "deposit", false)
		if err != nil {
			return e.fail(ctx, tx, err)
		}
		tx.ToBalanceAfter = &result.NewBalance
		return nil

	case transaction.TypeWithdrawal:
		result, err := e.accounts.ApplyBalanceOp(ctx, tx.FromAccountID, idempotency.BalanceOpID(tx.ID, "debit"), tx.Amount.Neg(), tx.ID, "withdrawal", false)
		if err != nil {
			return e.fail(ctx, tx, err)
		}
		tx.FromBalanceAfter = &result.NewBalance
		return nil

	case transaction.TypeTransfer:
		debitResult, err := e.accounts.ApplyBalanceOp(ctx, tx.FromAccountID, idempotency.BalanceOpID(tx.ID, "debit"), tx.Amount.Neg(), tx.ID, "transfer", false)
		if err != nil {
			return e.fail(ctx, tx, err)
		}
		tx.FromBalanceAfter = &debitResult.NewBalance

		creditResult, err := e.accounts.ApplyBalanceOp(ctx, tx.ToAccountID, idempotency.BalanceOpID(tx.ID, "credit"), tx.Amount, tx.ID, "transfer", false)
		if err != nil {
			if _, compErr := e.accounts.ApplyBalanceOp(ctx, tx.FromAccountID, idempotency.BalanceOpID(tx.ID, "compensate"), tx.Amount, tx.ID, "transfer_compensation", true); compErr != nil {
				logging.Error("compensating credit failed after transfer credit leg error", compErr, map[string]interface{}{"transactionId": tx.ID})
			}
			return e.fail(ctx, tx, err)
		}
		tx.ToBalanceAfter = &creditResult.NewBalance
		return nil

	case transaction.TypeReversal:
		var debitResult *accountclient.BalanceOpResult
		if tx.FromAccountID != transaction.ExternalAccount {
			var err error
			debitResult, err = e.accounts.ApplyBalanceOp(ctx, tx.FromAccountID, idempotency.BalanceOpID(tx.ID, "debit"), tx.Amount.Neg(), tx.ID, "reversal", false)
			if err != nil {
				return e.fail(ctx, tx, err)
			}
			tx.FromBalanceAfter = &debitResult.NewBalance
		}

		if tx.ToAccountID != transaction.ExternalAccount {
			creditResult, err := e.accounts.ApplyBalanceOp(ctx, tx.ToAccountID, idempotency.BalanceOpID(tx.ID, "credit"), tx.Amount, tx.ID, "reversal", false)
			if err != nil {
				if debitResult != nil {
					if _, compErr := e.accounts.ApplyBalanceOp(ctx, tx.FromAccountID, idempotency.BalanceOpID(tx.ID, "compensate"), tx.Amount, tx.ID, "reversal_compensation", true); compErr != nil {
						logging.Error("compensating debit failed after reversal credit leg error", compErr, map[string]interface{}{"transactionId": tx.ID})
					}
				}
				return e.fail(ctx, tx, err)
			}
			tx.ToBalanceAfter = &creditResult.NewBalance
		}
		return nil

	default:
		return e.fail(ctx, tx, fmt.Errorf("unsupported transaction type %s", tx.Type))
	}
}

// fail transitions tx to FAILED and persists it (spec §4.4 step 9).
func (e *Engine) fail(ctx context.Context, tx *transaction.Transaction, cause error) error {
	apiErr, _ := apierrors.As(cause)
	reason := "unknown"
	if apiErr != nil {
		reason = string(apiErr.Kind)
	}

	tx.Status = transaction.StatusFailed
	tx.FailureReason = reason
	if updateErr := e.ledger.Update(ctx, tx); updateErr != nil {
		logging.Error("failed to persist FAILED transaction", updateErr, map[string]interface{}{"transactionId": tx.ID})
	}
	return cause
}

func (e *Engine) recordFailure(txID string, req Request, status transaction.Status, err error) {
	apiErr, _ := apierrors.As(err)
	reason := metrics.ReasonInternal
	if apiErr != nil {
		switch apiErr.Kind {
		case apierrors.KindAccountNotFound:
			reason = metrics.ReasonAccountNotFound
		case apierrors.KindServiceUnavailable:
			reason = metrics.ReasonAccountServiceErr
		case apierrors.KindInsufficientFunds:
			reason = metrics.ReasonInsufficientFunds
		case apierrors.KindLimitExceeded:
			reason = metrics.ReasonLimitExceeded
		}
	}
	metrics.RecordFailed(string(req.Type), reason)
	e.audit.Record(txID, audit.EventTransaction, "fail_"+strings.ToLower(string(req.Type)), audit.OutcomeFailure, req.ActorID, txID, map[string]interface{}{"reason": reason})
}

func (e *Engine) lockFor(originalID string) *sync.Mutex {
	lock, _ := e.reversalLocks.LoadOrStore(originalID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// ReverseTransaction implements spec §4.4's reversal semantics, including
// the single-reversal invariant and the non-negative-balance guard.
func (e *Engine) ReverseTransaction(ctx context.Context, originalID, reason, actorID, userToken string) (*transaction.Transaction, error) {
	lock := e.lockFor(originalID)
	lock.Lock()
	defer lock.Unlock()

	original, err := e.ledger.FindByID(ctx, originalID)
	if err != nil {
		if err == ledger.ErrNotFound {
			return nil, apierrors.AccountNotFound(originalID)
		}
		return nil, apierrors.Internal(originalID)
	}

	if original.Status != transaction.StatusCompleted {
		return nil, apierrors.Validation("only a COMPLETED transaction can be reversed")
	}
	if original.Type == transaction.TypeReversal {
		return nil, apierrors.Validation("a reversal cannot itself be reversed")
	}
	if time.Since(original.CreatedAt) > e.reversalWindow {
		return nil, apierrors.Validation("transaction is outside the reversal window")
	}

	alreadyReversed, err := e.ledger.IsReversed(ctx, originalID)
	if err != nil {
		return nil, apierrors.Internal(originalID)
	}
	if alreadyReversed {
		return nil, apierrors.AlreadyReversed(originalID)
	}

	reversalID := uuid.NewString()
	metrics.RecordInitiated(string(transaction.TypeReversal))
	metrics.ActiveTransactions.Inc()
	defer metrics.ActiveTransactions.Dec()

	reversal := &transaction.Transaction{
		ID:                    reversalID,
		Type:                  transaction.TypeReversal,
		FromAccountID:         original.ToAccountID,
		ToAccountID:           original.FromAccountID,
		Amount:                original.Amount,
		Currency:              original.Currency,
		Status:                transaction.StatusProcessing,
		Description:           "reversal of " + originalID,
		CreatedAt:             time.Now().UTC(),
		CreatedBy:             actorID,
		OriginalTransactionID: originalID,
		ReversalReason:        reason,
	}

	if reversal.FromAccountID != transaction.ExternalAccount {
		snapshot, err := e.accounts.GetAccount(ctx, reversal.FromAccountID, userToken)
		if err != nil {
			return nil, err
		}
		if snapshot.AccountType != transaction.AccountTypeCredit {
			projected := snapshot.Balance.Sub(reversal.Amount)
			if projected.IsNegative() {
				return nil, apierrors.WouldGoNegative()
			}
		}
		reversal.FromBalanceBefore = &snapshot.Balance
	}

	if err := e.ledger.Insert(ctx, reversal); err != nil {
		return nil, apierrors.Internal(reversalID)
	}

	if err := e.applyLegs(ctx, reversal, Request{Type: transaction.TypeReversal}); err != nil {
		metrics.RecordFailed(string(transaction.TypeReversal), metrics.ReasonInternal)
		return nil, err
	}

	now := time.Now().UTC()
	reversal.Status = transaction.StatusCompleted
	reversal.ProcessedAt = &now
	processedBy := actorID
	reversal.ProcessedBy = &processedBy
	if err := e.ledger.Update(ctx, reversal); err != nil {
		return nil, apierrors.Internal(reversalID)
	}

	original.Status = transaction.StatusReversed
	original.ReversedAt = &now
	original.ReversedBy = &processedBy
	original.ReversalReason = reason
	original.ReversalTransactionID = reversalID
	if err := e.ledger.Update(ctx, original); err != nil {
		logging.Error("reversal completed but original row failed to update", err, map[string]interface{}{
			"originalTransactionId": originalID, "reversalTransactionId": reversalID,
		})
		return nil, apierrors.Internal(originalID)
	}

	metrics.RecordCompleted(string(transaction.TypeReversal))
	metrics.RecordReversed(string(original.Type))
	e.audit.Record(reversalID, audit.EventTransaction, "reverse_transaction", audit.OutcomeSuccess, actorID, reversalID, map[string]interface{}{
		"originalTransactionId": originalID, "reason": reason,
	})

	return reversal, nil
}

// Sweep marks PROCESSING rows older than olderThan as FAILED with reason
// STUCK, reconciling work interrupted between ledger insert and the
// balance-op/complete step (spec §4.4's stale-PROCESSING sweeper).
func (e *Engine) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := e.ledger.FindStaleProcessing(ctx, olderThan)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range stale {
		tx := &stale[i]
		tx.Status = transaction.StatusFailed
		tx.FailureReason = "STUCK"
		if err := e.ledger.Update(ctx, tx); err != nil {
			logging.Error("failed to sweep stale transaction", err, map[string]interface{}{"transactionId": tx.ID})
			continue
		}
		swept++
		e.audit.Record(tx.ID, audit.EventSystem, "stale_sweep", audit.OutcomeSuccess, "", tx.ID, nil)
	}
	return swept, nil
}
