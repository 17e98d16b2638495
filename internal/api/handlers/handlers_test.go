package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transaction-service/internal/accountclient"
	"transaction-service/internal/api/handlers"
	"transaction-service/internal/config"
	"transaction-service/internal/domain/transaction"
	"transaction-service/internal/engine"
	"transaction-service/internal/health"
	"transaction-service/internal/ledger"
	"transaction-service/internal/limits"
	"transaction-service/internal/observability/audit"
	apierrors "transaction-service/internal/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeLedger is a minimal in-memory ledger.Store sufficient to exercise
// the engine through the HTTP handlers.
type fakeLedger struct {
	rows map[string]*transaction.Transaction
}

func newFakeLedger() *fakeLedger { return &fakeLedger{rows: make(map[string]*transaction.Transaction)} }

func (f *fakeLedger) Insert(ctx context.Context, tx *transaction.Transaction) error {
	cp := *tx
	f.rows[tx.ID] = &cp
	return nil
}
func (f *fakeLedger) Update(ctx context.Context, tx *transaction.Transaction) error {
	cp := *tx
	f.rows[tx.ID] = &cp
	return nil
}
func (f *fakeLedger) FindByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	tx, ok := f.rows[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}
func (f *fakeLedger) PageByAccount(ctx context.Context, accountID string, page, size int) (transaction.Page[transaction.Transaction], error) {
	return transaction.Page[transaction.Transaction]{}, nil
}
func (f *fakeLedger) PageByUser(ctx context.Context, userID string, page, size int) (transaction.Page[transaction.Transaction], error) {
	return transaction.Page[transaction.Transaction]{}, nil
}
func (f *fakeLedger) PageByStatus(ctx context.Context, status transaction.Status, page, size int) (transaction.Page[transaction.Transaction], error) {
	return transaction.Page[transaction.Transaction]{}, nil
}
func (f *fakeLedger) FindStaleProcessing(ctx context.Context, olderThan time.Duration) ([]transaction.Transaction, error) {
	return nil, nil
}
func (f *fakeLedger) FindReversalOf(ctx context.Context, originalTransactionID string) (*transaction.Transaction, error) {
	return nil, ledger.ErrNotFound
}
func (f *fakeLedger) IsReversed(ctx context.Context, transactionID string) (bool, error) {
	return false, nil
}
func (f *fakeLedger) Search(ctx context.Context, filter transaction.SearchFilter, page, size int) (transaction.Page[transaction.Transaction], error) {
	return transaction.Page[transaction.Transaction]{}, nil
}
func (f *fakeLedger) Stats(ctx context.Context, start, end time.Time) (transaction.Stats, error) {
	return transaction.Stats{}, nil
}
func (f *fakeLedger) AccountStats(ctx context.Context, accountID string, start, end time.Time) (transaction.Stats, error) {
	return transaction.Stats{}, nil
}
func (f *fakeLedger) UserStats(ctx context.Context, userID string, start, end time.Time) (transaction.Stats, error) {
	return transaction.Stats{}, nil
}
func (f *fakeLedger) SumAccountActivity(ctx context.Context, accountID string, side ledger.AccountSide, txType transaction.Type, from, to time.Time) (ledger.ActivitySummary, error) {
	return ledger.ActivitySummary{}, nil
}

type fakeAccounts struct {
	accounts map[string]*accountclient.AccountSnapshot
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[string]*accountclient.AccountSnapshot)}
}

func (f *fakeAccounts) seed(id string, balance string) {
	f.accounts[id] = &accountclient.AccountSnapshot{
		AccountID: id, AccountType: transaction.AccountTypeDebit, Active: true,
		Balance: decimal.RequireFromString(balance), Version: 1,
	}
}

func (f *fakeAccounts) GetAccount(ctx context.Context, accountID, userToken string) (*accountclient.AccountSnapshot, error) {
	acc, ok := f.accounts[accountID]
	if !ok {
		return nil, apierrors.AccountNotFound(accountID)
	}
	cp := *acc
	return &cp, nil
}
func (f *fakeAccounts) ValidateAccount(ctx context.Context, accountID, userToken string) (bool, error) {
	_, ok := f.accounts[accountID]
	return ok, nil
}
func (f *fakeAccounts) HasSufficientFunds(snapshot *accountclient.AccountSnapshot, amount decimal.Decimal) bool {
	return snapshot.Balance.GreaterThanOrEqual(amount)
}
func (f *fakeAccounts) ApplyBalanceOp(ctx context.Context, accountID, opID string, delta decimal.Decimal, transactionID, reason string, allowNegative bool) (*accountclient.BalanceOpResult, error) {
	acc, ok := f.accounts[accountID]
	if !ok {
		return nil, apierrors.AccountNotFound(accountID)
	}
	newBalance := acc.Balance.Add(delta)
	if !allowNegative && newBalance.IsNegative() {
		return nil, apierrors.InsufficientFunds()
	}
	acc.Balance = newBalance
	acc.Version++
	return &accountclient.BalanceOpResult{AccountID: accountID, OperationID: opID, Applied: true, NewBalance: newBalance, Version: acc.Version, Status: "APPLIED"}, nil
}
func (f *fakeAccounts) Probe(ctx context.Context) error     { return nil }
func (f *fakeAccounts) CircuitState() gobreaker.State        { return gobreaker.StateClosed }

type noLimitsRepo struct{}

func (noLimitsRepo) Find(ctx context.Context, accountType transaction.AccountType, txType transaction.Type) (*transaction.Limit, error) {
	return nil, nil
}

type discardSink struct{}

func (discardSink) Publish(event audit.Event) {}

type testDeps struct {
	eng    *engine.Engine
	ledger ledger.Store
	cfg    *config.Config
}

func (d *testDeps) Engine() *engine.Engine                 { return d.eng }
func (d *testDeps) Ledger() ledger.Store                   { return d.ledger }
func (d *testDeps) LimitsEvaluator() *limits.Evaluator      { return nil }
func (d *testDeps) Health() *health.Checker                { return nil }
func (d *testDeps) Config() *config.Config                 { return d.cfg }

func newTestDeps() (*testDeps, *fakeAccounts) {
	store := newFakeLedger()
	accounts := newFakeAccounts()
	evaluator := limits.NewEvaluator(noLimitsRepo{}, store)
	recorder := audit.NewRecorder(discardSink{})
	eng := engine.New(store, accounts, evaluator, recorder, 24*time.Hour)

	cfg := &config.Config{
		Currency: config.CurrencyConfig{Allowed: []string{"USD"}, MaxAmount: "1000000.00"},
	}
	return &testDeps{eng: eng, ledger: store, cfg: cfg}, accounts
}

func doJSON(t *testing.T, handler gin.HandlerFunc, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.Handle(method, path, handler)

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDepositHandler_CreditsAccount(t *testing.T) {
	deps, accounts := newTestDeps()
	accounts.seed("acct-1", "100.00")

	rec := doJSON(t, handlers.MakeDepositHandler(deps), http.MethodPost, "/deposit", map[string]string{
		"accountId": "acct-1", "amount": "50.00", "currency": "USD",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var tx transaction.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tx))
	assert.Equal(t, transaction.StatusCompleted, tx.Status)
}

func TestDepositHandler_RejectsMalformedAmount(t *testing.T) {
	deps, accounts := newTestDeps()
	accounts.seed("acct-1", "100.00")

	rec := doJSON(t, handlers.MakeDepositHandler(deps), http.MethodPost, "/deposit", map[string]string{
		"accountId": "acct-1", "amount": "not-a-number", "currency": "USD",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDepositHandler_RejectsDisallowedCurrency(t *testing.T) {
	deps, accounts := newTestDeps()
	accounts.seed("acct-1", "100.00")

	rec := doJSON(t, handlers.MakeDepositHandler(deps), http.MethodPost, "/deposit", map[string]string{
		"accountId": "acct-1", "amount": "50.00", "currency": "EUR",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWithdrawHandler_InsufficientFundsReturns400(t *testing.T) {
	deps, accounts := newTestDeps()
	accounts.seed("acct-1", "10.00")

	rec := doJSON(t, handlers.MakeWithdrawHandler(deps), http.MethodPost, "/withdraw", map[string]string{
		"accountId": "acct-1", "amount": "50.00", "currency": "USD",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "INSUFFICIENT_FUNDS", apiErr["code"])
}

func TestTransferHandler_RejectsSelfTransfer(t *testing.T) {
	deps, accounts := newTestDeps()
	accounts.seed("acct-1", "100.00")

	rec := doJSON(t, handlers.MakeTransferHandler(deps), http.MethodPost, "/transfer", map[string]string{
		"fromAccountId": "acct-1", "toAccountId": "acct-1", "amount": "10.00", "currency": "USD",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransferHandler_MovesFundsBetweenAccounts(t *testing.T) {
	deps, accounts := newTestDeps()
	accounts.seed("acct-1", "200.00")
	accounts.seed("acct-2", "0.00")

	rec := doJSON(t, handlers.MakeTransferHandler(deps), http.MethodPost, "/transfer", map[string]string{
		"fromAccountId": "acct-1", "toAccountId": "acct-2", "amount": "75.00", "currency": "USD",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	from, err := accounts.GetAccount(context.Background(), "acct-1", "")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("125.00").Equal(from.Balance))
}

func TestReverseHandler_ReversesCompletedTransaction(t *testing.T) {
	deps, accounts := newTestDeps()
	accounts.seed("acct-1", "100.00")

	depositRec := doJSON(t, handlers.MakeDepositHandler(deps), http.MethodPost, "/deposit", map[string]string{
		"accountId": "acct-1", "amount": "40.00", "currency": "USD",
	})
	require.Equal(t, http.StatusOK, depositRec.Code)
	var tx transaction.Transaction
	require.NoError(t, json.Unmarshal(depositRec.Body.Bytes(), &tx))

	r := gin.New()
	r.POST("/transactions/:id/reverse", handlers.MakeReverseHandler(deps))
	raw, err := json.Marshal(map[string]string{"reason": "customer request"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/transactions/"+tx.ID+"/reverse", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	snapshot, err := accounts.GetAccount(context.Background(), "acct-1", "")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("100.00").Equal(snapshot.Balance))
}
