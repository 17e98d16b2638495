//go:build integration

// Integration tests against a real Postgres, grounded on the teacher's
// test/integration/testenv/postgres_container.go testcontainers setup
// generalized from the account-balance schema to the transaction-ledger
// schema this service owns. Run with `go test -tags=integration ./...`.
package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"transaction-service/internal/domain/transaction"
	"transaction-service/internal/ledger"
)

const schemaDDL = `
CREATE TABLE transactions (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	from_account_id TEXT NOT NULL,
	to_account_id TEXT NOT NULL,
	amount NUMERIC(20,2) NOT NULL,
	currency TEXT NOT NULL,
	status TEXT NOT NULL,
	description TEXT,
	reference TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	processed_at TIMESTAMPTZ,
	reversed_at TIMESTAMPTZ,
	created_by TEXT,
	processed_by TEXT,
	reversed_by TEXT,
	from_balance_before NUMERIC(20,2),
	from_balance_after NUMERIC(20,2),
	to_balance_before NUMERIC(20,2),
	to_balance_after NUMERIC(20,2),
	original_transaction_id TEXT,
	reversal_transaction_id TEXT,
	reversal_reason TEXT,
	failure_reason TEXT,
	version BIGINT NOT NULL DEFAULT 0
);`

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("transactions"),
		tcpostgres.WithUsername("transactions"),
		tcpostgres.WithPassword("transactions_test_pass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, schemaDDL)
	require.NoError(t, err)

	return pool
}

func sampleTransaction(id string) *transaction.Transaction {
	return &transaction.Transaction{
		ID:            id,
		Type:          transaction.TypeDeposit,
		FromAccountID: transaction.ExternalAccount,
		ToAccountID:   "acct-1",
		Amount:        decimal.RequireFromString("50.00"),
		Currency:      "USD",
		Status:        transaction.StatusProcessing,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     "user-1",
	}
}

func TestPostgresStore_InsertThenFindByID(t *testing.T) {
	store := ledger.NewPostgresStore(newTestPool(t))
	tx := sampleTransaction("tx-1")

	require.NoError(t, store.Insert(context.Background(), tx))

	found, err := store.FindByID(context.Background(), "tx-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.True(t, tx.Amount.Equal(found.Amount))
	require.Equal(t, transaction.StatusProcessing, found.Status)
}

func TestPostgresStore_FindByIDMissingReturnsErrNotFound(t *testing.T) {
	store := ledger.NewPostgresStore(newTestPool(t))

	_, err := store.FindByID(context.Background(), "does-not-exist")

	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestPostgresStore_UpdatePersistsStatusTransition(t *testing.T) {
	store := ledger.NewPostgresStore(newTestPool(t))
	tx := sampleTransaction("tx-2")
	require.NoError(t, store.Insert(context.Background(), tx))

	tx.Status = transaction.StatusCompleted
	now := time.Now().UTC()
	tx.ProcessedAt = &now
	require.NoError(t, store.Update(context.Background(), tx))

	found, err := store.FindByID(context.Background(), "tx-2")
	require.NoError(t, err)
	require.Equal(t, transaction.StatusCompleted, found.Status)
	require.NotNil(t, found.ProcessedAt)
}

func TestPostgresStore_SumAccountActivityAggregatesCompletedDebits(t *testing.T) {
	store := ledger.NewPostgresStore(newTestPool(t))
	ctx := context.Background()

	for i, id := range []string{"tx-3", "tx-4"} {
		tx := &transaction.Transaction{
			ID: id, Type: transaction.TypeWithdrawal,
			FromAccountID: "acct-1", ToAccountID: transaction.ExternalAccount,
			Amount: decimal.RequireFromString("25.00"), Currency: "USD",
			Status: transaction.StatusCompleted, CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, store.Insert(ctx, tx), "seeding row %d", i)
	}

	summary, err := store.SumAccountActivity(ctx, "acct-1", ledger.SideDebit, transaction.TypeWithdrawal,
		time.Now().UTC().Add(-time.Hour), time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 2, summary.Count)
	require.True(t, decimal.RequireFromString("50.00").Equal(summary.TotalAmount))
}
