// cmd/fakeaccounts is a standalone HTTP stand-in for the real Accounts
// service: just enough of its contract (account lookup, internal
// balance-ops, health) for the transaction service to be exercised
// end-to-end without the genuine service running. It is not a
// reimplementation of the Accounts service's own business rules — no
// overdraft policy, no KYC, no account lifecycle beyond "exists or
// doesn't" — only what internal/accountclient.Client calls.
package main

import (
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"transaction-service/internal/domain/account"
	"transaction-service/internal/domain/models"
	"transaction-service/internal/domain/transaction"
)

// store is the process-local account table: the same map-of-pointers,
// lock-per-account shape as the teacher's PostgresRepository, minus the
// database.
type store struct {
	mu       sync.RWMutex
	accounts map[string]*models.Account
	seenOps  map[string]decimal.Decimal // idempotency key -> resulting balance
}

func newStore() *store {
	s := &store{
		accounts: make(map[string]*models.Account),
		seenOps:  make(map[string]decimal.Decimal),
	}
	s.seed("acct-checking-1", transaction.AccountTypeDebit, "1000.00")
	s.seed("acct-checking-2", transaction.AccountTypeDebit, "500.00")
	s.seed("acct-credit-1", transaction.AccountTypeCredit, "0.00")
	return s
}

func (s *store) seed(id string, accountType transaction.AccountType, balance string) {
	amount, _ := decimal.NewFromString(balance)
	acc := &models.Account{ID: id, AccountType: accountType, Active: true, Balance: amount, Version: 1}
	if accountType == transaction.AccountTypeCredit {
		acc.AvailableCredit = decimal.RequireFromString("5000.00")
	}
	s.accounts[id] = acc
}

func (s *store) get(id string) (*models.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	return acc, ok
}

// applyOp applies delta to accountID under opID, returning the cached
// result without re-applying if opID was already processed — mirroring
// the teacher's AtomicDepositWithIdempotency dedup-by-key contract.
func (s *store) applyOp(accountID, opID string, delta decimal.Decimal, allowNegative bool) (decimal.Decimal, int64, bool, error) {
	s.mu.Lock()
	if balance, seen := s.seenOps[opID]; seen {
		acc := s.accounts[accountID]
		s.mu.Unlock()
		return balance, acc.Version, false, nil
	}
	acc, ok := s.accounts[accountID]
	s.mu.Unlock()
	if !ok {
		return decimal.Zero, 0, false, errAccountNotFound
	}

	newBalance, err := account.ApplyDelta(acc, delta, allowNegative)
	if err != nil {
		return decimal.Zero, 0, false, err
	}

	s.mu.Lock()
	s.seenOps[opID] = newBalance
	s.mu.Unlock()

	return newBalance, acc.Version, true, nil
}

type errNotFoundSentinel struct{}

func (errNotFoundSentinel) Error() string { return "account not found" }

var errAccountNotFound error = errNotFoundSentinel{}

type snapshotResponse struct {
	AccountID       string                  `json:"accountId"`
	AccountType     transaction.AccountType `json:"accountType"`
	Active          bool                    `json:"active"`
	Balance         decimal.Decimal         `json:"balance"`
	AvailableCredit decimal.Decimal         `json:"availableCredit"`
	Version         int64                   `json:"version"`
}

func toSnapshot(acc *models.Account) snapshotResponse {
	return snapshotResponse{
		AccountID:       acc.ID,
		AccountType:     acc.AccountType,
		Active:          acc.Active,
		Balance:         account.GetBalance(acc),
		AvailableCredit: acc.AvailableCredit,
		Version:         acc.Version,
	}
}

type balanceOpRequest struct {
	OperationID   string          `json:"operationId"`
	Delta         decimal.Decimal `json:"delta"`
	TransactionID string          `json:"transactionId"`
	Reason        string          `json:"reason"`
	AllowNegative bool            `json:"allowNegative"`
}

type balanceOpResponse struct {
	AccountID   string          `json:"accountId"`
	OperationID string          `json:"operationId"`
	Applied     bool            `json:"applied"`
	NewBalance  decimal.Decimal `json:"newBalance"`
	Version     int64           `json:"version"`
	Status      string          `json:"status"`
}

// requireInternalToken verifies the service-signed bearer token
// internal/accountclient.ServiceTokenIssuer mints, rejecting anything
// else the way the real Accounts service's internal-only routes would.
func requireInternalToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "missing bearer token"})
			return
		}
		raw := header[len(prefix):]

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience("account-service"))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "invalid internal token"})
			return
		}
		c.Next()
	}
}

func main() {
	secret := getenv("INTERNAL_JWT_SECRET", "dev-internal-jwt-secret-change-me")
	port := getenv("PORT", "8081")

	s := newStore()
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/actuator/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	router.GET("/api/accounts/:id", func(c *gin.Context) {
		acc, ok := s.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"code": "ACCOUNT_NOT_FOUND", "message": "account not found"})
			return
		}
		c.JSON(http.StatusOK, toSnapshot(acc))
	})

	internal := router.Group("/api/internal/accounts", requireInternalToken(secret))
	internal.POST("/:id/balance-ops", func(c *gin.Context) {
		var req balanceOpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": err.Error()})
			return
		}

		newBalance, version, applied, err := s.applyOp(c.Param("id"), req.OperationID, req.Delta, req.AllowNegative)
		if err != nil {
			if err == errAccountNotFound {
				c.JSON(http.StatusNotFound, gin.H{"code": "ACCOUNT_NOT_FOUND", "message": "account not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"code": "INSUFFICIENT_FUNDS", "message": err.Error()})
			return
		}

		status := "APPLIED"
		if !applied {
			status = "DUPLICATE"
		}
		c.JSON(http.StatusOK, balanceOpResponse{
			AccountID:   c.Param("id"),
			OperationID: req.OperationID,
			Applied:     applied,
			NewBalance:  newBalance,
			Version:     version,
			Status:      status,
		})
	})

	log.Printf("fake accounts service listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("fake accounts service failed: %v", err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
