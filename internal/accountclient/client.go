// Package accountclient is the resilient gateway to the Accounts service
// (spec §4.3, C3): retry, circuit breaker, a per-call deadline, and a
// short-TTL account snapshot cache wrap a plain HTTP client. Each network
// call runs under time-limiter -> circuit-breaker -> retry, outermost-in.
// GetAccount consults the cache before entering that envelope, so a fresh
// cached snapshot is returned without passing through the breaker, even
// while the breaker is open.
package accountclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"transaction-service/internal/cache"
	"transaction-service/internal/config"
	"transaction-service/internal/domain/transaction"
	"transaction-service/internal/observability/metrics"
	apierrors "transaction-service/internal/pkg/errors"
	"transaction-service/internal/pkg/logging"
)

// AccountSnapshot is the cached view of an Accounts-service account.
type AccountSnapshot struct {
	AccountID       string                 `json:"accountId"`
	AccountType     transaction.AccountType `json:"accountType"`
	Active          bool                   `json:"active"`
	Balance         decimal.Decimal        `json:"balance"`
	AvailableCredit decimal.Decimal        `json:"availableCredit"`
	Version         int64                  `json:"version"`
}

// BalanceOpResult is the Accounts service's response to a balance-op call.
type BalanceOpResult struct {
	AccountID   string          `json:"accountId"`
	OperationID string          `json:"operationId"`
	Applied     bool            `json:"applied"`
	NewBalance  decimal.Decimal `json:"newBalance"`
	Version     int64           `json:"version"`
	Status      string          `json:"status"`
}

// Client is what the transaction engine depends on, so tests can swap in
// a stub account service.
type Client interface {
	GetAccount(ctx context.Context, accountID, userToken string) (*AccountSnapshot, error)
	ValidateAccount(ctx context.Context, accountID, userToken string) (bool, error)
	HasSufficientFunds(snapshot *AccountSnapshot, amount decimal.Decimal) bool
	ApplyBalanceOp(ctx context.Context, accountID, opID string, delta decimal.Decimal, transactionID, reason string, allowNegative bool) (*BalanceOpResult, error)
	// Probe bypasses retry/circuit-breaker to report ground truth for health checks (spec §4.8).
	Probe(ctx context.Context) error
	CircuitState() gobreaker.State
}

// Resilient is the production Client.
type Resilient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration

	retryMaxAttempts int
	retryWait        time.Duration
	retryExponential bool

	breaker *gobreaker.CircuitBreaker

	cache      cache.Cache
	cacheTTL   time.Duration
	tokens     *ServiceTokenIssuer
}

func NewResilient(cfg *config.Config, c cache.Cache) *Resilient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "account-service",
		MaxRequests: 3,
		Interval:    0,
		Timeout:     cfg.CircuitBreaker.WaitDurationInOpenState,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.CircuitBreaker.MinimumNumberOfCalls) {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio*100 >= cfg.CircuitBreaker.FailureRateThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn("account client circuit breaker state change", map[string]interface{}{
				"breaker": name, "from": from.String(), "to": to.String(),
			})
		},
	})

	return &Resilient{
		baseURL:          cfg.AccountService.BaseURL,
		http:             &http.Client{Timeout: cfg.AccountService.Timeout},
		timeout:          cfg.AccountService.Timeout,
		retryMaxAttempts: cfg.Retry.MaxAttempts,
		retryWait:        cfg.Retry.WaitDuration,
		retryExponential: cfg.Retry.Exponential,
		breaker:          cb,
		cache:            c,
		cacheTTL:         cfg.Cache.AccountTTL,
		tokens:           NewServiceTokenIssuer(cfg.JWT.InternalSecret, cfg.JWT.InternalTTL),
	}
}

func (r *Resilient) CircuitState() gobreaker.State { return r.breaker.State() }

func accountCacheKey(id string) string { return "account:snapshot:" + id }

// GetAccount returns a cached snapshot when fresh, otherwise resolves
// through the resilience envelope and repopulates the cache.
func (r *Resilient) GetAccount(ctx context.Context, accountID, userToken string) (*AccountSnapshot, error) {
	var cached AccountSnapshot
	if hit, err := r.cache.Get(ctx, accountCacheKey(accountID), &cached); err == nil && hit {
		return &cached, nil
	}

	snapshot, err := r.resolveAccount(ctx, accountID, userToken)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, accountCacheKey(accountID), snapshot, r.cacheTTL)
	return snapshot, nil
}

func (r *Resilient) resolveAccount(ctx context.Context, accountID, userToken string) (*AccountSnapshot, error) {
	result, err := r.withEnvelope(ctx, func(callCtx context.Context) (interface{}, error) {
		req, err := http.NewRequestWithContext(callCtx, http.MethodGet,
			fmt.Sprintf("%s/api/accounts/%s", r.baseURL, accountID), nil)
		if err != nil {
			return nil, err
		}
		if userToken != "" {
			req.Header.Set("Authorization", "Bearer "+userToken)
		}

		resp, err := r.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, errNotFound
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("account service returned %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return nil, permanentError{fmt.Errorf("account service returned %d", resp.StatusCode)}
		}

		var snapshot AccountSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
			return nil, permanentError{err}
		}
		return &snapshot, nil
	})

	if err != nil {
		return nil, translateErr(err)
	}
	return result.(*AccountSnapshot), nil
}

// ValidateAccount reports whether an account exists and is active.
func (r *Resilient) ValidateAccount(ctx context.Context, accountID, userToken string) (bool, error) {
	snapshot, err := r.GetAccount(ctx, accountID, userToken)
	if err != nil {
		return false, err
	}
	return snapshot.Active, nil
}

// HasSufficientFunds applies the DEBIT-vs-CREDIT rule from spec §4.3.
func (r *Resilient) HasSufficientFunds(snapshot *AccountSnapshot, amount decimal.Decimal) bool {
	if snapshot.AccountType == transaction.AccountTypeCredit {
		return snapshot.AvailableCredit.GreaterThanOrEqual(amount)
	}
	return snapshot.Balance.GreaterThanOrEqual(amount)
}

type balanceOpRequest struct {
	OperationID   string          `json:"operationId"`
	Delta         decimal.Decimal `json:"delta"`
	TransactionID string          `json:"transactionId"`
	Reason        string          `json:"reason"`
	AllowNegative bool            `json:"allowNegative"`
}

// ApplyBalanceOp posts a signed delta to the Accounts service using the
// service-signed internal token, idempotent by opID, and invalidates the
// account's cached snapshot on success (spec §4.3).
func (r *Resilient) ApplyBalanceOp(ctx context.Context, accountID, opID string, delta decimal.Decimal, transactionID, reason string, allowNegative bool) (*BalanceOpResult, error) {
	result, err := r.withEnvelope(ctx, func(callCtx context.Context) (interface{}, error) {
		body, err := json.Marshal(balanceOpRequest{
			OperationID:   opID,
			Delta:         delta,
			TransactionID: transactionID,
			Reason:        reason,
			AllowNegative: allowNegative,
		})
		if err != nil {
			return nil, permanentError{err}
		}

		req, err := http.NewRequestWithContext(callCtx, http.MethodPost,
			fmt.Sprintf("%s/api/internal/accounts/%s/balance-ops", r.baseURL, accountID),
			bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		token, err := r.tokens.Issue()
		if err != nil {
			return nil, permanentError{err}
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := r.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, errNotFound
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("account service returned %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			data, _ := io.ReadAll(resp.Body)
			return nil, permanentError{fmt.Errorf("account service rejected balance op: %d %s", resp.StatusCode, string(data))}
		}

		var out BalanceOpResult
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, permanentError{err}
		}
		return &out, nil
	})

	if err != nil {
		return nil, translateErr(err)
	}

	_ = r.cache.Delete(ctx, accountCacheKey(accountID))
	return result.(*BalanceOpResult), nil
}

// Probe performs a bare health call bypassing retry/circuit-breaker, so
// the health aggregator (C7) sees the dependency's real state rather than
// a breaker-suppressed view of it.
func (r *Resilient) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/actuator/health", nil)
	if err != nil {
		return err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("account service health returned %d", resp.StatusCode)
	}
	return nil
}

// --- resilience envelope plumbing ---

// permanentError marks an error backoff.Permanent-wraps so retry stops.
type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error  { return p.err }

var errNotFound = permanentError{fmt.Errorf("account not found")}

// withEnvelope executes fn under time-limiter(circuit-breaker(retry(fn))).
func (r *Resilient) withEnvelope(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.withRetry(ctx, fn)
	})
	metrics.CircuitBreakerConsecutiveErrors.Set(float64(r.breaker.Counts().ConsecutiveFailures))
	return result, err
}

func (r *Resilient) withRetry(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	var policy backoff.BackOff
	if r.retryExponential {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = r.retryWait
		policy = eb
	} else {
		policy = backoff.NewConstantBackOff(r.retryWait)
	}
	policy = backoff.WithMaxRetries(policy, uint64(max(0, r.retryMaxAttempts-1)))
	policy = backoff.WithContext(policy, ctx)

	var result interface{}
	err := backoff.Retry(func() error {
		out, err := fn(ctx)
		if err == nil {
			result = out
			return nil
		}
		if _, ok := err.(permanentError); ok {
			return backoff.Permanent(err)
		}
		return err
	}, policy)

	return result, err
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// translateErr converts a raw envelope error into the typed taxonomy the
// engine expects: NotFound stays NotFound, a tripped breaker or exhausted
// retry budget becomes ServiceUnavailable.
func translateErr(err error) error {
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return apierrors.ServiceUnavailable("account service circuit breaker is open", 30)
	}
	if pe, ok := err.(permanentError); ok {
		if pe == errNotFound {
			return apierrors.AccountNotFound("")
		}
		return apierrors.ServiceUnavailable(pe.Error(), 5)
	}
	if err == context.DeadlineExceeded {
		return apierrors.ServiceUnavailable("account service call timed out", 5)
	}
	return apierrors.ServiceUnavailable(err.Error(), 5)
}
