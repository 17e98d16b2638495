// Package executor drives the transaction service's REST surface (spec
// §6): deposit, withdraw, transfer, and an account-stats read as the
// stand-in for a balance check, adapted from the teacher's
// /accounts/{id}/deposit-shaped executor that targeted the old
// locally-owned-account API.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Executor struct {
	client    *http.Client
	baseURL   string
	authToken string
}

func New(baseURL, authToken string) *Executor {
	return &Executor{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        1000,
				MaxIdleConnsPerHost: 100,
				MaxConnsPerHost:     100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:   baseURL,
		authToken: authToken,
	}
}

func (e *Executor) Deposit(ctx context.Context, accountID string, amount float64) error {
	payload := map[string]string{
		"accountId": accountID,
		"amount":    fmt.Sprintf("%.2f", amount),
		"currency":  "USD",
		"reference": "perf-test",
	}
	_, err := e.post(ctx, "/api/transactions/deposit", payload)
	return err
}

func (e *Executor) Withdraw(ctx context.Context, accountID string, amount float64) error {
	payload := map[string]string{
		"accountId": accountID,
		"amount":    fmt.Sprintf("%.2f", amount),
		"currency":  "USD",
		"reference": "perf-test",
	}
	_, err := e.post(ctx, "/api/transactions/withdraw", payload)
	return err
}

func (e *Executor) Transfer(ctx context.Context, fromID, toID string, amount float64) error {
	payload := map[string]string{
		"fromAccountId": fromID,
		"toAccountId":   toID,
		"amount":        fmt.Sprintf("%.2f", amount),
		"currency":      "USD",
		"reference":     "perf-test",
	}
	_, err := e.post(ctx, "/api/transactions/transfer", payload)
	return err
}

// GetBalance stands in for a balance read using the account-stats
// endpoint, since balance itself is owned by the external Accounts
// service and not part of this service's REST surface.
func (e *Executor) GetBalance(ctx context.Context, accountID string) (float64, error) {
	resp, err := e.get(ctx, fmt.Sprintf("/api/transactions/account/%s/stats", accountID))
	if err != nil {
		return 0, err
	}

	var result struct {
		TotalAmount string `json:"totalAmount"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return 0, fmt.Errorf("failed to parse stats response: %w", err)
	}

	var amount float64
	fmt.Sscanf(result.TotalAmount, "%f", &amount)
	return amount, nil
}

func (e *Executor) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Load-Test", "true")
	e.authenticate(req)

	return e.do(req)
}

func (e *Executor) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", e.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Load-Test", "true")
	e.authenticate(req)

	return e.do(req)
}

func (e *Executor) authenticate(req *http.Request) {
	if e.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+e.authToken)
	}
}

func (e *Executor) do(req *http.Request) ([]byte, error) {
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var respBody bytes.Buffer
	if _, err := respBody.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, respBody.String())
	}

	return respBody.Bytes(), nil
}
