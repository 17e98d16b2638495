// Package health implements the aggregated health probe from spec §4.8:
// database connectivity, cache round-trip, account-service reachability
// (bypassing retry/circuit-breaker), and a self-check. Grounded on the
// teacher's liveness-probe shape in internal/api/handlers (health
// reporting folded into the DI container) generalized into its own
// component.
package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v4/mem"

	"transaction-service/internal/accountclient"
	"transaction-service/internal/cache"
)

type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// Probe is one dependency's reported health.
type Probe struct {
	Status  Status                 `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Report is the aggregated health response.
type Report struct {
	Status Status          `json:"status"`
	Checks map[string]Probe `json:"checks"`
}

// SuccessRater reports the engine's rolling success rate for the
// self-check probe; implemented by the alerts/metrics layer.
type SuccessRater interface {
	SuccessRate() float64
}

type Checker struct {
	pool     *pgxpool.Pool
	cache    *cache.RedisCache
	accounts accountclient.Client
	rater    SuccessRater
}

func NewChecker(pool *pgxpool.Pool, redisCache *cache.RedisCache, accounts accountclient.Client, rater SuccessRater) *Checker {
	return &Checker{pool: pool, cache: redisCache, accounts: accounts, rater: rater}
}

func (c *Checker) Check(ctx context.Context) Report {
	checks := map[string]Probe{
		"database":      c.checkDatabase(ctx),
		"cache":         c.checkCache(ctx),
		"accountService": c.checkAccountService(ctx),
		"self":          c.checkSelf(),
	}

	overall := StatusUp
	for _, probe := range checks {
		if probe.Status == StatusDown {
			overall = StatusDown
			break
		}
	}
	return Report{Status: overall, Checks: checks}
}

func (c *Checker) checkDatabase(ctx context.Context) Probe {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var one int
	if err := c.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return Probe{Status: StatusDown, Details: map[string]interface{}{"error": err.Error()}}
	}
	return Probe{Status: StatusUp}
}

func (c *Checker) checkCache(ctx context.Context) Probe {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.cache.RoundTripProbe(ctx); err != nil {
		return Probe{Status: StatusDown, Details: map[string]interface{}{"error": err.Error()}}
	}
	return Probe{Status: StatusUp}
}

func (c *Checker) checkAccountService(ctx context.Context) Probe {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := c.accounts.Probe(ctx); err != nil {
		return Probe{Status: StatusDown, Details: map[string]interface{}{
			"error": err.Error(), "circuitState": c.accounts.CircuitState().String(),
		}}
	}
	return Probe{Status: StatusUp, Details: map[string]interface{}{"circuitState": c.accounts.CircuitState().String()}}
}

func (c *Checker) checkSelf() Probe {
	details := map[string]interface{}{}
	if vm, err := mem.VirtualMemory(); err == nil {
		details["memoryPercent"] = vm.UsedPercent
	}
	if c.rater != nil {
		details["successRate"] = c.rater.SuccessRate()
	}
	return Probe{Status: StatusUp, Details: details}
}
