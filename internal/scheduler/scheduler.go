// Package scheduler runs the periodic background tasks spec §5 lists, as
// cancellation-aware goroutines on a dedicated pool that never blocks
// request-serving goroutines.
package scheduler

import (
	"context"
	"time"

	"transaction-service/internal/domain/transaction"
	"transaction-service/internal/engine"
	"transaction-service/internal/ledger"
	"transaction-service/internal/observability/alerts"
	"transaction-service/internal/observability/audit"
	"transaction-service/internal/observability/metrics"
	"transaction-service/internal/pkg/logging"
)

// Scheduler owns the goroutines backing every spec §5 periodic task.
type Scheduler struct {
	ledger   ledger.Store
	engine   *engine.Engine
	accounts healthPinger
	alerts   *alerts.Manager
	audit    *audit.Recorder
	success  *metrics.SuccessTracker

	errorRateStreak      *alerts.StreakTracker
	slowProcessingStreak *alerts.StreakTracker
	accountServiceStreak *alerts.ConsecutiveErrorTracker

	errorRateThreshold      float64
	slowProcessingThreshold time.Duration
	dailyVolumeThreshold    float64
	activeTxThreshold       int

	staleSweepAfter time.Duration
}

// healthPinger is the subset of accountclient.Client the account-service
// health ping task needs.
type healthPinger interface {
	Probe(ctx context.Context) error
}

type Config struct {
	ErrorRateThreshold           float64
	ResponseTimeThreshold        time.Duration
	AccountServiceErrorThreshold int
	DailyVolumeThreshold         float64
	ActiveTransactionThreshold   int
	SuppressionWindow            time.Duration
	StaleSweepAfter              time.Duration
}

func New(store ledger.Store, eng *engine.Engine, accounts healthPinger, recorder *audit.Recorder, success *metrics.SuccessTracker, cfg Config) *Scheduler {
	return &Scheduler{
		ledger:                  store,
		engine:                  eng,
		accounts:                accounts,
		alerts:                  alerts.NewManager(cfg.SuppressionWindow, recorder),
		audit:                   recorder,
		success:                 success,
		errorRateStreak:         alerts.NewStreakTracker(3),
		slowProcessingStreak:    alerts.NewStreakTracker(3),
		accountServiceStreak:    alerts.NewConsecutiveErrorTracker(cfg.AccountServiceErrorThreshold),
		errorRateThreshold:      cfg.ErrorRateThreshold,
		slowProcessingThreshold: cfg.ResponseTimeThreshold,
		dailyVolumeThreshold:    cfg.DailyVolumeThreshold,
		activeTxThreshold:       cfg.ActiveTransactionThreshold,
		staleSweepAfter:         cfg.StaleSweepAfter,
	}
}

// Run starts every periodic task as its own goroutine, all stopping when
// ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	go s.every(ctx, 60*time.Second, s.refreshPendingGauge)
	go s.everyAt(ctx, 0, 0, s.resetDailyCounters)
	go s.every(ctx, 5*time.Minute, s.snapshotHealthMetrics)
	go s.everyAt(ctx, 23, 30, s.dailySummaryAudit)
	go s.every(ctx, 60*time.Second, s.staleSweep)
	go s.every(ctx, 60*time.Second, s.checkAlerts)
	go s.every(ctx, 30*time.Second, s.pingAccountService)
}

func (s *Scheduler) every(ctx context.Context, interval time.Duration, task func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task(ctx)
		}
	}
}

// everyAt runs task once per day at hour:minute UTC.
func (s *Scheduler) everyAt(ctx context.Context, hour, minute int, task func(context.Context)) {
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			task(ctx)
		}
	}
}

func (s *Scheduler) refreshPendingGauge(ctx context.Context) {
	page, err := s.ledger.PageByStatus(ctx, transaction.StatusProcessing, 0, 1)
	if err != nil {
		logging.Error("failed to refresh pending gauge", err, nil)
		return
	}
	metrics.PendingTransactions.Set(float64(page.TotalElements))
}

func (s *Scheduler) resetDailyCounters(ctx context.Context) {
	metrics.ResetDailyVolume()
	metrics.DailyVolumeCount.Set(0)
	logging.Info("daily counters reset", nil)
}

func (s *Scheduler) snapshotHealthMetrics(ctx context.Context) {
	metrics.UpdateSystemMetrics()
}

func (s *Scheduler) dailySummaryAudit(ctx context.Context) {
	now := time.Now().UTC()
	start := now.Add(-24 * time.Hour)
	stats, err := s.ledger.Stats(ctx, start, now)
	if err != nil {
		logging.Error("failed to compute daily summary", err, nil)
		return
	}
	s.audit.Record("", audit.EventSystem, "daily_summary", audit.OutcomeSuccess, "", "", map[string]interface{}{
		"totalTransactions":     stats.TotalTransactions,
		"completedTransactions": stats.CompletedTransactions,
		"totalAmount":           stats.TotalAmount.String(),
		"successRate":           stats.SuccessRate,
	})
}

func (s *Scheduler) staleSweep(ctx context.Context) {
	swept, err := s.engine.Sweep(ctx, s.staleSweepAfter)
	if err != nil {
		logging.Error("stale sweep failed", err, nil)
		return
	}
	if swept > 0 {
		logging.Warn("swept stale PROCESSING transactions", map[string]interface{}{"count": swept})
	}
}

func (s *Scheduler) checkAlerts(ctx context.Context) {
	errorRate := 1 - s.success.SuccessRate()
	if s.errorRateStreak.Observe(errorRate > s.errorRateThreshold) {
		s.alerts.Fire(alerts.LevelCritical, alerts.TypeHighErrorRate, "sustained high error rate", map[string]interface{}{"errorRate": errorRate})
	}

	page, err := s.ledger.PageByStatus(ctx, transaction.StatusProcessing, 0, 1)
	if err == nil && page.TotalElements > s.activeTxThreshold {
		s.alerts.Fire(alerts.LevelWarning, alerts.TypeHighActiveTransactions, "active transaction count above threshold", map[string]interface{}{"active": page.TotalElements})
	}

	dailyVolume := metrics.CurrentDailyVolume()
	if dailyVolume > s.dailyVolumeThreshold {
		s.alerts.Fire(alerts.LevelWarning, alerts.TypeHighDailyVolume, "daily volume above threshold", map[string]interface{}{"volume": dailyVolume})
	}

	s.success.ResetWindow()
}

func (s *Scheduler) pingAccountService(ctx context.Context) {
	err := s.accounts.Probe(ctx)
	unavailable, recovered := s.accountServiceStreak.RecordResult(err == nil)
	if unavailable {
		s.alerts.Fire(alerts.LevelCritical, alerts.TypeAccountServiceUnavailable, "account service unreachable", nil)
	}
	if recovered {
		s.alerts.Fire(alerts.LevelInfo, alerts.TypeAccountServiceRecovered, "account service recovered", nil)
	}
}
