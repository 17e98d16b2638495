// Package alerts implements the level-triaged, suppression-aware alert
// manager from spec §4.5: CRITICAL/WARNING/INFO alerts, deduplicated by
// (level, type) within a suppression window.
package alerts

import (
	"sync"
	"time"

	"transaction-service/internal/observability/audit"
	"transaction-service/internal/pkg/logging"
)

type Level string

const (
	LevelCritical Level = "CRITICAL"
	LevelWarning  Level = "WARNING"
	LevelInfo     Level = "INFO"
)

type Type string

const (
	TypeHighErrorRate              Type = "HIGH_ERROR_RATE"
	TypeAccountServiceUnavailable   Type = "ACCOUNT_SERVICE_UNAVAILABLE"
	TypeAccountServiceRecovered     Type = "ACCOUNT_SERVICE_RECOVERED"
	TypeHighDailyVolume             Type = "HIGH_DAILY_VOLUME"
	TypeHighActiveTransactions      Type = "HIGH_ACTIVE_TRANSACTIONS"
	TypeSlowTransactionProcessing   Type = "SLOW_TRANSACTION_PROCESSING"
)

// Manager tracks per-(level,type) suppression windows and forwards
// surviving alerts to the audit trail as ALERT_TRIGGERED events.
type Manager struct {
	mu          sync.Mutex
	lastFired   map[string]time.Time
	suppression time.Duration
	recorder    *audit.Recorder
}

func NewManager(suppression time.Duration, recorder *audit.Recorder) *Manager {
	return &Manager{
		lastFired:   make(map[string]time.Time),
		suppression: suppression,
		recorder:    recorder,
	}
}

// Fire raises an alert unless an identical (level, type) alert fired
// within the suppression window, in which case it is logged as
// suppressed and dropped.
func (m *Manager) Fire(level Level, alertType Type, message string, fields map[string]interface{}) {
	key := string(level) + ":" + string(alertType)

	m.mu.Lock()
	now := time.Now()
	if last, ok := m.lastFired[key]; ok && now.Sub(last) < m.suppression {
		m.mu.Unlock()
		logging.Info("alert suppressed", map[string]interface{}{"level": level, "type": alertType})
		return
	}
	m.lastFired[key] = now
	m.mu.Unlock()

	logging.Warn("alert triggered", map[string]interface{}{
		"level": level, "type": alertType, "message": message,
	})

	allFields := map[string]interface{}{"level": level, "alertType": alertType, "message": message}
	for k, v := range fields {
		allFields[k] = v
	}
	m.recorder.Record("", audit.EventAlertTriggered, string(alertType), audit.OutcomeSuccess, "", "", allFields)
}

// StreakTracker counts consecutive over-threshold samples, the building
// block HIGH_ERROR_RATE uses to require N consecutive breaches before
// firing (spec §4.5). No scheduler check observes processing-time
// samples, so SLOW_TRANSACTION_PROCESSING is defined but never fired.
type StreakTracker struct {
	mu        sync.Mutex
	threshold int
	streak    int
}

func NewStreakTracker(threshold int) *StreakTracker {
	return &StreakTracker{threshold: threshold}
}

// Observe records one sample; it returns true exactly once the streak
// reaches the configured threshold, and resets on any non-breaching
// sample.
func (t *StreakTracker) Observe(breached bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !breached {
		t.streak = 0
		return false
	}
	t.streak++
	return t.streak >= t.threshold
}

// ConsecutiveErrorTracker drives ACCOUNT_SERVICE_UNAVAILABLE / RECOVERED:
// it fires UNAVAILABLE once the error streak crosses the threshold, and
// RECOVERED on the first success after UNAVAILABLE has fired; a success
// that ends a streak still below the threshold reports no recovery.
type ConsecutiveErrorTracker struct {
	mu        sync.Mutex
	threshold int
	streak    int
	degraded  bool
}

func NewConsecutiveErrorTracker(threshold int) *ConsecutiveErrorTracker {
	return &ConsecutiveErrorTracker{threshold: threshold}
}

// RecordResult returns (becameUnavailable, recovered).
func (t *ConsecutiveErrorTracker) RecordResult(success bool) (becameUnavailable, recovered bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if success {
		wasDegraded := t.degraded
		t.streak = 0
		t.degraded = false
		return false, wasDegraded
	}

	t.streak++
	if t.streak >= t.threshold && !t.degraded {
		t.degraded = true
		return true, false
	}
	return false, false
}
