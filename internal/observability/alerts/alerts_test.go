package alerts_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"transaction-service/internal/observability/alerts"
	"transaction-service/internal/observability/audit"
)

type capturingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *capturingSink) Publish(event audit.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *capturingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestManagerFire_RecordsAnAlertTriggeredEvent(t *testing.T) {
	sink := &capturingSink{}
	manager := alerts.NewManager(time.Minute, audit.NewRecorder(sink))

	manager.Fire(alerts.LevelCritical, alerts.TypeHighErrorRate, "error rate breached", nil)

	assert.Equal(t, 1, sink.count())
	assert.Equal(t, audit.EventAlertTriggered, sink.events[0].EventType)
}

func TestManagerFire_SuppressesWithinWindow(t *testing.T) {
	sink := &capturingSink{}
	manager := alerts.NewManager(time.Hour, audit.NewRecorder(sink))

	manager.Fire(alerts.LevelWarning, alerts.TypeHighDailyVolume, "first", nil)
	manager.Fire(alerts.LevelWarning, alerts.TypeHighDailyVolume, "second", nil)

	assert.Equal(t, 1, sink.count())
}

func TestManagerFire_DoesNotSuppressDifferentTypes(t *testing.T) {
	sink := &capturingSink{}
	manager := alerts.NewManager(time.Hour, audit.NewRecorder(sink))

	manager.Fire(alerts.LevelWarning, alerts.TypeHighDailyVolume, "volume", nil)
	manager.Fire(alerts.LevelWarning, alerts.TypeHighActiveTransactions, "active", nil)

	assert.Equal(t, 2, sink.count())
}

func TestStreakTracker_FiresOnlyAtThreshold(t *testing.T) {
	tracker := alerts.NewStreakTracker(3)

	assert.False(t, tracker.Observe(true))
	assert.False(t, tracker.Observe(true))
	assert.True(t, tracker.Observe(true))
}

func TestStreakTracker_ResetsOnNonBreach(t *testing.T) {
	tracker := alerts.NewStreakTracker(2)

	assert.False(t, tracker.Observe(true))
	assert.False(t, tracker.Observe(false))
	assert.False(t, tracker.Observe(true))
}

func TestConsecutiveErrorTracker_BecomesUnavailableThenRecovers(t *testing.T) {
	tracker := alerts.NewConsecutiveErrorTracker(2)

	becameUnavailable, recovered := tracker.RecordResult(false)
	assert.False(t, becameUnavailable)
	assert.False(t, recovered)

	becameUnavailable, recovered = tracker.RecordResult(false)
	assert.True(t, becameUnavailable)
	assert.False(t, recovered)

	becameUnavailable, recovered = tracker.RecordResult(false)
	assert.False(t, becameUnavailable, "already degraded, should not refire")

	becameUnavailable, recovered = tracker.RecordResult(true)
	assert.False(t, becameUnavailable)
	assert.True(t, recovered)
}

func TestConsecutiveErrorTracker_SuccessWithoutDegradationIsNotRecovery(t *testing.T) {
	tracker := alerts.NewConsecutiveErrorTracker(5)

	_, recovered := tracker.RecordResult(true)
	assert.False(t, recovered)
}
