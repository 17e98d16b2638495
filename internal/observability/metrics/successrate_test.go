package metrics_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"transaction-service/internal/observability/metrics"
)

func TestSuccessRate_DefaultsToHealthyWithNoSamples(t *testing.T) {
	tracker := metrics.NewSuccessTracker()
	assert.Equal(t, 1.0, tracker.SuccessRate())
}

func TestSuccessRate_MixedOutcomes(t *testing.T) {
	tracker := metrics.NewSuccessTracker()
	for i := 0; i < 3; i++ {
		tracker.RecordSuccess()
	}
	tracker.RecordFailure()

	assert.Equal(t, 0.75, tracker.SuccessRate())
}

func TestSuccessRate_AllFailures(t *testing.T) {
	tracker := metrics.NewSuccessTracker()
	tracker.RecordFailure()
	tracker.RecordFailure()

	assert.Equal(t, 0.0, tracker.SuccessRate())
}

func TestResetWindow_ClearsCounts(t *testing.T) {
	tracker := metrics.NewSuccessTracker()
	tracker.RecordFailure()
	tracker.RecordFailure()

	tracker.ResetWindow()

	assert.Equal(t, 1.0, tracker.SuccessRate())
}

func TestConcurrentRecording(t *testing.T) {
	tracker := metrics.NewSuccessTracker()
	var wg sync.WaitGroup
	n := 200
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				tracker.RecordSuccess()
			} else {
				tracker.RecordFailure()
			}
		}(i)
	}
	wg.Wait()

	assert.InDelta(t, 0.5, tracker.SuccessRate(), 0.001)
}
