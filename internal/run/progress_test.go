package run

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Lifecycle(t *testing.T) {
	tracker := NewTracker()

	snapshot := tracker.Snapshot()
	assert.Equal(t, StateIdle, snapshot.State)
	assert.Equal(t, 0.0, snapshot.Percent)

	assert.True(t, tracker.TryStart())
	tracker.Begin(4)
	tracker.Step()

	snapshot = tracker.Snapshot()
	assert.Equal(t, StateRunning, snapshot.State)
	assert.Equal(t, 1, snapshot.Current)
	assert.Equal(t, 4, snapshot.Total)
	assert.Equal(t, 25.0, snapshot.Percent)

	tracker.Step()
	tracker.Step()
	assert.Equal(t, 75.0, tracker.Snapshot().Percent)

	tracker.Done()
	snapshot = tracker.Snapshot()
	assert.Equal(t, StateDone, snapshot.State)
	assert.Equal(t, 100.0, snapshot.Percent)
}

func TestTracker_TryStartRejectsActiveRun(t *testing.T) {
	tracker := NewTracker()

	assert.True(t, tracker.TryStart())
	assert.False(t, tracker.TryStart())

	tracker.Done()
	assert.True(t, tracker.TryStart())

	tracker.Fail("error: boom")
	assert.True(t, tracker.TryStart())
}

func TestTracker_FailCarriesMessage(t *testing.T) {
	tracker := NewTracker()
	tracker.TryStart()
	tracker.Fail("error: sheet unavailable")

	snapshot := tracker.Snapshot()
	assert.Equal(t, StateError, snapshot.State)
	assert.Equal(t, "error: sheet unavailable", snapshot.Message)
	assert.Equal(t, 0.0, snapshot.Percent)
}

func TestTracker_ZeroTotalPercentGuard(t *testing.T) {
	tracker := NewTracker()
	tracker.TryStart()
	tracker.Begin(0)

	assert.Equal(t, 0.0, tracker.Snapshot().Percent)
}

func TestTracker_NewRunResetsProgress(t *testing.T) {
	tracker := NewTracker()
	tracker.TryStart()
	tracker.Begin(2)
	tracker.Step()
	tracker.Done()

	assert.True(t, tracker.TryStart())
	snapshot := tracker.Snapshot()
	assert.Equal(t, 0, snapshot.Current)
	assert.Equal(t, 0, snapshot.Total)
	assert.Equal(t, StateRunning, snapshot.State)
}

func TestTracker_ConcurrentPollersAndWriter(t *testing.T) {
	tracker := NewTracker()
	tracker.TryStart()
	tracker.Begin(100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tracker.Step()
		}()
		go func() {
			defer wg.Done()
			tracker.Snapshot()
		}()
	}
	wg.Wait()

	snapshot := tracker.Snapshot()
	assert.Equal(t, 100, snapshot.Current)
	assert.Equal(t, 100.0, snapshot.Percent)
}
