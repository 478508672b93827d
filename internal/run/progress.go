package run

import (
	"math"
	"sync"
)

// State is the run lifecycle state
type State string

const (
	// StateIdle means no run has happened yet
	StateIdle State = "idle"
	// StateRunning means a run is in flight
	StateRunning State = "running"
	// StateDone means the last run completed
	StateDone State = "done"
	// StateError means the last run failed
	StateError State = "error"
)

// Snapshot is a point-in-time view of run progress for pollers
type Snapshot struct {
	Percent float64
	Current int
	Total   int
	State   State
	Message string
}

// Tracker holds the progress of the current run. It is written by the run
// goroutine and read by any number of pollers; all access goes through the
// mutex so readers never observe a half-updated pair. A finished run's
// snapshot survives until the next run overwrites it.
type Tracker struct {
	mu      sync.Mutex
	current int
	total   int
	state   State
	message string
}

// NewTracker creates a tracker in the idle state
func NewTracker() *Tracker {
	return &Tracker{state: StateIdle}
}

// TryStart claims the tracker for a new run. It returns false while another
// run is active, so overlapping runs are rejected instead of silently
// sharing progress state.
func (t *Tracker) TryStart() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateRunning {
		return false
	}
	t.state = StateRunning
	t.current = 0
	t.total = 0
	t.message = ""
	return true
}

// Begin records the total row count once the table is loaded
func (t *Tracker) Begin(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = total
}

// Step records one completed row
func (t *Tracker) Step() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current++
}

// Done marks the run complete
func (t *Tracker) Done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateDone
}

// Fail marks the run failed with a diagnostic message
func (t *Tracker) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateError
	t.message = message
}

// Snapshot returns the current progress
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := Snapshot{
		Current: t.current,
		Total:   t.total,
		State:   t.state,
		Message: t.message,
	}
	switch t.state {
	case StateRunning:
		total := t.total
		if total == 0 {
			total = 1
		}
		snapshot.Percent = math.Round(float64(t.current)/float64(total)*100*10) / 10
	case StateDone:
		snapshot.Percent = 100
	}
	return snapshot
}
