package monitoring

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Monitor tracks the outcome of scheduled runs. Health follows the last
// completed run; partial failures are logged but keep the service healthy.
type Monitor struct {
	clock clockwork.Clock

	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	lastError      string
	runs           int
	failures       int
}

func NewMonitor() *Monitor {
	return NewMonitorWithClock(clockwork.NewRealClock())
}

func NewMonitorWithClock(clock clockwork.Clock) *Monitor {
	return &Monitor{clock: clock}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = m.clock.Now()
	m.lastSummary = summary
	m.lastError = ""
	m.runs++
	m.mu.Unlock()

	slog.Info("Run completed", "summary", summary, "duration", duration)
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastError = err.Error()
	m.mu.Unlock()

	slog.Warn("Run partially failed", "error", err, "duration", duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = m.clock.Now()
	m.lastError = err.Error()
	m.runs++
	m.failures++
	m.mu.Unlock()

	slog.Error("Run failed", "error", err, "duration", duration)
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}
	if m.lastRunSuccess {
		return fmt.Sprintf("Last run: %s (%s)", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
	}
	return fmt.Sprintf("Last run failed: %s (%s)", m.lastRunTime.Format("Jan 2 15:04"), m.lastError)
}

type Status struct {
	Healthy     bool       `json:"healthy"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastSummary string     `json:"last_summary,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	Runs        int        `json:"runs"`
	Failures    int        `json:"failures"`
}

// Status returns a snapshot of the run history.
func (m *Monitor) Status() Status {
	healthy := m.IsHealthy()

	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Status{
		Healthy:     healthy,
		LastSummary: m.lastSummary,
		LastError:   m.lastError,
		Runs:        m.runs,
		Failures:    m.failures,
	}
	if !m.lastRunTime.IsZero() {
		t := m.lastRunTime
		st.LastRun = &t
	}
	return st
}
