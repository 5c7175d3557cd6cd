package runlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cascadialive/showcrawler/internal/syncer"
)

// FinishedRun is the in-memory representation of a completed run.
type FinishedRun struct {
	Run
	ErrorText string
	Stats     syncer.Stats
	Finished  *time.Time
}

// MemoryProvider keeps run history in memory. Used in tests and for local
// development without Postgres.
type MemoryProvider struct {
	mu   sync.RWMutex
	runs map[string]*FinishedRun
}

// NewMemoryProvider returns an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{runs: make(map[string]*FinishedRun)}
}

// StartRun records the run.
func (m *MemoryProvider) StartRun(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	m.runs[run.ID] = &FinishedRun{Run: run}
	return nil
}

// FinishRun updates the stored run.
func (m *MemoryProvider) FinishRun(
	_ context.Context,
	runID, status, errText string,
	stats syncer.Stats,
	finished time.Time,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s not found", runID)
	}
	run.Status = status
	run.ErrorText = errText
	run.Stats = stats
	run.Finished = &finished
	return nil
}

// Get returns a copy of the stored run, if present.
func (m *MemoryProvider) Get(runID string) (FinishedRun, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[runID]
	if !ok {
		return FinishedRun{}, false
	}
	return *run, true
}

// Len reports how many runs were recorded.
func (m *MemoryProvider) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// Close does nothing.
func (m *MemoryProvider) Close() {}
