// Package store provides persistence backends for the run journal.
//
// The journal only requires opaque snapshot semantics: save/load the active
// run, archive terminal runs, and save/load the process-wide directive list.
// Two backends are provided: SQLite for production and an in-memory store
// for tests.
package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/caseflow-dev/caseflow/internal/journal"
)

// Memory is an in-memory journal store. Snapshots are deep-copied through
// JSON so callers cannot alias stored state, matching the isolation the
// SQLite backend provides.
type Memory struct {
	mu      sync.Mutex
	active  []byte
	archive [][]byte
	global  []byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// SaveActiveRun implements journal.Store.
func (m *Memory) SaveActiveRun(run *journal.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run snapshot: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = data
	return nil
}

// ClearActiveRun implements journal.Store.
func (m *Memory) ClearActiveRun() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
	return nil
}

// LoadActiveRun implements journal.Store.
func (m *Memory) LoadActiveRun() (*journal.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil, nil
	}
	var run journal.Run
	if err := json.Unmarshal(m.active, &run); err != nil {
		return nil, fmt.Errorf("unmarshal run snapshot: %w", err)
	}
	return &run, nil
}

// ArchiveRun implements journal.Store.
func (m *Memory) ArchiveRun(run *journal.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run snapshot: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archive = append([][]byte{data}, m.archive...)
	return nil
}

// LoadHistory implements journal.Store.
func (m *Memory) LoadHistory(limit int) ([]*journal.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.archive)
	if limit > 0 && limit < n {
		n = limit
	}
	runs := make([]*journal.Run, 0, n)
	for _, data := range m.archive[:n] {
		var run journal.Run
		if err := json.Unmarshal(data, &run); err != nil {
			return nil, fmt.Errorf("unmarshal archived run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, nil
}

// SaveGlobalDirectives implements journal.Store.
func (m *Memory) SaveGlobalDirectives(directives []journal.ScopeDirective) error {
	data, err := json.Marshal(directives)
	if err != nil {
		return fmt.Errorf("marshal directives: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global = data
	return nil
}

// LoadGlobalDirectives implements journal.Store.
func (m *Memory) LoadGlobalDirectives() ([]journal.ScopeDirective, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.global == nil {
		return nil, nil
	}
	var directives []journal.ScopeDirective
	if err := json.Unmarshal(m.global, &directives); err != nil {
		return nil, fmt.Errorf("unmarshal directives: %w", err)
	}
	return directives, nil
}
