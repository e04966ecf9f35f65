// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/name-historian/internal/domain/entities"
	"github.com/ersonp/name-historian/internal/domain/ports"
)

type storedInterval struct {
	id int64
	entities.NameInterval
}

// HistoryStore is an in-memory implementation of ports.HistoryStore.
// Err, when set, is returned by every call before any change is made.
type HistoryStore struct {
	mu     sync.Mutex
	rows   []storedInterval
	nextID int64

	Err               error
	RewriteCallCount  int
	RecordBatchCounts []int
}

// NewHistoryStore creates a new empty mock HistoryStore.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{nextID: 1}
}

// EnsureSchema returns the configured error.
func (m *HistoryStore) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close does nothing.
func (m *HistoryStore) Close() error {
	return nil
}

// RecordObservation extends or opens the identity's live interval.
func (m *HistoryStore) RecordObservation(_ context.Context, obs entities.Observation, now time.Time) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(obs.Interval(now))
	return nil
}

// RecordObservations records every observation under one lock.
func (m *HistoryStore) RecordObservations(_ context.Context, observations []entities.Observation, now time.Time) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordBatchCounts = append(m.RecordBatchCounts, len(observations))
	for _, obs := range observations {
		m.record(obs.Interval(now))
	}
	return nil
}

// RecordInterval extends or inserts the given interval.
func (m *HistoryStore) RecordInterval(_ context.Context, interval entities.NameInterval) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(interval)
	return nil
}

// History returns the identity's intervals, newest first.
func (m *HistoryStore) History(_ context.Context, identity uuid.UUID) ([]entities.NameInterval, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history(identity), nil
}

// LatestByName returns the most recently started interval with name.
func (m *HistoryStore) LatestByName(_ context.Context, name string) (*entities.NameInterval, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *storedInterval
	for i := range m.rows {
		row := &m.rows[i]
		if row.Name != name {
			continue
		}
		if latest == nil || newer(*row, *latest) {
			latest = row
		}
	}
	if latest == nil {
		return nil, nil
	}
	found := latest.NameInterval
	return &found, nil
}

// RewriteHistory replaces the identity's intervals with fn's result.
func (m *HistoryStore) RewriteHistory(_ context.Context, identity uuid.UUID, fn ports.RewriteFunc) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RewriteCallCount++

	replacement, err := fn(m.history(identity))
	if err != nil {
		return err
	}
	m.rows = slices.DeleteFunc(m.rows, func(row storedInterval) bool {
		return row.Identity == identity
	})
	for _, n := range replacement {
		m.insert(n)
	}
	return nil
}

// Identities lists the identities with stored intervals, in first-seen order.
func (m *HistoryStore) Identities(_ context.Context) ([]uuid.UUID, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for _, row := range m.rows {
		if !slices.Contains(ids, row.Identity) {
			ids = append(ids, row.Identity)
		}
	}
	return ids, nil
}

// Len returns the total number of stored intervals.
func (m *HistoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *HistoryStore) record(n entities.NameInterval) {
	var live *storedInterval
	for i := range m.rows {
		row := &m.rows[i]
		if row.Identity != n.Identity {
			continue
		}
		if live == nil || row.FirstSeen.After(live.FirstSeen) ||
			(row.FirstSeen.Equal(live.FirstSeen) && row.id > live.id) {
			live = row
		}
	}
	if live != nil && live.Name == n.Name {
		if n.LastSeen.After(live.LastSeen) {
			live.LastSeen = n.LastSeen
		}
		return
	}
	m.insert(n)
}

func (m *HistoryStore) insert(n entities.NameInterval) {
	if m.nextID == 0 {
		m.nextID = 1
	}
	m.rows = append(m.rows, storedInterval{id: m.nextID, NameInterval: n})
	m.nextID++
}

func (m *HistoryStore) history(identity uuid.UUID) []entities.NameInterval {
	var rows []storedInterval
	for _, row := range m.rows {
		if row.Identity == identity {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b storedInterval) int {
		if newer(a, b) {
			return -1
		}
		return 1
	})
	result := make([]entities.NameInterval, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.NameInterval)
	}
	return result
}

// newer orders by first seen, then last seen, then insertion, all descending.
func newer(a, b storedInterval) bool {
	if !a.FirstSeen.Equal(b.FirstSeen) {
		return a.FirstSeen.After(b.FirstSeen)
	}
	if !a.LastSeen.Equal(b.LastSeen) {
		return a.LastSeen.After(b.LastSeen)
	}
	return a.id > b.id
}
