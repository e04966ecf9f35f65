package metrics

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/name-historian/internal/domain/entities"
	"github.com/ersonp/name-historian/internal/domain/ports"
)

// InstrumentedStore wraps a HistoryStore and times every operation.
type InstrumentedStore struct {
	next     ports.HistoryStore
	recorder *Recorder
}

var _ ports.HistoryStore = (*InstrumentedStore)(nil)

// InstrumentStore wraps next so every call is reported to recorder.
func InstrumentStore(next ports.HistoryStore, recorder *Recorder) *InstrumentedStore {
	return &InstrumentedStore{next: next, recorder: recorder}
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	s.recorder.StoreOperation(op, time.Since(start), err)
}

// EnsureSchema delegates to the wrapped store.
func (s *InstrumentedStore) EnsureSchema(ctx context.Context) error {
	start := time.Now()
	err := s.next.EnsureSchema(ctx)
	s.observe("ensure_schema", start, err)
	return err
}

// Close delegates to the wrapped store.
func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}

// RecordObservation delegates to the wrapped store.
func (s *InstrumentedStore) RecordObservation(ctx context.Context, obs entities.Observation, now time.Time) error {
	start := time.Now()
	err := s.next.RecordObservation(ctx, obs, now)
	s.observe("record_observation", start, err)
	return err
}

// RecordObservations delegates to the wrapped store.
func (s *InstrumentedStore) RecordObservations(ctx context.Context, observations []entities.Observation, now time.Time) error {
	start := time.Now()
	err := s.next.RecordObservations(ctx, observations, now)
	s.observe("record_observations", start, err)
	return err
}

// RecordInterval delegates to the wrapped store.
func (s *InstrumentedStore) RecordInterval(ctx context.Context, interval entities.NameInterval) error {
	start := time.Now()
	err := s.next.RecordInterval(ctx, interval)
	s.observe("record_interval", start, err)
	return err
}

// History delegates to the wrapped store.
func (s *InstrumentedStore) History(ctx context.Context, identity uuid.UUID) ([]entities.NameInterval, error) {
	start := time.Now()
	history, err := s.next.History(ctx, identity)
	s.observe("history", start, err)
	return history, err
}

// LatestByName delegates to the wrapped store.
func (s *InstrumentedStore) LatestByName(ctx context.Context, name string) (*entities.NameInterval, error) {
	start := time.Now()
	latest, err := s.next.LatestByName(ctx, name)
	s.observe("latest_by_name", start, err)
	return latest, err
}

// RewriteHistory delegates to the wrapped store.
func (s *InstrumentedStore) RewriteHistory(ctx context.Context, identity uuid.UUID, fn ports.RewriteFunc) error {
	start := time.Now()
	err := s.next.RewriteHistory(ctx, identity, fn)
	s.observe("rewrite_history", start, err)
	return err
}

// Identities delegates to the wrapped store.
func (s *InstrumentedStore) Identities(ctx context.Context) ([]uuid.UUID, error) {
	start := time.Now()
	ids, err := s.next.Identities(ctx)
	s.observe("identities", start, err)
	return ids, err
}
