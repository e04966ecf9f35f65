// Package services implements the name history use cases on top of the
// domain ports.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/name-historian/internal/domain/entities"
	"github.com/ersonp/name-historian/internal/domain/ports"
)

// ErrLookupsDisabled is returned by remote imports when no change source is configured.
var ErrLookupsDisabled = errors.New("external name lookups are disabled")

// HistoryService records observations and reconciles stored histories with
// external ones.
type HistoryService struct {
	store   ports.HistoryStore
	source  ports.ChangeSource
	metrics ports.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a HistoryService.
type Option func(*HistoryService)

// WithChangeSource enables remote imports from source.
func WithChangeSource(source ports.ChangeSource) Option {
	return func(s *HistoryService) {
		s.source = source
	}
}

// WithClock replaces time.Now as the source of "now".
func WithClock(now func() time.Time) Option {
	return func(s *HistoryService) {
		s.now = now
	}
}

// WithMetrics reports counters to m.
func WithMetrics(m ports.Metrics) Option {
	return func(s *HistoryService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *HistoryService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHistoryService creates a new history service backed by store.
func NewHistoryService(store ports.HistoryStore, opts ...Option) *HistoryService {
	s := &HistoryService{
		store:   store,
		metrics: nopMetrics{},
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LookupsEnabled reports whether remote imports are possible.
func (s *HistoryService) LookupsEnabled() bool {
	return s.source != nil
}

// Observe records that identity currently uses name.
func (s *HistoryService) Observe(ctx context.Context, obs entities.Observation) error {
	if err := obs.Validate(); err != nil {
		return err
	}
	if err := s.store.RecordObservation(ctx, obs, s.clock()); err != nil {
		return fmt.Errorf("recording observation of %s: %w", obs.Identity, err)
	}
	s.metrics.ObservationsRecorded(1)
	s.logger.DebugContext(ctx, "observation recorded", "identity", obs.Identity, "name", obs.Name)
	return nil
}

// ObserveAll records a batch of observations at the same instant.
// Nothing is recorded if any observation is invalid.
func (s *HistoryService) ObserveAll(ctx context.Context, observations []entities.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	for i, obs := range observations {
		if err := obs.Validate(); err != nil {
			return fmt.Errorf("observation %d: %w", i+1, err)
		}
	}
	if err := s.store.RecordObservations(ctx, observations, s.clock()); err != nil {
		return fmt.Errorf("recording %d observations: %w", len(observations), err)
	}
	s.metrics.ObservationsRecorded(len(observations))
	s.logger.DebugContext(ctx, "observations recorded", "count", len(observations))
	return nil
}

// History returns the identity's stored intervals, newest first.
func (s *HistoryService) History(ctx context.Context, identity uuid.UUID) ([]entities.NameInterval, error) {
	history, err := s.store.History(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("reading history of %s: %w", identity, err)
	}
	return history, nil
}

// LatestByName returns the most recently started interval carrying name.
// Returns nil if no identity was ever seen with it.
func (s *HistoryService) LatestByName(ctx context.Context, name string) (*entities.NameInterval, error) {
	if name == "" {
		return nil, nil
	}
	latest, err := s.store.LatestByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("looking up name %q: %w", name, err)
	}
	return latest, nil
}

// Identities lists every identity with stored history.
func (s *HistoryService) Identities(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.store.Identities(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing identities: %w", err)
	}
	return ids, nil
}

func (s *HistoryService) clock() time.Time {
	return entities.TruncateMillis(s.now())
}

type nopMetrics struct{}

func (nopMetrics) ObservationsRecorded(int) {}
func (nopMetrics) ImportFinished(string)    {}
