package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ersonp/name-historian/internal/domain/entities"
	"github.com/ersonp/name-historian/internal/domain/ports"
	"github.com/ersonp/name-historian/internal/domain/timeline"
)

// DefaultImportConcurrency bounds ImportAll when no limit is given.
const DefaultImportConcurrency = 4

// ImportResult is the outcome of importing one identity's history.
type ImportResult struct {
	Identity uuid.UUID
	Imported bool  // false when the source had nothing for the identity
	Err      error // nil on success
}

// ImportChanges reconciles the identity's stored history with changes, an
// external history ordered oldest first. It returns false and leaves the
// store untouched when changes is empty.
func (s *HistoryService) ImportChanges(ctx context.Context, identity uuid.UUID, changes []entities.NameChange) (bool, error) {
	if identity == uuid.Nil {
		return false, fmt.Errorf("%w: missing identity", entities.ErrInvalidInterval)
	}
	if len(changes) == 0 {
		s.metrics.ImportFinished(ports.ImportOutcomeEmpty)
		return false, nil
	}

	incoming := ChangesToIntervals(identity, changes, s.clock())
	for _, n := range incoming {
		if err := n.Validate(); err != nil {
			s.metrics.ImportFinished(ports.ImportOutcomeFailed)
			return false, fmt.Errorf("converting name changes of %s: %w", identity, err)
		}
	}

	err := s.store.RewriteHistory(ctx, identity, func(stored []entities.NameInterval) ([]entities.NameInterval, error) {
		return timeline.Combine(timeline.OldestFirst(stored), incoming), nil
	})
	if err != nil {
		s.metrics.ImportFinished(ports.ImportOutcomeFailed)
		return false, fmt.Errorf("rewriting history of %s: %w", identity, err)
	}

	s.metrics.ImportFinished(ports.ImportOutcomeImported)
	s.logger.DebugContext(ctx, "history imported", "identity", identity, "changes", len(changes))
	return true, nil
}

// ImportHistory fetches the identity's history from the change source and
// imports it. Source failures are returned as-is and nothing is written.
func (s *HistoryService) ImportHistory(ctx context.Context, identity uuid.UUID) (bool, error) {
	if s.source == nil {
		return false, ErrLookupsDisabled
	}
	changes, err := s.source.FetchNameChanges(ctx, identity)
	if err != nil {
		s.metrics.ImportFinished(ports.ImportOutcomeFailed)
		s.logger.WarnContext(ctx, "fetching name history failed", "identity", identity, "error", err)
		return false, fmt.Errorf("fetching name history of %s: %w", identity, err)
	}
	return s.ImportChanges(ctx, identity, changes)
}

// ImportAll runs ImportHistory for every identity, at most concurrency at a
// time. Results are returned in input order; the error joins every failure.
func (s *HistoryService) ImportAll(ctx context.Context, identities []uuid.UUID, concurrency int) ([]ImportResult, error) {
	if s.source == nil {
		return nil, ErrLookupsDisabled
	}
	if concurrency <= 0 {
		concurrency = DefaultImportConcurrency
	}

	results := make([]ImportResult, len(identities))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, identity := range identities {
		results[i].Identity = identity
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Imported, results[i].Err = s.ImportHistory(ctx, identity)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	if len(errs) > 0 {
		s.logger.WarnContext(ctx, "bulk import finished with failures",
			"identities", len(identities), "failed", len(errs))
	}
	return results, errors.Join(errs...)
}
