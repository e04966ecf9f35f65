package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/name-historian/internal/domain/entities"
)

// RewriteFunc receives an identity's stored history, newest first, and
// returns the intervals that replace it, in insertion order (oldest first).
type RewriteFunc func(stored []entities.NameInterval) ([]entities.NameInterval, error)

// HistoryStore defines durable storage of name intervals keyed by identity.
//
// Every mutation runs in a single transaction: a failure leaves the store
// exactly as it was before the call. Two concurrent mutations of the same
// identity never both act on the same live interval.
type HistoryStore interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// RecordObservation extends the identity's live interval to now if it
	// carries the observed name, or opens a new [now, now] interval otherwise.
	RecordObservation(ctx context.Context, obs entities.Observation, now time.Time) error

	// RecordObservations applies RecordObservation to every entry in one
	// shared transaction. An empty batch is a no-op.
	RecordObservations(ctx context.Context, observations []entities.Observation, now time.Time) error

	// RecordInterval extends the live interval to interval.LastSeen if the
	// names match, or inserts interval as-is otherwise. It exists to seed
	// fully specified intervals in tests; runtime writes go through
	// RecordObservation(s) and RewriteHistory.
	RecordInterval(ctx context.Context, interval entities.NameInterval) error

	// History returns an identity's intervals, newest first.
	// Returns an empty slice if the identity has never been observed.
	History(ctx context.Context, identity uuid.UUID) ([]entities.NameInterval, error)

	// LatestByName returns the most recently started interval carrying name,
	// across all identities. Returns nil if the name has never been observed.
	LatestByName(ctx context.Context, name string) (*entities.NameInterval, error)

	// RewriteHistory atomically replaces an identity's intervals with the
	// result of fn applied to its current history.
	RewriteHistory(ctx context.Context, identity uuid.UUID, fn RewriteFunc) error

	// Identities lists every identity with at least one interval.
	Identities(ctx context.Context) ([]uuid.UUID, error)
}
