// Package entities contains core domain data structures.
package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidInterval is returned for intervals that end before they start.
	ErrInvalidInterval = errors.New("invalid name interval")
	// ErrInvalidObservation is returned for observations without identity or name.
	ErrInvalidObservation = errors.New("invalid observation")
)

// NameInterval records continuous use of one name by one identity, from the
// time it was first seen to the time it was last seen (both inclusive).
type NameInterval struct {
	Identity uuid.UUID `json:"identity"`
	Name     string    `json:"name"`
	// FirstSeen may predate the first local observation when the interval
	// was imported from an external history.
	FirstSeen time.Time `json:"first_seen"`
	// Detected is when the name change was noticed. Zero means it was
	// noticed at FirstSeen; read it through DetectedTime.
	Detected time.Time `json:"detected,omitzero"`
	LastSeen time.Time `json:"last_seen"`
}

// DetectedTime returns Detected, or FirstSeen if Detected is unset.
func (n NameInterval) DetectedTime() time.Time {
	if n.Detected.IsZero() {
		return n.FirstSeen
	}
	return n.Detected
}

// Validate checks the interval invariants.
func (n NameInterval) Validate() error {
	if n.Identity == uuid.Nil {
		return fmt.Errorf("%w: missing identity", ErrInvalidInterval)
	}
	if n.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidInterval)
	}
	if n.LastSeen.Before(n.FirstSeen) {
		return fmt.Errorf("%w: %s last seen %s before first seen %s",
			ErrInvalidInterval, n.Name, n.LastSeen.Format(time.RFC3339), n.FirstSeen.Format(time.RFC3339))
	}
	return nil
}

// SameName reports whether both intervals describe the same identity using the same name.
// Names are compared case-sensitively.
func (n NameInterval) SameName(other NameInterval) bool {
	return n.Identity == other.Identity && n.Name == other.Name
}

// Observation states that an identity is using a name right now.
type Observation struct {
	Identity uuid.UUID `json:"identity"`
	Name     string    `json:"name"`
}

// Validate checks that the observation carries an identity and a name.
func (o Observation) Validate() error {
	if o.Identity == uuid.Nil {
		return fmt.Errorf("%w: missing identity", ErrInvalidObservation)
	}
	if o.Name == "" {
		return fmt.Errorf("%w: missing name for %s", ErrInvalidObservation, o.Identity)
	}
	return nil
}

// Interval returns the single-instant interval an observation at now opens.
func (o Observation) Interval(now time.Time) NameInterval {
	return NameInterval{
		Identity:  o.Identity,
		Name:      o.Name,
		FirstSeen: now,
		LastSeen:  now,
	}
}

// TruncateMillis drops precision below a millisecond, matching what storage keeps.
func TruncateMillis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli())
}
