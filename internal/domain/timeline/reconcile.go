// Package timeline reconciles locally observed name histories with
// authoritative external ones.
//
// All functions are pure and operate on plain slices, so they are safe to
// call concurrently and need no storage.
package timeline

import (
	"slices"

	"github.com/ersonp/name-historian/internal/domain/entities"
)

// Combine merges two timelines, both ordered oldest first, into one timeline
// ordered oldest first.
//
// Intervals with the same identity and name at the same position are merged:
// the result spans both and takes its detected time from incoming. Intervals
// that lie strictly before the other side's current interval are emitted
// unchanged. When ranges overlap but names differ, incoming wins and the
// initial interval is compared against the next incoming one. An initial
// interval that overlaps every remaining incoming interval is therefore only
// emitted once incoming runs out, after them.
//
// Combine is not commutative: incoming is treated as the authoritative side.
func Combine(initial, incoming []entities.NameInterval) []entities.NameInterval {
	result := make([]entities.NameInterval, 0, len(initial)+len(incoming))

	i, j := 0, 0
	for i < len(initial) && j < len(incoming) {
		a, b := initial[i], incoming[j]
		switch {
		case a.SameName(b):
			result = append(result, merge(a, b))
			i++
			j++
		case a.LastSeen.Before(b.FirstSeen):
			result = append(result, a)
			i++
		case b.LastSeen.Before(a.FirstSeen):
			result = append(result, b)
			j++
		default:
			result = append(result, b)
			j++
		}
	}

	result = append(result, initial[i:]...)
	result = append(result, incoming[j:]...)
	return result
}

// merge widens a to cover b. The detected time is taken from b as-is.
func merge(a, b entities.NameInterval) entities.NameInterval {
	merged := a
	if b.FirstSeen.Before(a.FirstSeen) {
		merged.FirstSeen = b.FirstSeen
	}
	if b.LastSeen.After(a.LastSeen) {
		merged.LastSeen = b.LastSeen
	}
	merged.Detected = b.Detected
	return merged
}

// OldestFirst returns a reversed copy of a newest-first history.
func OldestFirst(newestFirst []entities.NameInterval) []entities.NameInterval {
	out := slices.Clone(newestFirst)
	slices.Reverse(out)
	return out
}
