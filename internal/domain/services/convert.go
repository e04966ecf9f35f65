package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/name-historian/internal/domain/entities"
)

// ChangesToIntervals converts an external name history, oldest first, into
// contiguous intervals. Each interval ends where the next change starts, the
// last one ends at now, or at its own start if the source's clock runs ahead
// of ours. The original name starts at the first rename, or at now when
// there was none. Every interval is marked detected at now.
func ChangesToIntervals(identity uuid.UUID, changes []entities.NameChange, now time.Time) []entities.NameInterval {
	intervals := make([]entities.NameInterval, 0, len(changes))
	for k, change := range changes {
		end, endsNow := now, true
		if k+1 < len(changes) {
			if t, ok := changes[k+1].ChangeTime(); ok {
				end, endsNow = t, false
			}
		}

		start, ok := change.ChangeTime()
		if !ok {
			start = end
		}
		if endsNow && end.Before(start) {
			end = start
		}

		intervals = append(intervals, entities.NameInterval{
			Identity:  identity,
			Name:      change.Name,
			FirstSeen: start,
			Detected:  now,
			LastSeen:  end,
		})
	}
	return intervals
}
