package entities

import "time"

// NameChange is one entry of an externally fetched name history, ordered oldest first.
type NameChange struct {
	// Name is the name the identity changed to.
	Name string `json:"name"`
	// ChangedToAt is the change time in epoch milliseconds, or 0 for the original name.
	ChangedToAt int64 `json:"changedToAt,omitempty"`
}

// IsOriginal reports whether this is the original name, which has no change time.
func (c NameChange) IsOriginal() bool {
	return c.ChangedToAt == 0
}

// ChangeTime returns the time of the change. ok is false for the original name.
func (c NameChange) ChangeTime() (t time.Time, ok bool) {
	if c.IsOriginal() {
		return time.Time{}, false
	}
	return time.UnixMilli(c.ChangedToAt), true
}
