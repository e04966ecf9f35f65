package ports

import "errors"

var (
	// ErrStore marks failures to read from or commit to the history store.
	ErrStore = errors.New("history store access failed")
	// ErrSource marks connectivity or protocol failures of an external name source.
	ErrSource = errors.New("name source request failed")
)
