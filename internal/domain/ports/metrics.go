package ports

// Import outcomes reported to Metrics.
const (
	ImportOutcomeImported = "imported"
	ImportOutcomeEmpty    = "empty"
	ImportOutcomeFailed   = "failed"
)

// Metrics receives counters from the history service.
type Metrics interface {
	// ObservationsRecorded counts observations committed to the store.
	ObservationsRecorded(count int)

	// ImportFinished counts one history import by outcome.
	ImportFinished(outcome string)
}
