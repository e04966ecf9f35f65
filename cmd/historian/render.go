package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ersonp/name-historian/internal/application/handlers"
	"github.com/ersonp/name-historian/internal/domain/services"
)

// historyTimeFormat is how interval bounds are printed, always in UTC.
const historyTimeFormat = "2006-01-02 15:04:05"

func renderHistory(w io.Writer, result *handlers.HistoryResult) error {
	if len(result.Intervals) == 0 {
		_, err := fmt.Fprintf(w, "No name history found for %s.\n", result.Identity)
		return err
	}

	if _, err := fmt.Fprintf(w, "Name history for %s\n", result.Identity); err != nil {
		return err
	}
	for i, interval := range result.Intervals {
		_, err := fmt.Fprintf(w, "%d. %s\n   From: %s, To: %s\n",
			len(result.Intervals)-i, interval.Name,
			formatTime(interval.FirstSeen), formatTime(interval.LastSeen))
		if err != nil {
			return err
		}
	}
	return nil
}

func renderJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func renderResolution(w io.Writer, name string, r *handlers.Resolution) error {
	switch r.Source {
	case handlers.SourceLocal:
		_, err := fmt.Fprintf(w, "%s is %s (last seen %s)\n", name, r.Identity, formatTime(r.Latest.LastSeen))
		return err
	case handlers.SourceRemote:
		_, err := fmt.Fprintf(w, "%s is %s (profile service)\n", name, r.Identity)
		return err
	default:
		_, err := fmt.Fprintf(w, "%s\n", r.Identity)
		return err
	}
}

func renderImportResults(w io.Writer, results []services.ImportResult) {
	var imported, empty, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintf(w, "  %s: %v\n", r.Identity, r.Err)
		case r.Imported:
			imported++
		default:
			empty++
		}
	}
	fmt.Fprintf(w, "Imported: %d, no history: %d, failed: %d\n", imported, empty, failed)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(historyTimeFormat)
}
