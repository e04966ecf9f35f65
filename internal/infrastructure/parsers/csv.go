package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ersonp/name-historian/internal/domain/entities"
)

// CSVParser parses name changes from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed name changes.
// Expected columns: name, changed_to_at. changed_to_at is epoch
// milliseconds or an RFC 3339 timestamp; empty or 0 marks the original name.
func (p *CSVParser) Parse(r io.Reader) ([]entities.NameChange, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(col)] = i
	}

	for _, col := range []string{"name", "changed_to_at"} {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to NameChanges.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]entities.NameChange, error) {
	changes := []entities.NameChange{}
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		change, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}

	return changes, nil
}

// parseRecord converts a CSV record to a NameChange.
func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (entities.NameChange, error) {
	change := entities.NameChange{Name: getColumn(record, colIndex, "name")}
	if change.Name == "" {
		return entities.NameChange{}, fmt.Errorf("line %d: missing name", lineNum)
	}

	at, err := parseChangeTime(getColumn(record, colIndex, "changed_to_at"))
	if err != nil {
		return entities.NameChange{}, fmt.Errorf("line %d: %w", lineNum, err)
	}
	change.ChangedToAt = at

	return change, nil
}

func parseChangeTime(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if millis, err := strconv.ParseInt(s, 10, 64); err == nil {
		if millis < 0 {
			return 0, fmt.Errorf("negative changed_to_at %d", millis)
		}
		return millis, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("invalid changed_to_at value %q", s)
	}
	return t.UnixMilli(), nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
