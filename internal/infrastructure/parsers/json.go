package parsers

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ersonp/name-historian/internal/domain/entities"
)

// JSONParser parses name changes in the profile API format:
// [{"name": "a"}, {"name": "b", "changedToAt": 1438695830000}].
type JSONParser struct{}

// Parse reads JSON from the reader and returns parsed name changes.
func (p *JSONParser) Parse(r io.Reader) ([]entities.NameChange, error) {
	changes := []entities.NameChange{}

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&changes); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	for i, c := range changes {
		if c.Name == "" {
			return nil, fmt.Errorf("entry %d: missing name", i+1)
		}
		if c.ChangedToAt < 0 {
			return nil, fmt.Errorf("entry %d: negative changedToAt %d", i+1, c.ChangedToAt)
		}
	}

	return changes, nil
}
