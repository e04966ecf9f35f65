// Package parsers provides parsers for importing name histories from files.
package parsers

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/ersonp/name-historian/internal/domain/entities"
)

// Parser defines the interface for parsing name changes from various formats.
// Changes are returned in file order, which must be oldest first.
type Parser interface {
	Parse(r io.Reader) ([]entities.NameChange, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
