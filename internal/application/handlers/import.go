package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/ersonp/name-historian/internal/domain/services"
	"github.com/ersonp/name-historian/internal/infrastructure/parsers"
)

// ErrInvalidIdentity is returned for identity arguments that are not UUIDs.
var ErrInvalidIdentity = errors.New("invalid identity")

// ImportHandler handles importing name histories.
type ImportHandler struct {
	service     *services.HistoryService
	concurrency int
}

// NewImportHandler creates a new import handler. concurrency bounds remote
// bulk imports.
func NewImportHandler(service *services.HistoryService, concurrency int) *ImportHandler {
	return &ImportHandler{
		service:     service,
		concurrency: concurrency,
	}
}

// FileImportOptions controls file imports.
type FileImportOptions struct {
	Format string // "json", "csv", or "auto"
}

// HandleFile imports identity's history from a name change export.
// It returns false if the file held no changes.
func (h *ImportHandler) HandleFile(ctx context.Context, identity, filePath string, opts FileImportOptions) (bool, error) {
	id, err := uuid.Parse(identity)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidIdentity, identity)
	}

	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return false, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return false, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	changes, err := parser.Parse(file)
	if err != nil {
		return false, fmt.Errorf("parsing file: %w", err)
	}

	return h.service.ImportChanges(ctx, id, changes)
}

// HandleRemote imports the histories of the given identities from the
// profile service. With all set, every stored identity is imported instead.
func (h *ImportHandler) HandleRemote(ctx context.Context, identities []string, all bool) ([]services.ImportResult, error) {
	var ids []uuid.UUID
	if all {
		stored, err := h.service.Identities(ctx)
		if err != nil {
			return nil, err
		}
		ids = stored
	} else {
		for _, raw := range identities {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidIdentity, raw)
			}
			ids = append(ids, id)
		}
	}

	return h.service.ImportAll(ctx, ids, h.concurrency)
}
