package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ersonp/famtree/internal/domain/ports"
	"github.com/ersonp/famtree/internal/domain/services"
	"github.com/ersonp/famtree/internal/infrastructure/parsers"
)

// ImportHandler handles importing rosters from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format     string                    // "json", "csv", or "auto"
	DryRun     bool                      // Validate without saving
	OnConflict services.ConflictStrategy // How to handle names already in the case
}

// Handle imports a roster file into a case.
func (h *ImportHandler) Handle(ctx context.Context, caseID int64, filePath string, opts ImportOptions) (*services.ImportResult, error) {
	// Get parser
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	// Open file
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	roster, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(roster.Persons) == 0 && len(roster.Relationships) == 0 {
		return &services.ImportResult{}, nil
	}

	return h.service.Import(ctx, caseID, roster, services.ImportOptions{
		DryRun:     opts.DryRun,
		OnConflict: opts.OnConflict,
	})
}

// ExportHandler writes cases as rosters.
type ExportHandler struct {
	store ports.CaseStore
}

// NewExportHandler creates a new export handler.
func NewExportHandler(store ports.CaseStore) *ExportHandler {
	return &ExportHandler{
		store: store,
	}
}

// ExportResult counts what was written.
type ExportResult struct {
	Persons       int
	Relationships int
}

// Handle writes the case to w as a "json" or "csv" roster that Import reads back.
func (h *ExportHandler) Handle(ctx context.Context, caseID int64, w io.Writer, format string) (*ExportResult, error) {
	write := parsers.WriteJSON
	switch format {
	case "", "json":
	case "csv":
		write = parsers.WriteCSV
	default:
		return nil, fmt.Errorf("invalid format %q (valid: json, csv)", format)
	}

	detail, err := h.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading case: %w", err)
	}

	roster := parsers.FromCaseDetail(detail)
	if err := write(w, roster); err != nil {
		return nil, fmt.Errorf("writing roster: %w", err)
	}

	return &ExportResult{
		Persons:       len(roster.Persons),
		Relationships: len(roster.Relationships),
	}, nil
}
