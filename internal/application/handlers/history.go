package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/domain/ports"
)

// HistoryHandler reads a case's change log.
type HistoryHandler struct {
	history ports.CaseHistory
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(history ports.CaseHistory) *HistoryHandler {
	return &HistoryHandler{
		history: history,
	}
}

// Handle returns the newest limit entries for a case.
func (h *HistoryHandler) Handle(ctx context.Context, caseID int64, limit int) ([]entities.AuditEntry, error) {
	entries, err := h.history.History(ctx, caseID, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}
