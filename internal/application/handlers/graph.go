package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/domain/ports"
	"github.com/ersonp/famtree/internal/domain/services"
)

// GraphHandler renders cases and asks the calculator about them.
type GraphHandler struct {
	gateway ports.Gateway
}

// NewGraphHandler creates a new GraphHandler.
func NewGraphHandler(gateway ports.Gateway) *GraphHandler {
	return &GraphHandler{
		gateway: gateway,
	}
}

// GraphResult is the projected graph of a case.
type GraphResult struct {
	Case  entities.Case  `json:"case"`
	Graph entities.Graph `json:"graph"`
	// Warnings lists problems the store let through, such as two decedents.
	Warnings []string `json:"warnings,omitempty"`
}

// HandleGraph loads a case and projects it.
func (h *GraphHandler) HandleGraph(ctx context.Context, caseID int64) (*GraphResult, error) {
	detail, err := h.gateway.GetCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading case: %w", err)
	}

	result := &GraphResult{
		Case:  detail.Case,
		Graph: services.Project(detail.Persons, detail.Relationships),
	}
	if ids := services.Decedents(detail.Persons); len(ids) > 1 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d persons are marked as decedent", len(ids)))
	}
	for i := range detail.Relationships {
		rel := &detail.Relationships[i]
		if detail.FindPerson(rel.FromPersonID) == nil || detail.FindPerson(rel.ToPersonID) == nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("relationship %d references a missing person", rel.ID))
		}
	}
	return result, nil
}

// HandleCalculate runs the inheritance calculation for a case.
func (h *GraphHandler) HandleCalculate(ctx context.Context, caseID int64) (*entities.CalculationResult, error) {
	result, err := h.gateway.CalculateInheritance(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("calculating inheritance: %w", err)
	}
	return result, nil
}

// HandleTree returns the calculator's text rendering of the family tree.
func (h *GraphHandler) HandleTree(ctx context.Context, caseID int64) (string, error) {
	tree, err := h.gateway.TextTree(ctx, caseID)
	if err != nil {
		return "", fmt.Errorf("rendering tree: %w", err)
	}
	return tree, nil
}
