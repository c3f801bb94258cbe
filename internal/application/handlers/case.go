package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/domain/ports"
)

// CaseHandler handles case operations.
type CaseHandler struct {
	store ports.CaseStore
}

// NewCaseHandler creates a new CaseHandler.
func NewCaseHandler(store ports.CaseStore) *CaseHandler {
	return &CaseHandler{
		store: store,
	}
}

// CaseSummary is a case detail with the decedent's name, if one is marked.
type CaseSummary struct {
	entities.CaseDetail
	Decedent string `json:"decedent,omitempty"`
}

// CaseUpdate carries the fields to change; nil fields are left as they are.
type CaseUpdate struct {
	Title       *string
	Description *string
	Status      *string
}

// HandleList returns the user's cases, most recently updated first.
func (h *CaseHandler) HandleList(ctx context.Context) ([]entities.Case, error) {
	cases, err := h.store.ListCases(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	return cases, nil
}

// HandleShow returns a case with its persons and relationships.
func (h *CaseHandler) HandleShow(ctx context.Context, caseID int64) (*CaseSummary, error) {
	detail, err := h.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading case: %w", err)
	}

	summary := &CaseSummary{CaseDetail: *detail}
	for i := range detail.Persons {
		if detail.Persons[i].IsDecedent {
			summary.Decedent = detail.Persons[i].Name
			break
		}
	}
	return summary, nil
}

// HandleCreate creates a case. An empty status means draft.
func (h *CaseHandler) HandleCreate(ctx context.Context, title, description, status string) (*entities.Case, error) {
	data := entities.CreateCaseData{Title: title}
	if description != "" {
		data.Description = &description
	}
	if status != "" {
		st, err := entities.ParseCaseStatus(status)
		if err != nil {
			return nil, err
		}
		data.Status = st
	}

	c, err := h.store.CreateCase(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("creating case: %w", err)
	}
	return c, nil
}

// HandleUpdate applies a partial update to a case.
func (h *CaseHandler) HandleUpdate(ctx context.Context, caseID int64, update CaseUpdate) (*entities.Case, error) {
	data := entities.UpdateCaseData{
		Title:       update.Title,
		Description: update.Description,
	}
	if update.Status != nil {
		st, err := entities.ParseCaseStatus(*update.Status)
		if err != nil {
			return nil, err
		}
		data.Status = &st
	}
	if data.IsEmpty() {
		return nil, errors.New("nothing to update (use --title, --description or --status)")
	}

	c, err := h.store.UpdateCase(ctx, caseID, data)
	if err != nil {
		return nil, fmt.Errorf("updating case: %w", err)
	}
	return c, nil
}

// HandleDelete deletes a case with everything it owns.
func (h *CaseHandler) HandleDelete(ctx context.Context, caseID int64) error {
	if err := h.store.DeleteCase(ctx, caseID); err != nil {
		return fmt.Errorf("deleting case: %w", err)
	}
	return nil
}
