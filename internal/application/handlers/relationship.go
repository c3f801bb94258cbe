package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/domain/ports"
	"github.com/ersonp/famtree/internal/domain/services"
)

// RelationshipHandler handles relationship operations.
type RelationshipHandler struct {
	store ports.CaseStore
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(store ports.CaseStore) *RelationshipHandler {
	return &RelationshipHandler{
		store: store,
	}
}

// RelateOptions carries the optional relationship attributes.
type RelateOptions struct {
	Biological *bool
	Adopted    *bool
	BloodType  string // "full" or "half" for siblings
}

// RelationshipInfo is a relationship with its endpoint persons.
type RelationshipInfo struct {
	Relationship entities.Relationship `json:"relationship"`
	From         *entities.Person      `json:"from,omitempty"`
	To           *entities.Person      `json:"to,omitempty"`
}

// HandleCreate creates a relationship between two persons given by id or name.
// The same integrity rules as the editor apply.
func (h *RelationshipHandler) HandleCreate(
	ctx context.Context,
	caseID int64,
	fromRef string,
	relType string,
	toRef string,
	opts RelateOptions,
) (*RelationshipInfo, error) {
	rt, err := entities.ParseRelationshipType(relType)
	if err != nil {
		return nil, err
	}

	detail, err := h.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading case: %w", err)
	}
	from, err := ResolvePerson(detail, fromRef)
	if err != nil {
		return nil, err
	}
	to, err := ResolvePerson(detail, toRef)
	if err != nil {
		return nil, err
	}
	if err := services.CheckConnection(detail, from.ID, to.ID, rt); err != nil {
		return nil, err
	}

	data := entities.CreateRelationshipData{
		FromPersonID: from.ID,
		ToPersonID:   to.ID,
		Type:         rt,
		IsBiological: opts.Biological,
		IsAdopted:    opts.Adopted,
	}
	if opts.BloodType != "" {
		data.BloodType = &opts.BloodType
	}

	rel, err := h.store.CreateRelationship(ctx, caseID, data)
	if err != nil {
		return nil, fmt.Errorf("creating relationship: %w", err)
	}

	return &RelationshipInfo{Relationship: *rel, From: from, To: to}, nil
}

// HandleDelete removes a relationship by ID.
func (h *RelationshipHandler) HandleDelete(ctx context.Context, caseID, relationshipID int64) error {
	if err := h.store.DeleteRelationship(ctx, caseID, relationshipID); err != nil {
		return fmt.Errorf("deleting relationship: %w", err)
	}
	return nil
}

// HandleList returns a case's relationships, optionally filtered by type.
func (h *RelationshipHandler) HandleList(ctx context.Context, caseID int64, relType string) ([]RelationshipInfo, error) {
	var filter entities.RelationshipType
	if relType != "" {
		rt, err := entities.ParseRelationshipType(relType)
		if err != nil {
			return nil, err
		}
		filter = rt
	}

	detail, err := h.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading case: %w", err)
	}

	result := make([]RelationshipInfo, 0, len(detail.Relationships))
	for i := range detail.Relationships {
		rel := detail.Relationships[i]
		if filter != "" && rel.Type != filter {
			continue
		}
		result = append(result, RelationshipInfo{
			Relationship: rel,
			From:         detail.FindPerson(rel.FromPersonID),
			To:           detail.FindPerson(rel.ToPersonID),
		})
	}
	return result, nil
}
