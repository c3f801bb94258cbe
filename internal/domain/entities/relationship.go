package entities

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxBloodTypeLength bounds the blood-type annotation ("full" / "half").
const MaxBloodTypeLength = 20

// RelationshipType defines the kind of relationship between two persons.
// The kind of a stored relationship never changes.
type RelationshipType string

const (
	// RelationChildOf points from a child to one of its parents.
	RelationChildOf RelationshipType = "child_of"
	// RelationSpouseOf links two spouses.
	RelationSpouseOf RelationshipType = "spouse_of"
	// RelationSiblingOf links two siblings.
	RelationSiblingOf RelationshipType = "sibling_of"
)

// DefaultRelationshipType is the provisional kind of a freehand connection.
const DefaultRelationshipType = RelationChildOf

// RelationshipTypes lists every valid kind.
var RelationshipTypes = []RelationshipType{
	RelationChildOf,
	RelationSpouseOf,
	RelationSiblingOf,
}

var relationshipLabels = map[RelationshipType]string{
	RelationChildOf:   "子",
	RelationSpouseOf:  "配偶者",
	RelationSiblingOf: "兄弟姉妹",
}

// Label returns the human-readable label of the kind.
// Unknown kinds fall back to their raw value.
func (t RelationshipType) Label() string {
	if label, ok := relationshipLabels[t]; ok {
		return label
	}
	return string(t)
}

// ParseRelationshipType validates and converts a string to RelationshipType.
func ParseRelationshipType(s string) (RelationshipType, error) {
	for _, rt := range RelationshipTypes {
		if string(rt) == s {
			return rt, nil
		}
	}
	return "", fmt.Errorf("invalid relationship type: %s (valid: child_of, spouse_of, sibling_of)", s)
}

// Relationship is a directed edge between two persons of the same case.
type Relationship struct {
	ID                  int64            `json:"id"`
	CaseID              int64            `json:"case_id"`
	FromPersonID        int64            `json:"from_person_id"`
	ToPersonID          int64            `json:"to_person_id"`
	Type                RelationshipType `json:"relationship_type"`
	IsBiological        *bool            `json:"is_biological,omitempty"`
	IsAdopted           *bool            `json:"is_adopted,omitempty"`
	BloodType           *string          `json:"blood_type,omitempty"`
	Neo4jRelationshipID *string          `json:"neo4j_relationship_id,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// CreateRelationshipData is the payload for creating a relationship.
type CreateRelationshipData struct {
	FromPersonID int64            `json:"from_person_id"`
	ToPersonID   int64            `json:"to_person_id"`
	Type         RelationshipType `json:"relationship_type"`
	IsBiological *bool            `json:"is_biological,omitempty"`
	IsAdopted    *bool            `json:"is_adopted,omitempty"`
	BloodType    *string          `json:"blood_type,omitempty"`
}

// Validate implements validation.Validatable.
func (d CreateRelationshipData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.FromPersonID, validation.Required),
		validation.Field(&d.ToPersonID, validation.Required),
		validation.Field(&d.Type, validation.Required, validation.In(relationshipValues()...)),
		validation.Field(&d.BloodType, validation.RuneLength(0, MaxBloodTypeLength)),
	)
}

func relationshipValues() []any {
	values := make([]any, len(RelationshipTypes))
	for i, rt := range RelationshipTypes {
		values[i] = rt
	}
	return values
}
