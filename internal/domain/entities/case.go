// Package entities contains core domain data structures.
package entities

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxTitleLength bounds case titles and person names, in runes.
const MaxTitleLength = 255

// CaseStatus is the lifecycle stage of a case.
type CaseStatus string

const (
	CaseStatusDraft      CaseStatus = "draft"
	CaseStatusInProgress CaseStatus = "in_progress"
	CaseStatusCompleted  CaseStatus = "completed"
	CaseStatusArchived   CaseStatus = "archived"
)

// CaseStatuses lists every valid status in display order.
var CaseStatuses = []CaseStatus{
	CaseStatusDraft,
	CaseStatusInProgress,
	CaseStatusCompleted,
	CaseStatusArchived,
}

// ParseCaseStatus validates and converts a string to CaseStatus.
func ParseCaseStatus(s string) (CaseStatus, error) {
	for _, st := range CaseStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid case status: %s (valid: draft, in_progress, completed, archived)", s)
}

// Case is a legal matter aggregating one genealogical graph.
type Case struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	Status       CaseStatus `json:"status"`
	UserID       int64      `json:"user_id"`
	Neo4jGraphID *string    `json:"neo4j_graph_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Clone returns a copy of c that shares no pointers with it.
func (c Case) Clone() Case {
	c.Description = cloneString(c.Description)
	c.Neo4jGraphID = cloneString(c.Neo4jGraphID)
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// CaseDetail is a case together with its persons and relationships,
// in the order the store returned them.
type CaseDetail struct {
	Case
	Persons       []Person       `json:"persons"`
	Relationships []Relationship `json:"relationships"`
}

// FindPerson returns the person with the given id, or nil.
func (d *CaseDetail) FindPerson(id int64) *Person {
	for i := range d.Persons {
		if d.Persons[i].ID == id {
			return &d.Persons[i]
		}
	}
	return nil
}

// CreateCaseData is the payload for creating a case.
type CreateCaseData struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      CaseStatus `json:"status,omitempty"`
}

// Validate implements validation.Validatable.
func (d CreateCaseData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&d.Status, validation.In(statusValues()...)),
	)
}

// UpdateCaseData is a partial case update; nil fields are left unchanged.
type UpdateCaseData struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *CaseStatus `json:"status,omitempty"`
}

// Validate implements validation.Validatable.
func (d UpdateCaseData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.NilOrNotEmpty, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&d.Status, validation.NilOrNotEmpty, validation.In(statusValues()...)),
	)
}

// IsEmpty reports whether the update carries no fields.
func (d UpdateCaseData) IsEmpty() bool {
	return d.Title == nil && d.Description == nil && d.Status == nil
}

func statusValues() []any {
	values := make([]any, len(CaseStatuses))
	for i, st := range CaseStatuses {
		values[i] = st
	}
	return values
}
