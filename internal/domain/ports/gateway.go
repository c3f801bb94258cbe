// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/ersonp/famtree/internal/domain/entities"
)

// CaseStore is the store of record for cases, persons and relationships.
// Every method may fail; failures are *domain.GatewayError values.
type CaseStore interface {
	// Case operations

	// ListCases returns the caller's cases.
	ListCases(ctx context.Context) ([]entities.Case, error)

	// GetCase returns a case with its persons and relationships.
	// This is the only read path used to reconcile local state.
	GetCase(ctx context.Context, caseID int64) (*entities.CaseDetail, error)

	// CreateCase creates a case.
	CreateCase(ctx context.Context, data entities.CreateCaseData) (*entities.Case, error)

	// UpdateCase applies a partial update to a case.
	UpdateCase(ctx context.Context, caseID int64, data entities.UpdateCaseData) (*entities.Case, error)

	// DeleteCase deletes a case and everything it owns.
	DeleteCase(ctx context.Context, caseID int64) error

	// Person operations

	// CreatePerson creates a person in a case.
	CreatePerson(ctx context.Context, caseID int64, data entities.CreatePersonData) (*entities.Person, error)

	// UpdatePerson applies a partial update to a person.
	UpdatePerson(ctx context.Context, caseID, personID int64, data entities.UpdatePersonData) (*entities.Person, error)

	// DeletePerson deletes a person.
	DeletePerson(ctx context.Context, caseID, personID int64) error

	// Relationship operations. Relationships are never updated.

	// CreateRelationship creates a relationship between two persons of the case.
	CreateRelationship(ctx context.Context, caseID int64, data entities.CreateRelationshipData) (*entities.Relationship, error)

	// DeleteRelationship deletes a relationship.
	DeleteRelationship(ctx context.Context, caseID, relationshipID int64) error
}

// Calculator is the external inheritance engine.
type Calculator interface {
	// CalculateInheritance computes heirs and shares for a case.
	CalculateInheritance(ctx context.Context, caseID int64) (*entities.CalculationResult, error)

	// TextTree returns a preformatted family tree for a case.
	TextTree(ctx context.Context, caseID int64) (string, error)
}

// Gateway is everything the editor and the CLI talk to.
type Gateway interface {
	CaseStore
	Calculator
}

// CaseHistory is implemented by stores that keep a change log.
type CaseHistory interface {
	// History returns a case's changes, newest first. A limit of 0 returns everything.
	History(ctx context.Context, caseID int64, limit int) ([]entities.AuditEntry, error)
}
