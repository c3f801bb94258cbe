// Package mocks provides in-memory implementations of the domain ports for tests.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/ersonp/famtree/internal/domain"
	"github.com/ersonp/famtree/internal/domain/entities"
)

// Gateway is an in-memory implementation of ports.Gateway.
// It is safe for concurrent use.
type Gateway struct {
	mu            sync.Mutex
	cases         map[int64]*entities.Case
	persons       map[int64][]entities.Person
	relationships map[int64][]entities.Relationship
	nextID        int64
	calls         []string

	// Err, when set, is returned by every operation.
	Err error
	// Errs holds per-operation errors keyed by method name (e.g. "CreatePerson").
	Errs map[string]error
	// Before is called with the method name before each operation runs,
	// outside the mock's lock. Tests use it to hold a call in flight.
	Before func(op string)
	// CascadeDeletes removes a person's relationships when the person is deleted.
	CascadeDeletes bool

	Calculation *entities.CalculationResult
	Tree        string
}

// NewGateway creates an empty mock Gateway.
func NewGateway() *Gateway {
	return &Gateway{
		cases:         make(map[int64]*entities.Case),
		persons:       make(map[int64][]entities.Person),
		relationships: make(map[int64][]entities.Relationship),
		Errs:          make(map[string]error),
	}
}

// Calls returns the operations invoked so far, in order.
func (m *Gateway) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CountCalls returns how many times op was invoked.
func (m *Gateway) CountCalls(op string) int {
	n := 0
	for _, c := range m.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

// SetErr sets the error returned by op; nil clears it.
func (m *Gateway) SetErr(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.Errs, op)
		return
	}
	m.Errs[op] = err
}

// SeedCase stores a case and returns its id.
func (m *Gateway) SeedCase(title string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addCase(entities.CreateCaseData{Title: title}).ID
}

// SeedPerson stores a person directly, bypassing Before and error injection.
func (m *Gateway) SeedPerson(caseID int64, p entities.Person) entities.Person {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	p.CaseID = caseID
	m.persons[caseID] = append(m.persons[caseID], p)
	return p
}

// SeedRelationship stores a relationship directly without checking its endpoints.
func (m *Gateway) SeedRelationship(caseID, from, to int64, kind entities.RelationshipType) entities.Relationship {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r := entities.Relationship{ID: m.nextID, CaseID: caseID, FromPersonID: from, ToPersonID: to, Type: kind}
	m.relationships[caseID] = append(m.relationships[caseID], r)
	return r
}

func (m *Gateway) begin(op string) error {
	if m.Before != nil {
		m.Before(op)
	}
	m.mu.Lock()
	m.calls = append(m.calls, op)
	if m.Err != nil {
		return m.Err
	}
	return m.Errs[op]
}

func (m *Gateway) addCase(data entities.CreateCaseData) *entities.Case {
	m.nextID++
	status := data.Status
	if status == "" {
		status = entities.CaseStatusDraft
	}
	c := &entities.Case{
		ID:          m.nextID,
		Title:       data.Title,
		Description: data.Description,
		Status:      status,
		UserID:      1,
		CreatedAt:   time.Unix(0, 0).UTC(),
		UpdatedAt:   time.Unix(0, 0).UTC(),
	}
	m.cases[c.ID] = c
	return c
}

// ListCases returns all cases in id order.
func (m *Gateway) ListCases(_ context.Context) ([]entities.Case, error) {
	err := m.begin("ListCases")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	result := make([]entities.Case, 0, len(m.cases))
	for id := int64(1); id <= m.nextID; id++ {
		if c, ok := m.cases[id]; ok {
			result = append(result, *c)
		}
	}
	return result, nil
}

// GetCase returns a deep copy of the case detail.
func (m *Gateway) GetCase(_ context.Context, caseID int64) (*entities.CaseDetail, error) {
	err := m.begin("GetCase")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c, ok := m.cases[caseID]
	if !ok {
		return nil, domain.NotFound("get case", "Case not found")
	}
	return &entities.CaseDetail{
		Case:          *c,
		Persons:       append([]entities.Person{}, m.persons[caseID]...),
		Relationships: append([]entities.Relationship{}, m.relationships[caseID]...),
	}, nil
}

// CreateCase stores a new case.
func (m *Gateway) CreateCase(_ context.Context, data entities.CreateCaseData) (*entities.Case, error) {
	err := m.begin("CreateCase")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c := *m.addCase(data)
	return &c, nil
}

// UpdateCase applies a partial update.
func (m *Gateway) UpdateCase(_ context.Context, caseID int64, data entities.UpdateCaseData) (*entities.Case, error) {
	err := m.begin("UpdateCase")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c, ok := m.cases[caseID]
	if !ok {
		return nil, domain.NotFound("update case", "Case not found")
	}
	if data.Title != nil {
		c.Title = *data.Title
	}
	if data.Description != nil {
		c.Description = data.Description
	}
	if data.Status != nil {
		c.Status = *data.Status
	}
	out := *c
	return &out, nil
}

// DeleteCase removes a case and everything it owns.
func (m *Gateway) DeleteCase(_ context.Context, caseID int64) error {
	err := m.begin("DeleteCase")
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	if _, ok := m.cases[caseID]; !ok {
		return domain.NotFound("delete case", "Case not found")
	}
	delete(m.cases, caseID)
	delete(m.persons, caseID)
	delete(m.relationships, caseID)
	return nil
}

// CreatePerson stores a person, applying the store's defaults.
func (m *Gateway) CreatePerson(_ context.Context, caseID int64, data entities.CreatePersonData) (*entities.Person, error) {
	err := m.begin("CreatePerson")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if _, ok := m.cases[caseID]; !ok {
		return nil, domain.NotFound("create person", "Case not found")
	}
	m.nextID++
	p := entities.Person{
		ID:        m.nextID,
		CaseID:    caseID,
		Name:      data.Name,
		IsAlive:   data.IsAlive == nil || *data.IsAlive,
		DeathDate: data.DeathDate,
		BirthDate: data.BirthDate,
		Gender:    data.Gender,
	}
	p.IsDecedent = data.WantsDecedent()
	p.IsSpouse = data.IsSpouse != nil && *data.IsSpouse
	m.persons[caseID] = append(m.persons[caseID], p)
	return &p, nil
}

// UpdatePerson applies a partial update.
func (m *Gateway) UpdatePerson(_ context.Context, caseID, personID int64, data entities.UpdatePersonData) (*entities.Person, error) {
	err := m.begin("UpdatePerson")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	persons := m.persons[caseID]
	for i := range persons {
		if persons[i].ID == personID {
			persons[i] = data.Apply(persons[i])
			p := persons[i]
			return &p, nil
		}
	}
	return nil, domain.NotFound("update person", "Person not found")
}

// DeletePerson removes a person. Relationships are kept unless CascadeDeletes is set.
func (m *Gateway) DeletePerson(_ context.Context, caseID, personID int64) error {
	err := m.begin("DeletePerson")
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	persons := m.persons[caseID]
	for i := range persons {
		if persons[i].ID != personID {
			continue
		}
		m.persons[caseID] = append(persons[:i:i], persons[i+1:]...)
		if m.CascadeDeletes {
			kept := m.relationships[caseID][:0:0]
			for _, r := range m.relationships[caseID] {
				if r.FromPersonID != personID && r.ToPersonID != personID {
					kept = append(kept, r)
				}
			}
			m.relationships[caseID] = kept
		}
		return nil
	}
	return domain.NotFound("delete person", "Person not found")
}

// CreateRelationship stores a relationship after checking both endpoints.
func (m *Gateway) CreateRelationship(_ context.Context, caseID int64, data entities.CreateRelationshipData) (*entities.Relationship, error) {
	err := m.begin("CreateRelationship")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if !m.hasPerson(caseID, data.FromPersonID) || !m.hasPerson(caseID, data.ToPersonID) {
		return nil, domain.NotFound("create relationship", "Person not found")
	}
	m.nextID++
	r := entities.Relationship{
		ID:           m.nextID,
		CaseID:       caseID,
		FromPersonID: data.FromPersonID,
		ToPersonID:   data.ToPersonID,
		Type:         data.Type,
		IsBiological: data.IsBiological,
		IsAdopted:    data.IsAdopted,
		BloodType:    data.BloodType,
	}
	m.relationships[caseID] = append(m.relationships[caseID], r)
	return &r, nil
}

// DeleteRelationship removes a relationship.
func (m *Gateway) DeleteRelationship(_ context.Context, caseID, relationshipID int64) error {
	err := m.begin("DeleteRelationship")
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	rels := m.relationships[caseID]
	for i := range rels {
		if rels[i].ID == relationshipID {
			m.relationships[caseID] = append(rels[:i:i], rels[i+1:]...)
			return nil
		}
	}
	return domain.NotFound("delete relationship", "Relationship not found")
}

// CalculateInheritance returns the configured Calculation.
func (m *Gateway) CalculateInheritance(_ context.Context, caseID int64) (*entities.CalculationResult, error) {
	err := m.begin("CalculateInheritance")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if _, ok := m.cases[caseID]; !ok {
		return nil, domain.NotFound("calculate", "Case not found")
	}
	if m.Calculation == nil {
		return &entities.CalculationResult{}, nil
	}
	out := *m.Calculation
	return &out, nil
}

// TextTree returns the configured Tree.
func (m *Gateway) TextTree(_ context.Context, caseID int64) (string, error) {
	err := m.begin("TextTree")
	defer m.mu.Unlock()
	if err != nil {
		return "", err
	}
	if _, ok := m.cases[caseID]; !ok {
		return "", domain.NotFound("text tree", "Case not found")
	}
	return m.Tree, nil
}

func (m *Gateway) hasPerson(caseID, personID int64) bool {
	for _, p := range m.persons[caseID] {
		if p.ID == personID {
			return true
		}
	}
	return false
}
