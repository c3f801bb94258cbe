package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ersonp/famtree/internal/domain"
	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/domain/ports"
	"github.com/ersonp/famtree/internal/infrastructure/parsers"
)

// ConflictStrategy defines how to handle roster persons whose name already exists in the case.
type ConflictStrategy string

const (
	// ConflictSkip reuses the existing person; relationships resolve to it.
	ConflictSkip ConflictStrategy = "skip"
	// ConflictDuplicate creates another person with the same name.
	ConflictDuplicate ConflictStrategy = "duplicate"
)

// ParseConflictStrategy validates a strategy name.
func ParseConflictStrategy(s string) (ConflictStrategy, error) {
	switch ConflictStrategy(s) {
	case ConflictSkip, ConflictDuplicate:
		return ConflictStrategy(s), nil
	}
	return "", fmt.Errorf("invalid conflict strategy: %s (valid: skip, duplicate)", s)
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun     bool             // Validate without saving
	OnConflict ConflictStrategy // How to handle existing names
}

// ImportError represents an error for a specific roster row.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	PersonsImported       int
	PersonsSkipped        int
	RelationshipsImported int
	Errors                []ImportError
}

// ImportService imports rosters into a case through the store.
type ImportService struct {
	store  ports.CaseStore
	logger logrus.FieldLogger
}

// NewImportService creates a new import service.
func NewImportService(store ports.CaseStore, logger logrus.FieldLogger) *ImportService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ImportService{store: store, logger: logger}
}

// plannedPerson is a roster person that passed validation.
type plannedPerson struct {
	data entities.CreatePersonData
	// id is the existing store id when skipped, else a negative placeholder until created.
	id   int64
	skip bool
}

type plannedRelationship struct {
	data entities.CreateRelationshipData
}

// Import validates the roster against the case and creates what passes.
// Rows that fail validation are reported in the result and not written.
// Relationships are checked with the same integrity rules as the editor.
func (s *ImportService) Import(ctx context.Context, caseID int64, roster *parsers.Roster, opts ImportOptions) (*ImportResult, error) {
	if opts.OnConflict == "" {
		opts.OnConflict = ConflictSkip
	}

	detail, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading case: %w", err)
	}

	result := &ImportResult{}
	// sim mirrors the case as it will look after the import.
	sim := &entities.CaseDetail{
		Case:          detail.Case,
		Persons:       append([]entities.Person{}, detail.Persons...),
		Relationships: append([]entities.Relationship{}, detail.Relationships...),
	}

	persons, names := s.planPersons(roster.Persons, sim, opts.OnConflict, result)
	rels := s.planRelationships(roster.Relationships, sim, names, result)

	for i := range persons {
		if persons[i].skip {
			result.PersonsSkipped++
		}
	}

	if opts.DryRun {
		result.PersonsImported = len(persons) - result.PersonsSkipped
		result.RelationshipsImported = len(rels)
		return result, nil
	}

	created := make(map[int64]int64, len(persons))
	for i := range persons {
		p := &persons[i]
		if p.skip {
			continue
		}
		stored, err := s.store.CreatePerson(ctx, caseID, p.data)
		if err != nil {
			return result, fmt.Errorf("creating person %q: %w", p.data.Name, err)
		}
		created[p.id] = stored.ID
		result.PersonsImported++
	}

	for i := range rels {
		data := rels[i].data
		data.FromPersonID = resolveID(created, data.FromPersonID)
		data.ToPersonID = resolveID(created, data.ToPersonID)
		if _, err := s.store.CreateRelationship(ctx, caseID, data); err != nil {
			return result, fmt.Errorf("creating relationship: %w", err)
		}
		result.RelationshipsImported++
	}

	s.logger.WithFields(logrus.Fields{
		"case_id":       caseID,
		"persons":       result.PersonsImported,
		"skipped":       result.PersonsSkipped,
		"relationships": result.RelationshipsImported,
		"errors":        len(result.Errors),
	}).Info("roster imported")

	return result, nil
}

func resolveID(created map[int64]int64, id int64) int64 {
	if real, ok := created[id]; ok {
		return real
	}
	return id
}

// planPersons validates person rows and adds the accepted ones to sim.
// It returns the plan and a name index used to resolve relationship endpoints.
func (s *ImportService) planPersons(rows []parsers.RawPerson, sim *entities.CaseDetail, onConflict ConflictStrategy, result *ImportResult) ([]plannedPerson, map[string]int64) {
	names := make(map[string]int64, len(sim.Persons)+len(rows))
	for i := range sim.Persons {
		if _, taken := names[sim.Persons[i].Name]; !taken {
			names[sim.Persons[i].Name] = sim.Persons[i].ID
		}
	}
	seen := make(map[string]bool, len(rows))

	plan := make([]plannedPerson, 0, len(rows))
	var nextPlaceholder int64

	for i := range rows {
		raw := &rows[i]
		lineNum := raw.LineNum
		if lineNum == 0 {
			lineNum = i + 1
		}

		data, ierr := convertPerson(raw, lineNum)
		if ierr != nil {
			result.Errors = append(result.Errors, *ierr)
			continue
		}
		if seen[raw.Name] {
			result.Errors = append(result.Errors, ImportError{
				Line: lineNum, Field: "name", Value: raw.Name,
				Message: fmt.Sprintf("duplicate name %q in roster", raw.Name),
			})
			continue
		}

		if existing, ok := names[raw.Name]; ok && onConflict == ConflictSkip {
			seen[raw.Name] = true
			plan = append(plan, plannedPerson{data: data, id: existing, skip: true})
			continue
		}

		if data.WantsDecedent() {
			if err := CheckDecedentUnique(sim.Persons, 0); err != nil {
				result.Errors = append(result.Errors, ImportError{
					Line: lineNum, Field: "is_decedent", Value: raw.Name,
					Message: domain.UserMessage(err, MsgSecondDecedent),
				})
				continue
			}
		}

		nextPlaceholder--
		seen[raw.Name] = true
		names[raw.Name] = nextPlaceholder
		sim.Persons = append(sim.Persons, entities.Person{
			ID:         nextPlaceholder,
			Name:       data.Name,
			IsDecedent: data.WantsDecedent(),
		})
		plan = append(plan, plannedPerson{data: data, id: nextPlaceholder})
	}

	return plan, names
}

// planRelationships validates relationship rows against sim and adds the accepted ones to it.
func (s *ImportService) planRelationships(rows []parsers.RawRelationship, sim *entities.CaseDetail, names map[string]int64, result *ImportResult) []plannedRelationship {
	plan := make([]plannedRelationship, 0, len(rows))

	for i := range rows {
		raw := &rows[i]
		lineNum := raw.LineNum
		if lineNum == 0 {
			lineNum = i + 1
		}

		data, ierr := convertRelationship(raw, names, lineNum)
		if ierr != nil {
			result.Errors = append(result.Errors, *ierr)
			continue
		}
		if err := CheckConnection(sim, data.FromPersonID, data.ToPersonID, data.Type); err != nil {
			result.Errors = append(result.Errors, ImportError{
				Line: lineNum, Field: "to", Value: raw.To,
				Message: domain.UserMessage(err, err.Error()),
			})
			continue
		}

		sim.Relationships = append(sim.Relationships, entities.Relationship{
			FromPersonID: data.FromPersonID,
			ToPersonID:   data.ToPersonID,
			Type:         data.Type,
		})
		plan = append(plan, plannedRelationship{data: data})
	}

	return plan
}

// convertPerson validates a person row and converts it to a create payload.
func convertPerson(raw *parsers.RawPerson, lineNum int) (entities.CreatePersonData, *ImportError) {
	if raw.Name == "" {
		return entities.CreatePersonData{}, &ImportError{Line: lineNum, Field: "name", Message: "missing required field: name"}
	}

	birth, err := parsers.ParseDate(raw.BirthDate)
	if err != nil {
		return entities.CreatePersonData{}, &ImportError{
			Line: lineNum, Field: "birth_date", Value: raw.BirthDate,
			Message: fmt.Sprintf("invalid birth_date %q (expected YYYY-MM-DD)", raw.BirthDate),
		}
	}
	death, err := parsers.ParseDate(raw.DeathDate)
	if err != nil {
		return entities.CreatePersonData{}, &ImportError{
			Line: lineNum, Field: "death_date", Value: raw.DeathDate,
			Message: fmt.Sprintf("invalid death_date %q (expected YYYY-MM-DD)", raw.DeathDate),
		}
	}

	data := entities.NewPersonTemplate()
	data.Name = raw.Name
	data.BirthDate = birth
	data.DeathDate = death
	if raw.IsAlive != nil {
		alive := *raw.IsAlive
		data.IsAlive = &alive
	} else if death != nil {
		alive := false
		data.IsAlive = &alive
	}
	if raw.Gender != "" {
		gender := raw.Gender
		data.Gender = &gender
	}
	decedent, spouse := raw.IsDecedent, raw.IsSpouse
	data.IsDecedent = &decedent
	data.IsSpouse = &spouse

	if err := data.Validate(); err != nil {
		return entities.CreatePersonData{}, &ImportError{Line: lineNum, Value: raw.Name, Message: err.Error()}
	}
	return data, nil
}

// convertRelationship validates a relationship row and resolves its endpoints by name.
func convertRelationship(raw *parsers.RawRelationship, names map[string]int64, lineNum int) (entities.CreateRelationshipData, *ImportError) {
	if raw.From == "" {
		return entities.CreateRelationshipData{}, &ImportError{Line: lineNum, Field: "from", Message: "missing required field: from"}
	}
	if raw.To == "" {
		return entities.CreateRelationshipData{}, &ImportError{Line: lineNum, Field: "to", Message: "missing required field: to"}
	}

	kind, err := entities.ParseRelationshipType(raw.Type)
	if err != nil {
		return entities.CreateRelationshipData{}, &ImportError{Line: lineNum, Field: "type", Value: raw.Type, Message: err.Error()}
	}

	from, ok := names[raw.From]
	if !ok {
		return entities.CreateRelationshipData{}, &ImportError{
			Line: lineNum, Field: "from", Value: raw.From,
			Message: fmt.Sprintf("unknown person %q", raw.From),
		}
	}
	to, ok := names[raw.To]
	if !ok {
		return entities.CreateRelationshipData{}, &ImportError{
			Line: lineNum, Field: "to", Value: raw.To,
			Message: fmt.Sprintf("unknown person %q", raw.To),
		}
	}

	data := entities.CreateRelationshipData{
		FromPersonID: from,
		ToPersonID:   to,
		Type:         kind,
		IsBiological: raw.IsBiological,
		IsAdopted:    raw.IsAdopted,
	}
	if raw.BloodType != "" {
		blood := raw.BloodType
		data.BloodType = &blood
	}
	// Endpoint ids may still be placeholders, so only the remaining fields are checked here.
	if err := validateRelationshipFields(data); err != nil {
		return entities.CreateRelationshipData{}, &ImportError{Line: lineNum, Field: "blood_type", Value: raw.BloodType, Message: err.Error()}
	}
	return data, nil
}

func validateRelationshipFields(data entities.CreateRelationshipData) error {
	data.FromPersonID, data.ToPersonID = 1, 1
	return data.Validate()
}
