package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/domain/ports"
	"github.com/ersonp/famtree/internal/domain/services"
	"github.com/ersonp/famtree/internal/infrastructure/parsers"
)

// PersonHandler handles person operations.
type PersonHandler struct {
	store ports.CaseStore
}

// NewPersonHandler creates a new PersonHandler.
func NewPersonHandler(store ports.CaseStore) *PersonHandler {
	return &PersonHandler{
		store: store,
	}
}

// PersonInput carries person fields as typed on the command line.
// Nil fields are not set; dates use YYYY-MM-DD.
type PersonInput struct {
	Name      *string
	Alive     *bool
	BirthDate *string
	DeathDate *string
	Gender    *string
	Decedent  *bool
	Spouse    *bool
}

// HandleAdd adds a person to a case. Without a name the placeholder name is used.
func (h *PersonHandler) HandleAdd(ctx context.Context, caseID int64, in PersonInput) (*entities.Person, error) {
	data := entities.NewPersonTemplate()
	if in.Name != nil {
		data.Name = *in.Name
	}
	if in.Alive != nil {
		data.IsAlive = in.Alive
	}
	if in.Decedent != nil {
		data.IsDecedent = in.Decedent
	}
	if in.Spouse != nil {
		data.IsSpouse = in.Spouse
	}
	data.Gender = in.Gender

	var err error
	if data.BirthDate, err = parseDateInput("birth date", in.BirthDate); err != nil {
		return nil, err
	}
	if data.DeathDate, err = parseDateInput("death date", in.DeathDate); err != nil {
		return nil, err
	}

	if data.WantsDecedent() {
		detail, err := h.store.GetCase(ctx, caseID)
		if err != nil {
			return nil, fmt.Errorf("loading case: %w", err)
		}
		if err := services.CheckDecedentUnique(detail.Persons, 0); err != nil {
			return nil, err
		}
	}

	p, err := h.store.CreatePerson(ctx, caseID, data)
	if err != nil {
		return nil, fmt.Errorf("adding person: %w", err)
	}
	return p, nil
}

// HandleUpdate updates the person named by ref (an id or a unique name).
func (h *PersonHandler) HandleUpdate(ctx context.Context, caseID int64, ref string, in PersonInput) (*entities.Person, error) {
	data := entities.UpdatePersonData{
		Name:       in.Name,
		IsAlive:    in.Alive,
		Gender:     in.Gender,
		IsDecedent: in.Decedent,
		IsSpouse:   in.Spouse,
	}

	var err error
	if data.BirthDate, err = parseDateInput("birth date", in.BirthDate); err != nil {
		return nil, err
	}
	if data.DeathDate, err = parseDateInput("death date", in.DeathDate); err != nil {
		return nil, err
	}
	if data.IsEmpty() {
		return nil, errors.New("nothing to update")
	}

	detail, err := h.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading case: %w", err)
	}
	person, err := ResolvePerson(detail, ref)
	if err != nil {
		return nil, err
	}
	if data.WantsDecedent() {
		if err := services.CheckDecedentUnique(detail.Persons, person.ID); err != nil {
			return nil, err
		}
	}

	p, err := h.store.UpdatePerson(ctx, caseID, person.ID, data)
	if err != nil {
		return nil, fmt.Errorf("updating person: %w", err)
	}
	return p, nil
}

// HandleDelete deletes the person named by ref. The store removes the person's relationships.
func (h *PersonHandler) HandleDelete(ctx context.Context, caseID int64, ref string) (*entities.Person, error) {
	detail, err := h.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading case: %w", err)
	}
	person, err := ResolvePerson(detail, ref)
	if err != nil {
		return nil, err
	}

	if err := h.store.DeletePerson(ctx, caseID, person.ID); err != nil {
		return nil, fmt.Errorf("deleting person: %w", err)
	}
	return person, nil
}

// ResolvePerson finds a person by numeric id or by exact name.
// A name shared by several persons is rejected.
func ResolvePerson(detail *entities.CaseDetail, ref string) (*entities.Person, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if p := detail.FindPerson(id); p != nil {
			return p, nil
		}
	}

	var found *entities.Person
	for i := range detail.Persons {
		if detail.Persons[i].Name != ref {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("name %q matches more than one person (use the id)", ref)
		}
		found = &detail.Persons[i]
	}
	if found == nil {
		return nil, fmt.Errorf("person not found: %s", ref)
	}
	return found, nil
}

func parseDateInput(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parsers.ParseDate(*s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q (use YYYY-MM-DD)", field, *s)
	}
	return t, nil
}
