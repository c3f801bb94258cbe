package entities

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxGenderLength bounds the free-form gender field.
const MaxGenderLength = 10

// DefaultPersonName is the placeholder name given to a freshly added person.
const DefaultPersonName = "新しい人物"

// Person is a node of the genealogical graph.
// IsDecedent and IsSpouse are independent role flags.
type Person struct {
	ID          int64      `json:"id"`
	CaseID      int64      `json:"case_id"`
	Name        string     `json:"name"`
	IsAlive     bool       `json:"is_alive"`
	DeathDate   *time.Time `json:"death_date,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Gender      *string    `json:"gender,omitempty"`
	IsDecedent  bool       `json:"is_decedent"`
	IsSpouse    bool       `json:"is_spouse"`
	Neo4jNodeID *string    `json:"neo4j_node_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreatePersonData is the payload for creating a person.
// Optional booleans are pointers so the store can apply its own defaults.
type CreatePersonData struct {
	Name       string     `json:"name"`
	IsAlive    *bool      `json:"is_alive,omitempty"`
	DeathDate  *time.Time `json:"death_date,omitempty"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Gender     *string    `json:"gender,omitempty"`
	IsDecedent *bool      `json:"is_decedent,omitempty"`
	IsSpouse   *bool      `json:"is_spouse,omitempty"`
}

// NewPersonTemplate returns the payload used when a person is added
// without any details: alive, with neither role flag set.
func NewPersonTemplate() CreatePersonData {
	alive, no := true, false
	return CreatePersonData{
		Name:       DefaultPersonName,
		IsAlive:    &alive,
		IsDecedent: &no,
		IsSpouse:   &no,
	}
}

// Validate implements validation.Validatable.
func (d CreatePersonData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&d.Gender, validation.RuneLength(0, MaxGenderLength)),
	)
}

// WantsDecedent reports whether the payload marks the person as decedent.
func (d CreatePersonData) WantsDecedent() bool {
	return d.IsDecedent != nil && *d.IsDecedent
}

// UpdatePersonData is a partial person update; nil fields are left unchanged.
type UpdatePersonData struct {
	Name       *string    `json:"name,omitempty"`
	IsAlive    *bool      `json:"is_alive,omitempty"`
	DeathDate  *time.Time `json:"death_date,omitempty"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Gender     *string    `json:"gender,omitempty"`
	IsDecedent *bool      `json:"is_decedent,omitempty"`
	IsSpouse   *bool      `json:"is_spouse,omitempty"`
}

// Validate implements validation.Validatable.
func (d UpdatePersonData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.NilOrNotEmpty, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&d.Gender, validation.RuneLength(0, MaxGenderLength)),
	)
}

// IsEmpty reports whether the update carries no fields.
func (d UpdatePersonData) IsEmpty() bool {
	return d.Name == nil && d.IsAlive == nil && d.DeathDate == nil && d.BirthDate == nil &&
		d.Gender == nil && d.IsDecedent == nil && d.IsSpouse == nil
}

// WantsDecedent reports whether the update sets the decedent flag.
func (d UpdatePersonData) WantsDecedent() bool {
	return d.IsDecedent != nil && *d.IsDecedent
}

// Apply returns a copy of p with the update's non-nil fields applied.
func (d UpdatePersonData) Apply(p Person) Person {
	if d.Name != nil {
		p.Name = *d.Name
	}
	if d.IsAlive != nil {
		p.IsAlive = *d.IsAlive
	}
	if d.DeathDate != nil {
		p.DeathDate = d.DeathDate
	}
	if d.BirthDate != nil {
		p.BirthDate = d.BirthDate
	}
	if d.Gender != nil {
		p.Gender = d.Gender
	}
	if d.IsDecedent != nil {
		p.IsDecedent = *d.IsDecedent
	}
	if d.IsSpouse != nil {
		p.IsSpouse = *d.IsSpouse
	}
	return p
}
