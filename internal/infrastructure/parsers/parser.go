// Package parsers reads and writes family rosters used for bulk import and export.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ersonp/famtree/internal/domain/entities"
)

// DateLayout is the format of roster dates.
const DateLayout = "2006-01-02"

// RawPerson is a person row before validation.
type RawPerson struct {
	Name       string `json:"name"`
	IsAlive    *bool  `json:"is_alive,omitempty"` // Pointer to distinguish false from unset
	BirthDate  string `json:"birth_date,omitempty"`
	DeathDate  string `json:"death_date,omitempty"`
	Gender     string `json:"gender,omitempty"`
	IsDecedent bool   `json:"is_decedent,omitempty"`
	IsSpouse   bool   `json:"is_spouse,omitempty"`
	LineNum    int    `json:"-"` // Line number in source file (set by parser)
}

// RawRelationship is a relationship row before validation.
// From and To refer to persons by name.
type RawRelationship struct {
	From         string `json:"from"`
	To           string `json:"to"`
	Type         string `json:"type"`
	IsBiological *bool  `json:"is_biological,omitempty"`
	IsAdopted    *bool  `json:"is_adopted,omitempty"`
	BloodType    string `json:"blood_type,omitempty"`
	LineNum      int    `json:"-"`
}

// Roster is a parsed import file.
type Roster struct {
	Persons       []RawPerson       `json:"persons"`
	Relationships []RawRelationship `json:"relationships"`
}

// Parser defines the interface for parsing rosters from various formats.
type Parser interface {
	Parse(r io.Reader) (*Roster, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// FromCaseDetail converts a stored case into a roster that imports back to the same graph.
// Relationships whose endpoints are missing are dropped.
func FromCaseDetail(detail *entities.CaseDetail) *Roster {
	roster := &Roster{
		Persons:       make([]RawPerson, 0, len(detail.Persons)),
		Relationships: make([]RawRelationship, 0, len(detail.Relationships)),
	}

	names := make(map[int64]string, len(detail.Persons))
	for i := range detail.Persons {
		p := &detail.Persons[i]
		names[p.ID] = p.Name
		alive := p.IsAlive
		raw := RawPerson{
			Name:       p.Name,
			IsAlive:    &alive,
			BirthDate:  formatDate(p.BirthDate),
			DeathDate:  formatDate(p.DeathDate),
			IsDecedent: p.IsDecedent,
			IsSpouse:   p.IsSpouse,
		}
		if p.Gender != nil {
			raw.Gender = *p.Gender
		}
		roster.Persons = append(roster.Persons, raw)
	}

	for i := range detail.Relationships {
		r := &detail.Relationships[i]
		from, okFrom := names[r.FromPersonID]
		to, okTo := names[r.ToPersonID]
		if !okFrom || !okTo {
			continue
		}
		raw := RawRelationship{
			From:         from,
			To:           to,
			Type:         string(r.Type),
			IsBiological: r.IsBiological,
			IsAdopted:    r.IsAdopted,
		}
		if r.BloodType != nil {
			raw.BloodType = *r.BloodType
		}
		roster.Relationships = append(roster.Relationships, raw)
	}

	return roster
}

// ParseDate parses an optional roster date; empty input yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
