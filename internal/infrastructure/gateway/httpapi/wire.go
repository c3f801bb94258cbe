package httpapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ersonp/famtree/internal/domain/entities"
)

// Layouts accepted for timestamps. Zone-less values are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// timestamp decodes the store's datetimes, which may omit the zone.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

func (t *timestamp) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// Wire types shadow the entity time fields with timestamp; the shallower field wins in encoding/json.

type wireCase struct {
	entities.Case
	CreatedAt timestamp `json:"created_at"`
	UpdatedAt timestamp `json:"updated_at"`
}

func (w *wireCase) entity() entities.Case {
	c := w.Case
	c.CreatedAt = w.CreatedAt.Time
	c.UpdatedAt = w.UpdatedAt.Time
	return c
}

type wirePerson struct {
	entities.Person
	DeathDate *timestamp `json:"death_date,omitempty"`
	BirthDate *timestamp `json:"birth_date,omitempty"`
	CreatedAt timestamp  `json:"created_at"`
	UpdatedAt timestamp  `json:"updated_at"`
}

func (w *wirePerson) entity() entities.Person {
	p := w.Person
	p.DeathDate = w.DeathDate.ptr()
	p.BirthDate = w.BirthDate.ptr()
	p.CreatedAt = w.CreatedAt.Time
	p.UpdatedAt = w.UpdatedAt.Time
	return p
}

type wireRelationship struct {
	entities.Relationship
	CreatedAt timestamp `json:"created_at"`
	UpdatedAt timestamp `json:"updated_at"`
}

func (w *wireRelationship) entity() entities.Relationship {
	r := w.Relationship
	r.CreatedAt = w.CreatedAt.Time
	r.UpdatedAt = w.UpdatedAt.Time
	return r
}

type wireCaseDetail struct {
	wireCase
	Persons       []wirePerson       `json:"persons"`
	Relationships []wireRelationship `json:"relationships"`
}

func (w *wireCaseDetail) entity() *entities.CaseDetail {
	detail := &entities.CaseDetail{
		Case:          w.wireCase.entity(),
		Persons:       make([]entities.Person, len(w.Persons)),
		Relationships: make([]entities.Relationship, len(w.Relationships)),
	}
	for i := range w.Persons {
		detail.Persons[i] = w.Persons[i].entity()
	}
	for i := range w.Relationships {
		detail.Relationships[i] = w.Relationships[i].entity()
	}
	return detail
}

type textTreeResponse struct {
	ASCIITree string `json:"ascii_tree"`
}

// errorBody is the store's error envelope. Detail is either a string or a list of validation issues.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// decodeDetail extracts a readable message from an error response body.
func decodeDetail(body []byte) string {
	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var issues []validationIssue
	if err := json.Unmarshal(envelope.Detail, &issues); err == nil {
		msgs := make([]string, 0, len(issues))
		for _, issue := range issues {
			if issue.Msg != "" {
				msgs = append(msgs, issue.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}
