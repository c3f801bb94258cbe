package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses rosters from JSON format.
type JSONParser struct{}

// Parse reads a JSON roster from the reader.
// Line numbers are record positions: persons first, then relationships.
func (p *JSONParser) Parse(r io.Reader) (*Roster, error) {
	var roster Roster

	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&roster); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	for i := range roster.Persons {
		roster.Persons[i].LineNum = i + 1
	}
	offset := len(roster.Persons)
	for i := range roster.Relationships {
		roster.Relationships[i].LineNum = offset + i + 1
	}

	return &roster, nil
}

// WriteJSON writes the roster as indented JSON.
func WriteJSON(w io.Writer, roster *Roster) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(roster); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
