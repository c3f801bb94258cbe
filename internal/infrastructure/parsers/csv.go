package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Row kinds of a CSV roster.
const (
	KindPerson       = "person"
	KindRelationship = "relationship"
)

// CSVParser parses rosters from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns the roster.
// Every row has a kind column. Person rows use: name, is_alive, birth_date,
// death_date, gender, is_decedent, is_spouse. Relationship rows use: from, to,
// type, is_biological, is_adopted, blood_type.
func (p *CSVParser) Parse(r io.Reader) (*Roster, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[col] = i
	}

	if _, ok := colIndex["kind"]; !ok {
		return nil, fmt.Errorf("missing required column: kind")
	}

	return colIndex, nil
}

// readRecords reads all data rows and sorts them into persons and relationships.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) (*Roster, error) {
	roster := &Roster{}
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		switch kind := getColumn(record, colIndex, "kind"); kind {
		case KindPerson:
			person, err := p.parsePerson(record, colIndex, lineNum)
			if err != nil {
				return nil, err
			}
			roster.Persons = append(roster.Persons, person)
		case KindRelationship:
			rel, err := p.parseRelationship(record, colIndex, lineNum)
			if err != nil {
				return nil, err
			}
			roster.Relationships = append(roster.Relationships, rel)
		default:
			return nil, fmt.Errorf("line %d: invalid kind %q (valid: person, relationship)", lineNum, kind)
		}
	}

	return roster, nil
}

func (p *CSVParser) parsePerson(record []string, colIndex map[string]int, lineNum int) (RawPerson, error) {
	person := RawPerson{
		Name:      getColumn(record, colIndex, "name"),
		BirthDate: getColumn(record, colIndex, "birth_date"),
		DeathDate: getColumn(record, colIndex, "death_date"),
		Gender:    getColumn(record, colIndex, "gender"),
		LineNum:   lineNum,
	}

	var err error
	if person.IsAlive, err = optionalBool(record, colIndex, "is_alive", lineNum); err != nil {
		return RawPerson{}, err
	}
	decedent, err := optionalBool(record, colIndex, "is_decedent", lineNum)
	if err != nil {
		return RawPerson{}, err
	}
	person.IsDecedent = decedent != nil && *decedent
	spouse, err := optionalBool(record, colIndex, "is_spouse", lineNum)
	if err != nil {
		return RawPerson{}, err
	}
	person.IsSpouse = spouse != nil && *spouse

	return person, nil
}

func (p *CSVParser) parseRelationship(record []string, colIndex map[string]int, lineNum int) (RawRelationship, error) {
	rel := RawRelationship{
		From:      getColumn(record, colIndex, "from"),
		To:        getColumn(record, colIndex, "to"),
		Type:      getColumn(record, colIndex, "type"),
		BloodType: getColumn(record, colIndex, "blood_type"),
		LineNum:   lineNum,
	}

	var err error
	if rel.IsBiological, err = optionalBool(record, colIndex, "is_biological", lineNum); err != nil {
		return RawRelationship{}, err
	}
	if rel.IsAdopted, err = optionalBool(record, colIndex, "is_adopted", lineNum); err != nil {
		return RawRelationship{}, err
	}

	return rel, nil
}

// optionalBool parses a boolean column; an empty cell yields nil.
func optionalBool(record []string, colIndex map[string]int, col string, lineNum int) (*bool, error) {
	s := getColumn(record, colIndex, col)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid %s value %q: %w", lineNum, col, s, err)
	}
	return &b, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}

// csvColumns is the header written by WriteCSV.
var csvColumns = []string{
	"kind", "name", "is_alive", "birth_date", "death_date", "gender", "is_decedent", "is_spouse",
	"from", "to", "type", "is_biological", "is_adopted", "blood_type",
}

// WriteCSV writes the roster in the format CSVParser reads: persons first, then relationships.
func WriteCSV(w io.Writer, roster *Roster) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvColumns); err != nil {
		return err
	}

	for i := range roster.Persons {
		p := &roster.Persons[i]
		row := []string{
			KindPerson, p.Name, formatBool(p.IsAlive), p.BirthDate, p.DeathDate, p.Gender,
			strconv.FormatBool(p.IsDecedent), strconv.FormatBool(p.IsSpouse),
			"", "", "", "", "", "",
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	for i := range roster.Relationships {
		r := &roster.Relationships[i]
		row := []string{
			KindRelationship, "", "", "", "", "", "", "",
			r.From, r.To, r.Type, formatBool(r.IsBiological), formatBool(r.IsAdopted), r.BloodType,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
