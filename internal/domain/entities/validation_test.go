package entities

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCaseData_Validate(t *testing.T) {
	tests := []struct {
		name    string
		data    CreateCaseData
		wantErr bool
	}{
		{"title only", CreateCaseData{Title: "相続案件"}, false},
		{"with status", CreateCaseData{Title: "x", Status: CaseStatusInProgress}, false},
		{"missing title", CreateCaseData{}, true},
		{"title too long", CreateCaseData{Title: strings.Repeat("あ", MaxTitleLength+1)}, true},
		{"title at limit", CreateCaseData{Title: strings.Repeat("あ", MaxTitleLength)}, false},
		{"unknown status", CreateCaseData{Title: "x", Status: "closed"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateCaseData(t *testing.T) {
	assert.True(t, UpdateCaseData{}.IsEmpty())
	assert.NoError(t, UpdateCaseData{}.Validate())

	empty := ""
	assert.Error(t, UpdateCaseData{Title: &empty}.Validate())

	bad := CaseStatus("closed")
	assert.Error(t, UpdateCaseData{Status: &bad}.Validate())

	good := CaseStatusArchived
	data := UpdateCaseData{Status: &good}
	assert.NoError(t, data.Validate())
	assert.False(t, data.IsEmpty())
}

func TestParseCaseStatus(t *testing.T) {
	for _, st := range CaseStatuses {
		got, err := ParseCaseStatus(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}

	_, err := ParseCaseStatus("closed")
	assert.Error(t, err)
}

func TestNewPersonTemplate(t *testing.T) {
	data := NewPersonTemplate()

	assert.Equal(t, DefaultPersonName, data.Name)
	require.NotNil(t, data.IsAlive)
	assert.True(t, *data.IsAlive)
	assert.False(t, data.WantsDecedent())
	require.NotNil(t, data.IsSpouse)
	assert.False(t, *data.IsSpouse)
	assert.NoError(t, data.Validate())
}

func TestCreatePersonData_Validate(t *testing.T) {
	long := "abcdefghijk"
	ok := "female"

	assert.Error(t, CreatePersonData{}.Validate())
	assert.Error(t, CreatePersonData{Name: "x", Gender: &long}.Validate())
	assert.NoError(t, CreatePersonData{Name: "x", Gender: &ok}.Validate())
}

func TestUpdatePersonData_Apply(t *testing.T) {
	name, yes, no := "花子", true, false
	p := Person{ID: 1, Name: "x", IsAlive: true}

	got := UpdatePersonData{Name: &name, IsAlive: &no, IsSpouse: &yes}.Apply(p)

	assert.Equal(t, "花子", got.Name)
	assert.False(t, got.IsAlive)
	assert.True(t, got.IsSpouse)
	assert.False(t, got.IsDecedent)
	assert.Equal(t, "x", p.Name, "original is not modified")

	assert.True(t, UpdatePersonData{}.IsEmpty())
	assert.True(t, UpdatePersonData{IsDecedent: &yes}.WantsDecedent())
	assert.False(t, UpdatePersonData{IsDecedent: &no}.WantsDecedent())
}

func TestRelationshipType_Label(t *testing.T) {
	assert.Equal(t, "子", RelationChildOf.Label())
	assert.Equal(t, "配偶者", RelationSpouseOf.Label())
	assert.Equal(t, "兄弟姉妹", RelationSiblingOf.Label())
	assert.Equal(t, "adopted_by", RelationshipType("adopted_by").Label())
}

func TestParseRelationshipType(t *testing.T) {
	got, err := ParseRelationshipType("spouse_of")
	require.NoError(t, err)
	assert.Equal(t, RelationSpouseOf, got)

	_, err = ParseRelationshipType("parent_of")
	assert.Error(t, err)
}

func TestCreateRelationshipData_Validate(t *testing.T) {
	half := "half"
	tooLong := strings.Repeat("x", MaxBloodTypeLength+1)

	tests := []struct {
		name    string
		data    CreateRelationshipData
		wantErr bool
	}{
		{"valid", CreateRelationshipData{FromPersonID: 1, ToPersonID: 2, Type: RelationSiblingOf, BloodType: &half}, false},
		{"missing from", CreateRelationshipData{ToPersonID: 2, Type: RelationChildOf}, true},
		{"missing type", CreateRelationshipData{FromPersonID: 1, ToPersonID: 2}, true},
		{"unknown type", CreateRelationshipData{FromPersonID: 1, ToPersonID: 2, Type: "parent_of"}, true},
		{"blood type too long", CreateRelationshipData{FromPersonID: 1, ToPersonID: 2, Type: RelationChildOf, BloodType: &tooLong}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCaseDetail_JSONShape(t *testing.T) {
	raw := `{
		"id": 7, "title": "t", "status": "draft", "user_id": 1,
		"created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-02T00:00:00Z",
		"persons": [{"id": 1, "case_id": 7, "name": "A", "is_alive": true, "is_decedent": false, "is_spouse": false,
			"created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z"}],
		"relationships": [{"id": 3, "case_id": 7, "from_person_id": 1, "to_person_id": 2, "relationship_type": "child_of",
			"created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z"}]
	}`

	var detail CaseDetail
	require.NoError(t, json.Unmarshal([]byte(raw), &detail))

	assert.Equal(t, int64(7), detail.ID)
	assert.Equal(t, CaseStatusDraft, detail.Status)
	require.Len(t, detail.Persons, 1)
	assert.NotNil(t, detail.FindPerson(1))
	assert.Nil(t, detail.FindPerson(2))
	require.Len(t, detail.Relationships, 1)
	assert.Equal(t, RelationChildOf, detail.Relationships[0].Type)
}

func TestGraph_HasNode(t *testing.T) {
	g := Graph{Nodes: []Node{{ID: "1"}, {ID: "2"}}}
	assert.True(t, g.HasNode("2"))
	assert.False(t, g.HasNode("3"))
	assert.False(t, Graph{}.HasNode(""))
}
