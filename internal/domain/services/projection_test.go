package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/famtree/internal/domain/entities"
)

func testPersons(names ...string) []entities.Person {
	persons := make([]entities.Person, len(names))
	for i, name := range names {
		persons[i] = entities.Person{ID: int64(i + 1), CaseID: 1, Name: name, IsAlive: true}
	}
	return persons
}

func TestProject_EmptyCase(t *testing.T) {
	g := Project(nil, nil)

	assert.NotNil(t, g.Nodes)
	assert.NotNil(t, g.Edges)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}

func TestProject_OneNodePerPerson(t *testing.T) {
	persons := testPersons("A", "B", "C", "D", "E")
	persons[1].ID = 42
	persons[3].ID = 7

	g := Project(persons, nil)

	require.Len(t, g.Nodes, len(persons))
	ids := make([]string, len(g.Nodes))
	for i := range g.Nodes {
		ids[i] = g.Nodes[i].ID
	}
	assert.Equal(t, []string{"1", "42", "3", "7", "5"}, ids)
}

func TestProject_ChildOfEdgeAndGrid(t *testing.T) {
	persons := testPersons("A", "B", "C")
	rels := []entities.Relationship{
		{ID: 10, CaseID: 1, FromPersonID: 1, ToPersonID: 2, Type: entities.RelationChildOf},
	}

	g := Project(persons, rels)

	require.Len(t, g.Nodes, 3)
	assert.Equal(t, entities.Position{X: 0, Y: 0}, g.Nodes[0].Position)
	assert.Equal(t, entities.Position{X: 250, Y: 0}, g.Nodes[1].Position)
	assert.Equal(t, entities.Position{X: 500, Y: 0}, g.Nodes[2].Position)

	require.Len(t, g.Edges, 1)
	e := g.Edges[0]
	assert.Equal(t, "10", e.ID)
	assert.Equal(t, "1", e.Source)
	assert.Equal(t, "2", e.Target)
	assert.Equal(t, "子", e.Label)
	assert.Equal(t, "smoothstep", e.Type)
	assert.Equal(t, "arrowclosed", e.Marker)
	assert.False(t, e.Pending)
}

func TestProject_EdgeLabels(t *testing.T) {
	tests := []struct {
		kind  entities.RelationshipType
		label string
	}{
		{entities.RelationChildOf, "子"},
		{entities.RelationSpouseOf, "配偶者"},
		{entities.RelationSiblingOf, "兄弟姉妹"},
		{entities.RelationshipType("cousin_of"), "cousin_of"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			g := Project(testPersons("A", "B"), []entities.Relationship{
				{ID: 3, FromPersonID: 1, ToPersonID: 2, Type: tt.kind},
			})
			require.Len(t, g.Edges, 1)
			assert.Equal(t, tt.label, g.Edges[0].Label)
		})
	}
}

func TestProject_SkipsDanglingRelationships(t *testing.T) {
	persons := testPersons("A", "B", "C")
	persons = append(persons[:1], persons[2:]...) // B deleted
	rels := []entities.Relationship{
		{ID: 10, FromPersonID: 1, ToPersonID: 2, Type: entities.RelationChildOf},
	}

	g := Project(persons, rels)

	assert.Len(t, g.Nodes, 2)
	assert.Empty(t, g.Edges)
}

func TestProject_GridWrapsAfterThreeColumns(t *testing.T) {
	g := Project(testPersons("A", "B", "C", "D", "E", "F", "G"), nil)

	assert.Equal(t, entities.Position{X: 0, Y: 150}, g.Nodes[3].Position)
	assert.Equal(t, entities.Position{X: 500, Y: 150}, g.Nodes[5].Position)
	assert.Equal(t, entities.Position{X: 0, Y: 300}, g.Nodes[6].Position)
}

func TestProject_Deterministic(t *testing.T) {
	persons := testPersons("A", "B", "C", "D")
	persons[0].IsDecedent = true
	persons[1].IsSpouse = true
	persons[2].IsAlive = false
	rels := []entities.Relationship{
		{ID: 10, FromPersonID: 3, ToPersonID: 1, Type: entities.RelationChildOf},
		{ID: 11, FromPersonID: 1, ToPersonID: 2, Type: entities.RelationSpouseOf},
	}

	first := Project(persons, rels)
	second := Project(persons, rels)
	assert.Equal(t, first, second)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name   string
		person entities.Person
		want   entities.NodeCategory
	}{
		{"decedent wins over spouse", entities.Person{IsDecedent: true, IsSpouse: true}, entities.CategoryDecedent},
		{"spouse wins over alive", entities.Person{IsSpouse: true, IsAlive: true}, entities.CategorySpouse},
		{"alive", entities.Person{IsAlive: true}, entities.CategoryAlive},
		{"deceased", entities.Person{}, entities.CategoryDeceased},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(&tt.person))
		})
	}
}

func TestProject_NodeLabelAndStyle(t *testing.T) {
	persons := []entities.Person{
		{ID: 1, Name: "太郎", IsDecedent: true, IsSpouse: true},
		{ID: 2, Name: "花子", IsAlive: true},
	}

	g := Project(persons, nil)

	assert.Equal(t, entities.NodeLabel{Name: "太郎", Role: "被相続人配偶者", Status: "死亡"}, g.Nodes[0].Label)
	assert.Equal(t, "#fee2e2", g.Nodes[0].Style.Background)
	assert.Equal(t, "#dc2626", g.Nodes[0].Style.BorderColor)

	assert.Equal(t, entities.NodeLabel{Name: "花子", Status: "存命"}, g.Nodes[1].Label)
	assert.Equal(t, entities.CategoryAlive, g.Nodes[1].Category)
	assert.Equal(t, "#16a34a", g.Nodes[1].Style.BorderColor)
}

func TestProject_MultipleDecedentsRenderedAsIs(t *testing.T) {
	persons := testPersons("A", "B")
	persons[0].IsDecedent = true
	persons[1].IsDecedent = true

	g := Project(persons, nil)

	assert.Equal(t, entities.CategoryDecedent, g.Nodes[0].Category)
	assert.Equal(t, entities.CategoryDecedent, g.Nodes[1].Category)
}

func TestParseNodeID(t *testing.T) {
	id, err := ParseNodeID(NodeID(123))
	require.NoError(t, err)
	assert.Equal(t, int64(123), id)

	_, err = ParseNodeID("pending-abc")
	assert.Error(t, err)
}
