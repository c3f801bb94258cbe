package services

import (
	"strconv"

	"github.com/ersonp/famtree/internal/domain/entities"
)

// Grid layout constants. Positions depend only on a person's index.
const (
	GridColumns    = 3
	GridCellWidth  = 250
	GridCellHeight = 150
)

// Role and vital-status captions shown inside a node.
const (
	CaptionDecedent = "被相続人"
	CaptionSpouse   = "配偶者"
	CaptionAlive    = "存命"
	CaptionDeceased = "死亡"
)

type palette struct {
	fill   string
	border string
}

var categoryPalette = map[entities.NodeCategory]palette{
	entities.CategoryDecedent: {fill: "#fee2e2", border: "#dc2626"},
	entities.CategorySpouse:   {fill: "#ede9fe", border: "#7c3aed"},
	entities.CategoryAlive:    {fill: "#dcfce7", border: "#16a34a"},
	entities.CategoryDeceased: {fill: "#f3f4f6", border: "#6b7280"},
}

var edgeStyle = entities.EdgeStyle{
	Stroke:          "#64748b",
	StrokeWidth:     2,
	LabelFontSize:   12,
	LabelFill:       "#475569",
	LabelBackground: "#f1f5f9",
}

const (
	nodeType   = "default"
	edgeType   = "smoothstep"
	edgeMarker = "arrowclosed"
)

// Categorize returns the visual category of a person.
// Priority: decedent, then spouse, then alive, then deceased.
func Categorize(p *entities.Person) entities.NodeCategory {
	switch {
	case p.IsDecedent:
		return entities.CategoryDecedent
	case p.IsSpouse:
		return entities.CategorySpouse
	case p.IsAlive:
		return entities.CategoryAlive
	default:
		return entities.CategoryDeceased
	}
}

// GridPosition returns the placeholder grid position for the index-th person.
func GridPosition(index int) entities.Position {
	return entities.Position{
		X: (index % GridColumns) * GridCellWidth,
		Y: (index / GridColumns) * GridCellHeight,
	}
}

// Project maps a snapshot of persons and relationships to a renderable graph.
// It has no side effects and yields identical output for identical input.
// Relationships referencing a person outside the snapshot are skipped.
func Project(persons []entities.Person, relationships []entities.Relationship) entities.Graph {
	g := entities.Graph{
		Nodes: make([]entities.Node, 0, len(persons)),
		Edges: make([]entities.Edge, 0, len(relationships)),
	}

	present := make(map[int64]bool, len(persons))
	for i := range persons {
		present[persons[i].ID] = true
		g.Nodes = append(g.Nodes, projectNode(&persons[i], i))
	}

	for i := range relationships {
		r := &relationships[i]
		if !present[r.FromPersonID] || !present[r.ToPersonID] {
			continue
		}
		g.Edges = append(g.Edges, NewEdge(
			NodeID(r.ID),
			NodeID(r.FromPersonID),
			NodeID(r.ToPersonID),
			r.Type,
		))
	}

	return g
}

// NodeID renders a store id as a graph id.
func NodeID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseNodeID converts a graph id back to a store id.
func ParseNodeID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}

// NewEdge builds a uniformly styled edge for a relationship kind.
func NewEdge(id, source, target string, kind entities.RelationshipType) entities.Edge {
	return entities.Edge{
		ID:     id,
		Source: source,
		Target: target,
		Kind:   kind,
		Label:  kind.Label(),
		Type:   edgeType,
		Marker: edgeMarker,
		Style:  edgeStyle,
	}
}

func projectNode(p *entities.Person, index int) entities.Node {
	category := Categorize(p)
	colors := categoryPalette[category]

	return entities.Node{
		ID:       NodeID(p.ID),
		Type:     nodeType,
		Category: category,
		Label:    nodeLabel(p),
		Position: GridPosition(index),
		Style: entities.NodeStyle{
			Background:   colors.fill,
			Border:       "2px solid",
			BorderColor:  colors.border,
			BorderRadius: "8px",
			Padding:      "10px",
			MinWidth:     "150px",
		},
	}
}

func nodeLabel(p *entities.Person) entities.NodeLabel {
	role := ""
	if p.IsDecedent {
		role += CaptionDecedent
	}
	if p.IsSpouse {
		role += CaptionSpouse
	}

	status := CaptionDeceased
	if p.IsAlive {
		status = CaptionAlive
	}

	return entities.NodeLabel{Name: p.Name, Role: role, Status: status}
}
