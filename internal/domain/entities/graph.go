package entities

// NodeCategory is the visual role of a person node.
// It is derived from the person's flags and never stored.
type NodeCategory string

const (
	CategoryDecedent NodeCategory = "decedent"
	CategorySpouse   NodeCategory = "spouse"
	CategoryAlive    NodeCategory = "alive"
	CategoryDeceased NodeCategory = "deceased"
)

// Position is a canvas coordinate in pixels.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NodeStyle describes how a node box is drawn.
type NodeStyle struct {
	Background   string `json:"background"`
	Border       string `json:"border"`
	BorderColor  string `json:"borderColor"`
	BorderRadius string `json:"borderRadius"`
	Padding      string `json:"padding"`
	MinWidth     string `json:"minWidth"`
}

// NodeLabel holds the text lines shown inside a node.
type NodeLabel struct {
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	Status string `json:"status"`
}

// Node is the rendered form of a person.
type Node struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Category NodeCategory `json:"category"`
	Label    NodeLabel    `json:"label"`
	Position Position     `json:"position"`
	Style    NodeStyle    `json:"style"`
}

// EdgeStyle describes how an edge and its label are drawn.
type EdgeStyle struct {
	Stroke          string `json:"stroke"`
	StrokeWidth     int    `json:"strokeWidth"`
	LabelFontSize   int    `json:"labelFontSize"`
	LabelFill       string `json:"labelFill"`
	LabelBackground string `json:"labelBackground"`
}

// Edge is the rendered form of a relationship.
// Pending edges come from a connect gesture the store has not confirmed yet;
// Provisional marks a kind that was defaulted rather than chosen.
type Edge struct {
	ID          string           `json:"id"`
	Source      string           `json:"source"`
	Target      string           `json:"target"`
	Kind        RelationshipType `json:"kind"`
	Label       string           `json:"label"`
	Type        string           `json:"type"`
	Marker      string           `json:"markerEnd"`
	Style       EdgeStyle        `json:"style"`
	Pending     bool             `json:"pending,omitempty"`
	Provisional bool             `json:"provisional,omitempty"`
}

// Graph is a renderable node/edge set.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// HasNode reports whether a node with the given id exists.
func (g Graph) HasNode(id string) bool {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return true
		}
	}
	return false
}
