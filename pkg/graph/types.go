package graph

import (
	"encoding/json"
	"fmt"
	"slices"
)

// =============================================================================
// Constants
// =============================================================================

// DefaultDiagramName is used when a document does not name its diagram.
const DefaultDiagramName = "Network Diagram"

// =============================================================================
// EdgeType - Edge Semantics
// =============================================================================

// EdgeType tags the direction semantics of an edge.
type EdgeType string

// Edge semantics.
const (
	Forward       EdgeType = "forward"
	Backward      EdgeType = "backward"
	Bidirectional EdgeType = "bidirectional"
)

// edgeTypeAliases maps every accepted spelling to its EdgeType. The operator
// spellings are what the upstream ontology step emits.
var edgeTypeAliases = map[string]EdgeType{
	"forward":       Forward,
	">>":            Forward,
	"backward":      Backward,
	"<<":            Backward,
	"bidirectional": Bidirectional,
	"-":             Bidirectional,
}

// ParseEdgeType resolves a tag or operator spelling to an EdgeType.
func ParseEdgeType(s string) (EdgeType, error) {
	if t, ok := edgeTypeAliases[s]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown edge type %q (must be forward, backward, bidirectional, >>, << or -)", s)
}

// Valid reports whether t is one of the three edge semantics.
func (t EdgeType) Valid() bool {
	return t == Forward || t == Backward || t == Bidirectional
}

// UnmarshalJSON accepts both tag and operator spellings.
func (t *EdgeType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("edge type must be a string: %w", err)
	}
	parsed, err := ParseEdgeType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// =============================================================================
// Node
// =============================================================================

// Node is a single renderable entity of the diagram.
//
// Type is an opaque label naming a shape or icon class of the target DSL; it
// is never checked against a catalog. Properties are carried through
// untouched.
type Node struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Label      string         `json:"label,omitempty"`
	Cluster    string         `json:"cluster,omitempty"`
	Subcluster string         `json:"subcluster,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// InCluster reports whether the node belongs to a cluster.
func (n *Node) InCluster() bool { return n.Cluster != "" }

// InSubcluster reports whether the node belongs to a subcluster. Subclusters
// only nest inside clusters.
func (n *Node) InSubcluster() bool { return n.Cluster != "" && n.Subcluster != "" }

// =============================================================================
// Endpoint - Single | Group
// =============================================================================

// Endpoint is one side of an edge: either a single node id or an ordered
// group of node ids. The zero value is an unset endpoint.
type Endpoint struct {
	ids   []string
	group bool
}

// Single returns an endpoint referencing one node.
func Single(id string) Endpoint {
	return Endpoint{ids: []string{id}}
}

// Group returns an endpoint referencing an ordered list of nodes.
func Group(ids ...string) Endpoint {
	return Endpoint{ids: slices.Clone(ids), group: true}
}

// IsGroup reports whether the endpoint was written as a list.
func (e Endpoint) IsGroup() bool { return e.group }

// IsZero reports whether the endpoint is unset.
func (e Endpoint) IsZero() bool { return !e.group && len(e.ids) == 0 }

// IDs returns a copy of the referenced ids in order.
func (e Endpoint) IDs() []string { return slices.Clone(e.ids) }

// ID returns the id of a single endpoint, or "" for groups and unset endpoints.
func (e Endpoint) ID() string {
	if e.group || len(e.ids) == 0 {
		return ""
	}
	return e.ids[0]
}

// Contains reports whether id is referenced by the endpoint.
func (e Endpoint) Contains(id string) bool {
	return slices.Contains(e.ids, id)
}

// String renders the endpoint for log messages.
func (e Endpoint) String() string {
	if e.group {
		return fmt.Sprintf("%v", e.ids)
	}
	return e.ID()
}

// MarshalJSON writes single endpoints as a string and groups as an array.
func (e Endpoint) MarshalJSON() ([]byte, error) {
	if e.group {
		ids := e.ids
		if ids == nil {
			ids = []string{}
		}
		return json.Marshal(ids)
	}
	return json.Marshal(e.ID())
}

// UnmarshalJSON accepts a string or an array of strings.
func (e *Endpoint) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*e = Single(id)
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("endpoint must be a node id or a list of node ids")
	}
	*e = Group(ids...)
	return nil
}

// =============================================================================
// Edge
// =============================================================================

// Edge is a relationship between two endpoints.
type Edge struct {
	Source     Endpoint       `json:"source_id"`
	Target     Endpoint       `json:"target_id"`
	Type       EdgeType       `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// References reports whether either endpoint mentions id.
func (e *Edge) References(id string) bool {
	return e.Source.Contains(id) || e.Target.Contains(id)
}

// =============================================================================
// Document
// =============================================================================

// Document is a complete graph description: the diagram name, a rendering
// flag passed through to the target DSL, and ordered nodes and edges.
type Document struct {
	DiagramName string `json:"diagram_name"`
	Show        bool   `json:"show"`
	Nodes       []Node `json:"nodes"`
	Edges       []Edge `json:"edges"`
}

// Lookup builds an id → node index over the document's nodes.
func (d *Document) Lookup() map[string]*Node {
	idx := make(map[string]*Node, len(d.Nodes))
	for i := range d.Nodes {
		idx[d.Nodes[i].ID] = &d.Nodes[i]
	}
	return idx
}

// Clone returns a copy whose node and edge slices can be modified without
// affecting d. Property maps and endpoint ids are shared; neither is mutated
// by this module.
func (d *Document) Clone() *Document {
	return &Document{
		DiagramName: d.DiagramName,
		Show:        d.Show,
		Nodes:       slices.Clone(d.Nodes),
		Edges:       slices.Clone(d.Edges),
	}
}
