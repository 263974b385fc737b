// Package topology resolves where each node of a graph document is declared:
// at the top level, inside a cluster, or inside a subcluster of a cluster.
//
// The result drives emission order for every code generator. All orderings
// are first-seen document order; names are never sorted.
package topology

import (
	"github.com/matzehuels/cloudsketch/pkg/graph"
)

// Role describes how a node is declared in the generated code.
type Role int

const (
	// RoleEdge nodes have no cluster and are declared implicitly by the
	// edges that reference them.
	RoleEdge Role = iota
	// RoleStandalone nodes have no cluster and appear in no edge; they get
	// their own reference line at the top of the diagram.
	RoleStandalone
	// RoleCluster nodes are declared directly inside their cluster block.
	RoleCluster
	// RoleSubcluster nodes are declared inside a subcluster block.
	RoleSubcluster
)

// String returns the role name used in CLI and API output.
func (r Role) String() string {
	switch r {
	case RoleStandalone:
		return "standalone"
	case RoleCluster:
		return "cluster"
	case RoleSubcluster:
		return "subcluster"
	default:
		return "edge"
	}
}

// Topology is the declaration structure of a document.
type Topology struct {
	// Standalone nodes in document order.
	Standalone []*graph.Node
	// Clusters in first-seen order.
	Clusters []*Cluster

	roles map[string]Role
}

// Cluster is a named group of nodes.
type Cluster struct {
	Name string
	// Members are the nodes declared directly in the cluster (those without
	// a subcluster), in document order.
	Members []*graph.Node
	// Subclusters in first-seen order.
	Subclusters []*Subcluster
}

// Subcluster is a named group nested in a cluster.
type Subcluster struct {
	Name    string
	Members []*graph.Node
}

// Size returns the number of nodes in the cluster including subclusters.
func (c *Cluster) Size() int {
	n := len(c.Members)
	for _, s := range c.Subclusters {
		n += len(s.Members)
	}
	return n
}

// Resolve computes the topology of doc. Returned nodes point into doc.Nodes.
func Resolve(doc *graph.Document) *Topology {
	referenced := referencedIDs(doc)
	t := &Topology{roles: make(map[string]Role, len(doc.Nodes))}

	clustered := make([]*graph.Node, 0, len(doc.Nodes))
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		switch {
		case n.InCluster():
			clustered = append(clustered, n)
		case !referenced[n.ID]:
			t.Standalone = append(t.Standalone, n)
			t.roles[n.ID] = RoleStandalone
		default:
			t.roles[n.ID] = RoleEdge
		}
	}

	for _, cg := range groupBy(clustered, func(n *graph.Node) string { return n.Cluster }) {
		c := &Cluster{Name: cg.key}
		var nested []*graph.Node
		for _, n := range cg.items {
			if n.InSubcluster() {
				nested = append(nested, n)
				t.roles[n.ID] = RoleSubcluster
				continue
			}
			c.Members = append(c.Members, n)
			t.roles[n.ID] = RoleCluster
		}
		for _, sg := range groupBy(nested, func(n *graph.Node) string { return n.Subcluster }) {
			c.Subclusters = append(c.Subclusters, &Subcluster{Name: sg.key, Members: sg.items})
		}
		t.Clusters = append(t.Clusters, c)
	}

	return t
}

// Role returns the role of the node with the given id. Unknown ids report
// RoleEdge.
func (t *Topology) Role(id string) Role {
	return t.roles[id]
}

// referencedIDs collects every id named by an edge endpoint, scalar or group,
// whether or not it resolves to a node.
func referencedIDs(doc *graph.Document) map[string]bool {
	seen := make(map[string]bool)
	for i := range doc.Edges {
		e := &doc.Edges[i]
		for _, id := range e.Source.IDs() {
			seen[id] = true
		}
		for _, id := range e.Target.IDs() {
			seen[id] = true
		}
	}
	return seen
}
