// Package diagrams generates Python source for the mingrammer "diagrams"
// library from a graph document.
//
// # Overview
//
// The generated program is a single `with Diagram(...)` block. Inside it,
// declarations come first and connections last, so every node exists before
// an edge line refers to it:
//
//  1. Standalone nodes (no cluster, referenced by no edge), in document order
//  2. One `with Cluster(...)` block per cluster, in first-seen order, holding
//     the cluster's direct members followed by one nested block per subcluster
//  3. One line per edge, in document order
//
// Nodes are referenced as `Type("id")`. Edge lines join references with the
// operator bound to the edge type:
//
//	forward        >>
//	backward       <<
//	bidirectional  -
//
// A group endpoint renders as a bracketed list, so all four cardinalities
// (one-to-one, one-to-many, many-to-one and many-to-many) are a single line.
//
// # Usage
//
//	code, err := diagrams.RenderCode(`{
//	    "nodes": [{"id": "lb", "type": "ELB"}, {"id": "web", "type": "EC2"}],
//	    "edges": [{"source_id": "lb", "target_id": "web", "type": "forward"}]
//	}`)
//
// [Generate] works on a parsed [graph.Document] and reports how many edges
// were skipped because an endpoint did not resolve to a node. Such edges are
// dropped rather than rejected: documents produced by the upstream ontology
// step are expected to be occasionally inconsistent.
//
// # Imports
//
// By default the output is the bare diagram block. [Options.Imports] prepends
// the import statements needed to run it, resolving each node type to its
// provider module through [Options.Modules] (falling back to
// [DefaultModules]).
package diagrams
