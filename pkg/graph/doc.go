// Package graph defines the graph document consumed by the code generators
// and the parser that normalizes it.
//
// A document is a diagram name, a rendering flag, an ordered list of nodes
// and an ordered list of edges:
//
//	{
//	  "diagram_name": "Web Service",
//	  "show": false,
//	  "nodes": [
//	    {"id": "lb", "type": "ELB"},
//	    {"id": "web", "type": "EC2", "cluster": "Services"}
//	  ],
//	  "edges": [
//	    {"source_id": "lb", "target_id": "web", "type": "forward"}
//	  ]
//	}
//
// # Endpoints
//
// Each side of an edge is an [Endpoint]: either a single node id or a list of
// node ids. The list form expresses one-to-many, many-to-one and
// many-to-many connections in a single edge. Build endpoints with [Single]
// and [Group].
//
// # Edge Types
//
// Edges carry one of three semantics. The tag and the operator spelling are
// both accepted:
//
//	forward        >>
//	backward       <<
//	bidirectional  -
//
// # Parsing
//
// [Parse] accepts JSON or YAML text; [FromValue] accepts already-decoded
// values and Go-constructed documents. Both return a normalized copy or a
// MALFORMED_DOCUMENT error from pkg/errors. Missing nodes or edges read as
// empty lists; an empty document yields an empty diagram.
//
// Edges are not resolved here. An edge naming an unknown node is valid input
// and is skipped by the generators.
package graph
