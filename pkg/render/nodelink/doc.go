// Package nodelink renders graph documents as Graphviz DOT.
//
// # Overview
//
// DOT is the second code-generation target next to the diagrams DSL. It
// shares the topology resolver and the block emitter, so both targets agree
// on declaration order: top-level nodes first, then one
// `subgraph "cluster_<name>"` per cluster (subclusters nested inside as
// `cluster_<cluster>/<subcluster>`), then edges.
//
// # Usage
//
//	res, err := nodelink.ToDOT(doc, nodelink.Options{Detailed: true})
//	if err := nodelink.Check(ctx, res.DOT); err != nil {
//	    // the generated text is not valid DOT
//	}
//
// Edge semantics map onto the dir attribute:
//
//	forward        a -> b
//	backward       a -> b [dir=back]
//	bidirectional  a -> b [dir=both]
//
// Group endpoints become anonymous subgraphs, `{ "a" "b" } -> "c"`.
//
// # Dependencies
//
// [Check] uses [github.com/goccy/go-graphviz] to parse the output in
// process. Nothing is laid out or rasterized.
package nodelink
