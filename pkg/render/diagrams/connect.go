package diagrams

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cloudsketch/pkg/graph"
	"github.com/matzehuels/cloudsketch/pkg/render/emit"
)

// Operator returns the diagrams operator for an edge type, or "" for a type
// outside the three edge semantics.
func Operator(t graph.EdgeType) string {
	switch t {
	case graph.Forward:
		return ">>"
	case graph.Backward:
		return "<<"
	case graph.Bidirectional:
		return "-"
	default:
		return ""
	}
}

// writeEdges emits one line per resolvable edge and returns the number of
// edges skipped.
func writeEdges(e *emit.Emitter, doc *graph.Document, logger *log.Logger) int {
	lookup := doc.Lookup()
	skipped := 0
	for i := range doc.Edges {
		edge := &doc.Edges[i]
		src, ok := endpoint(edge.Source, lookup)
		if !ok {
			skipped++
			logger.Debug("skipping edge", "index", i, "source", edge.Source.String(), "reason", "unresolved source")
			continue
		}
		dst, ok := endpoint(edge.Target, lookup)
		if !ok {
			skipped++
			logger.Debug("skipping edge", "index", i, "target", edge.Target.String(), "reason", "unresolved target")
			continue
		}
		e.Line(src + " " + Operator(edge.Type) + " " + dst)
	}
	return skipped
}

// endpoint renders one side of an edge. Single endpoints render as a bare
// reference; groups as a bracketed list in endpoint order. It fails when
// any id is unknown or a group is empty.
func endpoint(ep graph.Endpoint, lookup map[string]*graph.Node) (string, bool) {
	ids := ep.IDs()
	if len(ids) == 0 {
		return "", false
	}
	refs := make([]string, len(ids))
	for i, id := range ids {
		n, ok := lookup[id]
		if !ok {
			return "", false
		}
		refs[i] = ref(n)
	}
	if !ep.IsGroup() {
		return refs[0], true
	}
	return "[" + strings.Join(refs, ", ") + "]", true
}
