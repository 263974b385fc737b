package nodelink

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	errs "github.com/matzehuels/cloudsketch/pkg/errors"
	"github.com/matzehuels/cloudsketch/pkg/graph"
	"github.com/matzehuels/cloudsketch/pkg/render/emit"
	"github.com/matzehuels/cloudsketch/pkg/render/topology"
)

// Options configures DOT generation.
type Options struct {
	// Name overrides the document's diagram name when non-empty.
	Name string
	// Detailed adds the node type (and label, if set) to node labels.
	// When false, only the node ID is shown.
	Detailed bool
	// Logger receives debug lines for skipped edges. Nil discards them.
	Logger *log.Logger
}

// Result is the output of a DOT generation run.
type Result struct {
	DOT          string
	SkippedEdges int
}

// ToDOT converts a document to Graphviz DOT. Clusters and subclusters become
// nested `subgraph "cluster_..."` blocks in first-seen order; every node is
// declared before the first edge. Edges with unresolved endpoints are
// skipped and counted, as in the diagrams target.
func ToDOT(doc *graph.Document, opts Options) (*Result, error) {
	if doc == nil {
		return nil, errs.New(errs.ErrCodeMalformedDocument, "document is nil")
	}
	if err := doc.CheckEdgeTypes(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	name := doc.DiagramName
	if opts.Name != "" {
		name = opts.Name
	}
	if name == "" {
		name = graph.DefaultDiagramName
	}

	top := topology.Resolve(doc)
	res := &Result{}
	e := emit.New()

	braced(e, "digraph "+strconv.Quote(name)+" {", func() {
		e.Line("label=" + strconv.Quote(name) + ";")
		e.Line(`node [shape=box, style="rounded,filled", fillcolor=white];`)

		for i := range doc.Nodes {
			n := &doc.Nodes[i]
			if r := top.Role(n.ID); r == topology.RoleStandalone || r == topology.RoleEdge {
				e.Line(nodeStmt(n, opts.Detailed))
			}
		}
		for _, c := range top.Clusters {
			braced(e, subgraphHeader(c.Name), func() {
				e.Line("label=" + strconv.Quote(c.Name) + ";")
				for _, n := range c.Members {
					e.Line(nodeStmt(n, opts.Detailed))
				}
				for _, s := range c.Subclusters {
					braced(e, subgraphHeader(c.Name+"/"+s.Name), func() {
						e.Line("label=" + strconv.Quote(s.Name) + ";")
						for _, n := range s.Members {
							e.Line(nodeStmt(n, opts.Detailed))
						}
					})
				}
			})
		}

		lookup := doc.Lookup()
		for i := range doc.Edges {
			edge := &doc.Edges[i]
			src, ok1 := endpoint(edge.Source, lookup)
			dst, ok2 := endpoint(edge.Target, lookup)
			if !ok1 || !ok2 {
				res.SkippedEdges++
				logger.Debug("skipping edge", "index", i, "source", edge.Source.String(), "target", edge.Target.String())
				continue
			}
			e.Line(src + " -> " + dst + edgeAttrs(edge.Type) + ";")
		}
	})

	if err := e.Err(); err != nil {
		return nil, err
	}
	res.DOT = e.String() + "\n"
	return res, nil
}

// braced runs body in a block and writes the closing brace after it.
func braced(e *emit.Emitter, header string, body func()) {
	e.Block(header, body)
	e.Line("}")
}

func subgraphHeader(id string) string {
	return "subgraph " + strconv.Quote("cluster_"+id) + " {"
}

func nodeStmt(n *graph.Node, detailed bool) string {
	return fmt.Sprintf("%q [label=%q];", n.ID, fmtLabel(n, detailed))
}

func fmtLabel(n *graph.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	parts := []string{n.DisplayLabel()}
	if n.Label != "" && n.Label != n.ID {
		parts = append(parts, "id: "+n.ID)
	}
	parts = append(parts, "type: "+n.Type)
	return strings.Join(parts, "\n")
}

// edgeAttrs maps edge semantics onto the DOT dir attribute.
func edgeAttrs(t graph.EdgeType) string {
	switch t {
	case graph.Backward:
		return " [dir=back]"
	case graph.Bidirectional:
		return " [dir=both]"
	default:
		return ""
	}
}

// endpoint renders a node id or, for groups, an anonymous subgraph
// `{ "a" "b" }`, which DOT expands into one edge per member.
func endpoint(ep graph.Endpoint, lookup map[string]*graph.Node) (string, bool) {
	ids := ep.IDs()
	if len(ids) == 0 {
		return "", false
	}
	quoted := make([]string, len(ids))
	for i, id := range ids {
		if _, ok := lookup[id]; !ok {
			return "", false
		}
		quoted[i] = strconv.Quote(id)
	}
	if !ep.IsGroup() {
		return quoted[0], true
	}
	return "{ " + strings.Join(quoted, " ") + " }", true
}

// Check parses dot with Graphviz and reports syntax errors. No layout is
// computed.
func Check(ctx context.Context, dot string) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse DOT")
	}
	return g.Close()
}
