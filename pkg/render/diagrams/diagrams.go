package diagrams

import (
	"io"
	"strconv"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/cloudsketch/pkg/errors"
	"github.com/matzehuels/cloudsketch/pkg/graph"
	"github.com/matzehuels/cloudsketch/pkg/render/emit"
	"github.com/matzehuels/cloudsketch/pkg/render/topology"
)

// Options configures code generation.
type Options struct {
	// Name overrides the document's diagram name when non-empty.
	Name string
	// Imports prepends the import statements the program needs to run.
	Imports bool
	// Modules maps node types to the Python module that provides them.
	// Entries here take precedence over DefaultModules.
	Modules map[string]string
	// Logger receives debug lines for skipped edges. Nil discards them.
	Logger *log.Logger
}

// Result is the output of a generation run.
type Result struct {
	// Code is the generated program text, without a trailing newline.
	Code string
	// SkippedEdges counts edges dropped because an endpoint did not resolve.
	SkippedEdges int
	// Unmapped lists node types with no known module, in first-seen order.
	// It is only populated when imports are requested.
	Unmapped []string
}

// Generate emits diagrams code for doc. The document must already be
// normalized (see graph.Parse and graph.Document.Normalize).
func Generate(doc *graph.Document, opts Options) (*Result, error) {
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

	if opts.Imports {
		res.Unmapped = writeImports(e, doc, top, opts.Modules)
	}

	e.Block(diagramHeader(name, doc.Show), func() {
		for _, n := range top.Standalone {
			e.Line(ref(n))
		}
		for _, c := range top.Clusters {
			e.Block(clusterHeader(c.Name), func() {
				for _, n := range c.Members {
					e.Line(ref(n))
				}
				for _, s := range c.Subclusters {
					e.Block(clusterHeader(s.Name), func() {
						for _, n := range s.Members {
							e.Line(ref(n))
						}
					})
				}
			})
		}
		res.SkippedEdges = writeEdges(e, doc, logger)
	})

	if err := e.Err(); err != nil {
		return nil, err
	}
	res.Code = e.String()
	return res, nil
}

// RenderCode parses input and returns the generated code with default
// options. input may be JSON or YAML text ([]byte or string), a decoded
// map, or a graph.Document.
func RenderCode(input any) (string, error) {
	doc, err := graph.FromValue(input)
	if err != nil {
		return "", err
	}
	res, err := Generate(doc, Options{})
	if err != nil {
		return "", err
	}
	return res.Code, nil
}

func diagramHeader(name string, show bool) string {
	return "with Diagram(" + strconv.Quote(name) + ", show=" + pyBool(show) + "):"
}

func clusterHeader(name string) string {
	return "with Cluster(" + strconv.Quote(name) + "):"
}

// ref renders the reference expression for a node.
func ref(n *graph.Node) string {
	return n.Type + "(" + strconv.Quote(n.ID) + ")"
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
