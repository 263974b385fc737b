package diagrams

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/cloudsketch/pkg/errors"
	"github.com/matzehuels/cloudsketch/pkg/graph"
)

func lines(ls ...string) string {
	return strings.Join(ls, "\n")
}

func mustParse(t *testing.T, src string) *graph.Document {
	t.Helper()
	doc, err := graph.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return doc
}

func mustGenerate(t *testing.T, doc *graph.Document, opts Options) *Result {
	t.Helper()
	res, err := Generate(doc, opts)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	return res
}

const messageCollecting = `{
  "diagram_name": "Message Collecting",
  "show": false,
  "nodes": [
    {"id": "pubsub", "type": "PubSub"},
    {"id": "core1", "type": "IotCore", "cluster": "Source of Data"},
    {"id": "core2", "type": "IotCore", "cluster": "Source of Data"},
    {"id": "core3", "type": "IotCore", "cluster": "Source of Data"},
    {"id": "flow", "type": "Dataflow", "cluster": "Targets", "subcluster": "Data Flow"},
    {"id": "bq", "type": "BigQuery", "cluster": "Targets", "subcluster": "Data Lake"},
    {"id": "storage", "type": "GCS", "cluster": "Targets", "subcluster": "Data Lake"},
    {"id": "engine", "type": "AppEngine", "cluster": "Targets", "subcluster": "Processing"},
    {"id": "bigtable", "type": "BigTable", "cluster": "Targets", "subcluster": "Processing"},
    {"id": "func", "type": "Functions", "cluster": "Targets", "subcluster": "Serverless"},
    {"id": "appengine", "type": "AppEngine", "cluster": "Targets", "subcluster": "Serverless"}
  ],
  "edges": [
    {"source_id": "core1", "target_id": "pubsub", "type": ">>"},
    {"source_id": "core2", "target_id": "pubsub", "type": ">>"},
    {"source_id": "core3", "target_id": "pubsub", "type": ">>"},
    {"source_id": "flow", "target_id": "bq", "type": ">>"},
    {"source_id": "flow", "target_id": "storage", "type": ">>"},
    {"source_id": "flow", "target_id": "engine", "type": ">>"},
    {"source_id": "engine", "target_id": "bigtable", "type": ">>"},
    {"source_id": "flow", "target_id": "func", "type": ">>"},
    {"source_id": "func", "target_id": "appengine", "type": ">>"},
    {"source_id": "pubsub", "target_id": "flow", "type": ">>"}
  ]
}`

func TestRenderCode_MessageCollecting(t *testing.T) {
	got, err := RenderCode(messageCollecting)
	if err != nil {
		t.Fatalf("RenderCode() error: %v", err)
	}
	want := lines(
		`with Diagram("Message Collecting", show=False):`,
		`    with Cluster("Source of Data"):`,
		`        IotCore("core1")`,
		`        IotCore("core2")`,
		`        IotCore("core3")`,
		`    with Cluster("Targets"):`,
		`        with Cluster("Data Flow"):`,
		`            Dataflow("flow")`,
		`        with Cluster("Data Lake"):`,
		`            BigQuery("bq")`,
		`            GCS("storage")`,
		`        with Cluster("Processing"):`,
		`            AppEngine("engine")`,
		`            BigTable("bigtable")`,
		`        with Cluster("Serverless"):`,
		`            Functions("func")`,
		`            AppEngine("appengine")`,
		`    IotCore("core1") >> PubSub("pubsub")`,
		`    IotCore("core2") >> PubSub("pubsub")`,
		`    IotCore("core3") >> PubSub("pubsub")`,
		`    Dataflow("flow") >> BigQuery("bq")`,
		`    Dataflow("flow") >> GCS("storage")`,
		`    Dataflow("flow") >> AppEngine("engine")`,
		`    AppEngine("engine") >> BigTable("bigtable")`,
		`    Dataflow("flow") >> Functions("func")`,
		`    Functions("func") >> AppEngine("appengine")`,
		`    PubSub("pubsub") >> Dataflow("flow")`,
	)
	if got != want {
		t.Errorf("RenderCode() mismatch\ngot:\n%s\n\nwant:\n%s", got, want)
	}
}

func TestRenderCode_SingleEdge(t *testing.T) {
	got, err := RenderCode(map[string]any{
		"nodes": []any{
			map[string]any{"id": "lb", "type": "ELB"},
			map[string]any{"id": "web", "type": "EC2"},
		},
		"edges": []any{
			map[string]any{"source_id": "lb", "target_id": "web", "type": "forward"},
		},
	})
	if err != nil {
		t.Fatalf("RenderCode() error: %v", err)
	}
	want := lines(
		`with Diagram("Network Diagram", show=False):`,
		`    ELB("lb") >> EC2("web")`,
	)
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestGenerate_EmptyDocument(t *testing.T) {
	for _, src := range []string{`{}`, `{"nodes": [], "edges": []}`, `{"nodes": null}`} {
		t.Run(src, func(t *testing.T) {
			res := mustGenerate(t, mustParse(t, src), Options{})
			if res.Code != `with Diagram("Network Diagram", show=False):` {
				t.Errorf("Code = %q", res.Code)
			}
			if res.SkippedEdges != 0 {
				t.Errorf("SkippedEdges = %d, want 0", res.SkippedEdges)
			}
		})
	}
}

func TestGenerate_ShowFlag(t *testing.T) {
	res := mustGenerate(t, mustParse(t, `{"diagram_name": "Web \"Tier\"", "show": true}`), Options{})
	if res.Code != `with Diagram("Web \"Tier\"", show=True):` {
		t.Errorf("Code = %q", res.Code)
	}
}

func TestGenerate_NameOverride(t *testing.T) {
	res := mustGenerate(t, mustParse(t, `{"diagram_name": "doc name"}`), Options{Name: "flag name"})
	if !strings.HasPrefix(res.Code, `with Diagram("flag name"`) {
		t.Errorf("Code = %q, want overridden name", res.Code)
	}
}

func TestGenerate_StandaloneBeforeClusters(t *testing.T) {
	doc := mustParse(t, `
nodes:
  - {id: a, type: EC2}
  - {id: db, type: RDS, cluster: data}
  - {id: b, type: S3}
  - {id: c, type: EC2}
  - {id: d, type: EC2}
edges:
  - {source_id: c, target_id: d, type: bidirectional}
`)
	res := mustGenerate(t, doc, Options{})
	want := lines(
		`with Diagram("Network Diagram", show=False):`,
		`    EC2("a")`,
		`    S3("b")`,
		`    with Cluster("data"):`,
		`        RDS("db")`,
		`    EC2("c") - EC2("d")`,
	)
	if res.Code != want {
		t.Errorf("got:\n%s\nwant:\n%s", res.Code, want)
	}
}

func TestGenerate_DirectMembersBeforeSubclusters(t *testing.T) {
	doc := mustParse(t, `
nodes:
  - {id: w1, type: EC2, cluster: svc, subcluster: workers}
  - {id: api, type: EC2, cluster: svc}
  - {id: w2, type: EC2, cluster: svc, subcluster: workers}
  - {id: cache, type: ElastiCache, cluster: svc}
`)
	res := mustGenerate(t, doc, Options{})
	want := lines(
		`with Diagram("Network Diagram", show=False):`,
		`    with Cluster("svc"):`,
		`        EC2("api")`,
		`        ElastiCache("cache")`,
		`        with Cluster("workers"):`,
		`            EC2("w1")`,
		`            EC2("w2")`,
	)
	if res.Code != want {
		t.Errorf("got:\n%s\nwant:\n%s", res.Code, want)
	}
}

func TestGenerate_FirstSeenOrder(t *testing.T) {
	doc := mustParse(t, `
nodes:
  - {id: z, type: X, cluster: zulu}
  - {id: a, type: X, cluster: alpha, subcluster: yankee}
  - {id: b, type: X, cluster: alpha, subcluster: bravo}
`)
	res := mustGenerate(t, doc, Options{})
	zulu := strings.Index(res.Code, `Cluster("zulu")`)
	alpha := strings.Index(res.Code, `Cluster("alpha")`)
	yankee := strings.Index(res.Code, `Cluster("yankee")`)
	bravo := strings.Index(res.Code, `Cluster("bravo")`)
	if zulu < 0 || alpha < 0 || yankee < 0 || bravo < 0 {
		t.Fatalf("missing cluster blocks:\n%s", res.Code)
	}
	if zulu > alpha || yankee > bravo {
		t.Errorf("blocks not in first-seen order:\n%s", res.Code)
	}
}

func TestGenerate_EdgesAfterDeclarations(t *testing.T) {
	doc := mustParse(t, messageCollecting)
	res := mustGenerate(t, doc, Options{})

	ls := strings.Split(res.Code, "\n")
	lastDecl, firstEdge := -1, len(ls)
	for i, l := range ls {
		if strings.Contains(l, " >> ") {
			if i < firstEdge {
				firstEdge = i
			}
			continue
		}
		lastDecl = i
	}
	if lastDecl > firstEdge {
		t.Errorf("declaration at line %d follows edge at line %d", lastDecl, firstEdge)
	}
	if n := len(ls) - firstEdge; n != len(doc.Edges) {
		t.Errorf("edge lines = %d, want %d", n, len(doc.Edges))
	}
}

func TestGenerate_Cardinalities(t *testing.T) {
	nodes := `
nodes:
  - {id: a, type: EC2}
  - {id: b, type: EC2}
  - {id: c, type: RDS}
  - {id: d, type: RDS}
  - {id: e, type: S3}
`
	tests := []struct {
		name string
		edge string
		want string
	}{
		{"one to one", `{source_id: a, target_id: c, type: forward}`, `EC2("a") >> RDS("c")`},
		{"many to one", `{source_id: [a, b], target_id: c, type: forward}`, `[EC2("a"), EC2("b")] >> RDS("c")`},
		{"one to many", `{source_id: a, target_id: [c, d], type: backward}`, `EC2("a") << [RDS("c"), RDS("d")]`},
		{"many to many", `{source_id: [b, a], target_id: [c, d, e], type: bidirectional}`, `[EC2("b"), EC2("a")] - [RDS("c"), RDS("d"), S3("e")]`},
		{"singleton group", `{source_id: [a], target_id: c, type: forward}`, `[EC2("a")] >> RDS("c")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, nodes+"edges:\n  - "+tt.edge+"\n")
			res := mustGenerate(t, doc, Options{})
			ls := strings.Split(res.Code, "\n")
			if got := strings.TrimSpace(ls[len(ls)-1]); got != tt.want {
				t.Errorf("edge line = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerate_OperatorTokens(t *testing.T) {
	doc := mustParse(t, `
nodes:
  - {id: lb, type: ELB}
  - {id: web, type: EC2}
edges:
  - {source_id: lb, target_id: web, type: forward}
  - {source_id: lb, target_id: web, type: backward}
  - {source_id: lb, target_id: web, type: bidirectional}
  - {source_id: lb, target_id: web, type: ">>"}
  - {source_id: lb, target_id: web, type: "<<"}
  - {source_id: lb, target_id: web, type: "-"}
`)
	res := mustGenerate(t, doc, Options{})
	want := lines(
		`with Diagram("Network Diagram", show=False):`,
		`    ELB("lb") >> EC2("web")`,
		`    ELB("lb") << EC2("web")`,
		`    ELB("lb") - EC2("web")`,
		`    ELB("lb") >> EC2("web")`,
		`    ELB("lb") << EC2("web")`,
		`    ELB("lb") - EC2("web")`,
	)
	if res.Code != want {
		t.Errorf("got:\n%s\nwant:\n%s", res.Code, want)
	}
}

func TestGenerate_SkipsUnresolvedEdges(t *testing.T) {
	base := `
nodes:
  - {id: lb, type: ELB}
  - {id: web, type: EC2}
edges:
  - {source_id: lb, target_id: web, type: forward}
`
	clean := mustGenerate(t, mustParse(t, base), Options{})

	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	dirty := mustGenerate(t, mustParse(t, base+`
  - {source_id: lb, target_id: ghost, type: forward}
  - {source_id: [web, ghost], target_id: lb, type: forward}
  - {source_id: [], target_id: lb, type: forward}
`), Options{Logger: logger})

	if dirty.Code != clean.Code {
		t.Errorf("unresolved edges changed output\ngot:\n%s\nwant:\n%s", dirty.Code, clean.Code)
	}
	if dirty.SkippedEdges != 3 {
		t.Errorf("SkippedEdges = %d, want 3", dirty.SkippedEdges)
	}
	if got := strings.Count(buf.String(), "skipping edge"); got != 3 {
		t.Errorf("logged %d skipped edges, want 3\n%s", got, buf.String())
	}
}

func TestGenerate_UnresolvedEdgeKeepsStandalone(t *testing.T) {
	doc := mustParse(t, `
nodes:
  - {id: web, type: EC2}
edges:
  - {source_id: web, target_id: ghost, type: forward}
`)
	res := mustGenerate(t, doc, Options{})
	want := `with Diagram("Network Diagram", show=False):`
	if res.Code != want {
		t.Errorf("Code = %q, want %q (web is edge-declared, edge is skipped)", res.Code, want)
	}
}

func TestGenerate_DuplicateEdgesNotMerged(t *testing.T) {
	doc := mustParse(t, `
nodes:
  - {id: a, type: EC2}
  - {id: b, type: EC2}
edges:
  - {source_id: a, target_id: b, type: forward}
  - {source_id: a, target_id: b, type: forward}
`)
	res := mustGenerate(t, doc, Options{})
	if got := strings.Count(res.Code, `EC2("a") >> EC2("b")`); got != 2 {
		t.Errorf("duplicate edge emitted %d times, want 2", got)
	}
}

func TestGenerate_Imports(t *testing.T) {
	doc := mustParse(t, `
nodes:
  - {id: lb, type: ELB}
  - {id: web, type: EC2, cluster: app}
  - {id: api, type: EC2, cluster: app}
  - {id: q, type: Kafka}
  - {id: weird, type: Mystery}
`)
	res := mustGenerate(t, doc, Options{
		Imports: true,
		Modules: map[string]string{"Kafka": "diagrams.onprem.queue"},
	})
	want := lines(
		`from diagrams import Cluster, Diagram`,
		`from diagrams.aws.compute import EC2`,
		`from diagrams.aws.network import ELB`,
		`from diagrams.onprem.queue import Kafka`,
		``,
		`with Diagram("Network Diagram", show=False):`,
		`    ELB("lb")`,
		`    Kafka("q")`,
		`    Mystery("weird")`,
		`    with Cluster("app"):`,
		`        EC2("web")`,
		`        EC2("api")`,
	)
	if res.Code != want {
		t.Errorf("got:\n%s\nwant:\n%s", res.Code, want)
	}
	if len(res.Unmapped) != 1 || res.Unmapped[0] != "Mystery" {
		t.Errorf("Unmapped = %v, want [Mystery]", res.Unmapped)
	}
}

func TestGenerate_ImportsWithoutClusters(t *testing.T) {
	res := mustGenerate(t, mustParse(t, `{"nodes": [{"id": "s", "type": "S3"}]}`), Options{Imports: true})
	if !strings.HasPrefix(res.Code, "from diagrams import Diagram\nfrom diagrams.aws.storage import S3\n\n") {
		t.Errorf("Code = %q", res.Code)
	}
}

func TestGenerate_NilDocument(t *testing.T) {
	_, err := Generate(nil, Options{})
	if !errs.Is(err, errs.ErrCodeMalformedDocument) {
		t.Errorf("Generate(nil) error = %v, want MALFORMED_DOCUMENT", err)
	}
}

func TestGenerate_RejectsUnknownEdgeType(t *testing.T) {
	tests := []struct {
		name string
		typ  graph.EdgeType
	}{
		{"unknown", graph.EdgeType("sideways")},
		{"empty", graph.EdgeType("")},
		{"operator spelling", graph.EdgeType(">>")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &graph.Document{
				Nodes: []graph.Node{{ID: "a", Type: "EC2"}, {ID: "b", Type: "S3"}},
				Edges: []graph.Edge{{Source: graph.Single("a"), Target: graph.Single("b"), Type: tt.typ}},
			}
			res, err := Generate(doc, Options{})
			if !errs.Is(err, errs.ErrCodeMalformedDocument) {
				t.Fatalf("Generate() error = %v, want MALFORMED_DOCUMENT", err)
			}
			if res != nil {
				t.Errorf("Generate() result = %+v, want nil", res)
			}
		})
	}
}

func TestGenerate_DoesNotMutateDocument(t *testing.T) {
	doc := mustParse(t, messageCollecting)
	before, _ := graph.Marshal(doc)
	mustGenerate(t, doc, Options{Name: "other", Imports: true})
	after, _ := graph.Marshal(doc)
	if !bytes.Equal(before, after) {
		t.Error("Generate modified its input document")
	}
}

func TestRenderCode_Malformed(t *testing.T) {
	tests := []any{
		`[1, 2]`,
		`{"nodes": {"id": "a"}}`,
		`{"edges": [1]}`,
		42,
		`{"nodes": [{"id": "a", "type": "EC2"}, {"id": "a", "type": "S3"}]}`,
		`{"nodes": [{"id": "a", "type": "EC2"}, {"id": "b", "type": ""}]}`,
		map[string]any{"nodes": []map[string]any{{"id": "caf\xe9", "type": "EC2"}}},
	}
	for _, in := range tests {
		if _, err := RenderCode(in); !errs.Is(err, errs.ErrCodeMalformedDocument) {
			t.Errorf("RenderCode(%v) error = %v, want MALFORMED_DOCUMENT", in, err)
		}
	}
}

func TestRenderCode_TypedSlices(t *testing.T) {
	in := map[string]any{
		"nodes": []map[string]any{
			{"id": "lb", "type": "ELB"},
			{"id": "web", "type": "EC2"},
		},
		"edges": []map[string]any{
			{"source_id": "lb", "target_id": []string{"web"}, "type": "forward"},
		},
	}
	code, err := RenderCode(in)
	if err != nil {
		t.Fatalf("RenderCode() error: %v", err)
	}
	if !strings.HasSuffix(code, `ELB("lb") >> [EC2("web")]`) {
		t.Errorf("Code = %q", code)
	}
}

func TestRenderCode_LongID(t *testing.T) {
	id := strings.Repeat("x", 300)
	code, err := RenderCode(`{"nodes": [{"id": "` + id + `", "type": "EC2"}]}`)
	if err != nil {
		t.Fatalf("RenderCode() error: %v", err)
	}
	if !strings.Contains(code, `EC2("`+id+`")`) {
		t.Errorf("Code = %q", code)
	}
}

func TestOperator(t *testing.T) {
	tests := map[graph.EdgeType]string{
		graph.Forward:       ">>",
		graph.Backward:      "<<",
		graph.Bidirectional: "-",
		"sideways":          "",
	}
	for typ, want := range tests {
		if got := Operator(typ); got != want {
			t.Errorf("Operator(%s) = %q, want %q", typ, got, want)
		}
	}
}
