package diagrams

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/cloudsketch/pkg/graph"
	"github.com/matzehuels/cloudsketch/pkg/render/emit"
	"github.com/matzehuels/cloudsketch/pkg/render/topology"
)

// DefaultModules maps common node types to their diagrams provider module.
// Types outside this table need an entry in Options.Modules to be imported.
var DefaultModules = map[string]string{
	// AWS
	"ELB":         "diagrams.aws.network",
	"ALB":         "diagrams.aws.network",
	"Route53":     "diagrams.aws.network",
	"CloudFront":  "diagrams.aws.network",
	"EC2":         "diagrams.aws.compute",
	"ECS":         "diagrams.aws.compute",
	"EKS":         "diagrams.aws.compute",
	"Lambda":      "diagrams.aws.compute",
	"RDS":         "diagrams.aws.database",
	"Aurora":      "diagrams.aws.database",
	"Dynamodb":    "diagrams.aws.database",
	"ElastiCache": "diagrams.aws.database",
	"S3":          "diagrams.aws.storage",
	"SQS":         "diagrams.aws.integration",
	"SNS":         "diagrams.aws.integration",
	"Cloudwatch":  "diagrams.aws.management",

	// GCP
	"PubSub":    "diagrams.gcp.analytics",
	"Dataflow":  "diagrams.gcp.analytics",
	"BigQuery":  "diagrams.gcp.analytics",
	"IotCore":   "diagrams.gcp.iot",
	"GCS":       "diagrams.gcp.storage",
	"AppEngine": "diagrams.gcp.compute",
	"Functions": "diagrams.gcp.compute",
	"GKE":       "diagrams.gcp.compute",
	"BigTable":  "diagrams.gcp.database",
	"SQL":       "diagrams.gcp.database",
}

// writeImports emits the import block followed by a blank line and returns
// the node types that could not be mapped to a module.
func writeImports(e *emit.Emitter, doc *graph.Document, top *topology.Topology, modules map[string]string) []string {
	core := "Diagram"
	if len(top.Clusters) > 0 {
		core = "Cluster, Diagram"
	}
	e.Line("from diagrams import " + core)

	byModule := make(map[string][]string)
	var unmapped []string
	seen := make(map[string]bool)
	for i := range doc.Nodes {
		typ := doc.Nodes[i].Type
		if seen[typ] {
			continue
		}
		seen[typ] = true
		mod := resolveModule(typ, modules)
		if mod == "" {
			unmapped = append(unmapped, typ)
			continue
		}
		byModule[mod] = append(byModule[mod], typ)
	}

	for _, mod := range slices.Sorted(maps.Keys(byModule)) {
		types := byModule[mod]
		slices.Sort(types)
		e.Line("from " + mod + " import " + strings.Join(types, ", "))
	}
	e.Blank()
	return unmapped
}

func resolveModule(typ string, modules map[string]string) string {
	if mod, ok := modules[typ]; ok {
		return mod
	}
	return DefaultModules[typ]
}
