// Package pkg provides the core libraries for cloudsketch.
//
// # Overview
//
// Cloudsketch turns a graph document (a named diagram with nodes, optional
// clusters and subclusters, and typed edges) into source code for a diagram
// DSL. The main target is the Python diagrams library; Graphviz DOT is the
// secondary target.
//
// # Architecture
//
//	JSON / YAML document          free-text query
//	         ↓                           ↓
//	    [graph] (parse)            [planner] (remote)
//	         ↓                           ↓
//	    [render/topology] (where each node is declared)
//	         ↓
//	    [render/diagrams] or [render/nodelink], writing through [render/emit]
//	         ↓
//	    Python or DOT source
//
// [pipeline] ties the steps together with caching ([cache]) and is shared by
// the CLI and the HTTP API.
//
// # Quick Start
//
//	doc, _ := graph.Parse(data)
//	res, _ := diagrams.Generate(doc, diagrams.Options{Imports: true})
//	fmt.Println(res.Code)
//
// # Main Packages
//
// [graph] - Document types, JSON/YAML decoding and normalization.
//
// [render/emit] - Indentation-aware line writer with balanced block scopes.
//
// [render/topology] - Standalone, cluster and subcluster placement in
// first-seen order.
//
// [render/diagrams] - Python diagrams code: declarations, connections and
// optional imports.
//
// [render/nodelink] - Graphviz DOT with cluster subgraphs.
//
// [pipeline] - Parse → generate with caching, batches and planner queries.
//
// [cache] - File, Redis and null caches with content-addressed keys.
//
// [planner] - Client for services that turn a description into a document.
//
// [config] - TOML settings for the CLI and server.
//
// [observability] - Hooks for pipeline, cache and server events.
//
// [errors] - Coded errors shared by the library, CLI and API.
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/cloudsketch/pkg/graph
// [render/emit]: https://pkg.go.dev/github.com/matzehuels/cloudsketch/pkg/render/emit
// [render/topology]: https://pkg.go.dev/github.com/matzehuels/cloudsketch/pkg/render/topology
// [render/diagrams]: https://pkg.go.dev/github.com/matzehuels/cloudsketch/pkg/render/diagrams
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/cloudsketch/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/cloudsketch/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/cloudsketch/pkg/cache
// [planner]: https://pkg.go.dev/github.com/matzehuels/cloudsketch/pkg/planner
// [config]: https://pkg.go.dev/github.com/matzehuels/cloudsketch/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/cloudsketch/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/cloudsketch/pkg/errors
package pkg
