// Package render groups the code generators.
//
// # Overview
//
// Every generator takes a normalized [graph.Document] and writes text
// through an [emit.Emitter]. Declaration order comes from [topology.Resolve],
// so all targets agree on where a node lives and in which order clusters
// appear.
//
//   - [diagrams]: Python code for the diagrams library (primary target)
//   - [nodelink]: Graphviz DOT with one subgraph per cluster
//
// Both generators skip edges whose endpoints do not resolve and report how
// many were skipped.
//
// [graph.Document]: github.com/matzehuels/cloudsketch/pkg/graph
// [emit.Emitter]: github.com/matzehuels/cloudsketch/pkg/render/emit
// [topology.Resolve]: github.com/matzehuels/cloudsketch/pkg/render/topology
// [diagrams]: github.com/matzehuels/cloudsketch/pkg/render/diagrams
// [nodelink]: github.com/matzehuels/cloudsketch/pkg/render/nodelink
package render
