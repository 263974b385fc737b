// Package planner turns a free-text architecture request into a graph
// document by calling an upstream planning service.
//
// The planning itself (usually an LLM prompted with a cloud-provider
// ontology) is outside cloudsketch. This package only defines the [Planner]
// contract and an HTTP client for services that implement it. The returned
// document is untrusted input and goes through the normal parser.
package planner

import (
	"context"

	"github.com/matzehuels/cloudsketch/pkg/graph"
)

// Planner produces a graph document for a query.
type Planner interface {
	Plan(ctx context.Context, query string) (*graph.Document, error)
}

// Func adapts a function to the Planner interface.
type Func func(ctx context.Context, query string) (*graph.Document, error)

// Plan calls f.
func (f Func) Plan(ctx context.Context, query string) (*graph.Document, error) {
	return f(ctx, query)
}
