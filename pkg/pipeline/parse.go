package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/cloudsketch/pkg/graph"
	"github.com/matzehuels/cloudsketch/pkg/observability"
)

// Parse decodes and normalizes a serialized document. source names the
// input for hooks and log lines.
func Parse(ctx context.Context, source string, data []byte) (*graph.Document, error) {
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, source)
	start := time.Now()

	doc, err := graph.Parse(data)
	if err != nil {
		hooks.OnParseComplete(ctx, source, 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnParseComplete(ctx, source, len(doc.Nodes), len(doc.Edges), time.Since(start), nil)
	return doc, nil
}
