package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/cloudsketch/pkg/graph"
	"github.com/matzehuels/cloudsketch/pkg/observability"
	"github.com/matzehuels/cloudsketch/pkg/render/diagrams"
	"github.com/matzehuels/cloudsketch/pkg/render/nodelink"
)

// Output is the cacheable part of a Result.
type Output struct {
	Code         string   `json:"code"`
	SkippedEdges int      `json:"skipped_edges"`
	Unmapped     []string `json:"unmapped_types,omitempty"`
}

// Generate emits code for doc without caching. opts must have been
// validated.
func Generate(ctx context.Context, doc *graph.Document, opts Options) (Output, error) {
	hooks := observability.Pipeline()
	hooks.OnGenerateStart(ctx, opts.Target, len(doc.Nodes))
	start := time.Now()

	out, err := generate(doc, opts)
	hooks.OnGenerateComplete(ctx, opts.Target, out.SkippedEdges, time.Since(start), err)
	return out, err
}

func generate(doc *graph.Document, opts Options) (Output, error) {
	switch opts.Target {
	case TargetDOT:
		res, err := nodelink.ToDOT(doc, nodelink.Options{
			Name:     opts.Name,
			Detailed: opts.Detailed,
			Logger:   opts.Logger,
		})
		if err != nil {
			return Output{}, err
		}
		return Output{Code: res.DOT, SkippedEdges: res.SkippedEdges}, nil
	default:
		res, err := diagrams.Generate(doc, diagrams.Options{
			Name:    opts.Name,
			Imports: opts.Imports,
			Modules: opts.Modules,
			Logger:  opts.Logger,
		})
		if err != nil {
			return Output{}, err
		}
		return Output{Code: res.Code, SkippedEdges: res.SkippedEdges, Unmapped: res.Unmapped}, nil
	}
}
