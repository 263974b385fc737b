package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Job is one input of a batch run.
type Job struct {
	Source string
	Data   []byte
}

// BatchResult pairs a job with its outcome. Exactly one of Result and Err
// is set.
type BatchResult struct {
	Source string
	Result *Result
	Err    error
}

// GenerateBatch runs Execute for every job with at most limit running at
// once (DefaultBatchConcurrency when limit <= 0). Results keep the order of
// jobs. A failing job does not stop the others; the returned error is only
// set when ctx is cancelled.
func (r *Runner) GenerateBatch(ctx context.Context, jobs []Job, opts Options, limit int) ([]BatchResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultBatchConcurrency
	}

	results := make([]BatchResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.Execute(gctx, job.Source, job.Data, opts)
			results[i] = BatchResult{Source: job.Source, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
