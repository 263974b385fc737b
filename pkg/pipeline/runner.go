package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cloudsketch/pkg/cache"
	errs "github.com/matzehuels/cloudsketch/pkg/errors"
	"github.com/matzehuels/cloudsketch/pkg/graph"
	"github.com/matzehuels/cloudsketch/pkg/observability"
	"github.com/matzehuels/cloudsketch/pkg/planner"
)

// TTLQuery is how long a planned document is reused for an identical query.
const TTLQuery = time.Hour

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// TTL is the lifetime of cached code. Zero uses cache.TTLCode.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute parses data and generates code for it.
func (r *Runner) Execute(ctx context.Context, source string, data []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	parseStart := time.Now()
	doc, err := Parse(ctx, source, data)
	if err != nil {
		return nil, err
	}
	parseTime := time.Since(parseStart)

	result, err := r.Generate(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.ParseTime = parseTime
	return result, nil
}

// Generate emits code for an already-parsed document, consulting the cache
// unless opts.Refresh is set.
func (r *Runner) Generate(ctx context.Context, doc *graph.Document, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	docData, err := graph.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize document for cache key: %w", err)
	}
	result := &Result{
		Target:       opts.Target,
		DocumentHash: cache.Hash(docData),
		Stats:        Stats{NodeCount: len(doc.Nodes), EdgeCount: len(doc.Edges)},
	}
	key := r.Keyer.CodeKey(result.DocumentHash, opts.CodeKeyOpts())

	start := time.Now()
	if out, ok := r.cached(ctx, key, opts); ok {
		result.apply(out)
		result.CacheHit = true
		result.Stats.GenerateTime = time.Since(start)
		return result, nil
	}

	out, err := Generate(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	result.apply(out)
	result.Stats.GenerateTime = time.Since(start)

	if out.SkippedEdges > 0 {
		opts.Logger.Warn("skipped edges with unresolved endpoints", "count", out.SkippedEdges)
	}
	r.store(ctx, key, out)

	opts.Logger.Debug("generated code",
		"target", opts.Target,
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.GenerateTime)
	return result, nil
}

// Plan asks p for a document and caches it under the query text. The
// planner's document is normalized like any other input before it is cached
// or returned. Planner failures are reported as UPSTREAM_ERROR unless they
// already carry INVALID_INPUT or UPSTREAM_ERROR.
func (r *Runner) Plan(ctx context.Context, p planner.Planner, query string, refresh bool) (*graph.Document, bool, error) {
	key := r.Keyer.QueryKey(query)
	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if doc, err := graph.Parse(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "query")
				return doc, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "query")
	}

	planned, err := p.Plan(ctx, query)
	if err != nil {
		return nil, false, upstreamError(ctx, err)
	}
	doc, err := graph.FromValue(planned)
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrCodeUpstream, err, "planner returned an invalid document: %s", errs.UserMessage(err))
	}
	if data, err := graph.Marshal(doc); err == nil {
		if err := r.Cache.Set(ctx, key, data, TTLQuery); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "query", len(data))
		}
	}
	return doc, false, nil
}

func upstreamError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput, errs.ErrCodeUpstream:
		return err
	}
	return errs.Wrap(errs.ErrCodeUpstream, err, "planner failed")
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) cached(ctx context.Context, key string, opts Options) (Output, bool) {
	if opts.Refresh {
		return Output{}, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		opts.Logger.Warn("cache read failed", "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "code")
		return Output{}, false
	}
	var out Output
	if err := json.Unmarshal(data, &out); err != nil {
		observability.Cache().OnCacheMiss(ctx, "code")
		return Output{}, false
	}
	observability.Cache().OnCacheHit(ctx, "code")
	return out, true
}

func (r *Runner) store(ctx context.Context, key string, out Output) {
	data, err := json.Marshal(out)
	if err != nil {
		return
	}
	ttl := r.TTL
	if ttl == 0 {
		ttl = cache.TTLCode
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "code", len(data))
}

func (res *Result) apply(out Output) {
	res.Code = out.Code
	res.SkippedEdges = out.SkippedEdges
	res.Unmapped = out.Unmapped
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
