// Package pipeline provides the parse → generate pipeline shared by the CLI
// and the HTTP service.
//
// Centralizing it here keeps caching, hooks and option defaults identical
// across entry points.
//
// # Stages
//
//  1. Parse: decode a JSON or YAML graph document and normalize it
//  2. Generate: emit code for the requested target (diagrams or dot)
//
// Generation results are cached by document content hash and the options
// that affect the output text.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, "diagram.json", data, pipeline.Options{
//	    Target:  pipeline.TargetDiagrams,
//	    Imports: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Code)
//
// Independent documents can be generated in parallel with
// [Runner.GenerateBatch]; every emission owns its own emitter, so no state
// is shared between them.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cloudsketch/pkg/cache"
	errs "github.com/matzehuels/cloudsketch/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// Output targets.
const (
	TargetDiagrams = "diagrams"
	TargetDOT      = "dot"
)

// DefaultTarget is the target used when none is requested.
const DefaultTarget = TargetDiagrams

// DefaultBatchConcurrency bounds GenerateBatch when no limit is given.
const DefaultBatchConcurrency = 8

// ValidTargets is the set of supported output targets.
var ValidTargets = map[string]bool{
	TargetDiagrams: true,
	TargetDOT:      true,
}

// ValidateTarget checks that a target is supported.
func ValidateTarget(target string) error {
	if !ValidTargets[target] {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid target: %q (must be one of: diagrams, dot)", target)
	}
	return nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures code generation. It supports JSON for API requests.
type Options struct {
	Target string `json:"target,omitempty"`
	// Name overrides the document's diagram name.
	Name string `json:"name,omitempty"`
	// Imports prepends import statements (diagrams target only).
	Imports bool `json:"imports,omitempty"`
	// Modules extends the type → module table used for imports.
	Modules map[string]string `json:"modules,omitempty"`
	// Detailed adds node types to labels (dot target only).
	Detailed bool `json:"detailed,omitempty"`
	// Refresh bypasses cached results.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and applies defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Target == "" {
		o.Target = DefaultTarget
	}
	if err := ValidateTarget(o.Target); err != nil {
		return err
	}
	if o.Name != "" {
		if err := errs.ValidateName("name", o.Name); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// CodeKeyOpts returns the cache key options for o. Fields that do not
// affect the chosen target are left out, so they share cache entries.
func (o *Options) CodeKeyOpts() cache.CodeKeyOpts {
	k := cache.CodeKeyOpts{Target: o.Target, Name: o.Name}
	switch o.Target {
	case TargetDiagrams:
		k.Imports = o.Imports
		if o.Imports {
			k.Modules = o.Modules
		}
	case TargetDOT:
		k.Detailed = o.Detailed
	}
	return k
}

// =============================================================================
// Result
// =============================================================================

// Result contains the output of a pipeline run.
type Result struct {
	// Code is the generated program text.
	Code string `json:"code"`
	// Target is the language of Code.
	Target string `json:"target"`
	// DocumentHash is the content hash of the normalized document.
	DocumentHash string `json:"document_hash"`
	// SkippedEdges counts edges dropped for unresolved endpoints.
	SkippedEdges int `json:"skipped_edges"`
	// Unmapped lists node types with no import module.
	Unmapped []string `json:"unmapped_types,omitempty"`

	Stats    Stats `json:"stats"`
	CacheHit bool  `json:"cache_hit"`
}

// Stats contains execution statistics.
type Stats struct {
	NodeCount    int           `json:"nodes"`
	EdgeCount    int           `json:"edges"`
	ParseTime    time.Duration `json:"parse_ns"`
	GenerateTime time.Duration `json:"generate_ns"`
}

func (s Stats) String() string {
	return fmt.Sprintf("%d nodes, %d edges, parse %s, generate %s", s.NodeCount, s.EdgeCount, s.ParseTime, s.GenerateTime)
}
