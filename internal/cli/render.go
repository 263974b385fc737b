package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/cloudsketch/pkg/errors"
	"github.com/matzehuels/cloudsketch/pkg/pipeline"
	"github.com/matzehuels/cloudsketch/pkg/render/nodelink"
)

// stdinName is the input argument that reads the document from stdin.
const stdinName = "-"

// targetExt maps a target to the extension of files written for it.
var targetExt = map[string]string{
	pipeline.TargetDiagrams: ".py",
	pipeline.TargetDOT:      ".dot",
}

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file (one input) or directory (several)
	target   string // diagrams or dot
	name     string // diagram name override
	imports  bool   // prepend import statements
	detailed bool   // add ids and types to DOT labels
	check    bool   // parse generated DOT with Graphviz
	noCache  bool   // bypass the cache entirely
	refresh  bool   // regenerate and overwrite cached results
	jobs     int    // batch concurrency
}

// renderCommand creates the render command.
//
// With one input (or none, meaning stdin) the code goes to stdout unless
// --output names a file. With several inputs each one is written next to its
// source, or into the --output directory, with the target's extension.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file...]",
		Short: "Generate diagram code from graph documents",
		Example: `  cloudsketch render infra.json
  cloudsketch render infra.yaml --imports -o infra.py
  cat infra.json | cloudsketch render --target dot
  cloudsketch render docs/*.json -o build/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("imports") {
				opts.imports = c.config().Render.Imports
			}
			return c.runRender(cmd, args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single input) or directory (multiple inputs)")
	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "code target: diagrams (default), dot")
	cmd.Flags().StringVar(&opts.name, "name", "", "override the diagram name")
	cmd.Flags().BoolVar(&opts.imports, "imports", false, "prepend import statements (diagrams)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include ids and types in node labels (dot)")
	cmd.Flags().BoolVar(&opts.check, "check", false, "validate generated DOT with Graphviz (dot)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", pipeline.DefaultBatchConcurrency, "files rendered in parallel")

	return cmd
}

// pipelineOptions merges flags over the configured render defaults.
func (c *CLI) pipelineOptions(opts *renderOpts) pipeline.Options {
	po := c.renderOptions()
	if opts.target != "" {
		po.Target = opts.target
	}
	po.Name = opts.name
	po.Imports = opts.imports
	po.Detailed = opts.detailed
	po.Refresh = opts.refresh
	return po
}

func (c *CLI) runRender(cmd *cobra.Command, inputs []string, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	po := c.pipelineOptions(opts)
	if err := po.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if opts.check && po.Target != pipeline.TargetDOT {
		return errs.New(errs.ErrCodeInvalidInput, "--check only applies to the dot target")
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	if len(inputs) <= 1 {
		input := stdinName
		if len(inputs) == 1 {
			input = inputs[0]
		}
		data, err := readInput(cmd.InOrStdin(), input)
		if err != nil {
			return err
		}
		res, err := runner.Execute(ctx, input, data, po)
		if err != nil {
			return err
		}
		if err := checkResult(ctx, res, opts); err != nil {
			return err
		}
		if opts.output == "" {
			_, err = io.WriteString(cmd.OutOrStdout(), res.Code+"\n")
			return err
		}
		if err := writeCode(opts.output, res.Code); err != nil {
			return err
		}
		printFile(opts.output)
		printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheHit)
		return nil
	}

	prog := newProgress(logger)
	jobs := make([]pipeline.Job, 0, len(inputs))
	for _, input := range inputs {
		data, err := readInput(cmd.InOrStdin(), input)
		if err != nil {
			return err
		}
		jobs = append(jobs, pipeline.Job{Source: input, Data: data})
	}

	results, err := runner.GenerateBatch(ctx, jobs, po, opts.jobs)
	if err != nil {
		return err
	}

	var failed int
	for _, br := range results {
		if br.Err == nil {
			br.Err = checkResult(ctx, br.Result, opts)
		}
		if br.Err != nil {
			failed++
			printError("%s: %s", br.Source, errs.UserMessage(br.Err))
			continue
		}
		path := outputPath(opts.output, br.Source, po.Target)
		if err := writeCode(path, br.Result.Code); err != nil {
			return err
		}
		printFile(path)
	}
	prog.done(fmt.Sprintf("Rendered %d of %d files", len(results)-failed, len(results)))

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func checkResult(ctx context.Context, res *pipeline.Result, opts *renderOpts) error {
	if res.SkippedEdges > 0 {
		printWarning("%d edge(s) skipped: unresolved endpoints", res.SkippedEdges)
	}
	if len(res.Unmapped) > 0 {
		printWarning("no import module for: %s", strings.Join(res.Unmapped, ", "))
	}
	if opts.check {
		return nodelink.Check(ctx, res.Code)
	}
	return nil
}

func readInput(stdin io.Reader, input string) ([]byte, error) {
	if input == stdinName {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	if err := errs.ValidateDocumentFilename(input); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(input)
	if os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "open %s", input)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", input, err)
	}
	return data, nil
}

// outputPath places the output for input in dir, or next to input when dir
// is empty.
func outputPath(dir, input, target string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + targetExt[target]
	if dir == "" {
		return filepath.Join(filepath.Dir(input), base)
	}
	return filepath.Join(dir, base)
}

func writeCode(path, code string) error {
	if err := errs.ValidatePath(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(code+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
