package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/cloudsketch/pkg/errors"
	"github.com/matzehuels/cloudsketch/pkg/graph"
	"github.com/matzehuels/cloudsketch/pkg/planner"
)

// queryCommand plans a document from a description and generates code.
func (c *CLI) queryCommand() *cobra.Command {
	var (
		opts       renderOpts
		plannerURL string
		saveDoc    string
	)

	cmd := &cobra.Command{
		Use:   "query <description>",
		Short: "Plan a graph document from free text, then generate code",
		Long: `Query sends a free-text description to a planner service, which answers
with a graph document. The document is cached under the query text and
rendered like any other input.`,
		Example: `  cloudsketch query "three web servers behind a load balancer" --planner http://localhost:9000/plan`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if plannerURL == "" {
				plannerURL = c.config().Server.PlannerURL
			}
			if plannerURL == "" {
				return errs.New(errs.ErrCodeInvalidConfig, "no planner configured (use --planner or server.planner_url)")
			}
			p, err := planner.NewHTTPPlanner(plannerURL)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("imports") {
				opts.imports = c.config().Render.Imports
			}
			po := c.pipelineOptions(&opts)
			if err := po.ValidateAndSetDefaults(); err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			spinner := newSpinnerWithContext(ctx, "Asking planner...")
			spinner.Start()
			doc, hit, err := runner.Plan(ctx, p, strings.Join(args, " "), opts.refresh)
			if err != nil {
				spinner.StopWithError("Planning failed")
				return err
			}
			spinner.Update("Generating...")
			res, err := runner.Generate(ctx, doc, po)
			if err != nil {
				spinner.StopWithError("Generation failed")
				return err
			}
			spinner.StopWithSuccess(fmt.Sprintf("Planned %d nodes, %d edges", len(doc.Nodes), len(doc.Edges)))
			printStats(len(doc.Nodes), len(doc.Edges), hit)

			if saveDoc != "" {
				if err := saveDocument(saveDoc, doc); err != nil {
					return err
				}
				printFile(saveDoc)
			}
			if opts.output == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), res.Code+"\n")
				return err
			}
			if err := writeCode(opts.output, res.Code); err != nil {
				return err
			}
			printFile(opts.output)
			return nil
		},
	}

	cmd.Flags().StringVar(&plannerURL, "planner", "", "planner endpoint (default server.planner_url)")
	cmd.Flags().StringVar(&saveDoc, "save-doc", "", "also write the planned document as JSON")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "code target: diagrams (default), dot")
	cmd.Flags().StringVar(&opts.name, "name", "", "override the diagram name")
	cmd.Flags().BoolVar(&opts.imports, "imports", false, "prepend import statements (diagrams)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include ids and types in node labels (dot)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ask the planner again even if cached")

	return cmd
}

func saveDocument(path string, doc *graph.Document) error {
	if err := errs.ValidateDocumentFilename(path); err != nil {
		return err
	}
	if err := errs.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := graph.WriteDocument(doc, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
