package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/cloudsketch/pkg/errors"
	"github.com/matzehuels/cloudsketch/pkg/pipeline"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 100 * time.Millisecond

// watchCommand regenerates code whenever a document changes.
func (c *CLI) watchCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Regenerate diagram code whenever a document changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("imports") {
				opts.imports = c.config().Render.Imports
			}
			po := c.pipelineOptions(&opts)
			if err := po.ValidateAndSetDefaults(); err != nil {
				return err
			}
			// Every save changes the document hash, so caching only adds writes.
			runner, err := c.newRunner(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer runner.Close()

			w := &watcher{
				input:  args[0],
				output: opts.output,
				opts:   po,
				runner: runner,
				stdout: cmd.OutOrStdout(),
			}
			return w.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "code target: diagrams (default), dot")
	cmd.Flags().StringVar(&opts.name, "name", "", "override the diagram name")
	cmd.Flags().BoolVar(&opts.imports, "imports", false, "prepend import statements (diagrams)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include ids and types in node labels (dot)")

	return cmd
}

type watcher struct {
	input  string
	output string
	opts   pipeline.Options
	runner *pipeline.Runner
	stdout io.Writer
}

// run renders once, then again after every change to the input until ctx
// is cancelled. Render failures are reported and watching continues.
func (w *watcher) run(ctx context.Context) error {
	if err := errs.ValidateDocumentFilename(w.input); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory: editors often replace the file instead of
	// writing to it, which drops a watch on the file itself.
	target, err := filepath.Abs(w.input)
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	w.render(ctx)
	printInfo("Watching %s (Ctrl+C to stop)", w.input)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			debounce = time.After(watchDebounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			printError("watch: %v", err)
		case <-debounce:
			debounce = nil
			w.render(ctx)
		}
	}
}

func (w *watcher) render(ctx context.Context) {
	data, err := readInput(nil, w.input)
	if err != nil {
		printError("%s", errs.UserMessage(err))
		return
	}
	res, err := w.runner.Execute(ctx, w.input, data, w.opts)
	if err != nil {
		printError("%s", errs.UserMessage(err))
		return
	}
	if res.SkippedEdges > 0 {
		printWarning("%d edge(s) skipped: unresolved endpoints", res.SkippedEdges)
	}
	if w.output == "" {
		fmt.Fprintln(w.stdout, res.Code)
		return
	}
	if err := writeCode(w.output, res.Code); err != nil {
		printError("%v", err)
		return
	}
	printSuccess("Regenerated %s (%s)", w.output, time.Now().Format("15:04:05"))
}
