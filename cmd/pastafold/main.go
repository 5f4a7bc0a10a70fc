package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danpilch/pastafold/pkg/debug"
	"github.com/danpilch/pastafold/pkg/flamegraph"
	"github.com/danpilch/pastafold/pkg/output"
	"github.com/danpilch/pastafold/pkg/stack"
)

const (
	defaultInput = "profile-dump.pasta"

	longHelp = `Converts an Xcode Instruments Time Profiler "Deep Copy" into flame graphs:
one covering every thread (FULL-OUTPUT.svg) and one per thread.

  input:    Defaults to ` + defaultInput + `
  outdir:   Defaults to out. Deleted and recreated unless it is "."
  renderer: Path to flamegraph.pl, see https://github.com/brendangregg/FlameGraph.
            Defaults to ` + flamegraph.DefaultRendererPath + `

The input file is obtained as follows:
In Xcode Instruments, profile using the Time Profiler template. The resulting
CPU Usage's Detail area will contain a root node for the entire process.
Expand it, but don't expand its children, and you will have a list of all the
threads. Select all children, but not the root node. Having a selection of the
roots of all threads, nothing less, nothing more, press Edit > Deep Copy.
Paste the contents into a file; this is your input file.

The output files are SVG flame graphs that can be opened in a browser.`
)

type config struct {
	input         string
	renderer      string
	logLevel      string
	summaryFormat string
	printTree     bool
	timing        bool
	opts          output.Options
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	cfg := config{
		input:    defaultInput,
		renderer: flamegraph.DefaultRendererPath,
		opts:     output.DefaultOptions(),
	}

	cmd := &cobra.Command{
		Use:          "pastafold [input] [outdir] [renderer]",
		Short:        "Turn an Instruments call tree export into flame graphs",
		Long:         longHelp,
		Args:         cobra.MaximumNArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && args[0] == "help" {
				return cmd.Help()
			}
			if len(args) > 0 {
				cfg.input = args[0]
			}
			if len(args) > 1 {
				cfg.opts.Dir = args[1]
			}
			if len(args) > 2 {
				cfg.renderer = args[2]
			}
			return run(cmd.Context(), cfg, stdout)
		},
	}
	cmd.SetOut(stdout)

	flags := cmd.Flags()
	flags.StringVar(&cfg.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&cfg.summaryFormat, "summary-format", string(output.FormatTable), "summary format (table, json, tsv)")
	flags.BoolVar(&cfg.opts.KeepFolded, "keep-folded", false, "keep the intermediate .folded files")
	flags.BoolVar(&cfg.opts.FoldedOnly, "folded-only", false, "only write .folded files, do not run the renderer")
	flags.BoolVar(&cfg.printTree, "tree", false, "print the parsed call tree of every thread")
	flags.BoolVar(&cfg.timing, "timing", false, "print a stage timing report")

	return cmd
}

func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetLevel(lvl)
	return logger, nil
}

func run(ctx context.Context, cfg config, stdout io.Writer) error {
	logger, err := newLogger(cfg.logLevel)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(cfg.summaryFormat)
	if err != nil {
		return err
	}

	var renderer *flamegraph.Renderer
	if !cfg.opts.FoldedOnly {
		renderer, err = flamegraph.NewRenderer(cfg.renderer)
		if err != nil {
			return err
		}
		if err := renderer.Check(); err != nil {
			return err
		}
	}

	driver := output.NewDriver(cfg.opts, renderer, logger)
	if err := driver.PrepareDir(); err != nil {
		return err
	}

	sw := debug.NewStopwatch()

	var forest *stack.Forest
	err = sw.Time("parse", func() error {
		f, err := os.Open(cfg.input)
		if err != nil {
			return err
		}
		defer f.Close()

		logger.WithField("file", cfg.input).Info("Parsing")
		forest, err = stack.NewBuilder(logger).Build(f)
		if err != nil {
			return fmt.Errorf("%s: %w", cfg.input, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if cfg.printTree {
		for _, root := range forest.Roots() {
			if err := forest.WriteTree(stdout, root); err != nil {
				return err
			}
		}
	}

	var summaries []output.ThreadSummary
	err = sw.Time("fold+render", func() error {
		summaries, err = driver.Run(ctx, forest)
		return err
	})
	if err != nil {
		return err
	}

	if err := output.NewFormatter(format, stdout).Render(summaries); err != nil {
		return err
	}
	if cfg.timing {
		debug.TimingReport(stdout, sw.Stages())
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
