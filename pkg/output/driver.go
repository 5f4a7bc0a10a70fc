package output

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/pastafold/pkg/flamegraph"
	"github.com/danpilch/pastafold/pkg/stack"
)

// FullOutputName is the base name of the artifacts covering every thread.
const FullOutputName = "FULL-OUTPUT"

// Options configures where and how artifacts are written.
type Options struct {
	Dir        string
	KeepFolded bool // keep .folded files after rendering
	FoldedOnly bool // write .folded files and skip the renderer
}

// DefaultOptions returns the defaults of the command line.
func DefaultOptions() Options {
	return Options{
		Dir: "out",
	}
}

// ThreadSummary describes the artifacts written for one thread.
type ThreadSummary struct {
	Thread      string  `json:"thread"`
	File        string  `json:"file"`
	Nodes       int     `json:"nodes"`
	FoldedLines int     `json:"folded_lines"`
	SelfMs      float64 `json:"self_ms"`
}

// Driver writes folded files for a forest and renders them.
type Driver struct {
	opts     Options
	renderer *flamegraph.Renderer
	logger   *logrus.Logger
}

// NewDriver creates a driver. renderer may be nil when opts.FoldedOnly is set.
func NewDriver(opts Options, renderer *flamegraph.Renderer, logger *logrus.Logger) *Driver {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Driver{
		opts:     opts,
		renderer: renderer,
		logger:   logger,
	}
}

// PrepareDir empties the output directory by deleting and recreating it.
// The current directory is used as is.
func (d *Driver) PrepareDir() error {
	dir := filepath.Clean(d.opts.Dir)
	if dir == "." {
		return nil
	}

	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		d.logger.WithField("dir", dir).Info("Deleting existing output directory")
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("cannot delete output directory: %w", err)
		}
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("cannot stat output directory: %w", err)
	}

	d.logger.WithField("dir", dir).Info("Creating output directory")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}
	return nil
}

// Run writes the combined flame graph and then one per thread, in thread
// order. It stops at the first failure.
func (d *Driver) Run(ctx context.Context, forest *stack.Forest) ([]ThreadSummary, error) {
	if d.renderer == nil && !d.opts.FoldedOnly {
		return nil, errors.New("no renderer configured")
	}

	d.logger.Info("Writing output file containing all threads")
	if _, err := d.write(ctx, FullOutputName, forest); err != nil {
		return nil, err
	}

	roots := forest.Roots()
	names := fileNames(forest, roots)

	d.logger.WithField("threads", len(roots)).Info("Writing per-thread output files")
	summaries := make([]ThreadSummary, 0, len(roots))
	for i, root := range roots {
		lines, err := d.write(ctx, names[i], forest, root)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, ThreadSummary{
			Thread:      forest.Node(root).Symbol,
			File:        names[i],
			Nodes:       forest.SubtreeSize(root),
			FoldedLines: lines,
			SelfMs:      forest.SelfWeightMs(root),
		})
	}
	return summaries, nil
}

// write folds roots into <base>.folded, renders <base>.svg and removes the
// folded file unless it was asked for. It returns the folded line count.
func (d *Driver) write(ctx context.Context, base string, forest *stack.Forest, roots ...stack.NodeID) (int, error) {
	foldedPath := filepath.Join(d.opts.Dir, base+".folded")
	svgPath := filepath.Join(d.opts.Dir, base+".svg")

	folded := flamegraph.Fold(forest, roots...)
	lines := len(folded)
	if err := d.writeFolded(foldedPath, folded); err != nil {
		return 0, err
	}
	if d.opts.FoldedOnly {
		return lines, nil
	}

	if err := d.renderer.Render(ctx, foldedPath, svgPath); err != nil {
		return 0, err
	}
	if info, err := os.Stat(svgPath); err == nil {
		d.logger.WithFields(logrus.Fields{
			"file":  svgPath,
			"bytes": info.Size(),
		}).Info("FlameGraph written")
	}

	if d.opts.KeepFolded {
		return lines, nil
	}
	if err := os.Remove(foldedPath); err != nil {
		return 0, fmt.Errorf("cannot delete %s: %w", foldedPath, err)
	}
	d.logger.WithField("file", foldedPath).Info("Deleted temporary file")
	return lines, nil
}

func (d *Driver) writeFolded(path string, lines []flamegraph.FoldedLine) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	n, err := flamegraph.WriteLines(f, lines)
	if err != nil {
		f.Close()
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	d.logger.WithFields(logrus.Fields{
		"file":  path,
		"bytes": n,
	}).Info("Folded stacks written")
	return nil
}

// fileNames maps thread roots to base file names. Path separators are
// replaced and repeated names get a numeric suffix so no thread overwrites
// another's artifacts or the combined output.
func fileNames(forest *stack.Forest, roots []stack.NodeID) []string {
	used := map[string]bool{FullOutputName: true}
	names := make([]string, len(roots))
	for i, root := range roots {
		base := sanitize(forest.Node(root).Symbol)
		name := base
		for n := 2; used[name]; n++ {
			name = base + "-" + strconv.Itoa(n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

var unsafeChars = strings.NewReplacer("/", "_", "\\", "_", "\x00", "_")

func sanitize(symbol string) string {
	name := unsafeChars.Replace(symbol)
	if name == "." || name == ".." {
		return strings.Repeat("_", len(name))
	}
	return name
}
