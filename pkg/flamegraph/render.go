// Package flamegraph folds call trees into the collapsed stack format and
// hands the result to an external flame graph renderer.
package flamegraph

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultRendererPath is where flamegraph.pl from
// https://github.com/brendangregg/FlameGraph is expected by default.
const DefaultRendererPath = "~/workspace/FlameGraph/flamegraph.pl"

// ErrRenderer is returned when the renderer exits unsuccessfully.
var ErrRenderer = errors.New("flame graph renderer failed")

// Renderer runs an external program that reads a folded file given as its
// only argument and writes an SVG to stdout.
type Renderer struct {
	Path string
}

// NewRenderer returns a renderer for path with a leading "~/" expanded.
func NewRenderer(path string) (*Renderer, error) {
	expanded, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}
	return &Renderer{Path: expanded}, nil
}

// ExpandHome replaces a leading "~/" with the current user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Check verifies that the renderer exists and can be executed.
func (r *Renderer) Check() error {
	info, err := os.Stat(r.Path)
	if err != nil {
		return fmt.Errorf("renderer not found: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("renderer %s is a directory", r.Path)
	}
	return checkExecutable(r.Path)
}

// Render runs the renderer on foldedPath and stores its output at svgPath.
// A nonzero exit is reported as ErrRenderer along with the renderer's stderr.
func (r *Renderer) Render(ctx context.Context, foldedPath, svgPath string) error {
	out, err := os.Create(svgPath)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", svgPath, err)
	}

	cmd := exec.CommandContext(ctx, r.Path, foldedPath)
	var stderr bytes.Buffer
	cmd.Stdout = out
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	closeErr := out.Close()
	if runErr != nil {
		return fmt.Errorf("%w: %s %q: %v (%s)", ErrRenderer, r.Path, foldedPath, runErr,
			strings.TrimSpace(stderr.String()))
	}
	if closeErr != nil {
		return fmt.Errorf("cannot write %s: %w", svgPath, closeErr)
	}
	return nil
}
