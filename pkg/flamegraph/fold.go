package flamegraph

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/danpilch/pastafold/pkg/stack"
)

// FoldedLine is one line of folded stack output.
type FoldedLine struct {
	Stack  []string
	Weight int64
}

// String formats the line as "func1;func2;func3 weight".
func (l FoldedLine) String() string {
	return fmt.Sprintf("%s %d", strings.Join(l.Stack, ";"), l.Weight)
}

// Fold walks the given thread roots depth-first and returns one line per
// frame with nonzero self weight. Frames without self time emit nothing but
// still appear in their descendants' stacks. With no roots, every thread in
// the forest is folded.
func Fold(f *stack.Forest, roots ...stack.NodeID) []FoldedLine {
	if len(roots) == 0 {
		roots = f.Roots()
	}

	var lines []FoldedLine
	for _, root := range roots {
		_ = f.Walk(root, func(id stack.NodeID, n stack.Node) error {
			if n.SelfWeightMs != 0 {
				lines = append(lines, FoldedLine{
					Stack: f.Path(id),
					// 1 ms counts as one sample; fractions are dropped.
					Weight: int64(n.SelfWeightMs),
				})
			}
			return nil
		})
	}
	return lines
}

// WriteFolded writes the folded form of the given roots (all roots when none
// are given) to w and returns the number of bytes written.
func WriteFolded(w io.Writer, f *stack.Forest, roots ...stack.NodeID) (int64, error) {
	return WriteLines(w, Fold(f, roots...))
}

// WriteLines writes already folded lines to w, one per line.
func WriteLines(w io.Writer, lines []FoldedLine) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	for _, line := range lines {
		n, err := fmt.Fprintln(bw, line.String())
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, bw.Flush()
}
