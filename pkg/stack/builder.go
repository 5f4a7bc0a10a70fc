package stack

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// ThreadHeader is the column header Instruments writes at the top of every
// thread's section of a Deep Copy.
const ThreadHeader = "Weight\tSelf Weight\t\tSymbol Name"

const (
	columnCount       = 4
	columnSelfWeight  = 1
	columnSymbolName  = 3
	maxLineBytes      = 1024 * 1024
	initialLineBuffer = 64 * 1024
)

// Stats describes what a Build call consumed.
type Stats struct {
	Lines   int
	Threads int
	Nodes   int
}

// Builder turns a Deep Copy export into a Forest.
type Builder struct {
	logger *logrus.Logger
	stats  Stats
}

// NewBuilder creates a builder logging to logger.
func NewBuilder(logger *logrus.Logger) *Builder {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Builder{logger: logger}
}

// Stats returns the counters of the last Build.
func (b *Builder) Stats() Stats {
	return b.stats
}

// threadState is the per-section parsing state, reset at every header.
type threadState struct {
	started    bool
	baseIndent int
	previous   NodeID
}

// Build reads r to the end and returns one tree per thread section. The
// input is a pre-order dump, so a node's parent is the ancestor of the
// previously read node one level above the new node.
func (b *Builder) Build(r io.Reader) (*Forest, error) {
	b.stats = Stats{}
	forest := NewForest()

	var (
		state   threadState
		inTable bool
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialLineBuffer), maxLineBytes)
	for scanner.Scan() {
		b.stats.Lines++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if line == "" {
			continue
		}
		if line == ThreadHeader {
			b.stats.Threads++
			inTable = true
			state = threadState{previous: NoParent}
			b.logger.WithField("line", b.stats.Lines).Debug("New thread section")
			continue
		}
		if !inTable {
			return nil, b.lineError(line, ErrOrphanLine)
		}

		columns := strings.Split(line, "\t")
		if len(columns) != columnCount {
			return nil, b.lineError(line, fmt.Errorf("%w, got %d", ErrColumnCount, len(columns)))
		}

		node, err := NewNode(columns[columnSelfWeight], columns[columnSymbolName])
		if err != nil {
			return nil, b.lineError(line, err)
		}

		id, err := b.link(forest, &state, node)
		if err != nil {
			return nil, b.lineError(line, err)
		}
		state.previous = id
		b.stats.Nodes++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"lines":   b.stats.Lines,
		"threads": b.stats.Threads,
		"nodes":   b.stats.Nodes,
	}).Info("Parsed profile")

	if roots := len(forest.Roots()); roots != b.stats.Threads {
		return nil, fmt.Errorf("%w: %d thread headers, %d thread roots", ErrThreadCount, b.stats.Threads, roots)
	}
	return forest, nil
}

// link attaches node to the forest. The first node of a section becomes the
// thread root and fixes the indentation every other node of the section is
// measured against.
func (b *Builder) link(forest *Forest, state *threadState, node Node) (NodeID, error) {
	if !state.started {
		state.started = true
		state.baseIndent = node.Depth
		node.Depth = 0
		return forest.AddRoot(node)
	}

	indent := node.Depth
	node.Depth -= state.baseIndent
	if node.Depth < 1 {
		return NoParent, fmt.Errorf("%w: indentation %d is not below the thread root's %d",
			ErrDepth, indent, state.baseIndent)
	}

	parent, err := forest.AncestorAtDepth(state.previous, node.Depth-1)
	if err != nil {
		return NoParent, err
	}
	if b.logger.IsLevelEnabled(logrus.DebugLevel) {
		b.logger.WithFields(logrus.Fields{
			"symbol": node.Symbol,
			"depth":  node.Depth,
			"parent": forest.Node(parent).Symbol,
		}).Debug("Linked frame")
	}
	return forest.AddChild(parent, node)
}

func (b *Builder) lineError(line string, err error) error {
	return &LineError{Line: b.stats.Lines, Text: line, Err: err}
}

// Build is a convenience wrapper around a Builder with a quiet logger.
func Build(r io.Reader) (*Forest, error) {
	return NewBuilder(nil).Build(r)
}
