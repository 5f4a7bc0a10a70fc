package output

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/pastafold/pkg/flamegraph"
	"github.com/danpilch/pastafold/pkg/stack"
)

const twoThreads = stack.ThreadHeader + "\n" +
	"10.00 ms\t4 ms\t\t Main Thread\n" +
	"10.00 ms\t6 ms\t\t  child\n" +
	"\n" +
	stack.ThreadHeader + "\n" +
	"3.00 ms\t3 ms\t\t Worker\n"

func buildForest(t *testing.T, input string) *stack.Forest {
	t.Helper()

	f, err := stack.Build(strings.NewReader(input))
	require.NoError(t, err)
	return f
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func echoRenderer(t *testing.T, body string) *flamegraph.Renderer {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("renderer scripts need a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "flamegraph.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return &flamegraph.Renderer{Path: path}
}

func TestPrepareDirRecreates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	stale := filepath.Join(dir, "stale.svg")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	d := NewDriver(Options{Dir: dir}, nil, nil)
	require.NoError(t, d.PrepareDir())

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPrepareDirCreatesMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	require.NoError(t, NewDriver(Options{Dir: dir}, nil, nil).PrepareDir())
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPrepareDirLeavesCurrentDirectory(t *testing.T) {
	require.NoError(t, NewDriver(Options{Dir: "."}, nil, nil).PrepareDir())
	require.NoError(t, NewDriver(Options{Dir: "./"}, nil, nil).PrepareDir())

	_, err := os.Stat("driver_test.go")
	assert.NoError(t, err)
}

func TestRunFoldedOnly(t *testing.T) {
	dir := t.TempDir()
	d := NewDriver(Options{Dir: dir, FoldedOnly: true}, nil, nil)

	summaries, err := d.Run(context.Background(), buildForest(t, twoThreads))
	require.NoError(t, err)

	assert.Equal(t, "Main Thread 4\nMain Thread;child 6\nWorker 3\n",
		readFile(t, filepath.Join(dir, FullOutputName+".folded")))
	assert.Equal(t, "Main Thread 4\nMain Thread;child 6\n",
		readFile(t, filepath.Join(dir, "Main Thread.folded")))
	assert.Equal(t, "Worker 3\n", readFile(t, filepath.Join(dir, "Worker.folded")))

	assert.Equal(t, []ThreadSummary{
		{Thread: "Main Thread", File: "Main Thread", Nodes: 2, FoldedLines: 2, SelfMs: 10},
		{Thread: "Worker", File: "Worker", Nodes: 1, FoldedLines: 1, SelfMs: 3},
	}, summaries)

	_, err = os.Stat(filepath.Join(dir, FullOutputName+".svg"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunRendersAndRemovesFolded(t *testing.T) {
	dir := t.TempDir()
	r := echoRenderer(t, `printf '<svg>%s</svg>' "$(cat "$1")"`)
	d := NewDriver(Options{Dir: dir}, r, nil)

	_, err := d.Run(context.Background(), buildForest(t, twoThreads))
	require.NoError(t, err)

	assert.Equal(t, "<svg>Worker 3</svg>", readFile(t, filepath.Join(dir, "Worker.svg")))
	assert.Contains(t, readFile(t, filepath.Join(dir, FullOutputName+".svg")), "Main Thread;child 6")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, ".svg", filepath.Ext(e.Name()), e.Name())
	}
	assert.Len(t, entries, 3)
}

func TestRunKeepFolded(t *testing.T) {
	dir := t.TempDir()
	r := echoRenderer(t, `cat "$1"`)
	d := NewDriver(Options{Dir: dir, KeepFolded: true}, r, nil)

	_, err := d.Run(context.Background(), buildForest(t, twoThreads))
	require.NoError(t, err)

	assert.Equal(t, "Worker 3\n", readFile(t, filepath.Join(dir, "Worker.folded")))
	assert.Equal(t, "Worker 3\n", readFile(t, filepath.Join(dir, "Worker.svg")))
}

func TestRunRendererFailureStops(t *testing.T) {
	dir := t.TempDir()
	r := echoRenderer(t, `exit 1`)
	d := NewDriver(Options{Dir: dir}, r, nil)

	_, err := d.Run(context.Background(), buildForest(t, twoThreads))
	require.ErrorIs(t, err, flamegraph.ErrRenderer)

	_, err = os.Stat(filepath.Join(dir, "Worker.folded"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunWithoutRenderer(t *testing.T) {
	_, err := NewDriver(Options{Dir: t.TempDir()}, nil, nil).Run(context.Background(), stack.NewForest())
	assert.Error(t, err)
}

func TestFileNames(t *testing.T) {
	f := buildForest(t, strings.Join([]string{
		stack.ThreadHeader, "1 ms\t1 ms\t\t Worker",
		stack.ThreadHeader, "1 ms\t1 ms\t\t Worker",
		stack.ThreadHeader, "1 ms\t1 ms\t\t com.apple/queue",
		stack.ThreadHeader, "1 ms\t1 ms\t\t FULL-OUTPUT",
		stack.ThreadHeader, "1 ms\t1 ms\t\t ..",
		stack.ThreadHeader, "1 ms\t1 ms\t\t Worker-2",
	}, "\n"))

	assert.Equal(t, []string{
		"Worker",
		"Worker-2",
		"com.apple_queue",
		"FULL-OUTPUT-2",
		"__",
		"Worker-2-2",
	}, fileNames(f, f.Roots()))
}
