package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/pastafold/pkg/stack"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeInput(t *testing.T, lines ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "profile-dump.pasta")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestHelpSynonyms(t *testing.T) {
	for _, arg := range []string{"help", "-h", "--help"} {
		out, err := execute(t, arg)
		require.NoError(t, err, arg)
		assert.Contains(t, out, "Deep Copy", arg)
		assert.Contains(t, out, "pastafold [input] [outdir] [renderer]", arg)
	}
}

func TestRunFoldedOnly(t *testing.T) {
	input := writeInput(t,
		stack.ThreadHeader,
		"10.00 ms\t4 ms\t\t root",
		"10.00 ms\t6 ms\t\t  child",
	)
	dir := filepath.Join(t.TempDir(), "out")

	out, err := execute(t, "--folded-only", "--log-level", "warn", "--summary-format", "tsv", "--tree", input, dir)
	require.NoError(t, err)

	folded, err := os.ReadFile(filepath.Join(dir, "FULL-OUTPUT.folded"))
	require.NoError(t, err)
	assert.Equal(t, "root 4\nroot;child 6\n", string(folded))

	assert.Contains(t, out, "root [4 ms, depth 0]\n child [6 ms, depth 1]\n")
	assert.Contains(t, out, "root\troot\t2\t2\t10.000\n")
}

func TestRunMalformedInputWritesNothing(t *testing.T) {
	input := writeInput(t,
		stack.ThreadHeader,
		"10.00 ms\t4 ms\t root",
	)
	dir := filepath.Join(t.TempDir(), "out")

	_, err := execute(t, "--folded-only", "--log-level", "error", input, dir)
	require.ErrorIs(t, err, stack.ErrColumnCount)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunMissingRenderer(t *testing.T) {
	input := writeInput(t, stack.ThreadHeader, "1 ms\t1 ms\t\t root")
	dir := t.TempDir()

	_, err := execute(t, "--log-level", "error", input, filepath.Join(dir, "out"), filepath.Join(dir, "no-such-renderer.pl"))
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(dir, "out"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunBadFlags(t *testing.T) {
	input := writeInput(t, stack.ThreadHeader, "1 ms\t1 ms\t\t root")

	_, err := execute(t, "--folded-only", "--summary-format", "yaml", input, t.TempDir())
	assert.Error(t, err)

	_, err = execute(t, "--folded-only", "--log-level", "loud", input, t.TempDir())
	assert.Error(t, err)

	_, err = execute(t, "a", "b", "c", "d")
	assert.Error(t, err)
}
