package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

var runIDPattern = regexp.MustCompile(`run_id=(\S+)`)

func TestProblemsCommand(t *testing.T) {
	out, err := execute(t, "problems")
	require.NoError(t, err)
	assert.Contains(t, out, "problem=onemax kind=binary size=32 optimum=32")
	assert.Contains(t, out, "problem=knapsack")
	assert.Contains(t, out, "strategy=standard")
	assert.Contains(t, out, "strategy=hall-of-fame")
}

func TestRunThenInspect(t *testing.T) {
	base := t.TempDir()
	artifacts := filepath.Join(base, "runs")
	common := []string{"--store", "memory", "--artifacts-dir", artifacts, "--log-level", "error"}

	out, err := execute(t, append([]string{"run", "--problem", "onemax", "--pop", "10", "--gens", "3", "--seed", "4"}, common...)...)
	require.NoError(t, err)
	m := runIDPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	runID := m[1]
	assert.Contains(t, out, "transitions=3")
	assert.Contains(t, out, "best_solution=")

	out, err = execute(t, append([]string{"runs"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "run_id="+runID)
	assert.Contains(t, out, "problem=onemax")

	out, err = execute(t, append([]string{"history", "--latest"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "generation,Best Fitness,Mean Fitness,STD Fitness,Population")

	out, err = execute(t, append([]string{"top", "--run-id", runID, "--limit", "2"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "rank=1 ")
	assert.Contains(t, out, "rank=2 ")
	assert.NotContains(t, out, "rank=3 ")

	out, err = execute(t, append([]string{"export", "--latest", "--out", filepath.Join(base, "exports")}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "exported run_id="+runID)

	ckpt := filepath.Join(base, "onemax.ckpt")
	out, err = execute(t, append([]string{"checkpoint", "save", ckpt, "--run-id", runID}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "saved checkpoint_id=")
	assert.Contains(t, out, "generation=3")

	_, err = execute(t, append([]string{"checkpoint", "save", ckpt, "--run-id", runID}, common...)...)
	require.Error(t, err, "an existing checkpoint must not be replaced without --overwrite")

	out, err = execute(t, append([]string{"checkpoint", "load", ckpt}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "loaded checkpoint_id=")
	assert.Regexp(t, `individuals=\d+ `, out)

	out, err = execute(t, append([]string{"run", "--resume-file", ckpt, "--gens", "2"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "transitions=2")
}

func TestRunWithConfigFile(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "run.yaml")
	doc := `
problem: sphere
generations: 2
population:
  size: 8
artifacts_dir: ` + filepath.Join(base, "from-config") + `
log:
  level: error
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	out, err := execute(t, "run", "--config", path, "--print-config", "--seed", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "problem: sphere")
	assert.Contains(t, out, "seed: 9")

	metricsPath := filepath.Join(base, "genera.prom")
	_, err = execute(t, "run", "--config", path, "--store", "memory", "--metrics-textfile", metricsPath)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(base, "from-config"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries, "artifacts_dir from the config file is used")

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "genera_generations_total 2")
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "runs", "--limit", "0", "--artifacts-dir", dir, "--store", "memory")
	require.Error(t, err)

	_, err = execute(t, "run", "--resume", "a", "--resume-file", "b", "--artifacts-dir", dir, "--store", "memory")
	require.Error(t, err)

	_, err = execute(t, "run", "--problem", "nope", "--artifacts-dir", dir, "--store", "memory", "--log-level", "error")
	require.Error(t, err)

	_, err = execute(t, "run", "--strategy", "annealing", "--artifacts-dir", dir, "--store", "memory")
	require.Error(t, err)

	_, err = execute(t, "history", "--artifacts-dir", dir, "--store", "memory")
	require.Error(t, err, "history needs a run id or --latest")

	_, err = execute(t, "checkpoint", "load", filepath.Join(dir, "missing.ckpt"), "--artifacts-dir", dir, "--store", "memory")
	require.Error(t, err)
}
