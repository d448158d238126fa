package stats

import (
	"os"
	"path/filepath"
	"testing"

	"genera/internal/model"
)

func TestWriteAndExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "exports")

	runID := "run-123"
	history := NewTable([]string{"Best Fitness"})
	for gen, best := range []float64{5, 6, 7} {
		if err := history.Append(gen, []float64{best}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	artifacts := RunArtifacts{
		Config: RunConfig{
			RunID:          runID,
			Problem:        "knapsack",
			Strategy:       "standard",
			PopulationSize: 4,
			Generations:    3,
			Seed:           1,
			Workers:        2,
		},
		History:          history,
		FinalBestFitness: 7,
		TopIndividuals: []TopIndividual{{
			Rank:       1,
			Fitness:    7,
			Solution:   "0110",
			Individual: model.IndividualRecord{ID: "i1"},
		}},
	}

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	for _, file := range []string{"config.json", "history.json", "history.csv", "top_individuals.json"} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}

	exportedDir, err := ExportRunArtifacts(baseDir, runID, outDir)
	if err != nil {
		t.Fatalf("export artifacts: %v", err)
	}
	for _, file := range []string{"config.json", "history.csv", "top_individuals.json"} {
		if _, err := os.Stat(filepath.Join(exportedDir, file)); err != nil {
			t.Fatalf("expected exported file %s: %v", file, err)
		}
	}
	if _, err := os.Stat(filepath.Join(exportedDir, "perf_summary.json")); !os.IsNotExist(err) {
		t.Fatalf("did not expect a perf summary, got err=%v", err)
	}

	if err := WritePerfSummary(runDir, SummarizeBest(PerfSummary{RunID: runID, Repeats: 3}, []float64{5, 6, 7})); err != nil {
		t.Fatalf("write perf summary: %v", err)
	}
	exportedDir, err = ExportRunArtifacts(baseDir, runID, outDir)
	if err != nil {
		t.Fatalf("export artifacts with perf summary: %v", err)
	}
	if _, err := os.Stat(filepath.Join(exportedDir, "perf_summary.json")); err != nil {
		t.Fatalf("expected exported perf summary: %v", err)
	}

	top, ok, err := ReadTopIndividuals(baseDir, runID)
	if err != nil || !ok {
		t.Fatalf("read top individuals: ok=%t err=%v", ok, err)
	}
	if len(top) != 1 || top[0].Individual.ID != "i1" {
		t.Fatalf("unexpected top individuals: %+v", top)
	}

	got, ok, err := ReadHistory(baseDir, runID)
	if err != nil || !ok {
		t.Fatalf("read history: ok=%t err=%v", ok, err)
	}
	col, _ := got.Column("Best Fitness")
	if len(col) != 3 || col[2] != 7 {
		t.Fatalf("unexpected history column: %v", col)
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected missing run id error")
	}
}

func TestRunConfigRoundTripAndMismatch(t *testing.T) {
	baseDir := t.TempDir()
	if _, ok, err := ReadRunConfig(baseDir, "missing"); err != nil || ok {
		t.Fatalf("expected missing config; ok=%t err=%v", ok, err)
	}
	if err := WriteRunConfig(baseDir, "run-a", RunConfig{Problem: "onemax"}); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, ok, err := ReadRunConfig(baseDir, "run-a")
	if err != nil || !ok {
		t.Fatalf("read config: ok=%t err=%v", ok, err)
	}
	if cfg.RunID != "run-a" || cfg.Problem != "onemax" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if err := WriteRunConfig(baseDir, "run-a", RunConfig{RunID: "run-b"}); err == nil {
		t.Fatal("expected run id mismatch error")
	}
}

func TestRunIndexAppendListAndUpsert(t *testing.T) {
	baseDir := t.TempDir()

	err := AppendRunIndex(baseDir, RunIndexEntry{
		RunID:            "run-1",
		Problem:          "onemax",
		PopulationSize:   8,
		Generations:      3,
		Seed:             1,
		FinalBestFitness: 0.80,
		CreatedAtUTC:     "2026-02-10T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("append run-1: %v", err)
	}

	err = AppendRunIndex(baseDir, RunIndexEntry{
		RunID:            "run-2",
		Problem:          "onemax",
		PopulationSize:   8,
		Generations:      3,
		Seed:             2,
		FinalBestFitness: 0.82,
		CreatedAtUTC:     "2026-02-10T11:00:00Z",
	})
	if err != nil {
		t.Fatalf("append run-2: %v", err)
	}

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != "run-2" || entries[1].RunID != "run-1" {
		t.Fatalf("unexpected order: %+v", entries)
	}

	err = AppendRunIndex(baseDir, RunIndexEntry{
		RunID:            "run-1",
		Problem:          "onemax",
		FinalBestFitness: 0.90,
		CreatedAtUTC:     "2026-02-10T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("upsert run-1: %v", err)
	}

	entries, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list after upsert: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after upsert, got %d", len(entries))
	}
	if entries[0].RunID != "run-1" || entries[0].FinalBestFitness != 0.90 {
		t.Fatalf("unexpected upsert result: %+v", entries[0])
	}
}

func TestRunIndexEqualTimestampPrefersLaterAppend(t *testing.T) {
	baseDir := t.TempDir()
	ts := "2026-02-10T12:00:00Z"

	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "run-a", CreatedAtUTC: ts}); err != nil {
		t.Fatalf("append run-a: %v", err)
	}
	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "run-b", CreatedAtUTC: ts}); err != nil {
		t.Fatalf("append run-b: %v", err)
	}

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].RunID != "run-b" {
		t.Fatalf("expected latest appended run-b first, got %+v", entries)
	}
}

func TestSummarizeBest(t *testing.T) {
	s := SummarizeBest(PerfSummary{}, []float64{1, 2, 3})
	if s.InitialBest != 1 || s.FinalBest != 3 || s.Improvement != 2 {
		t.Fatalf("unexpected endpoints: %+v", s)
	}
	if s.BestMean != 2 || s.BestStd != 1 || s.BestMax != 3 || s.BestMin != 1 {
		t.Fatalf("unexpected series stats: %+v", s)
	}
}
