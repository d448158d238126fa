package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"genera/internal/model"
)

const runIndexFile = "run_index.json"

const (
	configFile  = "config.json"
	historyJSON = "history.json"
	historyCSV  = "history.csv"
	topFile     = "top_individuals.json"
	perfFile    = "perf_summary.json"
)

type RunConfig struct {
	RunID          string   `json:"run_id"`
	Problem        string   `json:"problem"`
	Strategy       string   `json:"strategy"`
	Memory         bool     `json:"memory,omitempty"`
	Species        string   `json:"species,omitempty"`
	Islands        int      `json:"islands,omitempty"`
	PopulationSize int      `json:"population_size"`
	Generations    int      `json:"generations"`
	Period         int      `json:"period"`
	Seed           int64    `json:"seed"`
	Workers        int      `json:"workers"`
	MateProb       float64  `json:"mate_prob"`
	MutateProb     float64  `json:"mutate_prob"`
	TournSize      int      `json:"tournsize"`
	HOFSize        int      `json:"hof_size,omitempty"`
	MigrateProb    float64  `json:"migrate_prob,omitempty"`
	Stats          []string `json:"stats,omitempty"`
	FitnessGoal    *float64 `json:"fitness_goal,omitempty"`
}

type TopIndividual struct {
	Rank       int                    `json:"rank"`
	Fitness    float64                `json:"fitness"`
	Solution   string                 `json:"solution"`
	Individual model.IndividualRecord `json:"individual"`
}

type RunArtifacts struct {
	Config           RunConfig       `json:"config"`
	History          *Table          `json:"history,omitempty"`
	FinalBestFitness float64         `json:"final_best_fitness"`
	TopIndividuals   []TopIndividual `json:"top_individuals"`
}

// PerfSummary condenses the averaged best-fitness series of repeated runs.
type PerfSummary struct {
	RunID         string  `json:"run_id"`
	Problem       string  `json:"problem"`
	Repeats       int     `json:"repeats"`
	Generations   int     `json:"generations"`
	Seed          int64   `json:"seed"`
	MeanElapsedMS float64 `json:"mean_elapsed_ms"`
	InitialBest   float64 `json:"initial_best"`
	FinalBest     float64 `json:"final_best"`
	BestMean      float64 `json:"best_mean"`
	BestStd       float64 `json:"best_std"`
	BestMax       float64 `json:"best_max"`
	BestMin       float64 `json:"best_min"`
	Improvement   float64 `json:"improvement"`
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	Problem          string  `json:"problem"`
	Strategy         string  `json:"strategy"`
	PopulationSize   int     `json:"population_size"`
	Generations      int     `json:"generations"`
	Seed             int64   `json:"seed"`
	Workers          int     `json:"workers"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

// SummarizeBest fills the series statistics of a perf summary from a
// best-fitness column.
func SummarizeBest(summary PerfSummary, best []float64) PerfSummary {
	if len(best) == 0 {
		return summary
	}
	summary.InitialBest = best[0]
	summary.FinalBest = best[len(best)-1]
	summary.BestMean, summary.BestStd = stat.MeanStdDev(best, nil)
	summary.BestMax = floats.Max(best)
	summary.BestMin = floats.Min(best)
	summary.Improvement = summary.FinalBest - summary.InitialBest
	return summary
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, topFile), artifacts.TopIndividuals); err != nil {
		return "", err
	}
	if artifacts.History != nil {
		if err := writeJSON(filepath.Join(runDir, historyJSON), map[string]any{"history": artifacts.History, "final_best_fitness": artifacts.FinalBestFitness}); err != nil {
			return "", err
		}
		if err := WriteHistoryCSV(runDir, artifacts.History); err != nil {
			return "", err
		}
	}

	return runDir, nil
}

func WriteHistoryCSV(runDir string, table *Table) error {
	file, err := os.Create(filepath.Join(runDir, historyCSV))
	if err != nil {
		return err
	}
	defer file.Close()
	return table.WriteCSV(file)
}

func ReadHistory(baseDir, runID string) (*Table, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, historyCSV))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()
	table, err := ReadCSV(file)
	if err != nil {
		return nil, false, err
	}
	return table, true, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the index newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Later appended entries first on equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{configFile, topFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	for _, file := range []string{historyJSON, historyCSV, perfFile} {
		path := filepath.Join(src, file)
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, filepath.Join(dst, file)); err != nil {
				return "", err
			}
		} else if !os.IsNotExist(err) {
			return "", err
		}
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, configFile), &cfg)
	return cfg, ok, err
}

func WriteRunConfig(baseDir, runID string, cfg RunConfig) error {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.TrimSpace(cfg.RunID) == "" {
		cfg.RunID = runID
	}
	if cfg.RunID != runID {
		return fmt.Errorf("run config run id mismatch: got=%s want=%s", cfg.RunID, runID)
	}
	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	return writeJSON(filepath.Join(runDir, configFile), cfg)
}

func ReadTopIndividuals(baseDir, runID string) ([]TopIndividual, bool, error) {
	var top []TopIndividual
	ok, err := readJSON(filepath.Join(baseDir, runID, topFile), &top)
	return top, ok, err
}

func WritePerfSummary(runDir string, summary PerfSummary) error {
	return writeJSON(filepath.Join(runDir, perfFile), summary)
}

func ReadPerfSummary(baseDir, runID string) (PerfSummary, bool, error) {
	var summary PerfSummary
	ok, err := readJSON(filepath.Join(baseDir, runID, perfFile), &summary)
	return summary, ok, err
}

func readJSON(path string, value any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
