package genera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"genera/internal/chromosome"
	"genera/internal/config"
	"genera/internal/evo"
	"genera/internal/metrics"
	"genera/internal/model"
	"genera/internal/population"
	"genera/internal/problem"
	"genera/internal/rng"
	"genera/internal/species"
	"genera/internal/stats"
	"genera/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "genera.db"
	defaultTopLimit     = 10
	defaultRunsLimit    = 20
	checkpointFile      = "checkpoint.json"

	// Fixed width, so timestamps order lexically.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	// Logger defaults to slog.Default. Metrics is optional.
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	// Out receives the verbose progress lines of a run.
	Out io.Writer
}

type Client struct {
	store   storage.Store
	logger  *slog.Logger
	metrics *metrics.Recorder
	out     io.Writer

	artifactsDir string
	exportsDir   string

	mu          sync.Mutex
	initialized bool
}

type RunRequest struct {
	RunID       string
	Problem     string
	Chromosome  chromosome.Params
	Strategy    string
	Population  population.Config
	Layout      string
	Islands     int
	Species     species.Config
	Generations int
	Period      int
	Seed        int64
	Stats       []string
	FitnessGoal *float64
	Verbose     bool
	// Memory gives every individual a memory of its best state, used as its
	// fitness.
	Memory bool

	// Resume continues from the latest checkpoint of a run, ResumeFile from
	// a checkpoint file. Problem, chromosome, population and species
	// settings then come from the checkpoint.
	Resume     string
	ResumeFile string

	CheckpointPath string
	Overwrite      bool
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	CheckpointID     string
	Generations      int
	Stopped          bool
	FinalBestFitness float64
	BestSolution     string
	History          *stats.Table
	Elapsed          time.Duration
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Problem          string
	Strategy         string
	Seed             int64
	Population       int
	Generations      int
	FinalBestFitness float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type TopRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type PerfRequest struct {
	Run     RunRequest
	Repeats int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		logger:       logger,
		metrics:      opts.Metrics,
		out:          out,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Init prepares the store. Every other method calls it on demand.
func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// RunRequestFromConfig maps a loaded run configuration onto a request.
func RunRequestFromConfig(cfg config.RunConfig) RunRequest {
	islands := cfg.Species.Islands
	if cfg.Species.Layout != config.LayoutIsland {
		islands = 0
	}
	return RunRequest{
		RunID:          cfg.RunID,
		Problem:        cfg.Problem,
		Chromosome:     cfg.Chromosome,
		Strategy:       cfg.Strategy,
		Population:     cfg.PopulationConfig(),
		Layout:         cfg.Species.Layout,
		Islands:        islands,
		Species:        cfg.SpeciesConfig(),
		Generations:    cfg.Generations,
		Period:         cfg.Period,
		Seed:           cfg.Seed,
		Stats:          append([]string(nil), cfg.Stats...),
		FitnessGoal:    cfg.FitnessGoal,
		Verbose:        cfg.Verbose,
		Memory:         cfg.Memory,
		CheckpointPath: cfg.Checkpoint,
		Overwrite:      cfg.Overwrite,
	}
}

func withRunDefaults(req RunRequest) RunRequest {
	if req.Problem == "" {
		req.Problem = config.DefaultProblem
	}
	if req.Strategy == "" {
		req.Strategy = population.StrategyStandard
	}
	if req.Population == (population.Config{}) {
		req.Population = population.DefaultConfig()
	}
	if req.Population.Size <= 0 {
		req.Population.Size = config.DefaultPopulation
	}
	if req.Species == (species.Config{}) {
		req.Species = species.DefaultConfig()
	}
	if req.Layout == config.LayoutIsland && req.Islands <= 0 {
		req.Islands = 1
	}
	if req.Generations <= 0 {
		req.Generations = config.DefaultGenerations
	}
	if req.Period <= 0 {
		req.Period = evo.DefaultPeriod
	}
	if req.Seed == 0 {
		req.Seed = 1
	}
	return req
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}
	if req.Resume != "" && req.ResumeFile != "" {
		return RunSummary{}, errors.New("use either resume or resume file")
	}
	req = withRunDefaults(req)

	spec := stats.Default()
	if len(req.Stats) > 0 {
		parsed, err := stats.ParseSpec(req.Stats)
		if err != nil {
			return RunSummary{}, err
		}
		spec = parsed
	}

	r := rng.New(req.Seed)
	var (
		eng  engine
		prob problem.Problem
		size int
		err  error
	)
	if req.Resume != "" || req.ResumeFile != "" {
		cp, err := c.resumeCheckpoint(ctx, req)
		if err != nil {
			return RunSummary{}, err
		}
		eng, prob, size, err = c.restore(cp, r)
		if err != nil {
			return RunSummary{}, err
		}
		req.Problem = prob.Name
		req.Layout = eng.kind
		req.Population = eng.populations[0].Config()
	} else {
		eng, prob, size, err = c.build(req, r)
		if err != nil {
			return RunSummary{}, err
		}
	}

	now := time.Now().UTC()
	runID := req.RunID
	if runID == "" {
		runID = fmt.Sprintf("%s-%d-%s", prob.Name, req.Seed, uuid.NewString()[:8])
	}
	logger := c.logger.With("run_id", runID, "problem", prob.Name)

	opts := evo.Options{
		NIter:   req.Generations,
		Period:  req.Period,
		Verbose: req.Verbose,
		Out:     c.out,
		History: true,
		Stats:   spec,
		Logger:  logger,
	}
	if req.FitnessGoal != nil {
		opts.Control = evo.Goal(*req.FitnessGoal)
	}
	if c.metrics != nil {
		opts.Metrics = c.metrics
	}
	result, err := evo.Evolve(ctx, eng.model, opts)
	if err != nil {
		return RunSummary{}, err
	}

	cp, err := eng.checkpoint(runID, prob.Name, size, req.Seed)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveCheckpoint(ctx, cp); err != nil {
		return RunSummary{}, err
	}
	history := result.History.Record(runID)
	history.VersionedRecord = storage.Current()
	if err := c.store.SaveHistory(ctx, history); err != nil {
		return RunSummary{}, err
	}

	bestSolution := ""
	if best := eng.model.Solution(); best != nil {
		bestSolution = best.String()
	}
	finalBest := eng.model.BestFitness()
	createdAt := now.Format(timestampLayout)
	run := model.RunRecord{
		VersionedRecord:  storage.Current(),
		RunID:            runID,
		Problem:          prob.Name,
		Strategy:         eng.strategy(),
		PopulationSize:   req.Population.Size,
		Islands:          len(eng.populations),
		Generations:      req.Generations,
		GenerationsRun:   result.Generations,
		Seed:             req.Seed,
		StoppedEarly:     result.Stopped,
		FinalBestFitness: finalBest,
		BestSolution:     bestSolution,
		CheckpointID:     cp.ID,
		CreatedAtUTC:     createdAt,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, err
	}

	top, err := topIndividuals(eng.populations, defaultTopLimit)
	if err != nil {
		return RunSummary{}, err
	}
	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config:           runConfig(runID, req, eng, spec),
		History:          result.History,
		FinalBestFitness: finalBest,
		TopIndividuals:   top,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := storage.SaveCheckpointFile(filepath.Join(runDir, checkpointFile), cp, true); err != nil {
		return RunSummary{}, err
	}
	if req.CheckpointPath != "" {
		if err := storage.SaveCheckpointFile(req.CheckpointPath, cp, req.Overwrite); err != nil {
			return RunSummary{}, err
		}
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:            runID,
		Problem:          prob.Name,
		Strategy:         run.Strategy,
		PopulationSize:   req.Population.Size,
		Generations:      result.Generations,
		Seed:             req.Seed,
		Workers:          req.Population.Workers,
		FinalBestFitness: finalBest,
		CreatedAtUTC:     createdAt,
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		CheckpointID:     cp.ID,
		Generations:      result.Generations,
		Stopped:          result.Stopped,
		FinalBestFitness: finalBest,
		BestSolution:     bestSolution,
		History:          result.History,
		Elapsed:          result.Elapsed,
	}, nil
}

func runConfig(runID string, req RunRequest, eng engine, spec stats.Spec) stats.RunConfig {
	return stats.RunConfig{
		RunID:          runID,
		Problem:        req.Problem,
		Strategy:       eng.strategy(),
		Memory:         req.Memory,
		Species:        eng.kind,
		Islands:        len(eng.populations),
		PopulationSize: req.Population.Size,
		Generations:    req.Generations,
		Period:         req.Period,
		Seed:           req.Seed,
		Workers:        req.Population.Workers,
		MateProb:       req.Population.MateProb,
		MutateProb:     req.Population.MutateProb,
		TournSize:      req.Population.TournSize,
		HOFSize:        req.Population.HOFSize,
		MigrateProb:    req.Species.MigrateProb,
		Stats:          spec.Labels(),
		FitnessGoal:    req.FitnessGoal,
	}
}

// Perf repeats a run with seeds Seed, Seed+1, ... and stores the averaged
// history and its summary under the run's artifacts directory.
func (c *Client) Perf(ctx context.Context, req PerfRequest) (stats.PerfSummary, error) {
	if req.Repeats <= 0 {
		return stats.PerfSummary{}, errors.New("repeats must be > 0")
	}
	run := withRunDefaults(req.Run)
	if run.Resume != "" || run.ResumeFile != "" {
		return stats.PerfSummary{}, errors.New("perf runs cannot resume from a checkpoint")
	}
	spec := stats.Default()
	if len(run.Stats) > 0 {
		parsed, err := stats.ParseSpec(run.Stats)
		if err != nil {
			return stats.PerfSummary{}, err
		}
		spec = parsed
	}
	runID := run.RunID
	if runID == "" {
		runID = fmt.Sprintf("perf-%s-%d-%s", run.Problem, run.Seed, uuid.NewString()[:8])
	}

	var last engine
	result, err := evo.Perf(ctx, func(k int) (evo.Model, error) {
		eng, _, _, err := c.build(run, rng.New(run.Seed+int64(k)))
		if err != nil {
			return nil, err
		}
		last = eng
		return eng.model, nil
	}, req.Repeats, evo.Options{
		NIter:  run.Generations,
		Period: run.Period,
		Stats:  spec,
		Logger: c.logger.With("run_id", runID),
	})
	if err != nil {
		return stats.PerfSummary{}, err
	}

	runDir := filepath.Join(c.artifactsDir, runID)
	if err := stats.WriteRunConfig(c.artifactsDir, runID, runConfig(runID, run, last, spec)); err != nil {
		return stats.PerfSummary{}, err
	}
	if err := stats.WriteHistoryCSV(runDir, result.History); err != nil {
		return stats.PerfSummary{}, err
	}
	summary := stats.PerfSummary{
		RunID:         runID,
		Problem:       run.Problem,
		Repeats:       result.Repeats,
		Generations:   run.Generations,
		Seed:          run.Seed,
		MeanElapsedMS: float64(result.MeanElapsed) / float64(time.Millisecond),
	}
	if best, ok := result.History.Column(spec.Labels()[0]); ok {
		summary = stats.SummarizeBest(summary, best)
	}
	if err := stats.WritePerfSummary(runDir, summary); err != nil {
		return stats.PerfSummary{}, err
	}
	return summary, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Problem:          e.Problem,
			Strategy:         e.Strategy,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			Generations:      e.Generations,
			FinalBestFitness: e.FinalBestFitness,
		})
	}
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// History returns the recorded statistics of a run, from the store when it
// has them and from the run's artifacts otherwise.
func (c *Client) History(ctx context.Context, req HistoryRequest) (*stats.Table, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "history")
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	var table *stats.Table
	rec, ok, err := c.store.GetHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		table = stats.FromRecord(rec)
	} else {
		table, ok, err = stats.ReadHistory(c.artifactsDir, runID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("history not found for run id: %s", runID)
		}
	}
	if req.Limit > 0 && table.Len() > req.Limit {
		table = &stats.Table{
			Columns:     table.Columns,
			Generations: table.Generations[:req.Limit],
			Rows:        table.Rows[:req.Limit],
		}
	}
	return table, nil
}

func (c *Client) Top(_ context.Context, req TopRequest) ([]stats.TopIndividual, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "top")
	if err != nil {
		return nil, err
	}
	top, ok, err := stats.ReadTopIndividuals(c.artifactsDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("top individuals not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(top) > req.Limit {
		top = top[:req.Limit]
	}
	return top, nil
}

func (c *Client) resolveRunID(runID string, latest bool, op string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", fmt.Errorf("%s requires run id or latest", op)
	}
	return runID, nil
}
