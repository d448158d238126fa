// Package config loads run configuration files. Files are YAML; JSON
// documents decode as well.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"genera/internal/chromosome"
	"genera/internal/logging"
	"genera/internal/population"
	"genera/internal/species"
	"genera/internal/stats"
)

const (
	DefaultProblem      = "onemax"
	DefaultGenerations  = 100
	DefaultPopulation   = 50
	DefaultArtifactsDir = "runs"
)

// Species layouts a run can use. An empty layout evolves a single
// population.
const (
	LayoutSingle = ""
	LayoutIsland = species.KindIsland
	LayoutDual   = species.KindDual
)

type PopulationConfig struct {
	Size         int     `yaml:"size"`
	MateProb     float64 `yaml:"mate_prob"`
	MutateProb   float64 `yaml:"mutate_prob"`
	TournSize    int     `yaml:"tournsize"`
	NElders      float64 `yaml:"n_elders"`
	HOFSize      int     `yaml:"hof_size"`
	Workers      int     `yaml:"workers"`
	DualProb     float64 `yaml:"dual_prob"`
	MutateProbLB float64 `yaml:"mutate_prob_lb"`
	MutateProbUB float64 `yaml:"mutate_prob_ub"`
	LifeSpan     int     `yaml:"life_span"`
	Factor       float64 `yaml:"factor"`
	CrossProb    float64 `yaml:"cross_prob"`
	LocalSteps   int     `yaml:"local_steps"`
}

type SpeciesConfig struct {
	Layout      string  `yaml:"layout"`
	Islands     int     `yaml:"islands"`
	MigrateProb float64 `yaml:"migrate_prob"`
	Partners    int     `yaml:"partners"`
}

type StoreConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RunConfig struct {
	RunID       string            `yaml:"run_id"`
	Problem     string            `yaml:"problem"`
	Chromosome  chromosome.Params `yaml:"chromosome"`
	Strategy    string            `yaml:"strategy"`
	Memory      bool              `yaml:"memory"`
	Population  PopulationConfig  `yaml:"population"`
	Species     SpeciesConfig     `yaml:"species"`
	Generations int               `yaml:"generations"`
	Period      int               `yaml:"period"`
	Seed        int64             `yaml:"seed"`
	Stats       []string          `yaml:"stats"`
	FitnessGoal *float64          `yaml:"fitness_goal"`
	Verbose     bool              `yaml:"verbose"`

	Store           StoreConfig `yaml:"store"`
	ArtifactsDir    string      `yaml:"artifacts_dir"`
	Checkpoint      string      `yaml:"checkpoint"`
	Overwrite       bool        `yaml:"overwrite"`
	MetricsTextfile string      `yaml:"metrics_textfile"`
	Log             LogConfig   `yaml:"log"`
}

func Default() RunConfig {
	pop := population.DefaultConfig()
	return RunConfig{
		Problem:  DefaultProblem,
		Strategy: population.StrategyStandard,
		Population: PopulationConfig{
			Size:         DefaultPopulation,
			MateProb:     pop.MateProb,
			MutateProb:   pop.MutateProb,
			TournSize:    pop.TournSize,
			NElders:      pop.NElders,
			HOFSize:      pop.HOFSize,
			Workers:      pop.Workers,
			DualProb:     pop.DualProb,
			MutateProbLB: pop.MutateProbLB,
			MutateProbUB: pop.MutateProbUB,
			LifeSpan:     pop.LifeSpan,
			Factor:       pop.Factor,
			CrossProb:    pop.CrossProb,
			LocalSteps:   pop.LocalSteps,
		},
		Species: SpeciesConfig{
			Islands:     1,
			MigrateProb: species.DefaultMigrateProb,
			Partners:    1,
		},
		Generations:  DefaultGenerations,
		Period:       1,
		Seed:         1,
		ArtifactsDir: DefaultArtifactsDir,
		Log:          LogConfig{Level: "info", Format: logging.FormatText},
	}
}

// Load reads path on top of Default and validates the result.
func Load(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return RunConfig{}, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a document on top of Default. Unknown keys are rejected.
func Parse(data []byte) (RunConfig, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return RunConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

// Encode renders cfg as YAML.
func (c RunConfig) Encode() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c RunConfig) Validate() error {
	switch {
	case c.Problem == "":
		return errors.New("problem is required")
	case c.Population.Size <= 0:
		return errors.New("population size must be > 0")
	case c.Generations < 0:
		return errors.New("generations must be >= 0")
	case c.Period <= 0:
		return errors.New("period must be > 0")
	}
	if _, err := population.ResolveStrategy(c.Strategy); err != nil {
		return err
	}
	if err := c.PopulationConfig().Validate(); err != nil {
		return err
	}
	switch c.Species.Layout {
	case LayoutSingle:
	case LayoutIsland:
		if c.Species.Islands < 1 {
			return errors.New("islands must be >= 1")
		}
	case LayoutDual:
		if c.Population.Size < 2 {
			return errors.New("dual species needs population size >= 2")
		}
	default:
		return fmt.Errorf("unsupported species layout: %s", c.Species.Layout)
	}
	if err := c.SpeciesConfig().Validate(); err != nil {
		return err
	}
	if len(c.Stats) > 0 {
		if _, err := stats.ParseSpec(c.Stats); err != nil {
			return err
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func (c RunConfig) PopulationConfig() population.Config {
	p := c.Population
	return population.Config{
		Size:         p.Size,
		MateProb:     p.MateProb,
		MutateProb:   p.MutateProb,
		TournSize:    p.TournSize,
		NElders:      p.NElders,
		HOFSize:      p.HOFSize,
		Workers:      p.Workers,
		DualProb:     p.DualProb,
		MutateProbLB: p.MutateProbLB,
		MutateProbUB: p.MutateProbUB,
		LifeSpan:     p.LifeSpan,
		Factor:       p.Factor,
		CrossProb:    p.CrossProb,
		LocalSteps:   p.LocalSteps,
	}
}

func (c RunConfig) SpeciesConfig() species.Config {
	return species.Config{MigrateProb: c.Species.MigrateProb, Partners: c.Species.Partners}
}
