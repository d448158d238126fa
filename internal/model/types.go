package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type ChromosomeRecord struct {
	Kind   string    `json:"kind"`
	Bits   []uint8   `json:"bits,omitempty"`
	Ints   []int     `json:"ints,omitempty"`
	Floats []float64 `json:"floats,omitempty"`
	Rows   int       `json:"rows,omitempty"`
	Cols   int       `json:"cols,omitempty"`
	UB     int       `json:"ub,omitempty"`
	Sigma  float64   `json:"sigma,omitempty"`
	Period float64   `json:"period,omitempty"`
	Lo     float64   `json:"lo,omitempty"`
	Hi     float64   `json:"hi,omitempty"`
}

type MemoryRecord struct {
	Fitness     float64            `json:"fitness"`
	Chromosomes []ChromosomeRecord `json:"chromosomes"`
}

type IndividualRecord struct {
	ID          string             `json:"id"`
	Chromosomes []ChromosomeRecord `json:"chromosomes"`
	Fitness     *float64           `json:"fitness,omitempty"`
	IndepProb   *float64           `json:"indep_prob,omitempty"`
	Fixed       bool               `json:"fixed,omitempty"`
	Age         int                `json:"age,omitempty"`
	HasMemory   bool               `json:"has_memory,omitempty"`
	Memory      *MemoryRecord      `json:"memory,omitempty"`
}

type PopulationParams struct {
	Size         int     `json:"size"`
	MateProb     float64 `json:"mate_prob"`
	MutateProb   float64 `json:"mutate_prob"`
	TournSize    int     `json:"tournsize"`
	NElders      float64 `json:"n_elders"`
	HOFSize      int     `json:"hof_size"`
	Workers      int     `json:"workers"`
	DualProb     float64 `json:"dual_prob"`
	MutateProbLB float64 `json:"mutate_prob_lb"`
	MutateProbUB float64 `json:"mutate_prob_ub"`
	LifeSpan     int     `json:"life_span"`
	Factor       float64 `json:"factor"`
	CrossProb    float64 `json:"cross_prob"`
	LocalSteps   int     `json:"local_steps"`
}

type PopulationRecord struct {
	ID          string             `json:"id"`
	Strategy    string             `json:"strategy"`
	Generation  int                `json:"generation"`
	Params      PopulationParams   `json:"params"`
	Individuals []IndividualRecord `json:"individuals"`
	HallOfFame  []IndividualRecord `json:"hall_of_fame,omitempty"`
}

type SpeciesRecord struct {
	Kind        string             `json:"kind"`
	Generation  int                `json:"generation"`
	MigrateProb float64            `json:"migrate_prob"`
	Partners    int                `json:"partners,omitempty"`
	Populations []PopulationRecord `json:"populations"`
}

// Checkpoint is the persisted object graph of one model. Objectives are not
// serialized; they are resolved again by Problem name on load.
type Checkpoint struct {
	VersionedRecord
	ID           string            `json:"id"`
	RunID        string            `json:"run_id,omitempty"`
	Problem      string            `json:"problem"`
	ProblemSize  int               `json:"problem_size,omitempty"`
	Generation   int               `json:"generation"`
	Seed         int64             `json:"seed"`
	CreatedAtUTC string            `json:"created_at_utc"`
	Population   *PopulationRecord `json:"population,omitempty"`
	Species      *SpeciesRecord    `json:"species,omitempty"`
}

type RunRecord struct {
	VersionedRecord
	RunID            string  `json:"run_id"`
	Problem          string  `json:"problem"`
	Strategy         string  `json:"strategy"`
	PopulationSize   int     `json:"population_size"`
	Islands          int     `json:"islands"`
	Generations      int     `json:"generations"`
	GenerationsRun   int     `json:"generations_run"`
	Seed             int64   `json:"seed"`
	StoppedEarly     bool    `json:"stopped_early"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	BestSolution     string  `json:"best_solution"`
	CheckpointID     string  `json:"checkpoint_id,omitempty"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

type HistoryRecord struct {
	VersionedRecord
	RunID       string      `json:"run_id"`
	Columns     []string    `json:"columns"`
	Generations []int       `json:"generations"`
	Rows        [][]float64 `json:"rows"`
}
