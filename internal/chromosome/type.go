package chromosome

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"genera/internal/rng"
)

// Type builds random chromosomes of one kind.
type Type interface {
	Kind() string
	// DefaultSize is used when Random is called with size <= 0. Zero means
	// the type has no default.
	DefaultSize() int
	Random(size int, r rng.Source) (Chromosome, error)
}

// Params configures a Type by name, e.g. from a run config file.
type Params struct {
	Kind   string  `yaml:"kind" json:"kind"`
	Size   int     `yaml:"size,omitempty" json:"size,omitempty"`
	UB     int     `yaml:"ub,omitempty" json:"ub,omitempty"`
	Lo     float64 `yaml:"lo,omitempty" json:"lo,omitempty"`
	Hi     float64 `yaml:"hi,omitempty" json:"hi,omitempty"`
	Sigma  float64 `yaml:"sigma,omitempty" json:"sigma,omitempty"`
	Period float64 `yaml:"period,omitempty" json:"period,omitempty"`
	Rows   int     `yaml:"rows,omitempty" json:"rows,omitempty"`
	Cols   int     `yaml:"cols,omitempty" json:"cols,omitempty"`
}

type Builder func(Params) (Type, error)

var (
	ErrTypeExists   = errors.New("chromosome type already registered")
	ErrTypeNotFound = errors.New("chromosome type not found")
)

var typeRegistry = struct {
	mu sync.RWMutex
	m  map[string]Builder
}{
	m: map[string]Builder{
		KindBinary: func(p Params) (Type, error) { return BinaryType{Size: p.Size}, nil },
		KindNatural: func(p Params) (Type, error) {
			if p.UB <= 0 {
				return nil, fmt.Errorf("%s: ub must be > 0", KindNatural)
			}
			return NaturalType{Size: p.Size, UB: p.UB}, nil
		},
		"digit":         func(p Params) (Type, error) { return DigitType(p.Size), nil },
		KindPermutation: func(p Params) (Type, error) { return PermutationType{Size: p.Size}, nil },
		KindFloat: func(p Params) (Type, error) {
			return FloatType{Size: p.Size, Lo: p.Lo, Hi: p.Hi, Sigma: p.Sigma}, nil
		},
		KindUnitFloat:   func(p Params) (Type, error) { return UnitFloatType{Size: p.Size, Sigma: p.Sigma}, nil },
		KindProbability: func(p Params) (Type, error) { return ProbabilityType{Size: p.Size, Sigma: p.Sigma}, nil },
		KindCircle: func(p Params) (Type, error) {
			if p.Period <= 0 {
				return nil, fmt.Errorf("%s: period must be > 0", KindCircle)
			}
			return CircleType{Size: p.Size, Period: p.Period, Sigma: p.Sigma}, nil
		},
		KindMatrix: func(p Params) (Type, error) {
			return MatrixType{Rows: p.Rows, Cols: p.Cols, Sigma: p.Sigma}, nil
		},
	},
}

// RegisterType adds a named chromosome type builder.
func RegisterType(kind string, b Builder) error {
	if kind == "" {
		return errors.New("chromosome kind is required")
	}
	if b == nil {
		return errors.New("chromosome builder is required")
	}
	typeRegistry.mu.Lock()
	defer typeRegistry.mu.Unlock()
	if _, exists := typeRegistry.m[kind]; exists {
		return fmt.Errorf("%w: %s", ErrTypeExists, kind)
	}
	typeRegistry.m[kind] = b
	return nil
}

// NewType resolves p.Kind and builds the configured type.
func NewType(p Params) (Type, error) {
	typeRegistry.mu.RLock()
	b, ok := typeRegistry.m[p.Kind]
	typeRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, p.Kind)
	}
	return b(p)
}

func ListTypes() []string {
	typeRegistry.mu.RLock()
	defer typeRegistry.mu.RUnlock()
	names := make([]string, 0, len(typeRegistry.m))
	for name := range typeRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
