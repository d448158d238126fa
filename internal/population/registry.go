package population

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrStrategyExists   = errors.New("strategy already registered")
	ErrStrategyNotFound = errors.New("strategy not found")
)

var strategyRegistry = struct {
	mu sync.RWMutex
	m  map[string]Strategy
}{
	m: map[string]Strategy{
		StrategyPlain:        Plain{},
		StrategyStandard:     Standard{},
		StrategyHallOfFame:   HallOfFame{},
		StrategyDifferential: DifferentialEvolution{},
		StrategyDual:         Dual{},
		StrategyModified:     Modified{},
		StrategyAge:          Age{},
		StrategyLocalSearch:  LocalSearch{},
	},
}

// RegisterStrategy makes s resolvable by its name.
func RegisterStrategy(s Strategy) error {
	if s == nil {
		return errors.New("strategy is required")
	}
	if s.Name() == "" {
		return errors.New("strategy name is required")
	}
	strategyRegistry.mu.Lock()
	defer strategyRegistry.mu.Unlock()
	if _, exists := strategyRegistry.m[s.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrStrategyExists, s.Name())
	}
	strategyRegistry.m[s.Name()] = s
	return nil
}

func ResolveStrategy(name string) (Strategy, error) {
	strategyRegistry.mu.RLock()
	s, ok := strategyRegistry.m[name]
	strategyRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, name)
	}
	return s, nil
}

func ListStrategies() []string {
	strategyRegistry.mu.RLock()
	defer strategyRegistry.mu.RUnlock()
	names := make([]string, 0, len(strategyRegistry.m))
	for name := range strategyRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
