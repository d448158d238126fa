package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"genera/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

// MemoryStore keeps encoded records in maps, so every read returns an
// independent copy and versions are checked as they would be on disk.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	checkpoints map[string][]byte
	runs        map[string][]byte
	history     map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.checkpoints = make(map[string][]byte)
	s.runs = make(map[string][]byte)
	s.history = make(map[string][]byte)
	return nil
}

func (s *MemoryStore) SaveCheckpoint(_ context.Context, cp model.Checkpoint) error {
	payload, err := EncodeCheckpoint(cp)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.checkpoints[cp.ID] = payload
	return nil
}

func (s *MemoryStore) GetCheckpoint(_ context.Context, id string) (model.Checkpoint, bool, error) {
	s.mu.RLock()
	payload, ok := s.checkpoints[id]
	s.mu.RUnlock()

	if !ok {
		return model.Checkpoint{}, false, nil
	}
	cp, err := DecodeCheckpoint(payload)
	if err != nil {
		return model.Checkpoint{}, false, err
	}
	return cp, true, nil
}

// ListCheckpoints returns the checkpoints of runID, or all of them when
// runID is empty, oldest generation first.
func (s *MemoryStore) ListCheckpoints(_ context.Context, runID string) ([]model.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Checkpoint, 0, len(s.checkpoints))
	for _, payload := range s.checkpoints {
		cp, err := DecodeCheckpoint(payload)
		if err != nil {
			return nil, err
		}
		if runID == "" || cp.RunID == runID {
			out = append(out, cp)
		}
	}
	sortCheckpoints(out)
	return out, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.runs[run.RunID] = payload
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	payload, ok := s.runs[runID]
	s.mu.RUnlock()

	if !ok {
		return model.RunRecord{}, false, nil
	}
	run, err := DecodeRun(payload)
	if err != nil {
		return model.RunRecord{}, false, err
	}
	return run, true, nil
}

// ListRuns returns every run, newest first.
func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RunRecord, 0, len(s.runs))
	for _, payload := range s.runs {
		run, err := DecodeRun(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	sortRuns(out)
	return out, nil
}

func (s *MemoryStore) SaveHistory(_ context.Context, history model.HistoryRecord) error {
	payload, err := EncodeHistory(history)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.history[history.RunID] = payload
	return nil
}

func (s *MemoryStore) GetHistory(_ context.Context, runID string) (model.HistoryRecord, bool, error) {
	s.mu.RLock()
	payload, ok := s.history[runID]
	s.mu.RUnlock()

	if !ok {
		return model.HistoryRecord{}, false, nil
	}
	history, err := DecodeHistory(payload)
	if err != nil {
		return model.HistoryRecord{}, false, err
	}
	return history, true, nil
}

func sortRuns(runs []model.RunRecord) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC == runs[j].CreatedAtUTC {
			return runs[i].RunID > runs[j].RunID
		}
		return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
	})
}

func sortCheckpoints(cps []model.Checkpoint) {
	sort.SliceStable(cps, func(i, j int) bool {
		if cps[i].Generation == cps[j].Generation {
			return cps[i].CreatedAtUTC < cps[j].CreatedAtUTC
		}
		return cps[i].Generation < cps[j].Generation
	})
}
