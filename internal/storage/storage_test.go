package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genera/internal/model"
)

func checkpoint(id, runID string, generation int) model.Checkpoint {
	fitness := 3.0
	return model.Checkpoint{
		VersionedRecord: Current(),
		ID:              id,
		RunID:           runID,
		Problem:         "onemax",
		Generation:      generation,
		CreatedAtUTC:    "2026-03-01T10:00:00Z",
		Population: &model.PopulationRecord{
			ID:       "p1",
			Strategy: "standard",
			Individuals: []model.IndividualRecord{{
				ID:          "i1",
				Chromosomes: []model.ChromosomeRecord{{Kind: "binary", Bits: []uint8{1, 1, 1, 0}}},
				Fitness:     &fitness,
			}},
		},
	}
}

func TestNewStoreMemory(t *testing.T) {
	store, err := NewStore("memory", "")
	require.NoError(t, err)
	require.NotNil(t, store)

	_, err = NewStore("unknown", "")
	require.Error(t, err)
}

func TestMemoryStoreCheckpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	require.NoError(t, store.SaveCheckpoint(ctx, checkpoint("c2", "run-1", 10)))
	require.NoError(t, store.SaveCheckpoint(ctx, checkpoint("c1", "run-1", 5)))
	require.NoError(t, store.SaveCheckpoint(ctx, checkpoint("c3", "run-2", 1)))

	got, ok, err := store.GetCheckpoint(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, got.Generation)
	require.NotNil(t, got.Population)
	assert.Equal(t, []uint8{1, 1, 1, 0}, got.Population.Individuals[0].Chromosomes[0].Bits)

	// Reads are independent copies.
	got.Population.Individuals[0].ID = "changed"
	again, _, _ := store.GetCheckpoint(ctx, "c1")
	assert.Equal(t, "i1", again.Population.Individuals[0].ID)

	list, err := store.ListCheckpoints(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c1", list[0].ID)
	assert.Equal(t, "c2", list[1].ID)

	all, err := store.ListCheckpoints(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, ok, err = store.GetCheckpoint(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreRejectsEmptyCheckpoint(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	err := store.SaveCheckpoint(context.Background(), model.Checkpoint{VersionedRecord: Current(), ID: "empty"})
	require.Error(t, err)
}

func TestMemoryStoreRunsAndHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	require.NoError(t, store.SaveRun(ctx, model.RunRecord{VersionedRecord: Current(), RunID: "run-1", CreatedAtUTC: "2026-03-01T10:00:00Z"}))
	require.NoError(t, store.SaveRun(ctx, model.RunRecord{VersionedRecord: Current(), RunID: "run-2", CreatedAtUTC: "2026-03-01T11:00:00Z", FinalBestFitness: 9}))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)

	run, ok, err := store.GetRun(ctx, "run-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9.0, run.FinalBestFitness)

	history := model.HistoryRecord{
		VersionedRecord: Current(),
		RunID:           "run-1",
		Columns:         []string{"Best Fitness"},
		Generations:     []int{0, 1},
		Rows:            [][]float64{{1}, {2}},
	}
	require.NoError(t, store.SaveHistory(ctx, history))
	got, ok, err := store.GetHistory(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, history, got)

	history.Rows = [][]float64{{1, 2}}
	require.Error(t, store.SaveHistory(ctx, history))
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	err := store.SaveRun(context.Background(), model.RunRecord{RunID: "run-1"})
	require.ErrorIs(t, err, errNotInitialized)
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	cp := checkpoint("c1", "run-1", 0)
	cp.SchemaVersion = CurrentSchemaVersion + 1
	blob, err := EncodeCheckpoint(cp)
	require.NoError(t, err)
	_, err = DecodeCheckpoint(blob)
	require.ErrorIs(t, err, ErrVersionMismatch)

	_, err = DecodeRun([]byte(`{"run_id":"r"}`))
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestSaveFileRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "model.ckpt")

	require.NoError(t, SaveFile(path, []byte("first"), false))
	err := SaveFile(path, []byte("second"), false)
	require.ErrorIs(t, err, ErrExists)

	blob, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(blob))

	require.NoError(t, SaveFile(path, []byte("second"), true))
	blob, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(blob))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.ckpt"))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = LoadCheckpointFile(filepath.Join(t.TempDir(), "missing.ckpt"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCheckpointFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ckpt")
	require.NoError(t, SaveCheckpointFile(path, checkpoint("c1", "run-1", 7), false))
	require.ErrorIs(t, SaveCheckpointFile(path, checkpoint("c1", "run-1", 8), false), ErrExists)

	cp, err := LoadCheckpointFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cp.Generation)
	assert.Equal(t, "onemax", cp.Problem)
}
