package storage

import (
	"context"

	"genera/internal/model"
)

// Store persists checkpoints, run summaries and history tables.
type Store interface {
	Init(ctx context.Context) error
	SaveCheckpoint(ctx context.Context, cp model.Checkpoint) error
	GetCheckpoint(ctx context.Context, id string) (model.Checkpoint, bool, error)
	ListCheckpoints(ctx context.Context, runID string) ([]model.Checkpoint, error)
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, runID string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveHistory(ctx context.Context, history model.HistoryRecord) error
	GetHistory(ctx context.Context, runID string) (model.HistoryRecord, bool, error)
}
