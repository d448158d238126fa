package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"genera/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Current is the version stamp written on every new record.
func Current() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeCheckpoint(cp model.Checkpoint) ([]byte, error) {
	if cp.Population == nil && cp.Species == nil {
		return nil, fmt.Errorf("checkpoint %s holds neither a population nor a species", cp.ID)
	}
	return json.Marshal(cp)
}

func DecodeCheckpoint(data []byte) (model.Checkpoint, error) {
	var cp model.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return model.Checkpoint{}, err
	}
	if err := checkVersion(cp.VersionedRecord); err != nil {
		return model.Checkpoint{}, err
	}
	return cp, nil
}

func EncodeRun(run model.RunRecord) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeHistory(history model.HistoryRecord) ([]byte, error) {
	for i, row := range history.Rows {
		if len(row) != len(history.Columns) {
			return nil, fmt.Errorf("history row %d has %d values for %d columns", i, len(row), len(history.Columns))
		}
	}
	return json.Marshal(history)
}

func DecodeHistory(data []byte) (model.HistoryRecord, error) {
	var history model.HistoryRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return model.HistoryRecord{}, err
	}
	if err := checkVersion(history.VersionedRecord); err != nil {
		return model.HistoryRecord{}, err
	}
	return history, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
