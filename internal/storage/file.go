package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"genera/internal/model"
)

var (
	ErrExists   = errors.New("checkpoint already exists")
	ErrNotFound = errors.New("checkpoint not found")
)

// SaveFile writes blob to path. It refuses to replace an existing file
// unless overwrite is set. The write goes through a temporary file in the
// same directory, so a failed save never leaves a truncated checkpoint.
func SaveFile(path string, blob []byte, overwrite bool) error {
	if path == "" {
		return errors.New("checkpoint path is required")
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		} else if !os.IsNotExist(err) {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func LoadFile(path string) ([]byte, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return blob, nil
}

func SaveCheckpointFile(path string, cp model.Checkpoint, overwrite bool) error {
	blob, err := EncodeCheckpoint(cp)
	if err != nil {
		return err
	}
	return SaveFile(path, blob, overwrite)
}

func LoadCheckpointFile(path string) (model.Checkpoint, error) {
	blob, err := LoadFile(path)
	if err != nil {
		return model.Checkpoint{}, err
	}
	cp, err := DecodeCheckpoint(blob)
	if err != nil {
		return model.Checkpoint{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return cp, nil
}
