package classify

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ModelStore persists training artifacts between runs.
type ModelStore interface {
	// Load returns the saved model, or (nil, nil) when none has been saved
	// yet. Absence is a normal cold-start condition, not an error.
	Load() (*Model, error)
	Save(*Model) error
}

// FileModelStore keeps the model as a single gob blob on disk.
type FileModelStore struct {
	path string
}

func NewFileModelStore(path string) *FileModelStore {
	return &FileModelStore{path: path}
}

func (s *FileModelStore) Load() (*Model, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()

	var m Model
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &m, nil
}

func (s *FileModelStore) Save(m *Model) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	// Write-then-rename so a crash mid-save never leaves a torn model.
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(m); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode model: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace model file: %w", err)
	}
	return nil
}
