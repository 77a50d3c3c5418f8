package chunkmap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// DefaultSlot is the slot key the map state is saved under.
const DefaultSlot = "skelspanels_chunkmap"

// Store is a durable key-value slot holding one encoded state document.
// Load returns ErrSlotEmpty when nothing has been saved.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// --- Memory ---

// MemoryStore keeps the document in memory. Tests and hosts without
// durable storage use it.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
	err   error
}

// NewMemoryStore creates a store, optionally pre-filled with data.
func NewMemoryStore(data []byte) *MemoryStore {
	return &MemoryStore{data: data}
}

// Load returns a copy of the stored document.
func (m *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.data == nil {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), m.data...), nil
}

// Save replaces the stored document.
func (m *MemoryStore) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

// Saves returns how many saves have succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Data returns the stored document.
func (m *MemoryStore) Data() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data
}

// SetErr makes every later Load and Save fail with err. nil restores
// normal operation.
func (m *MemoryStore) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// --- File ---

// FileStore keeps the document in a file, one file per slot. Writes go to
// a temporary file that is renamed into place.
type FileStore struct {
	path string
}

// NewFileStore creates a store for the slot file dir/slot.json.
func NewFileStore(dir, slot string) *FileStore {
	if slot == "" {
		slot = DefaultSlot
	}
	return &FileStore{path: filepath.Join(dir, slot+".json")}
}

// Path returns the slot file path.
func (f *FileStore) Path() string { return f.path }

// Load reads the slot file.
func (f *FileStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", f.path, err)
	}
	return data, nil
}

// Save writes the slot file atomically.
func (f *FileStore) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save %s: %w", f.path, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save %s: %w", f.path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", f.path, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", f.path, err)
	}
	return nil
}
