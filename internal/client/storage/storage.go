// Package storage is the client's local durable key/value storage.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	KeyUser              = "rightguard_user"
	KeySelectedState     = "rightguard_selected_state"
	KeyLanguage          = "rightguard_language"
	KeyEmergencyContacts = "rightguard_emergency_contacts"
	KeySession           = "rightguard_session"
)

// Storage holds string values by key. Get reports ok=false for absent keys.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// FileStorage keeps every key in one JSON file, rewritten atomically on each
// change.
type FileStorage struct {
	path string
	mu   sync.Mutex
	data map[string]string
}

func Open(path string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	fs := &FileStorage{path: path, data: map[string]string{}}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fs, nil
	case err != nil:
		return nil, err
	}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &fs.data); err != nil {
			return nil, fmt.Errorf("corrupt state file %s: %w", path, err)
		}
	}
	return fs, nil
}

func (f *FileStorage) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.data[key]
	f.data[key] = value
	if err := f.flush(); err != nil {
		f.restore(key, prev, had)
		return err
	}
	return nil
}

func (f *FileStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, ok := f.data[key]
	if !ok {
		return nil
	}
	delete(f.data, key)
	if err := f.flush(); err != nil {
		f.restore(key, prev, true)
		return err
	}
	return nil
}

// restore undoes an in-memory change whose flush failed, so memory keeps
// matching the file.
func (f *FileStorage) restore(key, prev string, had bool) {
	if had {
		f.data[key] = prev
	} else {
		delete(f.data, key)
	}
}

func (f *FileStorage) flush() error {
	b, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	// readers see either the old file or the new one
	return os.Rename(tmp, f.path)
}

// MemoryStorage is a Storage for tests. Fail makes every write return it.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]string
	Fail error
}

func NewMemory() *MemoryStorage {
	return &MemoryStorage{data: map[string]string{}}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.data[key] = value
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	delete(m.data, key)
	return nil
}
