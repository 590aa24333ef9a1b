// Package fsops wraps filesystem mutations and triggers a refresh of the
// tree subtree each one affects. The mutations themselves carry no engine
// semantics beyond that.
package fsops

import (
	"fmt"
	"os"
	"path/filepath"
)

// FS performs filesystem mutations and notifies the engine.
type FS struct {
	refresh func(path string)
}

// New creates an FS whose mutations invoke refresh for every affected
// parent directory.
func New(refresh func(path string)) *FS {
	return &FS{refresh: refresh}
}

// CreateFile creates an empty file at path.
func (f *FS) CreateFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	file.Close()
	f.refresh(filepath.Dir(path))
	return nil
}

// Mkdir creates a directory at path.
func (f *FS) Mkdir(path string) error {
	if err := os.Mkdir(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	f.refresh(filepath.Dir(path))
	return nil
}

// Rename moves oldPath to newPath and refreshes both parents.
func (f *FS) Rename(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("rename %s: %w", oldPath, err)
	}
	f.refresh(filepath.Dir(oldPath))
	if filepath.Dir(newPath) != filepath.Dir(oldPath) {
		f.refresh(filepath.Dir(newPath))
	}
	return nil
}

// Remove deletes the entry at path, recursively for directories.
func (f *FS) Remove(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	f.refresh(filepath.Dir(path))
	return nil
}
