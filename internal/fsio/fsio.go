// Package fsio is the engine's filesystem collaborator: directory listing
// and accessibility checks over the platform filesystem.
package fsio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scto/Orbit-VFMS/internal/models"
)

// Lister provides the two primitives the tree engine needs from a
// filesystem. Implementations must be safe for concurrent use.
type Lister interface {
	// ListChildren returns the unqualified, unordered children of path.
	ListChildren(ctx context.Context, path string) ([]models.Entry, error)

	// IsAccessible reports whether path exists and can be listed.
	IsAccessible(path string) bool
}

// OS lists directories through the operating system.
type OS struct{}

var _ Lister = OS{}

// ListChildren reads the directory at path. Symlinks that resolve to
// directories are normalized to directory-kind; everything else, including
// broken symlinks and special files, normalizes to file-kind.
func (OS) ListChildren(ctx context.Context, path string) ([]models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirents, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}

	entries := make([]models.Entry, 0, len(dirents))
	for _, d := range dirents {
		kind := models.KindFile
		if d.IsDir() {
			kind = models.KindDirectory
		} else if d.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(path, d.Name())); err == nil && info.IsDir() {
				kind = models.KindDirectory
			}
		}
		entries = append(entries, models.Entry{Name: d.Name(), Kind: kind})
	}
	return entries, nil
}

// IsAccessible reports whether path is a directory that can be opened.
func (OS) IsAccessible(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
