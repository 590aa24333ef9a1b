package flattree

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/scto/Orbit-VFMS/internal/logging"
	"github.com/scto/Orbit-VFMS/internal/metrics"
	"github.com/scto/Orbit-VFMS/internal/models"
)

// Expand expands the directory at path according to the configured expand
// mode. Expanding a file, an already-expanded directory, or an empty
// directory leaves the sequence unchanged (the cache lookup still occurs).
// A scan failure leaves the node collapsed and the sequence untouched.
func (t *Tree) Expand(ctx context.Context, path string) error {
	switch t.expandMode {
	case ModeRecursive:
		return t.expandRecursive(ctx, path)
	case ModeMainRecursive:
		if t.isTopLevel(path) {
			return t.expandRecursive(ctx, path)
		}
		return t.expandSingle(ctx, path)
	default:
		return t.expandSingle(ctx, path)
	}
}

// Toggle expands a collapsed directory and collapses an expanded one.
func (t *Tree) Toggle(ctx context.Context, path string) error {
	if t.IsExpanded(path) {
		return t.Collapse(path)
	}
	return t.Expand(ctx, path)
}

func (t *Tree) expandSingle(ctx context.Context, path string) error {
	t.mu.RLock()
	idx, ok := t.pos[path]
	if !ok {
		t.mu.RUnlock()
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	node := t.seq[idx]
	isDir, alreadyExpanded := node.IsDir(), node.Expanded
	t.mu.RUnlock()

	// The cache lookup happens even when the call ends up a no-op.
	children, hit := t.cache.Get(path)
	if hit {
		t.stats.CacheHits.Add(1)
	} else {
		t.stats.CacheMisses.Add(1)
	}

	if !isDir || alreadyExpanded {
		return nil
	}

	if !hit {
		// Scan outside the sequence lock so display reads stay unblocked.
		var err error
		children, err = t.scan(ctx, path)
		if err != nil {
			return err
		}
		t.cache.Put(path, children)
	}

	t.mu.Lock()
	// Re-resolve: a previously queued operation may have moved or removed
	// the node while the scan ran.
	idx, ok = t.pos[path]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	node = t.seq[idx]
	if node.Expanded {
		t.mu.Unlock()
		return nil
	}
	node.Expanded = true
	t.expanded[path] = struct{}{}

	n := len(children)
	if n == 0 {
		t.mu.Unlock()
		t.stats.Expands.Add(1)
		return nil
	}

	nodes := make([]*models.TreeNode, n)
	for i, e := range children {
		nodes[i] = &models.TreeNode{
			Path:   filepath.Join(path, e.Name),
			Name:   e.Name,
			Kind:   e.Kind,
			Parent: path,
			Depth:  node.Depth + 1,
		}
	}

	insert := idx + 1
	t.seq = append(t.seq[:insert], append(nodes, t.seq[insert:]...)...)
	t.renumber(insert)
	size := len(t.seq)
	t.mu.Unlock()

	t.stats.Expands.Add(1)
	metrics.SetTreeSize(size)
	metrics.RecordSplice("insert")
	t.notify(insert, n)
	return nil
}

// expandRecursive expands path, then every descendant directory depth-first.
// Each directory produces its own splice and notification. A subtree whose
// scan fails is skipped and logged; only a failure on the target itself
// aborts the operation.
func (t *Tree) expandRecursive(ctx context.Context, path string) error {
	if err := t.expandSingle(ctx, path); err != nil {
		return err
	}

	for _, dir := range t.directChildDirs(path) {
		if err := t.expandRecursive(ctx, dir); err != nil {
			logging.Warn("recursive expand skipped subtree",
				logging.String("path", dir), logging.Err(err))
		}
	}
	return nil
}

// directChildDirs returns the directory-kind direct children of path, in
// sequence order.
func (t *Tree) directChildDirs(path string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, ok := t.pos[path]
	if !ok {
		return nil
	}
	node := t.seq[idx]

	var dirs []string
	for i := idx + 1; i < len(t.seq) && t.seq[i].Depth > node.Depth; i++ {
		if t.seq[i].Depth == node.Depth+1 && t.seq[i].IsDir() {
			dirs = append(dirs, t.seq[i].Path)
		}
	}
	return dirs
}

// Refresh drops the cached listing for path and, if the directory is
// currently expanded, re-scans it and rebuilds its subtree in place. Used
// after filesystem mutations under path.
func (t *Tree) Refresh(ctx context.Context, path string) error {
	t.cache.Remove(path)

	if !t.IsExpanded(path) {
		return nil
	}
	if err := t.collapseSingle(path); err != nil {
		return err
	}
	return t.expandSingle(ctx, path)
}
