package flattree

import (
	"fmt"

	"github.com/scto/Orbit-VFMS/internal/metrics"
)

// Collapse contracts the directory at path according to the configured
// collapse mode. Collapsing an already-collapsed node is a no-op.
func (t *Tree) Collapse(path string) error {
	switch t.collapseMode {
	case ModeRecursive:
		return t.collapseRecursive(path)
	case ModeMainRecursive:
		if t.isTopLevel(path) {
			return t.collapseRecursive(path)
		}
		return t.collapseSingle(path)
	default:
		return t.collapseSingle(path)
	}
}

// collapseSingle removes every node whose ancestor chain passes through
// path as one atomic block, clears their expanded state, and emits exactly
// one removal notification for the contiguous block.
func (t *Tree) collapseSingle(path string) error {
	t.mu.Lock()
	idx, ok := t.pos[path]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	node := t.seq[idx]
	if !node.Expanded {
		t.mu.Unlock()
		return nil
	}

	// The sequence is a valid preorder listing, so the descendant set is
	// exactly the run of deeper nodes immediately following the target.
	start := idx + 1
	end := start
	for end < len(t.seq) && t.seq[end].Depth > node.Depth {
		end++
	}

	for i := start; i < end; i++ {
		removed := t.seq[i]
		removed.Expanded = false
		delete(t.pos, removed.Path)
		delete(t.expanded, removed.Path)
	}
	node.Expanded = false
	delete(t.expanded, path)

	count := end - start
	if count > 0 {
		t.seq = append(t.seq[:start], t.seq[end:]...)
		t.renumber(start)
	}
	size := len(t.seq)
	t.mu.Unlock()

	t.stats.Collapses.Add(1)
	if count > 0 {
		metrics.SetTreeSize(size)
		metrics.RecordSplice("remove")
		t.notify(start, count)
	}
	return nil
}

// collapseRecursive folds the expanded descendants of path bottom-up, each
// with its own removal notification, then collapses path itself. This is
// the contraction mirror of recursive expansion: one gesture, many
// notifications.
func (t *Tree) collapseRecursive(path string) error {
	t.mu.RLock()
	idx, ok := t.pos[path]
	if !ok {
		t.mu.RUnlock()
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	node := t.seq[idx]
	if !node.Expanded {
		t.mu.RUnlock()
		return nil
	}

	var targets []string
	for i := idx + 1; i < len(t.seq) && t.seq[i].Depth > node.Depth; i++ {
		if t.seq[i].Expanded {
			targets = append(targets, t.seq[i].Path)
		}
	}
	t.mu.RUnlock()

	// Preorder puts ancestors before descendants; walking the collected
	// list backwards folds the deepest subtrees first.
	for i := len(targets) - 1; i >= 0; i-- {
		if err := t.collapseSingle(targets[i]); err != nil {
			return err
		}
	}
	return t.collapseSingle(path)
}
