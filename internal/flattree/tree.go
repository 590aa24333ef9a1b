// Package flattree implements the flattened file-tree engine: an
// on-demand-expanded filesystem subtree represented as one ordered sequence
// of nodes, suitable for virtualized display. Expanding a directory splices
// its sorted children into the sequence immediately after it; collapsing
// removes the descendant block. Consumers observe structural changes through
// a single (startIndex, count) callback.
package flattree

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scto/Orbit-VFMS/internal/dircache"
	"github.com/scto/Orbit-VFMS/internal/fsio"
	"github.com/scto/Orbit-VFMS/internal/logging"
	"github.com/scto/Orbit-VFMS/internal/metrics"
	"github.com/scto/Orbit-VFMS/internal/models"
	"github.com/scto/Orbit-VFMS/internal/sortpolicy"
)

var (
	// ErrNotFound reports an identity that is not present in the sequence.
	ErrNotFound = errors.New("node not present in tree")

	// ErrScanFailed wraps a directory listing failure during expansion. The
	// failed expand leaves the node collapsed and the sequence untouched.
	ErrScanFailed = errors.New("directory scan failed")
)

// UpdateSink consumes range-change notifications. OnRangeChanged is invoked
// once per completed structural mutation of the sequence; count is always
// positive and the count items starting at start must be treated as having
// changed identity or position. No finer diff is provided.
type UpdateSink interface {
	OnRangeChanged(start, count int)
}

// SinkFunc adapts a function to the UpdateSink interface.
type SinkFunc func(start, count int)

// OnRangeChanged calls f.
func (f SinkFunc) OnRangeChanged(start, count int) { f(start, count) }

// Options configures a Tree.
type Options struct {
	// Root is the absolute path the tree is anchored at.
	Root string

	// Lister provides directory listings. Defaults to the OS filesystem.
	Lister fsio.Lister

	// Cache holds previously computed listings. Defaults to a cache with
	// dircache.DefaultCapacity entries.
	Cache *dircache.Cache

	// Policy orders children for display. Defaults to sortpolicy.Default.
	Policy sortpolicy.Policy

	// Sink receives range-change notifications. May be nil.
	Sink UpdateSink

	// Dispatch marshals sink notifications onto the consumer's designated
	// context (a UI loop, typically). Nil delivers synchronously on the
	// mutating goroutine.
	Dispatch func(func())

	// ExpandMode and CollapseMode select the operation reach. The zero
	// values are ModeSingle; the conventional default for collapse is
	// ModeRecursive.
	ExpandMode   Mode
	CollapseMode Mode
}

// Stats holds tree operation counters.
type Stats struct {
	Expands       atomic.Int64
	Collapses     atomic.Int64
	Scans         atomic.Int64
	CacheHits     atomic.Int64
	CacheMisses   atomic.Int64
	Notifications atomic.Int64
}

// Tree owns the flattened sequence, the expanded set, and the splice
// algorithms. Reads and mutations are guarded by one RWMutex so a reader
// never observes a half-applied splice; concurrent mutators must be
// serialized by the caller (Engine runs them on a single goroutine).
type Tree struct {
	root         string
	lister       fsio.Lister
	cache        *dircache.Cache
	policy       sortpolicy.Policy
	sink         UpdateSink
	dispatch     func(func())
	expandMode   Mode
	collapseMode Mode

	mu       sync.RWMutex
	seq      []*models.TreeNode
	pos      map[string]int // identity -> current index in seq
	expanded map[string]struct{}

	stats Stats
}

// New creates a tree anchored at opts.Root and performs the initial single
// expansion of the root so the first level is visible without an explicit
// call. An inaccessible root is logged and tolerated; the tree then holds
// only the root node.
func New(opts Options) *Tree {
	root := opts.Root
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	root = filepath.Clean(root)

	t := &Tree{
		root:         root,
		lister:       opts.Lister,
		cache:        opts.Cache,
		policy:       opts.Policy,
		sink:         opts.Sink,
		dispatch:     opts.Dispatch,
		expandMode:   opts.ExpandMode,
		collapseMode: opts.CollapseMode,
		pos:          make(map[string]int),
		expanded:     make(map[string]struct{}),
	}
	if t.lister == nil {
		t.lister = fsio.OS{}
	}
	if t.policy == nil {
		t.policy = sortpolicy.Default
	}
	if t.cache == nil {
		t.cache, _ = dircache.New(dircache.DefaultCapacity)
	}

	if !t.lister.IsAccessible(root) {
		logging.Warn("root path not accessible, tree starts empty",
			logging.String("root", root))
	}

	rootNode := &models.TreeNode{
		Path:  root,
		Name:  filepath.Base(root),
		Kind:  models.KindDirectory,
		Depth: 0,
	}
	t.seq = []*models.TreeNode{rootNode}
	t.pos[root] = 0

	if err := t.expandSingle(context.Background(), root); err != nil {
		logging.Warn("initial root expansion failed",
			logging.String("root", root), logging.Err(err))
	}
	return t
}

// SetModes selects the expansion and collapse reach. Call before handing
// the tree to concurrent consumers.
func (t *Tree) SetModes(expand, collapse Mode) {
	t.expandMode = expand
	t.collapseMode = collapse
}

// Root returns the canonical root path.
func (t *Tree) Root() string {
	return t.root
}

// Len returns the number of visible nodes.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.seq)
}

// NodeAt returns a copy of the node at index i.
func (t *Tree) NodeAt(i int) (models.TreeNode, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.seq) {
		return models.TreeNode{}, false
	}
	return *t.seq[i], true
}

// Snapshot returns a consistent copy of the visible sequence.
func (t *Tree) Snapshot() []models.TreeNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.TreeNode, len(t.seq))
	for i, n := range t.seq {
		out[i] = *n
	}
	return out
}

// IndexOf returns the current position of the node with the given identity.
func (t *Tree) IndexOf(path string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx, ok := t.pos[path]
	return idx, ok
}

// IsExpanded reports whether the directory at path currently shows its
// children.
func (t *Tree) IsExpanded(path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.expanded[path]
	return ok
}

// ExpandedDirs returns the identities of all currently expanded
// directories, in sequence order.
func (t *Tree) ExpandedDirs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	dirs := make([]string, 0, len(t.expanded))
	for _, n := range t.seq {
		if n.Expanded {
			dirs = append(dirs, n.Path)
		}
	}
	return dirs
}

// ChildRange derives the half-open index range spanning the direct children
// of the expanded directory at path, including any expanded descendants
// lying between them. The range is computed from the current sequence on
// every call; no stored index can go stale. ok is false if the node is
// absent, collapsed, or childless.
func (t *Tree) ChildRange(path string) (start, end int, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, present := t.pos[path]
	if !present {
		return 0, 0, false
	}
	node := t.seq[idx]
	if !node.Expanded {
		return 0, 0, false
	}

	last := -1
	for i := idx + 1; i < len(t.seq) && t.seq[i].Depth > node.Depth; i++ {
		if t.seq[i].Depth == node.Depth+1 {
			last = i
		}
	}
	if last < 0 {
		return 0, 0, false
	}
	return idx + 1, last + 1, true
}

// Stats returns the tree's operation counters.
func (t *Tree) Stats() *Stats {
	return &t.stats
}

// Reset drops every cached directory listing. Visible nodes are untouched;
// the next expansion of any directory re-scans it.
func (t *Tree) Reset() {
	t.cache.Reset()
}

// locked helpers

// renumber rebuilds the identity->index map from position from onward.
// Must be called with the write lock held after every splice.
func (t *Tree) renumber(from int) {
	for i := from; i < len(t.seq); i++ {
		t.pos[t.seq[i].Path] = i
	}
}

func (t *Tree) isTopLevel(path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx, ok := t.pos[path]
	return ok && t.seq[idx].Depth <= 1
}

// notify delivers one range-change to the sink on the configured dispatch
// context.
func (t *Tree) notify(start, count int) {
	t.stats.Notifications.Add(1)
	if t.sink == nil {
		return
	}
	fn := func() { t.sink.OnRangeChanged(start, count) }
	if t.dispatch != nil {
		t.dispatch(fn)
		return
	}
	fn()
}

// scan lists path through the filesystem collaborator and applies the sort
// policy.
func (t *Tree) scan(ctx context.Context, path string) ([]models.Entry, error) {
	start := time.Now()
	entries, err := t.lister.ListChildren(ctx, path)
	metrics.RecordScan(time.Since(start), err)
	t.stats.Scans.Add(1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
	}
	return t.policy(entries), nil
}
