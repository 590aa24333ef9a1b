package flattree

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/scto/Orbit-VFMS/internal/metrics"
	"github.com/scto/Orbit-VFMS/internal/models"
)

// ErrClosed is returned for operations submitted after the engine stopped.
var ErrClosed = errors.New("engine closed")

// EngineOptions configures an Engine.
type EngineOptions struct {
	Options

	// PrefetchDepth is how many levels below the root the background
	// scanner populates into the directory cache. 0 disables prefetching.
	PrefetchDepth int

	// QueueSize bounds the pending-operation queue. Defaults to 64.
	QueueSize int
}

type engineOp struct {
	name string
	run  func(context.Context) error
	res  chan error
}

// Engine runs expand, collapse, and refresh off the caller's goroutine,
// serialized on a single worker so concurrent gestures never interleave
// their splices. Reads go straight to the tree and never block on
// operations in flight. Closing the engine cancels the background task
// group; queued operations are abandoned without partial splices.
type Engine struct {
	tree          *Tree
	prefetchDepth int

	ops    chan engineOp
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates the engine and its tree. The tree's initial root
// expansion happens here; call Start to begin serving operations.
func NewEngine(opts EngineOptions) *Engine {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		tree:          New(opts.Options),
		prefetchDepth: opts.PrefetchDepth,
		ops:           make(chan engineOp, opts.QueueSize),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start launches the operation worker and, if configured, the background
// prefetch scanner.
func (e *Engine) Start() {
	e.wg.Add(1)
	go e.worker()

	if e.prefetchDepth > 0 {
		e.wg.Add(1)
		go e.prefetchLoop()
	}
}

// Close cancels the background task group and waits for it to exit.
// Operations still queued are answered with ErrClosed and never applied.
func (e *Engine) Close() {
	e.cancel()
	e.wg.Wait()
	e.drain()
}

func (e *Engine) worker() {
	defer e.wg.Done()
	for {
		select {
		case op := <-e.ops:
			start := time.Now()
			op.res <- op.run(e.ctx)
			metrics.ObserveOp(op.name, time.Since(start))
		case <-e.ctx.Done():
			return
		}
	}
}

func (e *Engine) drain() {
	for {
		select {
		case op := <-e.ops:
			op.res <- ErrClosed
		default:
			return
		}
	}
}

func (e *Engine) submit(name string, run func(context.Context) error) <-chan error {
	res := make(chan error, 1)
	if e.ctx.Err() != nil {
		res <- ErrClosed
		return res
	}
	select {
	case e.ops <- engineOp{name: name, run: run, res: res}:
	case <-e.ctx.Done():
		res <- ErrClosed
	}
	return res
}

// Expand schedules an expansion of path. The returned channel yields the
// operation's result once it has completed (or been abandoned).
func (e *Engine) Expand(path string) <-chan error {
	return e.submit("expand", func(ctx context.Context) error {
		return e.tree.Expand(ctx, path)
	})
}

// Collapse schedules a collapse of path.
func (e *Engine) Collapse(path string) <-chan error {
	return e.submit("collapse", func(context.Context) error {
		return e.tree.Collapse(path)
	})
}

// Toggle schedules an expand or collapse of path depending on its state.
func (e *Engine) Toggle(path string) <-chan error {
	return e.submit("toggle", func(ctx context.Context) error {
		return e.tree.Toggle(ctx, path)
	})
}

// Refresh schedules a re-scan of path after a filesystem mutation.
func (e *Engine) Refresh(path string) <-chan error {
	return e.submit("refresh", func(ctx context.Context) error {
		return e.tree.Refresh(ctx, path)
	})
}

// ExpandWait runs Expand and blocks for the result.
func (e *Engine) ExpandWait(path string) error { return <-e.Expand(path) }

// CollapseWait runs Collapse and blocks for the result.
func (e *Engine) CollapseWait(path string) error { return <-e.Collapse(path) }

// ToggleWait runs Toggle and blocks for the result.
func (e *Engine) ToggleWait(path string) error { return <-e.Toggle(path) }

// RefreshWait runs Refresh and blocks for the result.
func (e *Engine) RefreshWait(path string) error { return <-e.Refresh(path) }

// Read surface; these consult the tree directly and never queue.

// Tree returns the underlying tree.
func (e *Engine) Tree() *Tree { return e.tree }

// Len returns the number of visible nodes.
func (e *Engine) Len() int { return e.tree.Len() }

// NodeAt returns a copy of the node at index i.
func (e *Engine) NodeAt(i int) (models.TreeNode, bool) { return e.tree.NodeAt(i) }

// Snapshot returns a consistent copy of the visible sequence.
func (e *Engine) Snapshot() []models.TreeNode { return e.tree.Snapshot() }

// IndexOf returns the current position of path.
func (e *Engine) IndexOf(path string) (int, bool) { return e.tree.IndexOf(path) }

// IsExpanded reports whether path currently shows its children.
func (e *Engine) IsExpanded(path string) bool { return e.tree.IsExpanded(path) }

// ExpandedDirs returns all currently expanded directory identities.
func (e *Engine) ExpandedDirs() []string { return e.tree.ExpandedDirs() }

// ChildRange derives the index range of path's direct children.
func (e *Engine) ChildRange(path string) (int, int, bool) { return e.tree.ChildRange(path) }

// Stats returns the tree's operation counters.
func (e *Engine) Stats() *Stats { return e.tree.Stats() }

// Reset drops every cached directory listing. Visible nodes are untouched.
func (e *Engine) Reset() { e.tree.Reset() }
