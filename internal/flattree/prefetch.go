package flattree

import (
	"path/filepath"
	"time"

	"github.com/scto/Orbit-VFMS/internal/logging"
	"github.com/scto/Orbit-VFMS/internal/metrics"
	"github.com/scto/Orbit-VFMS/internal/models"
)

// prefetchLoop walks the subtree breadth-first from the root, populating
// the directory cache ahead of user interaction, down to prefetchDepth
// levels. It touches only the cache, the lister, and the sort policy; the
// sequence lock is never taken, so display reads and queued operations are
// unaffected. Unreadable directories are skipped.
func (e *Engine) prefetchLoop() {
	defer e.wg.Done()

	t := e.tree

	type item struct {
		path  string
		depth int
	}
	queue := []item{{path: t.Root(), depth: 0}}
	visited := 0

	for len(queue) > 0 {
		// Yield to foreground operations; prefetch only runs while the
		// queue is idle.
		for len(e.ops) > 0 {
			select {
			case <-e.ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
		if e.ctx.Err() != nil {
			return
		}
		next := queue[0]
		queue = queue[1:]

		children, ok := t.cache.Get(next.path)
		if !ok {
			entries, err := t.lister.ListChildren(e.ctx, next.path)
			if err != nil {
				logging.Debug("prefetch skipped directory",
					logging.String("path", next.path), logging.Err(err))
				continue
			}
			children = t.policy(entries)
			t.cache.Put(next.path, children)
			metrics.RecordPrefetch()
			visited++
		}

		if next.depth+1 > e.prefetchDepth {
			continue
		}
		for _, c := range children {
			if c.Kind == models.KindDirectory {
				queue = append(queue, item{
					path:  filepath.Join(next.path, c.Name),
					depth: next.depth + 1,
				})
			}
		}
	}

	logging.Debug("prefetch complete",
		logging.Int("directories", visited),
		logging.Int("depth", e.prefetchDepth))
}
