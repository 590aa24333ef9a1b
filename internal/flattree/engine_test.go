package flattree

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/scto/Orbit-VFMS/internal/dircache"
)

func newTestEngine(t *testing.T, opts EngineOptions) (*Engine, *fakeLister, *dircache.Cache) {
	t.Helper()
	lister := newFakeLister(fixture())
	cache, err := dircache.New(16)
	if err != nil {
		t.Fatalf("dircache.New: %v", err)
	}
	opts.Root = "/r"
	opts.Lister = lister
	opts.Cache = cache

	engine := NewEngine(opts)
	engine.Start()
	t.Cleanup(engine.Close)
	return engine, lister, cache
}

func TestEngineServesOperations(t *testing.T) {
	engine, _, _ := newTestEngine(t, EngineOptions{})

	if err := engine.ExpandWait("/r/A"); err != nil {
		t.Fatalf("ExpandWait: %v", err)
	}
	if !engine.IsExpanded("/r/A") {
		t.Error("node not expanded after ExpandWait returned")
	}
	start, end, ok := engine.ChildRange("/r/A")
	if !ok || end-start != 2 {
		t.Errorf("ChildRange = %d,%d,%v, want a two-item range", start, end, ok)
	}

	if err := engine.ToggleWait("/r/A"); err != nil {
		t.Fatalf("ToggleWait: %v", err)
	}
	if engine.IsExpanded("/r/A") {
		t.Error("toggle of an expanded node should collapse it")
	}
}

func TestEngineReportsOperationErrors(t *testing.T) {
	engine, lister, _ := newTestEngine(t, EngineOptions{})
	lister.setFail("/r/A", true)

	err := engine.ExpandWait("/r/A")
	if !errors.Is(err, ErrScanFailed) {
		t.Errorf("err = %v, want ErrScanFailed", err)
	}
	if err := engine.ExpandWait("/r/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// Concurrent gestures from many goroutines must never corrupt the sequence:
// the worker serializes them, so the preorder invariants hold at the end no
// matter how the operations interleaved at submission.
func TestEngineSerializesConcurrentGestures(t *testing.T) {
	engine, _, _ := newTestEngine(t, EngineOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				engine.ToggleWait("/r/A")
				engine.ToggleWait("/r/b")
				engine.RefreshWait("/r/A")
			}
		}()
	}
	wg.Wait()

	assertPreorder(t, engine.Tree())

	// Whatever the final expanded state, the root's children are intact.
	if _, ok := engine.IndexOf("/r/A"); !ok {
		t.Error("top-level node lost")
	}
	if _, ok := engine.IndexOf("/r/z.txt"); !ok {
		t.Error("top-level node lost")
	}
}

func TestEngineCloseRejectsSubmissions(t *testing.T) {
	engine, _, _ := newTestEngine(t, EngineOptions{})
	engine.Close()

	if err := engine.ExpandWait("/r/A"); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	if engine.IsExpanded("/r/A") {
		t.Error("operation applied after Close")
	}

	// Reads still work against the final sequence.
	if engine.Len() != 4 {
		t.Errorf("Len = %d, want 4", engine.Len())
	}
}

func TestEnginePrefetchWarmsCache(t *testing.T) {
	engine, lister, cache := newTestEngine(t, EngineOptions{PrefetchDepth: 2})

	deadline := time.Now().Add(2 * time.Second)
	for !cache.Contains("/r/A") || !cache.Contains("/r/A/sub") {
		if time.Now().After(deadline) {
			t.Fatal("prefetch did not populate the cache in time")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Expansion of a prefetched directory is served from the cache.
	scans := lister.scanCount("/r/A")
	if err := engine.ExpandWait("/r/A"); err != nil {
		t.Fatalf("ExpandWait: %v", err)
	}
	if got := lister.scanCount("/r/A"); got != scans {
		t.Errorf("expand re-scanned a prefetched directory (%d -> %d)", scans, got)
	}
}

func TestEngineNodeAtMatchesSnapshot(t *testing.T) {
	engine, _, _ := newTestEngine(t, EngineOptions{})

	snap := engine.Snapshot()
	for i := range snap {
		node, ok := engine.NodeAt(i)
		if !ok || node.Path != snap[i].Path {
			t.Errorf("NodeAt(%d) = %+v, want %s", i, node, snap[i].Path)
		}
	}
	if _, ok := engine.NodeAt(len(snap)); ok {
		t.Error("NodeAt past the end should report false")
	}
	if _, ok := engine.NodeAt(-1); ok {
		t.Error("NodeAt(-1) should report false")
	}
}
