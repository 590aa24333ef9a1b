// Orbit CLI - flattened file-tree engine front end
//
// Browses a filesystem subtree as a lazily-materialized flat list backed by
// the tree engine, with a bounded directory cache and background prefetch.
//
// Sub-commands:
//
//	orbit browse [flags]   Interactive browser (default)
//	orbit tree [flags]     Expand recursively and print once
//	orbit version          Print version
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/scto/Orbit-VFMS/internal/config"
	"github.com/scto/Orbit-VFMS/internal/dircache"
	"github.com/scto/Orbit-VFMS/internal/events"
	"github.com/scto/Orbit-VFMS/internal/flattree"
	"github.com/scto/Orbit-VFMS/internal/fsops"
	"github.com/scto/Orbit-VFMS/internal/logging"
	"github.com/scto/Orbit-VFMS/internal/metrics"
	"github.com/scto/Orbit-VFMS/internal/models"
	"github.com/scto/Orbit-VFMS/internal/watcher"
)

const version = "0.3.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("orbit %s\n", version)
			return
		case "tree":
			cmdTree(os.Args[2:])
			return
		case "browse":
			// Strip "browse" from args and fall through to normal parsing
			os.Args = append(os.Args[:1], os.Args[2:]...)
		}
	}

	cmdBrowse()
}

func cmdBrowse() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	root := flag.String("root", cfg.RootPath, "Root directory to browse (required)")
	capacity := flag.Int("cache-capacity", cfg.CacheCapacity, "Directory cache capacity")
	expandMode := flag.String("expand-mode", cfg.ExpandMode, "Expansion mode: single, recursive, main-recursive")
	collapseMode := flag.String("collapse-mode", cfg.CollapseMode, "Collapse mode: single, recursive, main-recursive")
	prefetchDepth := flag.Int("prefetch", cfg.PrefetchDepth, "Prefetch depth (0 disables)")
	watchInterval := flag.Duration("watch", cfg.WatchInterval, "Change poll interval (0 disables)")
	metricsAddr := flag.String("metrics", cfg.MetricsAddr, "Prometheus listen address (empty disables)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", cfg.LogFormat, "Log format: json, console")

	flag.Parse()

	if err := logging.Init(logging.Config{Level: *logLevel, Format: *logFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: logging init: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if *root == "" {
		fmt.Fprintf(os.Stderr, "Error: -root is required (or set ORBIT_ROOT)\n")
		flag.Usage()
		os.Exit(1)
	}

	eMode, err := flattree.ParseMode(*expandMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cMode, err := flattree.ParseMode(*collapseMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cache, err := dircache.New(*capacity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	broadcaster := events.NewBroadcaster()

	engine := flattree.NewEngine(flattree.EngineOptions{
		Options: flattree.Options{
			Root:         *root,
			Cache:        cache,
			Sink:         broadcaster,
			ExpandMode:   eMode,
			CollapseMode: cMode,
		},
		PrefetchDepth: *prefetchDepth,
	})
	engine.Start()
	defer engine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	if *watchInterval > 0 {
		w := watcher.New(*watchInterval, engine.ExpandedDirs, func(path string) {
			engine.Refresh(path)
		})
		w.Start(ctx)
		defer w.Stop()
		logging.Info("change watch enabled", logging.Duration("interval", *watchInterval))
	}

	// Log range changes as they fan out; a real view would re-bind rows here.
	changes := broadcaster.Subscribe()
	defer broadcaster.Unsubscribe(changes)
	go func() {
		for ev := range changes {
			logging.Debug("range changed",
				logging.Int("start", ev.Start), logging.Int("count", ev.Count))
		}
	}()

	mutator := fsops.New(func(path string) { engine.Refresh(path) })

	logging.Info("browsing", logging.String("root", *root),
		logging.String("expand", eMode.String()), logging.String("collapse", cMode.String()))

	repl(engine, mutator)
}

func cmdTree(args []string) {
	fs := flag.NewFlagSet("tree", flag.ExitOnError)
	root := fs.String("root", os.Getenv("ORBIT_ROOT"), "Root directory (required)")
	logLevel := fs.String("log-level", "error", "Log level")
	fs.Parse(args)

	if err := logging.Init(logging.Config{Level: *logLevel, Format: "console"}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: logging init: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if *root == "" {
		fmt.Fprintf(os.Stderr, "Error: -root is required (or set ORBIT_ROOT)\n")
		os.Exit(1)
	}

	engine := flattree.NewEngine(flattree.EngineOptions{
		Options: flattree.Options{
			Root:         *root,
			ExpandMode:   flattree.ModeRecursive,
			CollapseMode: flattree.ModeRecursive,
		},
	})
	engine.Start()
	defer engine.Close()

	if err := engine.ExpandWait(engine.Tree().Root()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printSequence(engine.Snapshot())
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	logging.Info("metrics server listening", logging.String("addr", addr))
	if err := http.ListenAndServe(addr, logging.Middleware(mux)); err != nil {
		logging.Error("metrics server error", logging.Err(err))
	}
}

func repl(engine *flattree.Engine, mutator *fsops.FS) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Commands: ls, expand <n>, collapse <n>, toggle <n>, refresh <n>,")
	fmt.Println("          mkdir <path>, touch <path>, rm <n>, stats, quit")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmd := fields[0]
		switch cmd {
		case "quit", "q", "exit":
			return
		case "ls":
			printSequence(engine.Snapshot())
		case "stats":
			printStats(engine)
		case "expand", "collapse", "toggle", "refresh", "rm":
			if len(fields) < 2 {
				fmt.Printf("usage: %s <index>\n", cmd)
				continue
			}
			node, ok := nodeAtArg(engine, fields[1])
			if !ok {
				continue
			}
			var err error
			switch cmd {
			case "expand":
				err = engine.ExpandWait(node.Path)
			case "collapse":
				err = engine.CollapseWait(node.Path)
			case "toggle":
				err = engine.ToggleWait(node.Path)
			case "refresh":
				err = engine.RefreshWait(node.Path)
			case "rm":
				err = mutator.Remove(node.Path)
			}
			if err != nil {
				fmt.Printf("error: %v\n", err)
			}
		case "mkdir", "touch":
			if len(fields) < 2 {
				fmt.Printf("usage: %s <path>\n", cmd)
				continue
			}
			var err error
			if cmd == "mkdir" {
				err = mutator.Mkdir(fields[1])
			} else {
				err = mutator.CreateFile(fields[1])
			}
			if err != nil {
				fmt.Printf("error: %v\n", err)
			}
		default:
			fmt.Printf("unknown command: %s\n", cmd)
		}
	}
}

func nodeAtArg(engine *flattree.Engine, arg string) (models.TreeNode, bool) {
	idx, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Printf("not an index: %s\n", arg)
		return models.TreeNode{}, false
	}
	node, ok := engine.NodeAt(idx)
	if !ok {
		fmt.Printf("index out of range: %d (0..%d)\n", idx, engine.Len()-1)
		return models.TreeNode{}, false
	}
	return node, true
}

func printSequence(nodes []models.TreeNode) {
	for i, n := range nodes {
		marker := " "
		if n.IsDir() {
			if n.Expanded {
				marker = "-"
			} else {
				marker = "+"
			}
		}
		fmt.Printf("%4d  %s%s %s\n", i, strings.Repeat("  ", n.Depth), marker, n.Name)
	}
}

func printStats(engine *flattree.Engine) {
	s := engine.Stats()
	fmt.Printf("Visible nodes:  %d\n", engine.Len())
	fmt.Printf("Expands:        %d\n", s.Expands.Load())
	fmt.Printf("Collapses:      %d\n", s.Collapses.Load())
	fmt.Printf("Scans:          %d\n", s.Scans.Load())
	fmt.Printf("Cache hits:     %d\n", s.CacheHits.Load())
	fmt.Printf("Cache misses:   %d\n", s.CacheMisses.Load())
	fmt.Printf("Notifications:  %d\n", s.Notifications.Load())
}
