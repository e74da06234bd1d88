// Package walk traverses a directory tree and feeds included paths into a
// channel for downstream metadata workers (spec §4.E). Two strategies are
// offered: a serial depth-first walk (grounded on walkdir's traversal
// order, via the standard library's filepath.WalkDir) and a concurrent
// work-stealing walk (grounded on jwalk's parallel directory traversal,
// reimplemented here as a bounded goroutine pool over a directory queue).
// Both are grounded on original_source/src/pipeline/walk.rs's common
// run_walk_loop: the strategies differ only in how filesystem entries are
// produced, not in how errors, exclusion, and counting are handled.
package walk

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thicclatka/nefaxer/internal/filter"
)

// SkippedFunc is called once per non-strict walk error, with the path (or
// a synthetic placeholder when none is available) and a human-readable
// reason.
type SkippedFunc func(path, reason string)

// Options configures a walk.
type Options struct {
	Root        string
	DBPath      string
	TempPath    string
	Exclude     []string
	Strict      bool
	FollowLinks bool
	Parallel    bool
	NumWorkers  int
	// OnBatch is called as included paths are discovered, with the size of
	// each newly-discovered batch (not a running total). May be nil.
	OnBatch func(count int)
}

// perDirectoryBusyTimeout bounds how long the parallel walker waits on a
// single directory read before treating it as an error, mirroring jwalk's
// RayonDefaultPool busy_timeout.
const perDirectoryBusyTimeout = 60 * time.Second

// Run walks opts.Root, sending every included path to pathCh and invoking
// onSkipped for every non-strict error. It closes pathCh before returning.
// The returned count is the number of paths sent; err is non-nil only when
// opts.Strict is set and a walk error occurred.
func Run(ctx context.Context, opts Options, pathCh chan<- string, onSkipped SkippedFunc) (int, error) {
	defer close(pathCh)

	if opts.Parallel {
		return runParallel(ctx, opts, pathCh, onSkipped)
	}
	return runSerial(ctx, opts, pathCh, onSkipped)
}

func (o *Options) include(path string) bool {
	return filter.Include(path, o.Root, o.DBPath, o.TempPath, o.Exclude)
}

func runSerial(ctx context.Context, opts Options, pathCh chan<- string, onSkipped SkippedFunc) (int, error) {
	count := 0
	lastPath := opts.Root

	walkFn := func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			if opts.Strict {
				return fmt.Errorf("walk error at %s: %w", path, err)
			}
			report(onSkipped, path, lastPath, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		lastPath = path
		if path == opts.Root {
			return nil
		}

		if opts.FollowLinks && d.Type()&fs.ModeSymlink != 0 {
			resolved, derr := os.Stat(path)
			if derr == nil && resolved.IsDir() {
				return walkSymlinkedDir(path, opts, pathCh, &count, onSkipped, &lastPath)
			}
		}

		if !opts.include(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if sendPath(ctx, pathCh, path) {
			count++
			if opts.OnBatch != nil {
				opts.OnBatch(1)
			}
		}
		return nil
	}

	err := filepath.WalkDir(opts.Root, walkFn)
	if opts.Strict && err != nil {
		return count, err
	}
	return count, nil
}

// walkSymlinkedDir recurses into a directory reached through a symbolic
// link, since filepath.WalkDir never follows symlinks itself. The walk
// starts at root with a trailing separator so the link itself resolves to
// its target directory.
func walkSymlinkedDir(root string, opts Options, pathCh chan<- string, count *int, onSkipped SkippedFunc, lastPath *string) error {
	return filepath.WalkDir(root+string(filepath.Separator), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if opts.Strict {
				return err
			}
			report(onSkipped, path, *lastPath, err)
			return nil
		}
		*lastPath = path
		if !opts.include(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if sendPath(context.Background(), pathCh, path) {
			*count++
			if opts.OnBatch != nil {
				opts.OnBatch(1)
			}
		}
		return nil
	})
}

// runParallel walks with a bounded pool of goroutines consuming a queue of
// directories, each goroutine reading one directory's entries, sending
// every included entry onward and also pushing included subdirectories
// back onto the queue. This approximates jwalk's work-stealing parallel iterator.
func runParallel(ctx context.Context, opts Options, pathCh chan<- string, onSkipped SkippedFunc) (int, error) {
	workers := opts.NumWorkers
	if workers < 1 {
		workers = 1
	}

	dirQueue := make(chan string, 4096)
	var pending sync.WaitGroup
	var count atomic.Int64
	var mu sync.Mutex
	var firstErr error
	lastPath := opts.Root

	dirQueue <- opts.Root
	pending.Add(1)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for dir := range dirQueue {
				processDirectory(ctx, dir, opts, pathCh, dirQueue, &pending, &count, onSkipped, &mu, &firstErr, &lastPath)
				pending.Done()
			}
		}()
	}

	go func() {
		pending.Wait()
		close(dirQueue)
	}()
	wg.Wait()

	mu.Lock()
	err := firstErr
	mu.Unlock()

	if opts.Strict && err != nil {
		return int(count.Load()), err
	}
	return int(count.Load()), nil
}

func processDirectory(
	ctx context.Context,
	dir string,
	opts Options,
	pathCh chan<- string,
	dirQueue chan string,
	pending *sync.WaitGroup,
	count *atomic.Int64,
	onSkipped SkippedFunc,
	mu *sync.Mutex,
	firstErr *error,
	lastPath *string,
) {
	done := make(chan struct{})
	var entries []os.DirEntry
	var err error

	go func() {
		entries, err = os.ReadDir(dir)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(perDirectoryBusyTimeout):
		err = fmt.Errorf("timed out reading directory after %s", perDirectoryBusyTimeout)
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		mu.Lock()
		*lastPath = dir
		mu.Unlock()
		if opts.Strict {
			mu.Lock()
			if *firstErr == nil {
				*firstErr = err
			}
			mu.Unlock()
			return
		}
		report(onSkipped, dir, dir, err)
		return
	}

	batch := 0
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		isDir := entry.IsDir()
		if opts.FollowLinks && entry.Type()&fs.ModeSymlink != 0 {
			if resolved, rerr := os.Stat(path); rerr == nil && resolved.IsDir() {
				isDir = true
			}
		}

		if !opts.include(path) {
			continue
		}

		if isDir {
			if sendPath(ctx, pathCh, path) {
				count.Add(1)
				batch++
			}
			pending.Add(1)
			select {
			case dirQueue <- path:
			case <-ctx.Done():
				pending.Done()
				return
			}
			continue
		}

		if sendPath(ctx, pathCh, path) {
			count.Add(1)
			batch++
		}
	}
	if batch > 0 && opts.OnBatch != nil {
		opts.OnBatch(batch)
	}
}

func sendPath(ctx context.Context, pathCh chan<- string, path string) bool {
	select {
	case pathCh <- path:
		return true
	case <-ctx.Done():
		return false
	}
}

func report(onSkipped SkippedFunc, path, lastPath string, err error) {
	if onSkipped == nil {
		return
	}
	if path == "" {
		path = fmt.Sprintf("<no-path, last was %s>", lastPath)
	}
	onSkipped(path, err.Error())
}
