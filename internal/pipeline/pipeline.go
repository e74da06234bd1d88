// Package pipeline wires the walker, metadata workers, and diff engine into
// one run: it owns the two channels between them and the goroutines that
// drive them concurrently. Grounded on
// original_source/src/pipeline/{context,orchestrator}.rs, which spawn the
// walk producer, the metadata worker pool, and the diff consumer against a
// pair of bounded channels and join them at the end of a run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/thicclatka/nefaxer/internal/diffengine"
	"github.com/thicclatka/nefaxer/internal/logging"
	"github.com/thicclatka/nefaxer/internal/metaworker"
	"github.com/thicclatka/nefaxer/internal/walk"
)

// Store is the narrow persistence surface the diff engine writes through.
// internal/store's *DB satisfies this; pipeline never imports internal/store
// directly, keeping the dependency one-directional (store -> pipeline types
// would otherwise cycle through pkg/nefaxer).
type Store interface {
	WriteBatch(entries []diffengine.ResultEntry) error
	DeleteRemoved(removed []string) error
	Checkpoint() error
}

// Callbacks mirrors the Observer interface at the pkg/nefaxer boundary,
// expressed as plain function fields so this package has no dependency on
// pkg/nefaxer (which imports pipeline, not the reverse).
type Callbacks struct {
	OnPathsFound      func(count int)
	OnEntriesReceived func(count int)
	OnBatchWritten    func(count int)
	OnSkipped         func(path, reason string)
}

// Params is everything one orchestrated run needs, already resolved: no
// further drive detection or config-file merging happens inside this
// package.
type Params struct {
	Root        string
	DBPath      string
	TempPath    string
	Exclude     []string
	Strict      bool
	FollowLinks bool
	Parallel    bool
	NumWorkers  int
	ChannelCap  int

	WithHash      bool
	Paranoid      bool
	ListPaths     bool
	WriteToDB     bool
	MtimeWindowNs int64

	Existing diffengine.Index
	Store    Store // required when WriteToDB is set

	Cancelled func() bool

	Callbacks Callbacks
	Log       *logging.Logger
}

// Run drives one full walk -> metadata -> diff pass. It returns once the
// diff engine has drained every entry (or cancellation stopped the stream
// early) and the walker goroutine has exited. A strict walk error is
// returned once both sides have stopped; the diff engine always finishes
// processing whatever already reached its channel, so a strict abort still
// yields a coherent partial CurrentIndex rather than a truncated one.
func Run(ctx context.Context, p Params) (diffengine.Result, error) {
	log := p.Log.Sublogger("pipeline")
	chanCap := p.ChannelCap
	if chanCap < 1 {
		chanCap = 1
	}

	pathCh := make(chan string, chanCap)
	entryCh := make(chan metaworker.Entry, chanCap)

	walkOpts := walk.Options{
		Root:        p.Root,
		DBPath:      p.DBPath,
		TempPath:    p.TempPath,
		Exclude:     p.Exclude,
		Strict:      p.Strict,
		FollowLinks: p.FollowLinks,
		Parallel:    p.Parallel,
		NumWorkers:  p.NumWorkers,
		OnBatch:     p.Callbacks.OnPathsFound,
	}

	walkCtx, stopWalk := context.WithCancel(ctx)
	defer stopWalk()

	var walkCount int
	var walkErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		walkCount, walkErr = walk.Run(walkCtx, walkOpts, pathCh, func(path, reason string) {
			if p.Callbacks.OnSkipped != nil {
				p.Callbacks.OnSkipped(path, reason)
			}
		})
	}()

	metaworker.Run(pathCh, entryCh, p.Root, p.NumWorkers)

	diffParams := diffengine.Params{
		Existing:      p.Existing,
		Root:          p.Root,
		MtimeWindowNs: p.MtimeWindowNs,
		WithHash:      p.WithHash,
		Paranoid:      p.Paranoid,
		ListPaths:     p.ListPaths,
		WriteToDB:     p.WriteToDB,
		OnReceived:    p.Callbacks.OnEntriesReceived,
		OnBatchWritten: func(count int) {
			if p.Callbacks.OnBatchWritten != nil {
				p.Callbacks.OnBatchWritten(count)
			}
		},
		Cancelled: p.Cancelled,
	}
	if p.WriteToDB {
		if p.Store == nil {
			wg.Wait()
			return diffengine.Result{}, fmt.Errorf("pipeline: WriteToDB set without a Store")
		}
		diffParams.WriteBatch = p.Store.WriteBatch
		diffParams.DeleteRemoved = p.Store.DeleteRemoved
		diffParams.Checkpoint = p.Store.Checkpoint
	}

	result, diffErr := diffengine.Run(ctx, entryCh, diffParams)
	// The diff engine can leave its receive loop before the stream ends
	// (cancellation, a write error). Stop the walker and drain what the
	// workers still hold so neither blocks on a channel nobody reads.
	stopWalk()
	for range entryCh {
	}
	wg.Wait()

	log.Debugf("walked %d paths, diff added=%d modified=%d removed=%d written=%d",
		walkCount, len(result.Diff.Added), len(result.Diff.Modified), len(result.Diff.Removed), result.Written)

	if diffErr != nil {
		return result, fmt.Errorf("diff engine: %w", diffErr)
	}
	if p.Strict && walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		return result, fmt.Errorf("walk: %w", walkErr)
	}
	return result, nil
}
