// Package diffengine is the streaming consumer at the end of the
// pipeline: it receives metadata-only entries, lazily fills in content
// hashes (reusing a stored hash when nothing relevant has changed),
// classifies each path as added/modified/unchanged, optionally writes
// batches to the store, and produces the final removed-path list once the
// stream closes (spec §4.H). Grounded on
// original_source/src/engine/db_ops/indexer.rs's apply_index_diff_streaming
// and src/check.rs's collect_entry_into_diff/diff_from_stream.
package diffengine

import (
	"context"
	"path/filepath"
	"time"

	"github.com/thicclatka/nefaxer/internal/hashengine"
	"github.com/thicclatka/nefaxer/internal/metaworker"
)

// StoredMeta is the previously-indexed metadata for one path, as loaded
// from the store.
type StoredMeta struct {
	MtimeNs int64
	Size    uint64
	Hash    []byte // nil, or exactly hashengine.DigestSize bytes
}

// Index is a prior snapshot: relative path -> StoredMeta.
type Index map[string]StoredMeta

// ResultEntry is the record this package emits for a path once its hash
// (if any) has been resolved: either reused from Index or freshly
// computed.
type ResultEntry struct {
	Path    string
	MtimeNs int64
	Size    uint64
	Hash    []byte
}

// Diff is the classification result: three disjoint path lists.
type Diff struct {
	Added    []string
	Removed  []string
	Modified []string
}

// batchSize is the DB transaction batch size, mirroring
// original_source's DB_INSERT_BATCH_SIZE.
const batchSize = 1000

// recvPollInterval is how often the receive loop checks for cancellation
// when a CancelFunc is supplied (spec §5).
const recvPollInterval = 200 * time.Millisecond

// Params configures a Run call.
type Params struct {
	Existing      Index
	Root          string
	MtimeWindowNs int64
	WithHash      bool
	Paranoid      bool
	ListPaths     bool
	WriteToDB     bool

	// WriteBatch persists a batch of entries that need an update (new or
	// changed); it is called only when WriteToDB is set. Required when
	// WriteToDB is set.
	WriteBatch func([]ResultEntry) error
	// DeleteRemoved deletes every path in Existing that was not seen in this
	// run's stream. Called once, after the stream closes, only when
	// WriteToDB is set.
	DeleteRemoved func(removed []string) error
	// Checkpoint runs a WAL checkpoint after all writes complete. Called
	// only when WriteToDB is set.
	Checkpoint func() error

	// OnReceived is called every batchSize entries received (progress).
	OnReceived func(count int)
	// OnBatchWritten is called after each WriteBatch call commits.
	OnBatchWritten func(count int)

	// Cancelled, when non-nil, is polled on recvPollInterval; once it
	// returns true the receive loop stops, flushes whatever batch it has,
	// and returns a partial result.
	Cancelled func() bool
}

// Result is what Run returns: the classification, the resolved current
// index (path -> StoredMeta, ready to become the next run's Existing), and
// the number of entries written to the store.
type Result struct {
	Diff         Diff
	CurrentIndex Index
	Written      int
}

// Run drains entryCh, classifying and (optionally) persisting each entry,
// until the channel closes or ctx is cancelled. It always returns
// CurrentIndex; Diff.Added/Modified/Removed are populated only when
// params.ListPaths is set (mirroring the original's diff-optional
// streaming, which skips list bookkeeping entirely for plain index runs).
func Run(ctx context.Context, entryCh <-chan metaworker.Entry, params Params) (Result, error) {
	current := make(Index)
	seen := make(map[string]struct{})
	var diff Diff
	var batch []ResultEntry
	written := 0
	received := 0

	ticker := newCancelTicker(params.Cancelled)
	defer ticker.stop()

loop:
	for {
		select {
		case entry, ok := <-entryCh:
			if !ok {
				break loop
			}
			received++
			if params.OnReceived != nil && received%batchSize == 0 {
				params.OnReceived(batchSize)
			}

			resolved := resolveHash(entry, params)
			seen[resolved.Path] = struct{}{}
			current[resolved.Path] = StoredMeta{
				MtimeNs: resolved.MtimeNs,
				Size:    resolved.Size,
				Hash:    resolved.Hash,
			}

			needsUpdate := classify(resolved, params, &diff)
			if needsUpdate && params.WriteToDB {
				batch = append(batch, resolved)
				if len(batch) >= batchSize {
					n, err := flush(params, batch)
					if err != nil {
						return Result{}, err
					}
					written += n
					batch = batch[:0]
				}
			}

		case <-ticker.c:
			if params.Cancelled != nil && params.Cancelled() {
				break loop
			}

		case <-ctx.Done():
			break loop
		}
	}

	if remainder := received % batchSize; remainder > 0 && params.OnReceived != nil {
		params.OnReceived(remainder)
	}

	if len(batch) > 0 && params.WriteToDB {
		n, err := flush(params, batch)
		if err != nil {
			return Result{}, err
		}
		written += n
	}

	removed := removedPaths(params.Existing, seen)
	if params.WriteToDB && params.DeleteRemoved != nil {
		if err := params.DeleteRemoved(removed); err != nil {
			return Result{}, err
		}
	}
	if params.ListPaths {
		diff.Removed = removed
	}

	if params.WriteToDB && params.Checkpoint != nil {
		if err := params.Checkpoint(); err != nil {
			return Result{}, err
		}
	}

	return Result{Diff: diff, CurrentIndex: current, Written: written}, nil
}

// resolveHash fills in entry's content hash: reused from the existing
// index when mtime/size are unchanged and a valid stored hash is present,
// freshly computed otherwise. Matches apply_index_diff_streaming's
// reuse_hash branch.
func resolveHash(entry metaworker.Entry, params Params) ResultEntry {
	result := ResultEntry{Path: entry.Path, MtimeNs: entry.MtimeNs, Size: entry.Size}

	if !params.WithHash || !entry.IsFile || !hashengine.ShouldHash(entry.Size) {
		return result
	}

	old, hadOld := params.Existing[entry.Path]
	reuse := hadOld &&
		!mtimeChanged(entry.MtimeNs, old.MtimeNs, params.MtimeWindowNs) &&
		entry.Size == old.Size &&
		len(old.Hash) == hashengine.DigestSize

	if reuse {
		result.Hash = old.Hash
		return result
	}

	abs := joinPath(params.Root, entry.Path)
	if h, err := hashengine.Hash(abs, entry.Size); err == nil {
		result.Hash = h
	}
	return result
}

// classify decides whether resolved needs a store update and, when
// params.ListPaths is set, appends its path to diff.Added or
// diff.Modified. It mirrors collect_entry_into_diff, including the
// paranoid re-hash guard: when every visible field is unchanged except
// that the freshly-computed hash happens to equal the stored one while
// mtime/size differ, paranoid mode re-hashes from disk to confirm before
// calling it "modified" rather than accepting the same-hash coincidence.
func classify(resolved ResultEntry, params Params, diff *Diff) bool {
	old, hadOld := params.Existing[resolved.Path]
	if !hadOld {
		if params.ListPaths {
			diff.Added = append(diff.Added, resolved.Path)
		}
		return true
	}

	same := !mtimeChanged(resolved.MtimeNs, old.MtimeNs, params.MtimeWindowNs) &&
		resolved.Size == old.Size &&
		hashengine.Equal(resolved.Hash, old.Hash)
	if same {
		return false
	}

	modified := true
	if params.Paranoid && len(resolved.Hash) == hashengine.DigestSize &&
		len(old.Hash) == hashengine.DigestSize && hashengine.Equal(resolved.Hash, old.Hash) {
		abs := joinPath(params.Root, resolved.Path)
		if rehashed, err := hashengine.Hash(abs, resolved.Size); err == nil {
			modified = !hashengine.Equal(rehashed, old.Hash)
		}
	}

	if modified && params.ListPaths {
		diff.Modified = append(diff.Modified, resolved.Path)
	}
	return modified
}

func mtimeChanged(newMtime, oldMtime, toleranceNs int64) bool {
	diff := newMtime - oldMtime
	if diff < 0 {
		diff = -diff
	}
	return diff > toleranceNs
}

func removedPaths(existing Index, seen map[string]struct{}) []string {
	var removed []string
	for path := range existing {
		if _, ok := seen[path]; !ok {
			removed = append(removed, path)
		}
	}
	return removed
}

func flush(params Params, batch []ResultEntry) (int, error) {
	if err := params.WriteBatch(batch); err != nil {
		return 0, err
	}
	if params.OnBatchWritten != nil {
		params.OnBatchWritten(len(batch))
	}
	return len(batch), nil
}

func joinPath(root, relPath string) string {
	if root == "" {
		return filepath.FromSlash(relPath)
	}
	return filepath.Join(root, filepath.FromSlash(relPath))
}

// cancelTicker wraps a time.Ticker that only actually ticks when a
// Cancelled poll function is configured, so Run's select does not spin
// when cancellation support is unused.
type cancelTicker struct {
	c    <-chan time.Time
	stop func()
}

func newCancelTicker(cancelled func() bool) cancelTicker {
	if cancelled == nil {
		return cancelTicker{c: nil, stop: func() {}}
	}
	t := time.NewTicker(recvPollInterval)
	return cancelTicker{c: t.C, stop: t.Stop}
}
