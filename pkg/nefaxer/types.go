// Package nefaxer is a high-throughput directory indexer: it captures a
// snapshot of a filesystem subtree (path -> metadata) in an embedded
// relational store and performs content-aware diffs between walks.
package nefaxer

import (
	"fmt"
	"strings"

	"github.com/thicclatka/nefaxer/internal/drive"
)

// Entry is an in-flight record produced by a metadata worker: a relative
// path, its modification time, its size, and (for files that qualify) a
// content digest. Directories always carry size 0 and no digest.
type Entry struct {
	Path    string
	MtimeNs int64
	Size    uint64
	Hash    []byte // nil, or exactly 32 bytes
}

// PathMeta is the metadata stored for one path in a Nefax snapshot: the
// same fields as Entry, minus the path itself (which is the map key).
type PathMeta struct {
	MtimeNs int64
	Size    uint64
	Hash    []byte // nil, or exactly 32 bytes
}

// Nefax is a snapshot: relative path -> PathMeta. Paths are relative to the
// indexed root and use forward-slash separators in persisted form.
type Nefax map[string]PathMeta

// Diff is the result of comparing a walk against a prior Nefax: three
// disjoint ordered sequences of relative paths.
type Diff struct {
	Added    []string
	Removed  []string
	Modified []string
}

// Plausible mtime_ns bounds: rejects corruption sentinels (huge negative or
// positive overflow values) without being so tight that legitimate old
// files are rejected. Mirrors original_source/src/types.rs.
const (
	mtimeNsMin = -1_000_000_000_000_000_000 // ~year 1938
	mtimeNsMax = 4_611_686_018_427_387_903   // ~year 2116
	sizeMax    = 1_000_000_000_000_000_000   // 1 exabyte
)

// Validate enforces the §3 invariants on a Nefax before it is used as the
// "existing" snapshot for a subsequent run: paths must be relative and
// non-empty, digests (when present) must be exactly 32 bytes, and mtime/size
// must fall within plausible ranges.
func Validate(n Nefax) error {
	for path, meta := range n {
		if path == "" {
			return fmt.Errorf("nefax contains empty path key")
		}
		if strings.HasPrefix(path, "/") || hasWindowsDrivePrefix(path) {
			return fmt.Errorf("nefax contains absolute path (must be relative to indexed root): %s", path)
		}
		if strings.Contains(path, "\\") {
			return fmt.Errorf("nefax contains backslash-separated path: %s", path)
		}
		if meta.MtimeNs < mtimeNsMin || meta.MtimeNs > mtimeNsMax {
			return fmt.Errorf("nefax invalid mtime_ns for path %s: %d (expected %d..=%d)", path, meta.MtimeNs, mtimeNsMin, mtimeNsMax)
		}
		if meta.Size > sizeMax {
			return fmt.Errorf("nefax invalid size for path %s: %d (max %d)", path, meta.Size, sizeMax)
		}
		if meta.Hash != nil && len(meta.Hash) != 32 {
			return fmt.Errorf("nefax invalid hash length for path %s: %d (expected 32)", path, len(meta.Hash))
		}
	}
	return nil
}

func hasWindowsDrivePrefix(path string) bool {
	return len(path) >= 2 && path[1] == ':' && ((path[0] >= 'a' && path[0] <= 'z') || (path[0] >= 'A' && path[0] <= 'Z'))
}

// Opts configures a Run. The zero value is usable but hashes nothing and
// uses a zero mtime window (any nanosecond difference counts as a change).
type Opts struct {
	// DBPath overrides the index database location. When empty, Run uses
	// root joined with the default index file name (".nefaxer").
	DBPath string
	// NumThreads overrides the worker thread count. When zero, it is
	// derived from drive type and the FD soft limit (§4.D).
	NumThreads int
	// DriveType, when non-zero together with a non-zero NumThreads, skips
	// drive detection entirely (a caller that already ran TuningForPath can
	// feed its result back in). Set without NumThreads, it is replaced by
	// the detected drive type.
	DriveType drive.Type
	// UseParallelWalk, when non-nil, selects the work-stealing parallel
	// walker (true) or the depth-first serial one (false), overriding the
	// tuned choice. Nil leaves the choice to drive tuning.
	UseParallelWalk *bool
	// WithHash enables content hashing for files at or above the
	// small-file threshold (§4.B).
	WithHash bool
	// FollowLinks makes the walker follow symbolic links.
	FollowLinks bool
	// Exclude is a list of glob patterns (supporting * and ?; see
	// internal/filter) matched against both file name and full path.
	Exclude []string
	// Verbose enables debug-level log lines from the run. Observer
	// callbacks are invoked whether or not it is set.
	Verbose bool
	// MtimeWindowNs is the tolerance, in nanoseconds, within which two
	// modification times are considered equal. Zero means exact equality.
	MtimeWindowNs int64
	// Strict aborts the run on the first walk error instead of recording
	// it in the skipped ledger. A path whose metadata cannot be read is
	// dropped without a skipped-ledger record, in strict mode as well.
	Strict bool
	// Paranoid re-hashes a file on the fly when its stored hash already
	// equals its freshly-computed hash but mtime/size differ, treating a
	// same-hash collision as "unchanged" rather than "modified".
	Paranoid bool
	// Encrypt requests page-level encryption for a newly created index.
	Encrypt bool
	// AllowRootOwned bypasses the refusal to index a directory owned by
	// UID 0 (§4.I step 1, Unix only; a no-op elsewhere).
	AllowRootOwned bool
	// ListPaths requests a populated Diff (added/removed/modified); when
	// false, Run still computes the classification but does not retain
	// path lists beyond what the store needs for deletion.
	ListPaths bool
	// WriteToDB writes the computed diff to the index database. When
	// false, Run behaves like a dry-run / compare-only check.
	WriteToDB bool
	// WriterPoolSize is accepted but not read by Run: every value,
	// including values > 1, writes through the single streaming writer.
	// Entries are not partitioned across writer connections.
	WriterPoolSize int
	// Observer receives progress and skipped-path callbacks. Nil is valid
	// and means "no observation" (matches internal/logging.Logger's
	// nil-safety).
	Observer Observer
	// Cancel, when non-nil, is polled by the diff engine (200ms interval)
	// to support cooperative cancellation with partial-flush semantics.
	Cancel *CancelSignal
}

// Observer is the out-of-scope collaborator interface: the caller's
// logging/progress layer. All methods must tolerate being called from
// multiple goroutines (walker, workers, diff engine).
type Observer interface {
	// OnPathsFound is called as the walker discovers included paths, in
	// batches (count is the size of this batch, not a running total).
	OnPathsFound(count int)
	// OnEntriesReceived is called by the diff engine every 1000 entries
	// received from the metadata workers.
	OnEntriesReceived(count int)
	// OnBatchWritten is called after each database batch commits.
	OnBatchWritten(count int)
	// OnSkipped is called once per non-strict walk error. Metadata read
	// failures in the workers are not reported through it.
	OnSkipped(path string, reason string)
}
