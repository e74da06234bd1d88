package nefaxer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/thicclatka/nefaxer/internal/config"
	"github.com/thicclatka/nefaxer/internal/diffengine"
	"github.com/thicclatka/nefaxer/internal/drive"
	"github.com/thicclatka/nefaxer/internal/governor"
	"github.com/thicclatka/nefaxer/internal/logging"
	"github.com/thicclatka/nefaxer/internal/pipeline"
	"github.com/thicclatka/nefaxer/internal/rootguard"
)

// DefaultDBFileName is the index database's default name, created as a
// hidden file directly under the indexed root. Grounded on
// original_source/src/utils/config.rs's PackagePaths::output_filename.
const DefaultDBFileName = ".nefaxer"

// ProbeDirName is the scratch directory internal/drive's network probe
// creates and removes under the indexed root.
const ProbeDirName = ".nefaxer_probe"

// ResultsFileName is where a run's changed-path list overflows to when it
// exceeds ListOverflowThreshold entries (spec §6, original_source's
// LIST_THRESHOLD).
const ResultsFileName = "nefaxer.results"

// ListOverflowThreshold is the changed-path count above which --list output
// should be written to ResultsFileName instead of printed directly; this
// package only exposes the constant, the CLI applies it.
const ListOverflowThreshold = 100

// Store is the persistence surface Run writes through. *internal/store.DB
// satisfies it; callers construct their own store and pass it in, keeping
// this package ignorant of which SQLite driver is in play.
type Store interface {
	LoadIndex() (diffengine.Index, error)
	WriteBatch(entries []diffengine.ResultEntry) error
	DeleteRemoved(removed []string) error
	Checkpoint() error
	SaveDiskInfo(rootPath string, info *drive.Info) error
	LoadDiskInfo(rootPath string) (*drive.Info, error)
	CountPaths() (int, error)
}

// TuningForPath runs the same drive-classification and thread-budgeting
// decision Run uses internally, exposed so a caller (for example a
// long-lived service amortizing the detection cost across many runs
// against the same root) can inspect it without running a full index pass.
func TuningForPath(path string, numThreadsOverride int, cache drive.Cache) (numThreads int, driveType drive.Type, parallelWalk bool, err error) {
	tuning, err := governor.Tune(path, runtime.NumCPU(), numThreadsOverride, 0, cache)
	if err != nil {
		return 0, drive.Unknown, false, err
	}
	return tuning.NumThreads, tuning.DriveType, tuning.UseParallelWalk, nil
}

// Run indexes opts' root (mutating a fresh snapshot if existing is nil),
// diffing against existing and optionally persisting the result through
// store. It applies file-config overrides from dir/.nefaxer.toml before
// opts (opts wins over the file wherever it sets a field: a non-empty
// DBPath, a true flag, a non-zero MtimeWindowNs; matching the original's
// apply_file_to_opts-then-CLI precedence), checks the root-owned-directory
// guard, resolves tuning (unless opts pins both DriveType and NumThreads),
// and drives internal/pipeline end to end.
func Run(ctx context.Context, root string, opts Opts, existing Nefax, store Store) (Nefax, Diff, error) {
	if existing != nil {
		if err := Validate(existing); err != nil {
			return nil, Diff{}, fmt.Errorf("existing snapshot: %w", err)
		}
	}

	log := logging.Root.Sublogger("nefaxer").WithDebug(opts.Verbose)

	if fileCfg, err := config.Load(root); err != nil {
		log.Warn(fmt.Errorf("load %s: %w", config.FileName, err))
	} else if fileCfg != nil {
		applyFileSettings(fileCfg.Settings, &opts)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, Diff{}, fmt.Errorf("resolve root: %w", err)
	}
	if err := rootguard.Check(absRoot, opts.AllowRootOwned); err != nil {
		return nil, Diff{}, err
	}

	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(absRoot, DefaultDBFileName)
	}
	exclude := append([]string{ProbeDirName, ResultsFileName}, opts.Exclude...)

	// Prefer a row count straight from the store over len(existing): the
	// caller may already hold a loaded snapshot, but when it doesn't this
	// avoids loading the whole index just to size the channel and thread
	// tuning.
	priorPathCount := len(existing)
	if store != nil {
		if n, err := store.CountPaths(); err == nil {
			priorPathCount = n
		}
	}

	numThreads, driveType, parallelWalk := opts.NumThreads, opts.DriveType, false
	if opts.UseParallelWalk != nil {
		parallelWalk = *opts.UseParallelWalk
	}
	if driveType == drive.Unknown || numThreads == 0 {
		var cache drive.Cache
		if store != nil {
			cache = store
		}
		tuning, err := governor.Tune(absRoot, runtime.NumCPU(), opts.NumThreads, priorPathCount, cache)
		if err != nil {
			return nil, Diff{}, fmt.Errorf("tune pipeline: %w", err)
		}
		numThreads = tuning.NumThreads
		driveType = tuning.DriveType
		if opts.UseParallelWalk == nil {
			parallelWalk = tuning.UseParallelWalk
		}
	}
	channelCap := driveType.ChannelCap()
	if priorPathCount > 0 {
		channelCap = drive.TunedChannelCap(driveType, priorPathCount)
	}

	existingIndex := toInternalIndex(existing)

	log.Printf("indexing %s (drive=%s threads=%d parallel=%v hash=%v)", absRoot, driveType, numThreads, parallelWalk, opts.WithHash)

	var cancelled func() bool
	if opts.Cancel != nil {
		cancelled = opts.Cancel.Cancelled
	}

	var pipelineStore pipeline.Store
	if opts.WriteToDB && store != nil {
		pipelineStore = store
	}

	result, err := pipeline.Run(ctx, pipeline.Params{
		Root:          absRoot,
		DBPath:        dbPath,
		TempPath:      dbPath + ".tmp",
		Exclude:       exclude,
		Strict:        opts.Strict,
		FollowLinks:   opts.FollowLinks,
		Parallel:      parallelWalk,
		NumWorkers:    numThreads,
		ChannelCap:    channelCap,
		WithHash:      opts.WithHash,
		Paranoid:      opts.Paranoid,
		ListPaths:     opts.ListPaths,
		WriteToDB:     opts.WriteToDB,
		MtimeWindowNs: opts.MtimeWindowNs,
		Existing:      existingIndex,
		Store:         pipelineStore,
		Cancelled:     cancelled,
		Callbacks:     callbacksFromObserver(opts.Observer),
		Log:           log,
	})
	if err != nil {
		return nil, Diff{}, err
	}

	return toPublicNefax(result.CurrentIndex), toPublicDiff(result.Diff), nil
}

func applyFileSettings(s config.Settings, opts *Opts) {
	if s.DBPath != nil && opts.DBPath == "" {
		opts.DBPath = *s.DBPath
	}
	if s.Hash != nil && !opts.WithHash {
		opts.WithHash = *s.Hash
	}
	if s.FollowLinks != nil && !opts.FollowLinks {
		opts.FollowLinks = *s.FollowLinks
	}
	if len(s.Exclude) > 0 {
		opts.Exclude = append(opts.Exclude, s.Exclude...)
	}
	if s.List != nil && !opts.ListPaths {
		opts.ListPaths = *s.List
	}
	if s.Verbose != nil && !opts.Verbose {
		opts.Verbose = *s.Verbose
	}
	if s.MtimeWindow != nil && opts.MtimeWindowNs == 0 {
		opts.MtimeWindowNs = *s.MtimeWindow * int64(1_000_000_000)
	}
	if s.Strict != nil && !opts.Strict {
		opts.Strict = *s.Strict
	}
	if s.Paranoid != nil && !opts.Paranoid {
		opts.Paranoid = *s.Paranoid
	}
	if s.Encrypt != nil && !opts.Encrypt {
		opts.Encrypt = *s.Encrypt
	}
}

func callbacksFromObserver(o Observer) pipeline.Callbacks {
	if o == nil {
		return pipeline.Callbacks{}
	}
	return pipeline.Callbacks{
		OnPathsFound:      o.OnPathsFound,
		OnEntriesReceived: o.OnEntriesReceived,
		OnBatchWritten:    o.OnBatchWritten,
		OnSkipped:         o.OnSkipped,
	}
}

func toInternalIndex(n Nefax) diffengine.Index {
	if n == nil {
		return diffengine.Index{}
	}
	idx := make(diffengine.Index, len(n))
	for path, meta := range n {
		idx[path] = diffengine.StoredMeta{MtimeNs: meta.MtimeNs, Size: meta.Size, Hash: meta.Hash}
	}
	return idx
}

func toPublicNefax(idx diffengine.Index) Nefax {
	n := make(Nefax, len(idx))
	for path, meta := range idx {
		n[path] = PathMeta{MtimeNs: meta.MtimeNs, Size: meta.Size, Hash: meta.Hash}
	}
	return n
}

func toPublicDiff(d diffengine.Diff) Diff {
	return Diff{Added: d.Added, Removed: d.Removed, Modified: d.Modified}
}

// EnsureParentDir creates the directory for dbPath if it does not already
// exist, mirroring the original's behavior of creating the index file's
// parent before opening it (relevant mainly when --db points outside
// the indexed root).
func EnsureParentDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory %s: %w", dir, err)
	}
	return nil
}
