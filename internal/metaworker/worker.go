// Package metaworker runs the fixed pool of goroutines that turn walked
// paths into metadata records (spec §4.F). Workers read mtime and size
// only; content hashing is deferred to the diff engine, which can reuse a
// stored hash instead of recomputing it when nothing has changed (see
// internal/diffengine). Grounded on
// original_source/src/pipeline/metadata.rs's metadata_worker_loop.
package metaworker

import (
	"os"
	"sync"

	"github.com/thicclatka/nefaxer/internal/filter"
)

// Entry is the metadata-only record a worker produces for one path.
type Entry struct {
	Path    string
	MtimeNs int64
	Size    uint64
	IsFile  bool
}

// Run starts numWorkers goroutines consuming pathCh and sending Entry
// values to entryCh, closing entryCh once every path has been processed
// and every worker has exited. root is used to convert each absolute path
// into the relative, forward-slash form entries are keyed by.
func Run(pathCh <-chan string, entryCh chan<- Entry, root string, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(pathCh, entryCh, root)
		}()
	}
	go func() {
		wg.Wait()
		close(entryCh)
	}()
}

func worker(pathCh <-chan string, entryCh chan<- Entry, root string) {
	for absPath := range pathCh {
		entry, ok := toEntry(absPath, root)
		if ok {
			entryCh <- entry
		}
	}
}

func toEntry(absPath, root string) (Entry, bool) {
	info, err := os.Stat(absPath)
	if err != nil {
		return Entry{}, false
	}
	rel, err := filter.ToRelativeSlash(absPath, root)
	if err != nil {
		rel = absPath
	}
	return Entry{
		Path:    rel,
		MtimeNs: info.ModTime().UnixNano(),
		Size:    uint64(info.Size()),
		IsFile:  info.Mode().IsRegular(),
	}, true
}
