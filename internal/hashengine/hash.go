// Package hashengine computes content digests for the indexer (spec §4.B).
// Files above a size threshold are hashed via memory-mapped I/O;
// smaller files are hashed through a buffered chunked read; files below a
// small-file floor are not hashed at all. Grounded on
// original_source/src/utils/config.rs's HashingConsts/SMALL_FILE_THRESHOLD
// and on mutagen's scan.go hashing loop for the Go idiom (reset-copy-sum a
// hash.Hash via io.CopyBuffer).
package hashengine

import (
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"lukechampine.com/blake3"
)

// Size thresholds, mirroring original_source's HashingConsts and
// SMALL_FILE_THRESHOLD.
const (
	SmallFileThreshold = 4 * 1024
	MmapThreshold      = 100 * 1024 * 1024
	readChunkSize      = 1024 * 1024
)

// DigestSize is the length in bytes of a Hash result.
const DigestSize = 32

// newHasher returns a fresh 256-bit BLAKE3 hasher.
func newHasher() hash.Hash {
	return blake3.New(DigestSize, nil)
}

// ShouldHash reports whether a file of the given size qualifies for
// hashing at all; files smaller than SmallFileThreshold are identified by
// mtime/size alone.
func ShouldHash(size uint64) bool {
	return size >= SmallFileThreshold
}

// Hash computes the content digest of the file at path, whose size is
// already known to the caller (from a prior Lstat/Stat call, to avoid a
// redundant syscall). It dispatches to mmap-based hashing above
// MmapThreshold and buffered chunked hashing otherwise.
func Hash(path string, size uint64) ([]byte, error) {
	if shouldMmap(size) {
		return hashMmap(path, size)
	}
	return hashBuffered(path)
}

// shouldMmap reports whether a file of the given size should be hashed via
// mmap rather than a buffered read. A file of exactly MmapThreshold bytes
// still takes the buffered path; only sizes strictly greater cross over.
func shouldMmap(size uint64) bool {
	return size > MmapThreshold
}

func hashBuffered(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()

	hasher := newHasher()
	buf := make([]byte, readChunkSize)
	if _, err := io.CopyBuffer(hasher, f, buf); err != nil {
		return nil, fmt.Errorf("hash file contents: %w", err)
	}
	return hasher.Sum(nil), nil
}

func hashMmap(path string, size uint64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()

	if size == 0 {
		return newHasher().Sum(nil), nil
	}

	region, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		// Some filesystems (certain network mounts) reject mmap; fall back
		// to the buffered path rather than failing the whole walk.
		return hashBuffered(path)
	}
	defer region.Unmap()

	hasher := newHasher()
	if _, err := hasher.Write(region); err != nil {
		return nil, fmt.Errorf("hash mapped file contents: %w", err)
	}
	return hasher.Sum(nil), nil
}

// Equal reports whether two digests are byte-identical. Both must be nil
// or DigestSize bytes; any other length is treated as unequal.
func Equal(a, b []byte) bool {
	if len(a) != DigestSize || len(b) != DigestSize {
		return len(a) == 0 && len(b) == 0
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
