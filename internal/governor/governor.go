// Package governor combines drive classification and file-descriptor
// budgeting into the pipeline's tuning decision: how many workers to run,
// which walker strategy to use, and how large the streaming channels
// should be (spec §4.D). Grounded on
// original_source/src/disk_detect/mod.rs's determine_threads_for_drive.
package governor

import (
	"github.com/thicclatka/nefaxer/internal/drive"
	"github.com/thicclatka/nefaxer/internal/fdlimit"
)

// Tuning is the resolved set of knobs the pipeline runs with.
type Tuning struct {
	NumThreads      int
	DriveType       drive.Type
	UseParallelWalk bool
	ChannelCap      int
}

// Tune inspects the drive backing path and returns a Tuning. threadOverride,
// when > 0, forces the thread count (still capped by the FD limit).
// priorPathCount, when > 0, refines the channel capacity using the path
// count observed on a previous run against the same root. cache is
// optional; when non-nil it is used to read/write a network probe result.
func Tune(path string, availableThreads, threadOverride, priorPathCount int, cache drive.Cache) (Tuning, error) {
	limits := drive.DefaultLimits()
	driveType := drive.Classify(path)

	numThreads, useParallelWalk, err := resolveThreads(path, driveType, availableThreads, limits, cache)
	if err != nil {
		return Tuning{}, err
	}
	if threadOverride > 0 {
		numThreads = threadOverride
	}
	numThreads = fdlimit.Apply(numThreads)

	return Tuning{
		NumThreads:      numThreads,
		DriveType:       driveType,
		UseParallelWalk: useParallelWalk,
		ChannelCap:      drive.TunedChannelCap(driveType, priorPathCount),
	}, nil
}

func resolveThreads(path string, driveType drive.Type, availableThreads int, limits drive.Limits, cache drive.Cache) (int, bool, error) {
	switch driveType {
	case drive.SSD:
		return availableThreads, true, nil
	case drive.HDD:
		return driveType.WorkerThreads(availableThreads, limits), false, nil
	case drive.Network:
		// A failed probe (read-only root, unreachable share) must not abort
		// the run: fall back to the plain available-thread count with no
		// parallel walk, same as the original's probe .unwrap_or.
		numThreads, useParallelWalk, err := drive.DetectOptimalWorkers(path, driveType, availableThreads, limits, cache)
		if err != nil {
			return availableThreads, false, nil
		}
		return numThreads, useParallelWalk, nil
	default:
		return driveType.WorkerThreads(availableThreads, limits), false, nil
	}
}
