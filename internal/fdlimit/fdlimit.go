// Package fdlimit caps worker parallelism to the process's open-file
// descriptor budget, so a wide walk over a deep tree does not fail with
// EMFILE (spec §4.D). Grounded on original_source/src/utils/fd_limit.rs.
package fdlimit

// FDsPerWorker estimates the file descriptors one walk worker holds open
// at a time (directory handles, open files for hashing, etc.).
const FDsPerWorker = 10

// limitFraction is the portion of the soft RLIMIT_NOFILE budget to spend
// on workers, leaving headroom for the rest of the process (DB connection,
// stdio, etc.).
const limitFraction = 0.8

// MaxWorkers returns the suggested worker cap derived from the process's
// soft file-descriptor limit, or ok=false if no limit could be read (for
// example on platforms without rlimits).
func MaxWorkers() (workers int, ok bool) {
	limit, ok := maxOpenFDs()
	if !ok {
		return 0, false
	}
	usable := int(float64(limit) * limitFraction)
	if usable < FDsPerWorker {
		return 1, true
	}
	return usable / FDsPerWorker, true
}

// Apply caps requested to the FD-limit-derived worker maximum, if one is
// available; otherwise it returns requested unchanged.
func Apply(requested int) int {
	if requested < 1 {
		requested = 1
	}
	if max, ok := MaxWorkers(); ok && requested > max {
		return max
	}
	return requested
}
