// Package rootguard refuses to index a root-owned directory tree unless
// the caller explicitly acknowledges the risk (spec §4.I step 1). Grounded
// on original_source/src/engine/tools.rs's check_for_root /
// running_as_root, split into a unix implementation (stat the root, check
// st_uid) and a no-op for other platforms, matching internal/fdlimit's
// build-tag layout.
package rootguard

import "fmt"

// Check canonicalizes nothing itself (the caller is expected to have
// already resolved symlinks); it stats path and, on Unix, refuses to
// proceed when the owning UID is 0 and allow is false.
func Check(path string, allow bool) error {
	if allow {
		return nil
	}
	owned, err := ownedByRoot(path)
	if err != nil {
		return fmt.Errorf("check root ownership of %s: %w", path, err)
	}
	if owned {
		return fmt.Errorf("refusing to index root-owned directory %s; pass AllowRootOwned to proceed", path)
	}
	return nil
}
