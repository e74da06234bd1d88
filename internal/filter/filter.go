// Package filter implements path exclusion and normalization (spec §4.A):
// which filesystem entries a walk should keep, and how a kept path is turned
// into the relative, forward-slash string form persisted in the store.
package filter

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// osHiddenNames is the set of sentinel file names excluded regardless of
// exclude patterns, matching original_source/src/engine/tools.rs.
var osHiddenNames = map[string]bool{
	".DS_Store":    true,
	".AppleDouble": true,
	".LSOverride":  true,
	"Thumbs.db":    true,
	"ehthumbs.db":  true,
	"Desktop.ini":  true,
	"$RECYCLE.BIN": true,
	".directory":   true,
}

// IsOSHidden reports whether name (a base file name, not a full path) is an
// OS-specific sentinel that is always excluded: macOS metadata files and
// resource forks (._*), Windows thumbnail/recycle caches, Linux trash
// markers, and their ilk.
func IsOSHidden(name string) bool {
	if osHiddenNames[name] {
		return true
	}
	if strings.HasPrefix(name, "._") {
		return true
	}
	if strings.HasPrefix(name, ".Trash-") {
		return true
	}
	return false
}

// Include decides whether path should be walked into the index. root is the
// indexed root (always excluded). dbPath and tempPath are the canonicalized
// index file and its ".tmp" twin (both excluded so the indexer never
// indexes itself mid-run). patterns are glob exclude patterns, matched
// against both the base name and the full path string; a leading "!" is
// stripped (no negation semantics, per spec).
func Include(path, root, dbPath, tempPath string, patterns []string) bool {
	if path == root {
		return false
	}
	if dbPath != "" && path == dbPath {
		return false
	}
	if tempPath != "" && path == tempPath {
		return false
	}
	name := filepath.Base(path)
	if IsOSHidden(name) {
		return false
	}
	for _, raw := range patterns {
		pattern := strings.TrimPrefix(raw, "!")
		if ok, _ := doublestar.Match(pattern, name); ok {
			return false
		}
		if ok, _ := doublestar.Match(pattern, path); ok {
			return false
		}
	}
	return true
}

// ToRelativeSlash converts an absolute path beneath root into the
// persisted, DB-portable form: relative to root, using forward slashes
// regardless of host separator. It is the inverse of ParseRelativeSlash, and
// the composition of the two is a fixed point on already-normalized strings.
//
// Non-UTF-8 byte sequences in the path are not specially handled: Go's
// filepath.Rel and this function operate on the path as a sequence of bytes
// and never reject or replace invalid UTF-8. This is a deliberate policy
// choice — see the Open Questions entry in DESIGN.md.
func ToRelativeSlash(path, root string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// ParseRelativeSlash validates that a persisted path string is a relative,
// forward-slash path with no empty segments, and returns it unchanged
// (the persisted form is already canonical; this is a validation pass, not
// a transformation).
func ParseRelativeSlash(s string) (string, bool) {
	if s == "" || strings.HasPrefix(s, "/") || strings.Contains(s, "\\") {
		return "", false
	}
	return s, true
}
