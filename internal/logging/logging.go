// Package logging provides a minimal, nil-safe logger used throughout the
// pipeline. It is adapted from mutagen's pkg/logging: a Logger that still
// functions (as a no-op) when nil, so components can accept an optional
// logger without a nil-check at every call site.
package logging

import (
	"log"
	"os"
)

func init() {
	log.SetOutput(os.Stderr)
}
