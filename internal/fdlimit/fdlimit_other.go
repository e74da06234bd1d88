//go:build !unix

package fdlimit

// maxOpenFDs has no meaningful rlimit on non-Unix platforms (Windows has
// no practical per-process FD ceiling in the same sense).
func maxOpenFDs() (uint64, bool) {
	return 0, false
}
