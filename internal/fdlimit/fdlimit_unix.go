//go:build unix

package fdlimit

import "golang.org/x/sys/unix"

func maxOpenFDs() (uint64, bool) {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return 0, false
	}
	cur := uint64(rlimit.Cur)
	if cur == uint64(unix.RLIM_INFINITY) {
		return 0, false
	}
	return cur, true
}
