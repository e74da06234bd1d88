//go:build darwin

package drive

import "golang.org/x/sys/unix"

// classify uses statfs to read the filesystem type name directly, which
// catches SMB/NFS/AFP mounts. Distinguishing physical SSD from HDD on
// macOS requires IOKit registry queries that are out of scope here; as in
// original_source's macos.rs fallback, a local disk defaults to SSD.
func classify(path string) Type {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Unknown
	}
	fsType := int8SliceToString(stat.Fstypename[:])
	if isNetworkFS(fsType) {
		return Network
	}
	return SSD
}

// int8SliceToString converts a NUL-terminated [N]int8 C string field (as
// used by the Darwin statfs struct) into a Go string.
func int8SliceToString(b []int8) string {
	buf := make([]byte, 0, len(b))
	for _, c := range b {
		if c == 0 {
			break
		}
		buf = append(buf, byte(c))
	}
	return string(buf)
}
