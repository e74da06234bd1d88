package drive

import "strings"

// isNetworkFS reports whether fsType names a network filesystem, matching
// original_source/src/disk_detect/network.rs.
func isNetworkFS(fsType string) bool {
	fs := strings.ToLower(fsType)
	for _, needle := range []string{"nfs", "smb", "cifs", "smbfs", "afp", "afpfs", "webdav"} {
		if strings.Contains(fs, needle) {
			return true
		}
	}
	return false
}

// isNetworkMount reports whether mount looks like a UNC path.
func isNetworkMount(mount string) bool {
	return strings.HasPrefix(mount, `\\`) || strings.HasPrefix(mount, "//")
}
