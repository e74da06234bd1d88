//go:build windows

package drive

import (
	"strings"

	"github.com/yusufpapurcu/wmi"
)

// win32LogicalDisk mirrors the Win32_LogicalDisk WMI class fields we need.
// DriveType 4 is "Network Drive" per the WMI schema.
type win32LogicalDisk struct {
	DeviceID  string
	DriveType uint32
}

// msftPhysicalDisk mirrors MSFT_PhysicalDisk (root\Microsoft\Windows\Storage
// namespace). MediaType 3 is HDD, 4 is SSD, 0 is unspecified.
type msftPhysicalDisk struct {
	MediaType uint16
}

const (
	wmiDriveTypeNetwork = 4
	wmiMediaTypeHDD     = 3
	wmiMediaTypeSSD     = 4
)

func classify(path string) Type {
	letter := driveLetter(path)
	if letter == "" {
		return Unknown
	}

	var disks []win32LogicalDisk
	query := "SELECT DeviceID, DriveType FROM Win32_LogicalDisk WHERE DeviceID = '" + letter + "'"
	if err := wmi.Query(query, &disks); err != nil || len(disks) == 0 {
		return Unknown
	}
	if disks[0].DriveType == wmiDriveTypeNetwork {
		return Network
	}

	var physical []msftPhysicalDisk
	if err := wmi.QueryNamespace("SELECT MediaType FROM MSFT_PhysicalDisk", &physical, `root\Microsoft\Windows\Storage`); err != nil || len(physical) == 0 {
		return Unknown
	}
	switch physical[0].MediaType {
	case wmiMediaTypeHDD:
		return HDD
	case wmiMediaTypeSSD:
		return SSD
	default:
		return Unknown
	}
}

// driveLetter extracts the "C:" prefix from an absolute Windows path, or
// "" if path is a UNC path or otherwise not drive-letter rooted.
func driveLetter(path string) string {
	if len(path) < 2 || path[1] != ':' {
		return ""
	}
	c := path[0]
	if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
		return ""
	}
	return strings.ToUpper(path[:2])
}
