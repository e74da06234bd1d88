//go:build linux

package drive

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

type mountEntry struct {
	device     string
	mountPoint string
	fsType     string
}

func classify(path string) Type {
	mounts, err := readMounts()
	if err != nil {
		return Unknown
	}

	var best *mountEntry
	for i := range mounts {
		m := &mounts[i]
		if strings.HasPrefix(path, m.mountPoint) {
			if best == nil || len(m.mountPoint) > len(best.mountPoint) {
				best = m
			}
		}
	}
	if best == nil {
		return Unknown
	}

	if isNetworkFS(best.fsType) {
		return Network
	}

	if t, ok := rotationalForPath(path); ok {
		if t {
			return HDD
		}
		return SSD
	}
	return SSD
}

func readMounts() ([]mountEntry, error) {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []mountEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		entries = append(entries, mountEntry{
			device:     fields[0],
			mountPoint: fields[1],
			fsType:     fields[2],
		})
	}
	return entries, scanner.Err()
}

// rotationalForPath resolves the path's backing block device via its
// st_dev major:minor pair and reads /sys/block/<dev>/queue/rotational,
// returning (isRotational, true) on success.
func rotationalForPath(path string) (bool, bool) {
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		return false, false
	}
	major := unix.Major(uint64(stat.Dev))
	minor := unix.Minor(uint64(stat.Dev))

	link := fmt.Sprintf("/sys/dev/block/%d:%d", major, minor)
	target, err := os.Readlink(link)
	if err != nil {
		return false, false
	}
	devName := baseDeviceName(lastPathElement(target))

	data, err := os.ReadFile(fmt.Sprintf("/sys/block/%s/queue/rotational", devName))
	if err != nil {
		return false, false
	}
	return strings.TrimSpace(string(data)) == "1", true
}

func lastPathElement(p string) string {
	idx := strings.LastIndexByte(p, '/')
	if idx == -1 {
		return p
	}
	return p[idx+1:]
}

// baseDeviceName strips a partition suffix from a block device name:
// sda1 -> sda, nvme0n1p1 -> nvme0n1.
func baseDeviceName(dev string) string {
	if strings.HasPrefix(dev, "nvme") {
		if idx := strings.IndexByte(dev, 'p'); idx != -1 {
			if _, err := strconv.Atoi(dev[idx+1:]); err == nil {
				return dev[:idx]
			}
		}
		return dev
	}
	end := len(dev)
	for end > 0 && dev[end-1] >= '0' && dev[end-1] <= '9' {
		end--
	}
	return dev[:end]
}
