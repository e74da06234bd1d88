//go:build unix

package rootguard

import (
	"os"
	"syscall"
)

func ownedByRoot(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false, nil
	}
	return stat.Uid == 0, nil
}
