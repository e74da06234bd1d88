package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// TempPathFor returns the scratch path a run writes to before an atomic
// rename into place: dbPath with a ".tmp" suffix, in the same directory.
func TempPathFor(dbPath string) string {
	name := filepath.Base(dbPath)
	return filepath.Join(filepath.Dir(dbPath), name+".tmp")
}

// removeWALAndSHM deletes the "-wal" and "-shm" sidecar files SQLite
// leaves behind next to tempPath; both removals are best-effort.
func removeWALAndSHM(tempPath string) {
	os.Remove(tempPath + "-wal")
	os.Remove(tempPath + "-shm")
}

// PrepareWorkPath decides where a run should write: a temp file copied
// from the existing database (so the rename at the end is atomic), or the
// database path directly when the temp file cannot be created or copied
// (for example, a read-only index directory). Returns the path to open
// for writing and whether the caller should rename it into place when
// done.
func PrepareWorkPath(dbPath string) (workPath string, useTemp bool, err error) {
	tempPath := TempPathFor(dbPath)
	useTemp = true

	if _, statErr := os.Stat(tempPath); statErr == nil {
		removeWALAndSHM(tempPath)
		if rmErr := os.Remove(tempPath); rmErr != nil {
			if errors.Is(rmErr, fs.ErrPermission) {
				useTemp = false
			} else {
				return "", false, fmt.Errorf("remove stale temp index at %s: %w", tempPath, rmErr)
			}
		}
	}

	if useTemp {
		if _, statErr := os.Stat(dbPath); statErr == nil {
			if cpErr := copyFile(dbPath, tempPath); cpErr != nil {
				if errors.Is(cpErr, fs.ErrPermission) {
					useTemp = false
				} else {
					return "", false, fmt.Errorf("copy existing index to temp (%s -> %s): %w", dbPath, tempPath, cpErr)
				}
			}
		}
	}

	if useTemp {
		return tempPath, true, nil
	}
	return dbPath, false, nil
}

// RenameTempToFinal atomically replaces dbPath with tempPath and cleans
// up the WAL/SHM sidecars left at the old temp location.
func RenameTempToFinal(tempPath, dbPath string) error {
	if err := os.Rename(tempPath, dbPath); err != nil {
		return fmt.Errorf("atomic rename temp index to final path (%s -> %s): %w", tempPath, dbPath, err)
	}
	removeWALAndSHM(tempPath)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
