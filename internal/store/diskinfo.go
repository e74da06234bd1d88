package store

import (
	"encoding/json"
	"fmt"

	"github.com/thicclatka/nefaxer/internal/drive"
)

// LoadDiskInfo implements drive.Cache: it reads a previously-saved probe
// result for rootPath, or returns (nil, nil) if none is stored.
func (db *DB) LoadDiskInfo(rootPath string) (*drive.Info, error) {
	var data string
	err := db.conn.QueryRow(selectDiskInfoSQL, rootPath).Scan(&data)
	if err != nil {
		return nil, nil
	}
	var info drive.Info
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, fmt.Errorf("parse cached disk info: %w", err)
	}
	return &info, nil
}

// SaveDiskInfo implements drive.Cache: it persists info as JSON keyed by
// rootPath, replacing any prior entry.
func (db *DB) SaveDiskInfo(rootPath string, info *drive.Info) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("serialize disk info: %w", err)
	}
	if _, err := db.conn.Exec(upsertDiskInfoSQL, rootPath, string(data)); err != nil {
		return fmt.Errorf("save disk info: %w", err)
	}
	return nil
}
