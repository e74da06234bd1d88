package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	f, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f != nil {
		t.Fatalf("Load on a directory with no config file should return (nil, nil), got %+v", f)
	}
}

func TestLoadParsesSettings(t *testing.T) {
	dir := t.TempDir()
	content := `
[settings]
db_path = "/var/nefaxer.db"
hash = true
follow_links = false
exclude = ["*.log", "node_modules"]
mtime_window = 2
strict = true
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	f, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f == nil {
		t.Fatal("Load should return a non-nil File when the config file exists")
	}
	if f.Settings.DBPath == nil || *f.Settings.DBPath != "/var/nefaxer.db" {
		t.Errorf("DBPath = %v, want /var/nefaxer.db", f.Settings.DBPath)
	}
	if f.Settings.Hash == nil || !*f.Settings.Hash {
		t.Errorf("Hash = %v, want true", f.Settings.Hash)
	}
	if f.Settings.FollowLinks == nil || *f.Settings.FollowLinks {
		t.Errorf("FollowLinks = %v, want false", f.Settings.FollowLinks)
	}
	if len(f.Settings.Exclude) != 2 || f.Settings.Exclude[0] != "*.log" {
		t.Errorf("Exclude = %v", f.Settings.Exclude)
	}
	if f.Settings.MtimeWindow == nil || *f.Settings.MtimeWindow != 2 {
		t.Errorf("MtimeWindow = %v, want 2", f.Settings.MtimeWindow)
	}
	if f.Settings.Strict == nil || !*f.Settings.Strict {
		t.Errorf("Strict = %v, want true", f.Settings.Strict)
	}
	if f.Settings.Verbose != nil {
		t.Errorf("Verbose unset in file should decode as nil, got %v", f.Settings.Verbose)
	}
}

func TestLoadMalformedFileErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("not = [valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("malformed config file should return an error, not be silently ignored")
	}
}
