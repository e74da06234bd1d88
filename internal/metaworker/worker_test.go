package metaworker

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestRunProducesEntriesForEachPath(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	subdir := filepath.Join(dir, "sub")
	if err := os.Mkdir(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	paths = append(paths, subdir)

	pathCh := make(chan string, len(paths))
	for _, p := range paths {
		pathCh <- p
	}
	close(pathCh)

	entryCh := make(chan Entry, len(paths))
	Run(pathCh, entryCh, dir, 3)

	var got []Entry
	for e := range entryCh {
		got = append(got, e)
	}

	if len(got) != len(paths) {
		t.Fatalf("got %d entries, want %d", len(got), len(paths))
	}

	sort.Slice(got, func(i, j int) bool { return got[i].Path < got[j].Path })
	want := []string{"a.txt", "b.txt", "c.txt", "sub"}
	for i, w := range want {
		if got[i].Path != w {
			t.Errorf("entry %d path = %q, want %q", i, got[i].Path, w)
		}
	}

	for _, e := range got {
		if e.Path == "sub" {
			if e.IsFile {
				t.Error("directory entry should not be marked IsFile")
			}
		} else if !e.IsFile {
			t.Errorf("regular file entry %q should be marked IsFile", e.Path)
		}
	}
}

func TestRunSkipsUnstatableEntries(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "gone.txt")

	pathCh := make(chan string, 1)
	pathCh <- missing
	close(pathCh)

	entryCh := make(chan Entry, 1)
	Run(pathCh, entryCh, dir, 1)

	for range entryCh {
		t.Fatal("a path that fails to stat should not produce an entry")
	}
}

func TestRunDefaultsToOneWorker(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "only.txt")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	pathCh := make(chan string, 1)
	pathCh <- p
	close(pathCh)

	entryCh := make(chan Entry, 1)
	Run(pathCh, entryCh, dir, 0)

	count := 0
	for range entryCh {
		count++
	}
	if count != 1 {
		t.Fatalf("got %d entries, want 1", count)
	}
}
