package walk

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func buildTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := []string{"a.txt", "b.log", "sub/c.txt", "sub/.DS_Store", "sub/deep/d.txt"}
	for _, rel := range files {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(rel), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func drain(t *testing.T, opts Options) ([]string, int, error) {
	t.Helper()
	pathCh := make(chan string, 64)
	var got []string
	done := make(chan struct{})
	go func() {
		for p := range pathCh {
			rel, err := filepath.Rel(opts.Root, p)
			if err != nil {
				rel = p
			}
			got = append(got, filepath.ToSlash(rel))
		}
		close(done)
	}()
	count, err := Run(context.Background(), opts, pathCh, func(path, reason string) {})
	<-done
	sort.Strings(got)
	return got, count, err
}

func TestRunSerialWalksAndExcludes(t *testing.T) {
	dir := buildTree(t)
	got, count, err := drain(t, Options{Root: dir, Exclude: []string{"*.log"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"a.txt", "sub", "sub/c.txt", "sub/deep", "sub/deep/d.txt"}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
	if count != len(want) {
		t.Errorf("count = %d, want %d", count, len(want))
	}
}

func TestRunParallelWalksAndExcludes(t *testing.T) {
	dir := buildTree(t)
	got, _, err := drain(t, Options{Root: dir, Exclude: []string{"*.log"}, Parallel: true, NumWorkers: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"a.txt", "sub", "sub/c.txt", "sub/deep", "sub/deep/d.txt"}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRunStrictReturnsErrorOnMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	_, _, err := drain(t, Options{Root: missing, Strict: true})
	if err == nil {
		t.Fatal("strict walk against a nonexistent root should return an error")
	}
}

func TestRunNonStrictSkipsMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	_, count, err := drain(t, Options{Root: missing, Strict: false})
	if err != nil {
		t.Fatalf("non-strict walk should not return an error, got %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}
