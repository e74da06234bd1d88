package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/thicclatka/nefaxer/internal/diffengine"
)

type fakeStore struct {
	written []diffengine.ResultEntry
	removed []string
	checked bool
}

func (f *fakeStore) WriteBatch(entries []diffengine.ResultEntry) error {
	f.written = append(f.written, entries...)
	return nil
}

func (f *fakeStore) DeleteRemoved(removed []string) error {
	f.removed = append(f.removed, removed...)
	return nil
}

func (f *fakeStore) Checkpoint() error {
	f.checked = true
	return nil
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "c.txt"), []byte("c"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := &fakeStore{}
	var foundTotal int
	result, err := Run(context.Background(), Params{
		Root:       dir,
		NumWorkers: 2,
		ChannelCap: 16,
		ListPaths:  true,
		WriteToDB:  true,
		Store:      store,
		Callbacks: Callbacks{
			OnPathsFound: func(n int) { foundTotal += n },
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.CurrentIndex) != 4 { // a.txt, b.txt, sub, sub/c.txt
		t.Errorf("CurrentIndex has %d entries, want 4: %+v", len(result.CurrentIndex), result.CurrentIndex)
	}
	if len(result.Diff.Added) != 4 {
		t.Errorf("Diff.Added has %d entries, want 4", len(result.Diff.Added))
	}
	if foundTotal != 4 {
		t.Errorf("OnPathsFound totaled %d, want 4", foundTotal)
	}
	if len(store.written) != 4 {
		t.Errorf("store received %d writes, want 4", len(store.written))
	}
	if !store.checked {
		t.Error("Checkpoint should be called when WriteToDB is set")
	}
}

func TestRunWriteToDBWithoutStoreErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(context.Background(), Params{
		Root:       dir,
		NumWorkers: 1,
		ChannelCap: 4,
		WriteToDB:  true,
	})
	if err == nil {
		t.Fatal("Run with WriteToDB set and no Store should return an error")
	}
}

func TestRunDryRunDoesNotRequireStore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("f"), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := Run(context.Background(), Params{
		Root:       dir,
		NumWorkers: 1,
		ChannelCap: 4,
		WriteToDB:  false,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.CurrentIndex) != 1 {
		t.Errorf("CurrentIndex has %d entries, want 1", len(result.CurrentIndex))
	}
}
