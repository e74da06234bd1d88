package hashengine

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestShouldHash(t *testing.T) {
	if ShouldHash(SmallFileThreshold - 1) {
		t.Error("files below the small-file threshold should not be hashed")
	}
	if !ShouldHash(SmallFileThreshold) {
		t.Error("files at the small-file threshold should be hashed")
	}
}

func TestShouldMmapBoundary(t *testing.T) {
	if shouldMmap(MmapThreshold) {
		t.Error("a file of exactly MmapThreshold bytes should take the buffered path")
	}
	if !shouldMmap(MmapThreshold + 1) {
		t.Error("a file one byte over MmapThreshold should take the mmap path")
	}
}

func TestHashBufferedVsMmapAgree(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.bin")
	data := bytes.Repeat([]byte("nefaxer"), 1024)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	buffered, err := hashBuffered(path)
	if err != nil {
		t.Fatalf("hashBuffered: %v", err)
	}
	mapped, err := hashMmap(path, uint64(len(data)))
	if err != nil {
		t.Fatalf("hashMmap: %v", err)
	}
	if !Equal(buffered, mapped) {
		t.Fatal("buffered and mmap hashing paths disagree on the same content")
	}
	if len(buffered) != DigestSize {
		t.Fatalf("digest length = %d, want %d", len(buffered), DigestSize)
	}
}

func TestHashDiffersOnContentChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.bin")

	if err := os.WriteFile(path, []byte("version one"), 0o644); err != nil {
		t.Fatal(err)
	}
	h1, err := Hash(path, 11)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("version two"), 0o644); err != nil {
		t.Fatal(err)
	}
	h2, err := Hash(path, 11)
	if err != nil {
		t.Fatal(err)
	}

	if Equal(h1, h2) {
		t.Fatal("different content must not hash equal")
	}
}

func TestEqual(t *testing.T) {
	a := make([]byte, DigestSize)
	b := make([]byte, DigestSize)
	if !Equal(a, b) {
		t.Error("two all-zero digests should be equal")
	}
	b[0] = 1
	if Equal(a, b) {
		t.Error("differing digests should not be equal")
	}
	if !Equal(nil, nil) {
		t.Error("two nil digests should be treated as equal")
	}
	if Equal(a, []byte{1, 2, 3}) {
		t.Error("mismatched lengths should not be equal")
	}
}
