package rootguard

import (
	"path/filepath"
	"testing"
)

func TestCheckAllowBypassesOwnershipCheck(t *testing.T) {
	// A nonexistent path would fail stat, but allow=true must short-circuit
	// before ever looking at ownership.
	if err := Check(filepath.Join(t.TempDir(), "does-not-exist"), true); err != nil {
		t.Fatalf("Check with allow=true should never error, got %v", err)
	}
}

func TestCheckUnreadablePathErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	if err := Check(missing, false); err == nil {
		t.Fatal("Check on a nonexistent path should return an error")
	}
}

func TestCheckOwnedDirectory(t *testing.T) {
	dir := t.TempDir()
	owned, err := ownedByRoot(dir)
	if err != nil {
		t.Fatalf("ownedByRoot: %v", err)
	}
	err = Check(dir, false)
	if owned && err == nil {
		t.Fatal("a root-owned directory should be refused when allow=false")
	}
	if !owned && err != nil {
		t.Fatalf("a non-root-owned directory should not be refused, got %v", err)
	}
}
