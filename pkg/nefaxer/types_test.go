package nefaxer

import "testing"

func validHash() []byte {
	return make([]byte, 32)
}

func TestValidateAcceptsWellFormedSnapshot(t *testing.T) {
	n := Nefax{
		"a/b.txt": {MtimeNs: 1_000, Size: 10, Hash: validHash()},
		"c.txt":   {MtimeNs: 2_000, Size: 0, Hash: nil},
	}
	if err := Validate(n); err != nil {
		t.Fatalf("Validate rejected a well-formed snapshot: %v", err)
	}
}

func TestValidateRejectsEmptyPath(t *testing.T) {
	n := Nefax{"": {MtimeNs: 1, Size: 1}}
	if err := Validate(n); err == nil {
		t.Fatal("Validate should reject an empty path key")
	}
}

func TestValidateRejectsAbsolutePaths(t *testing.T) {
	for _, p := range []string{"/etc/passwd", `C:\Windows\System32`, `D:\data`} {
		n := Nefax{p: {MtimeNs: 1, Size: 1}}
		if err := Validate(n); err == nil {
			t.Errorf("Validate should reject absolute path %q", p)
		}
	}
}

func TestValidateRejectsBackslashPaths(t *testing.T) {
	n := Nefax{`sub\file.txt`: {MtimeNs: 1, Size: 1}}
	if err := Validate(n); err == nil {
		t.Fatal("Validate should reject backslash-separated paths")
	}
}

func TestValidateRejectsOutOfRangeMtime(t *testing.T) {
	n := Nefax{"f.txt": {MtimeNs: mtimeNsMax + 1, Size: 1}}
	if err := Validate(n); err == nil {
		t.Fatal("Validate should reject an mtime_ns above the plausible maximum")
	}
	n = Nefax{"f.txt": {MtimeNs: mtimeNsMin - 1, Size: 1}}
	if err := Validate(n); err == nil {
		t.Fatal("Validate should reject an mtime_ns below the plausible minimum")
	}
}

func TestValidateRejectsOversizedFile(t *testing.T) {
	n := Nefax{"f.txt": {MtimeNs: 1, Size: sizeMax + 1}}
	if err := Validate(n); err == nil {
		t.Fatal("Validate should reject a size above the plausible maximum")
	}
}

func TestValidateRejectsMalformedHash(t *testing.T) {
	n := Nefax{"f.txt": {MtimeNs: 1, Size: 1, Hash: []byte{1, 2, 3}}}
	if err := Validate(n); err == nil {
		t.Fatal("Validate should reject a hash that isn't exactly 32 bytes")
	}
}
