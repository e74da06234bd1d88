package filter

import "testing"

func TestIsOSHidden(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".DS_Store", true},
		{"Thumbs.db", true},
		{"._resourcefork", true},
		{".Trash-1000", true},
		{"regular.txt", false},
		{".gitignore", false},
	}
	for _, tt := range tests {
		if got := IsOSHidden(tt.name); got != tt.want {
			t.Errorf("IsOSHidden(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestInclude(t *testing.T) {
	root := "/data/root"
	dbPath := "/data/root/.nefaxer"
	tempPath := dbPath + ".tmp"

	if Include(root, root, dbPath, tempPath, nil) {
		t.Error("root itself must be excluded")
	}
	if Include(dbPath, root, dbPath, tempPath, nil) {
		t.Error("the index file must be excluded")
	}
	if Include(tempPath, root, dbPath, tempPath, nil) {
		t.Error("the temp index file must be excluded")
	}
	if Include(root+"/.DS_Store", root, dbPath, tempPath, nil) {
		t.Error("OS-hidden names must be excluded regardless of patterns")
	}
	if Include(root+"/build/output.o", root, dbPath, tempPath, []string{"*.o"}) {
		t.Error("glob pattern should match the base name")
	}
	if !Include(root+"/src/main.go", root, dbPath, tempPath, []string{"*.o"}) {
		t.Error("non-matching path should be included")
	}
}

func TestIncludeNegationPrefixStripped(t *testing.T) {
	root := "/data/root"
	// A leading "!" is stripped, not treated as negation: "!*.log" still
	// excludes *.log paths rather than re-including them.
	if Include(root+"/debug.log", root, "", "", []string{"!*.log"}) {
		t.Error("leading ! should be stripped, not interpreted as negation")
	}
}

func TestToRelativeSlashRoundTrip(t *testing.T) {
	root := "/data/root"
	path := "/data/root/sub/file.txt"
	rel, err := ToRelativeSlash(path, root)
	if err != nil {
		t.Fatalf("ToRelativeSlash: %v", err)
	}
	if rel != "sub/file.txt" {
		t.Fatalf("got %q, want sub/file.txt", rel)
	}
	parsed, ok := ParseRelativeSlash(rel)
	if !ok || parsed != rel {
		t.Fatalf("ParseRelativeSlash(%q) = (%q, %v)", rel, parsed, ok)
	}
}

func TestParseRelativeSlashRejects(t *testing.T) {
	for _, s := range []string{"", "/abs/path", `win\path`} {
		if _, ok := ParseRelativeSlash(s); ok {
			t.Errorf("ParseRelativeSlash(%q) should be rejected", s)
		}
	}
}
