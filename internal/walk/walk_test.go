package walk

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/ignore"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data := make([]byte, size)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func collect(t *testing.T, w *Walker) []string {
	t.Helper()
	var got []string
	for r := range w.Walk(nil) {
		got = append(got, r.Rel)
	}
	sort.Strings(got)
	return got
}

func TestWalkPrunesIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), 10)
	writeFile(t, filepath.Join(root, "vendor", "pkg", "lib.go"), 10)
	writeFile(t, filepath.Join(root, "src", "util.go"), 10)

	m := ignore.New(root)
	w := New(root, m)

	got := collect(t, w)
	want := []string{"main.go", "src/util.go"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	pruned := w.PrunedDirs()
	if len(pruned) != 1 || pruned[0] != "vendor" {
		t.Fatalf("prunedDirs = %v, want [vendor]", pruned)
	}
}

func TestWalkFiltersByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), 10)
	writeFile(t, filepath.Join(root, "b.py"), 10)
	writeFile(t, filepath.Join(root, "c.txt"), 10)

	m := ignore.New(root)
	w := New(root, m, WithExtensions([]string{".go", ".py"}))

	got := collect(t, w)
	if len(got) != 2 || got[0] != "a.go" || got[1] != "b.py" {
		t.Fatalf("got %v", got)
	}
}

func TestWalkEnforcesSizeCeiling(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "small.go"), 10)
	writeFile(t, filepath.Join(root, "big.go"), 2048)

	m := ignore.New(root)
	w := New(root, m, WithMaxFileSize(1024))

	got := collect(t, w)
	if len(got) != 1 || got[0] != "small.go" {
		t.Fatalf("got %v, want [small.go]", got)
	}
}

func TestWalkRespectsWhitelist(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "generated", "other", "x.go"), 10)
	writeFile(t, filepath.Join(root, "generated", "keep", "y.go"), 10)

	m := ignore.New(root)
	m.AddPattern("generated/other/**", false)
	m.AddPattern("generated/keep/**", true)

	w := New(root, m)
	got := collect(t, w)
	if len(got) != 1 || got[0] != "generated/keep/y.go" {
		t.Fatalf("got %v, want [generated/keep/y.go]", got)
	}
}
