package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAlwaysSkipDirectories(t *testing.T) {
	m := New(".")
	if !m.ShouldIgnore("vendor/pkg/file.go") {
		t.Fatal("vendor should always be ignored")
	}
	if !m.ShouldIgnore("src/node_modules/lib/index.js") {
		t.Fatal("node_modules should always be ignored, nested or not")
	}
}

func TestBareNamePatternMatchesAnyDepth(t *testing.T) {
	m := New(".")
	m.AddPattern("*.pyc", false)
	if !m.ShouldIgnore("a.pyc") || !m.ShouldIgnore("sub/dir/a.pyc") {
		t.Fatal("*.pyc should be ignored at any depth")
	}
	if m.ShouldIgnore("a.py") {
		t.Fatal("a.py should not be ignored")
	}
}

func TestWhitelistOverridesIgnore(t *testing.T) {
	m := New(".")
	m.AddPattern("generated/other/**", false)
	m.AddPattern("generated/keep/**", true)
	if !m.ShouldIgnore("generated/other/file.txt") {
		t.Fatal("generated/other/file.txt should be ignored")
	}
	if m.ShouldIgnore("generated/keep/file.txt") {
		t.Fatal("generated/keep/file.txt should be whitelisted")
	}
}

func TestLanguageAllowSet(t *testing.T) {
	m := New(".")
	if !m.ShouldAnalyzeLanguage("python") {
		t.Fatal("empty allow-set should accept any language")
	}
	m.AddLanguage("Go")
	if !m.ShouldAnalyzeLanguage("go") {
		t.Fatal("language check should be case-insensitive")
	}
	if m.ShouldAnalyzeLanguage("python") {
		t.Fatal("python should no longer be accepted once an allow-set exists")
	}
}

func TestLoadGraphignoreParsesDirectives(t *testing.T) {
	dir := t.TempDir()
	content := "# comment\n\nlanguage: Go\nlanguage: Python\n*.log\ngenerated/\n!generated/keep/\n"
	if err := os.WriteFile(filepath.Join(dir, ".graphignore"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadGraphignore(dir)
	if err != nil {
		t.Fatalf("LoadGraphignore: %v", err)
	}
	if !m.ShouldAnalyzeLanguage("go") || !m.ShouldAnalyzeLanguage("python") {
		t.Fatal("expected go and python in allow-set")
	}
	if m.ShouldAnalyzeLanguage("rust") {
		t.Fatal("rust should not be in allow-set")
	}
	if !m.ShouldIgnore("debug.log") {
		t.Fatal("*.log should be ignored")
	}
	if !m.ShouldIgnore("generated/out.bin") {
		t.Fatal("generated/ should be ignored")
	}
	if m.ShouldIgnore("generated/keep/out.bin") {
		t.Fatal("generated/keep/ should be whitelisted")
	}
}

func TestLoadGraphignoreMissingFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	m, err := LoadGraphignore(dir)
	if err != nil {
		t.Fatalf("missing .graphignore should not error: %v", err)
	}
	if m.ShouldIgnore("anything.go") {
		t.Fatal("no patterns means nothing is ignored")
	}
}
