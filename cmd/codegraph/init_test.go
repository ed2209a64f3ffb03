package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAppendGitignoreCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")

	if err := appendGitignore(path); err != nil {
		t.Fatalf("appendGitignore: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != ".codegraph/cache/\n.codegraph/logs/\n" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestAppendGitignorePreservesExistingEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")
	if err := os.WriteFile(path, []byte("node_modules/"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := appendGitignore(path); err != nil {
		t.Fatalf("appendGitignore: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "node_modules/\n.codegraph/cache/\n.codegraph/logs/\n"
	if string(content) != want {
		t.Fatalf("got %q, want %q", content, want)
	}
}
