package cache

import (
	"path/filepath"
	"testing"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifacts.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutThenGetRoundTrips(t *testing.T) {
	s := openTestStore(t)

	entry := Entry{
		Nodes: []*graph.Node{
			{ID: "a.go:main:1", Name: "main", Kind: graph.KindFunction, Language: "go", Complexity: 3},
		},
		Relationships: []*graph.Relationship{
			{ID: "r1", SourceID: "a.go:main:1", TargetID: "a.go:helper:2", Kind: graph.RelCalls, Metadata: map[string]any{"callee_name": "helper", "call_line": 5}},
		},
	}

	hash := ContentHash([]byte("package main\n"))
	if err := s.Put("a.go", hash, "v1", entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get("a.go", hash, "v1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got.Nodes) != 1 || got.Nodes[0].Name != "main" {
		t.Fatalf("got.Nodes = %+v", got.Nodes)
	}
	if len(got.Relationships) != 1 || got.Relationships[0].Metadata["callee_name"] != "helper" {
		t.Fatalf("got.Relationships = %+v", got.Relationships)
	}
}

func TestGetMissReturnsFalse(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Get("missing.go", "deadbeef", "v1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected cache miss")
	}
}

func TestPutWithDifferentContentHashIsIndependentEntry(t *testing.T) {
	s := openTestStore(t)
	e1 := Entry{Nodes: []*graph.Node{{ID: "a.go:x:1", Name: "x"}}}
	e2 := Entry{Nodes: []*graph.Node{{ID: "a.go:y:1", Name: "y"}}}

	h1 := ContentHash([]byte("v1"))
	h2 := ContentHash([]byte("v2"))
	if err := s.Put("a.go", h1, "v1", e1); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put("a.go", h2, "v1", e2); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got1, ok, _ := s.Get("a.go", h1, "v1")
	if !ok || got1.Nodes[0].Name != "x" {
		t.Fatalf("got1 = %+v", got1)
	}
	got2, ok, _ := s.Get("a.go", h2, "v1")
	if !ok || got2.Nodes[0].Name != "y" {
		t.Fatalf("got2 = %+v", got2)
	}
}

func TestInvalidateRemovesAllHashesForFile(t *testing.T) {
	s := openTestStore(t)
	h1 := ContentHash([]byte("v1"))
	h2 := ContentHash([]byte("v2"))
	if err := s.Put("a.go", h1, "v1", Entry{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put("a.go", h2, "v1", Entry{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Invalidate("a.go"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := s.Get("a.go", h1, "v1"); ok {
		t.Fatal("expected h1 entry removed")
	}
	if _, ok, _ := s.Get("a.go", h2, "v1"); ok {
		t.Fatal("expected h2 entry removed")
	}
}
